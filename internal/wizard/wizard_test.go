package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"huntmate/backend/internal/models"
	"huntmate/backend/internal/services"
)

func schedulableType() *models.AssistanceType {
	return &models.AssistanceType{
		ID:            primitive.NewObjectID(),
		Name:          "Boss Hunt",
		IsActive:      true,
		AllowSchedule: true,
	}
}

func asyncType() *models.AssistanceType {
	return &models.AssistanceType{
		ID:       primitive.NewObjectID(),
		Name:     "Gear Advice",
		IsActive: true,
	}
}

type stubGuard struct{ duplicate bool }

func (g stubGuard) HasActiveDuplicate(context.Context, string, primitive.ObjectID) bool {
	return g.duplicate
}

type stubCreator struct {
	input services.CreateBookingInput
	calls int
	err   error
}

func (c *stubCreator) Create(_ context.Context, input services.CreateBookingInput) (*models.Booking, error) {
	c.calls++
	c.input = input
	if c.err != nil {
		return nil, c.err
	}
	return &models.Booking{
		ID:              primitive.NewObjectID(),
		RequestNumber:   "REQ-1001-123456789",
		CharacterID:     input.CharacterID,
		Schedule:        input.Schedule,
		WillingToDonate: input.WillingToDonate,
		Status:          models.StatusPending,
	}, nil
}

func TestStepsFor_ConditionalScheduleStep(t *testing.T) {
	assert.Equal(t,
		[]Step{StepCharacterDetails, StepAssistanceInfo, StepSchedule, StepReview},
		StepsFor(schedulableType()))
	assert.Equal(t,
		[]Step{StepCharacterDetails, StepAssistanceInfo, StepReview},
		StepsFor(asyncType()))
	assert.Equal(t,
		[]Step{StepCharacterDetails, StepAssistanceInfo, StepReview},
		StepsFor(nil))
}

func TestSession_NavigationValidationGate(t *testing.T) {
	s := NewSession()
	assert.Equal(t, StepCharacterDetails, s.Current())

	// Forward navigation is blocked with inline errors, not silently.
	errs := s.Next()
	require.NotEmpty(t, errs)
	assert.Contains(t, errs, "character_id")
	assert.Contains(t, errs, "contact_info")
	assert.Contains(t, errs, "assistance_type_id")
	assert.Equal(t, StepCharacterDetails, s.Current())

	s.SetCharacterDetails("1001", "Discord: hunter#1234")
	s.SelectType(schedulableType())
	require.Empty(t, s.Next())
	assert.Equal(t, StepAssistanceInfo, s.Current())

	errs = s.Next()
	assert.Contains(t, errs, "additional_info")

	s.SetAdditionalInfo("Weekend boss rotation.")
	require.Empty(t, s.Next())
	assert.Equal(t, StepSchedule, s.Current())

	// Schedule step requires at least one day, and custom ranges must be
	// ordered.
	errs = s.Next()
	assert.Contains(t, errs, "selected_days")
	s.SetSchedule(models.Schedule{
		SelectedDays:    []string{"saturday"},
		TimeRangePreset: models.PresetCustom,
		StartTime:       "22:00",
		EndTime:         "20:00",
		Slots:           1,
	})
	errs = s.Next()
	assert.Contains(t, errs, "start_time")

	s.SetSchedule(models.Schedule{
		SelectedDays:    []string{"saturday"},
		TimeRangePreset: models.PresetCustom,
		StartTime:       "18:00",
		EndTime:         "20:00",
		Slots:           1,
	})
	require.Empty(t, s.Next())
	assert.Equal(t, StepReview, s.Current())

	// Back never validates.
	s.Back()
	assert.Equal(t, StepSchedule, s.Current())
}

func TestSession_TypeChangeRecomputesSteps(t *testing.T) {
	s := NewSession()
	s.SetCharacterDetails("1001", "mail")
	s.SelectType(schedulableType())
	s.SetAdditionalInfo("info")
	require.Empty(t, s.Next())
	require.Empty(t, s.Next())
	assert.Equal(t, StepSchedule, s.Current())

	// Switching to a type without scheduling removes the schedule step and
	// clamps the position into the shorter list.
	s.SelectType(asyncType())
	assert.Equal(t, []Step{StepCharacterDetails, StepAssistanceInfo, StepReview}, s.Steps())
	assert.Equal(t, StepReview, s.Current())
}

func TestSession_AssembleSubstitutesScheduleDefaults(t *testing.T) {
	s := NewSession()
	s.SetCharacterDetails("1001", "mail")
	s.SelectType(asyncType())
	// Leftover schedule input from before the type switch.
	s.SetSchedule(models.Schedule{SelectedDays: []string{"monday", "tuesday"}, Slots: 4})
	s.SetAdditionalInfo("info")

	input := s.Assemble()
	assert.Equal(t, models.DefaultSchedule(), input.Schedule)
	assert.Equal(t, "no", input.WillingToDonate)

	// With scheduling allowed the user's input passes through.
	s.SelectType(schedulableType())
	sched := models.Schedule{SelectedDays: []string{"friday"}, TimeRangePreset: models.PresetLate, Slots: 2}
	s.SetSchedule(sched)
	input = s.Assemble()
	assert.Equal(t, sched, input.Schedule)
}

func TestSession_DonationConfirmationGate(t *testing.T) {
	s := NewSession()
	s.SetCharacterDetails("1001", "mail")
	s.SelectType(asyncType())
	s.SetAdditionalInfo("info")

	creator := &stubCreator{}
	ctx := context.Background()

	// "no" interposes the confirmation dialog; nothing is submitted yet.
	outcome, err := s.Submit(ctx, stubGuard{}, creator)
	require.NoError(t, err)
	assert.True(t, outcome.NeedsDonationConfirm)
	assert.Zero(t, creator.calls)

	// Accepting the dialog re-triggers submission with "no" intact.
	s.ConfirmDonation(true)
	outcome, err = s.Submit(ctx, stubGuard{}, creator)
	require.NoError(t, err)
	require.NotNil(t, outcome.Booking)
	assert.Equal(t, 1, creator.calls)
	assert.Equal(t, "no", creator.input.WillingToDonate)
}

func TestSession_DonationDeclineFlipsToYes(t *testing.T) {
	s := NewSession()
	s.SetCharacterDetails("1001", "mail")
	s.SelectType(asyncType())
	s.SetAdditionalInfo("info")

	creator := &stubCreator{}
	ctx := context.Background()

	outcome, err := s.Submit(ctx, stubGuard{}, creator)
	require.NoError(t, err)
	require.True(t, outcome.NeedsDonationConfirm)

	// Declining flips the preference and hands control back; the user must
	// submit again.
	s.ConfirmDonation(false)
	assert.Equal(t, "yes", s.Form().WillingToDonate)
	assert.Zero(t, creator.calls)

	outcome, err = s.Submit(ctx, stubGuard{}, creator)
	require.NoError(t, err)
	require.NotNil(t, outcome.Booking)
	assert.Equal(t, "yes", creator.input.WillingToDonate)
}

func TestSession_CourtesyDuplicateCheck(t *testing.T) {
	s := NewSession()
	s.SetCharacterDetails("1001", "mail")
	s.SelectType(asyncType())
	s.SetAdditionalInfo("info")
	s.ConfirmDonation(true)

	creator := &stubCreator{}
	outcome, err := s.Submit(context.Background(), stubGuard{duplicate: true}, creator)
	require.NoError(t, err)
	assert.True(t, outcome.IsDuplicate)
	assert.Zero(t, creator.calls)
}

func TestSession_SubmitPropagatesCreateError(t *testing.T) {
	s := NewSession()
	s.SetCharacterDetails("1001", "mail")
	s.SelectType(asyncType())
	s.SetAdditionalInfo("info")
	s.SetDonationPreference("yes")

	wantErr := errors.New("storage down")
	creator := &stubCreator{err: wantErr}
	_, err := s.Submit(context.Background(), stubGuard{}, creator)
	assert.ErrorIs(t, err, wantErr)
}

func TestSession_ApplyTemplate(t *testing.T) {
	s := NewSession()
	at := schedulableType()
	tpl := &models.AssistanceTemplate{
		Title:            "Weekend raid",
		AssistanceTypeID: at.ID,
		AdditionalInfo:   "Meet at the guild hall.",
	}
	s.ApplyTemplate(tpl, at)
	assert.Equal(t, "Meet at the guild hall.", s.Form().AdditionalInfo)
	assert.Len(t, s.Steps(), 4)
}

func TestRecentRequests_BoundedNewestFirst(t *testing.T) {
	cache := NewRecentRequests(3)
	var bookings []*models.Booking
	for i := 0; i < 4; i++ {
		b := &models.Booking{
			ID:            primitive.NewObjectID(),
			RequestNumber: "REQ-1-000000000",
			Status:        models.StatusPending,
		}
		bookings = append(bookings, b)
		cache.Add(b)
	}

	entries := cache.List()
	require.Len(t, entries, 3)
	assert.Equal(t, bookings[3].ID.Hex(), entries[0].ID)
	assert.Equal(t, bookings[1].ID.Hex(), entries[2].ID)

	// Re-adding an existing booking refreshes it to the front without
	// duplicating.
	bookings[1].Status = models.StatusConfirmed
	cache.Add(bookings[1])
	entries = cache.List()
	require.Len(t, entries, 3)
	assert.Equal(t, bookings[1].ID.Hex(), entries[0].ID)
	assert.Equal(t, string(models.StatusConfirmed), entries[0].Status)

	cache.Remove(bookings[1].ID.Hex())
	assert.Len(t, cache.List(), 2)
}
