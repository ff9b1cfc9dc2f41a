// Package wizard drives the multi-step intake flow that produces a booking
// submission. It is a deterministic state machine over (current step, form
// data): the step list is recomputed from the selected assistance type on
// every change, never stored as mutable UI state.
package wizard

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"huntmate/backend/internal/models"
	"huntmate/backend/internal/services"
)

// Step tags one screen of the intake flow.
type Step string

const (
	StepCharacterDetails Step = "character-details"
	StepAssistanceInfo   Step = "assistance-info"
	StepSchedule         Step = "schedule"
	StepReview           Step = "review"
)

var characterIDPattern = regexp.MustCompile(`^\d+$`)

// StepsFor returns the ordered step list for the given assistance type. The
// schedule step is present only when the type allows scheduling. A nil type
// (nothing selected yet) yields the scheduleless list.
func StepsFor(assistanceType *models.AssistanceType) []Step {
	if assistanceType != nil && assistanceType.AllowSchedule {
		return []Step{StepCharacterDetails, StepAssistanceInfo, StepSchedule, StepReview}
	}
	return []Step{StepCharacterDetails, StepAssistanceInfo, StepReview}
}

// FormData is everything the user has entered so far.
type FormData struct {
	CharacterID     string
	ContactInfo     string
	AdditionalInfo  string
	PhotoURLs       []string
	Schedule        models.Schedule
	WillingToDonate string
}

// ValidateStep returns inline field errors for one step, empty when the step
// is passable. Navigation is allowed to attempt and fail; the caller renders
// the errors rather than disabling the control.
func ValidateStep(step Step, form FormData, assistanceType *models.AssistanceType) map[string]string {
	errs := map[string]string{}
	switch step {
	case StepCharacterDetails:
		if !characterIDPattern.MatchString(form.CharacterID) {
			errs["character_id"] = "character ID must be numeric"
		}
		if form.ContactInfo == "" {
			errs["contact_info"] = "contact info is required"
		}
		if assistanceType == nil {
			errs["assistance_type_id"] = "select an assistance type"
		}
	case StepAssistanceInfo:
		if form.AdditionalInfo == "" {
			errs["additional_info"] = "tell us what you need help with"
		}
	case StepSchedule:
		if len(form.Schedule.SelectedDays) == 0 {
			errs["selected_days"] = "select at least one day"
		}
		if form.Schedule.TimeRangePreset == models.PresetCustom &&
			form.Schedule.StartTime >= form.Schedule.EndTime {
			errs["start_time"] = "start time must be before end time"
		}
	case StepReview:
		// Always satisfiable: the donation preference defaults to "no".
	}
	return errs
}

// Guard is the courtesy duplicate pre-check run before submission. The server
// enforces the real invariant; this only saves the user a round trip.
type Guard interface {
	HasActiveDuplicate(ctx context.Context, characterID string, typeID primitive.ObjectID) bool
}

// Creator persists the assembled submission.
type Creator interface {
	Create(ctx context.Context, input services.CreateBookingInput) (*models.Booking, error)
}

// Session is one user's pass through the wizard.
type Session struct {
	form              FormData
	assistanceType    *models.AssistanceType
	current           int // index into StepsFor(assistanceType)
	donationConfirmed bool
}

// NewSession starts a fresh wizard at the first step with the donation
// preference defaulted to "no".
func NewSession() *Session {
	return &Session{form: FormData{WillingToDonate: "no"}}
}

// Form returns a copy of the current form data.
func (s *Session) Form() FormData { return s.form }

// SetForm replaces the form data, e.g. after an edit-flow load.
func (s *Session) SetForm(form FormData) {
	if form.WillingToDonate == "" {
		form.WillingToDonate = "no"
	}
	s.form = form
}

// AssistanceType returns the currently selected type, nil when none.
func (s *Session) AssistanceType() *models.AssistanceType { return s.assistanceType }

// SelectType changes the assistance-type selection. The step list is derived,
// so a selection change can make the schedule step appear or vanish; the
// current position is clamped into the new list.
func (s *Session) SelectType(assistanceType *models.AssistanceType) {
	s.assistanceType = assistanceType
	if max := len(StepsFor(assistanceType)) - 1; s.current > max {
		s.current = max
	}
}

// Steps returns the ordered step list for the current selection.
func (s *Session) Steps() []Step { return StepsFor(s.assistanceType) }

// Current returns the step the user is on.
func (s *Session) Current() Step { return s.Steps()[s.current] }

// Next validates the current step and advances past it. On validation
// failure it stays put and returns the field errors.
func (s *Session) Next() map[string]string {
	if errs := ValidateStep(s.Current(), s.form, s.assistanceType); len(errs) > 0 {
		return errs
	}
	if s.current < len(s.Steps())-1 {
		s.current++
	}
	return nil
}

// Back moves to the previous step without validation.
func (s *Session) Back() {
	if s.current > 0 {
		s.current--
	}
}

// ApplyTemplate prefills the form from a quick-start template. The template
// is referenced, never owned: only its content is copied in.
func (s *Session) ApplyTemplate(tpl *models.AssistanceTemplate, assistanceType *models.AssistanceType) {
	s.form.AdditionalInfo = tpl.AdditionalInfo
	s.SelectType(assistanceType)
}

// SetCharacterDetails records the identity step's inputs.
func (s *Session) SetCharacterDetails(characterID, contactInfo string) {
	s.form.CharacterID = characterID
	s.form.ContactInfo = contactInfo
}

// SetAdditionalInfo records the free-text description.
func (s *Session) SetAdditionalInfo(info string) { s.form.AdditionalInfo = info }

// SetSchedule records the schedule step's inputs.
func (s *Session) SetSchedule(sched models.Schedule) { s.form.Schedule = sched }

// SetDonationPreference records the "yes"/"no" choice on the review step.
func (s *Session) SetDonationPreference(pref string) { s.form.WillingToDonate = pref }

// Assemble builds the create payload. When scheduling is disabled for the
// selected type, fixed defaults replace whatever schedule input lingers so
// the payload shape is uniform regardless of path.
func (s *Session) Assemble() services.CreateBookingInput {
	input := services.CreateBookingInput{
		CharacterID:     s.form.CharacterID,
		ContactInfo:     s.form.ContactInfo,
		AdditionalInfo:  s.form.AdditionalInfo,
		PhotoURLs:       s.form.PhotoURLs,
		Schedule:        s.form.Schedule,
		WillingToDonate: s.form.WillingToDonate,
	}
	if s.assistanceType != nil {
		input.AssistanceTypeID = s.assistanceType.ID
		if !s.assistanceType.AllowSchedule {
			input.Schedule = models.DefaultSchedule()
		}
	}
	if input.WillingToDonate == "" {
		input.WillingToDonate = "no"
	}
	return input
}

// Outcome is the result of a submission attempt.
type Outcome struct {
	// NeedsDonationConfirm is set when willingToDonate is "no" and the
	// soft upsell dialog has not been answered. Nothing was submitted.
	NeedsDonationConfirm bool
	// IsDuplicate is set when the courtesy pre-check found an active
	// booking for the same character and type. Nothing was submitted.
	IsDuplicate bool
	// Booking is the created record on success.
	Booking *models.Booking
}

// Submit runs the full submission pipeline: courtesy duplicate check,
// donation confirmation gate, then create. The gate fires at most once per
// session.
func (s *Session) Submit(ctx context.Context, guard Guard, creator Creator) (*Outcome, error) {
	input := s.Assemble()

	if guard != nil && guard.HasActiveDuplicate(ctx, input.CharacterID, input.AssistanceTypeID) {
		return &Outcome{IsDuplicate: true}, nil
	}

	if input.WillingToDonate == "no" && !s.donationConfirmed {
		return &Outcome{NeedsDonationConfirm: true}, nil
	}

	booking, err := creator.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	return &Outcome{Booking: booking}, nil
}

// ConfirmDonation answers the soft upsell dialog. Accepting ("yes, I really
// don't want to donate") arms the session so the next Submit goes through.
// Declining flips the preference to "yes" and returns control to the user
// without submitting.
func (s *Session) ConfirmDonation(keepNo bool) {
	if keepNo {
		s.donationConfirmed = true
		return
	}
	s.form.WillingToDonate = "yes"
}
