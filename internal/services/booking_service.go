package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"huntmate/backend/internal/config"
	"huntmate/backend/internal/db"
	"huntmate/backend/internal/models"
)

// IBookingService defines the interface for assistance-request operations.
type IBookingService interface {
	Create(ctx context.Context, input CreateBookingInput) (*models.Booking, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	FindByRequestNumber(ctx context.Context, requestNumber string) (*models.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]models.Booking, error)
	Update(ctx context.Context, id primitive.ObjectID, updates BookingUpdate) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, next models.BookingStatus) error
	Cancel(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	BulkUpdateStatus(ctx context.Context, ids []string, next models.BookingStatus) (int64, error)
	BulkDelete(ctx context.Context, ids []string) (int64, error)
	HasActiveDuplicate(ctx context.Context, characterID string, typeID primitive.ObjectID) bool
	EnsureIndexes(ctx context.Context) error
}

const bookingsCollection = "bookings"

var (
	characterIDPattern = regexp.MustCompile(`^\d+$`)
	clockTimePattern   = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// CreateBookingInput carries the assembled wizard submission.
type CreateBookingInput struct {
	CharacterID      string             `json:"character_id"`
	ContactInfo      string             `json:"contact_info"`
	AssistanceTypeID primitive.ObjectID `json:"assistance_type_id"`
	AdditionalInfo   string             `json:"additional_info"`
	PhotoURLs        []string           `json:"photo_urls"`
	Schedule         models.Schedule    `json:"schedule"`
	WillingToDonate  string             `json:"willing_to_donate"`
}

// BookingUpdate carries a requester edit. Nil pointers mean "leave as is".
// Identity fields (character, contact) and status are not representable here:
// status only moves through the dedicated transition operations.
type BookingUpdate struct {
	AdditionalInfo  *string          `json:"additional_info,omitempty"`
	PhotoURLs       *[]string        `json:"photo_urls,omitempty"`
	Schedule        *models.Schedule `json:"schedule,omitempty"`
	WillingToDonate *string          `json:"willing_to_donate,omitempty"`
}

// BookingFilter narrows staff list queries.
type BookingFilter struct {
	Status      models.BookingStatus
	CharacterID string
	Limit       int
}

// bookingService implements IBookingService.
type bookingService struct {
	db      *mongo.Database
	cfg     *config.Config
	catalog ICatalogService
}

// NewBookingService creates a new BookingService. The catalog service is used
// to snapshot the assistance-type name and check capability flags at creation
// time.
func NewBookingService(database *mongo.Database, cfg *config.Config, catalog ICatalogService) IBookingService {
	return &bookingService{db: database, cfg: cfg, catalog: catalog}
}

// GenerateRequestNumber builds the human-shareable token
// REQ-<characterId>-<last 6 digits of epoch millis><3-digit random>.
// It is best-effort shareable, not a primary key, and not guaranteed unique.
func GenerateRequestNumber(characterID string) string {
	millis := time.Now().UnixMilli() % 1000000
	return fmt.Sprintf("REQ-%s-%06d%03d", characterID, millis, rand.Intn(1000))
}

// EnsureIndexes creates the partial unique index that backs the duplicate
// guard: at most one non-cancelled booking per (character, assistance type).
// The guard check itself stays advisory; this index closes the race window.
func (s *bookingService) EnsureIndexes(ctx context.Context) error {
	collection := s.db.Collection(bookingsCollection)
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "character_id", Value: 1}, {Key: "assistance_type_id", Value: 1}},
			Options: options.Index().
				SetName("active_character_type").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"status": bson.M{"$in": bson.A{
						string(models.StatusPending),
						string(models.StatusConfirmed),
						string(models.StatusCompleted),
					}},
				}),
		},
		{
			Keys:    bson.D{{Key: "request_number", Value: 1}},
			Options: options.Index().SetName("request_number"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}

// HasActiveDuplicate reports whether any non-cancelled booking exists for the
// character/type pair. The check is advisory and fails open: a storage error
// is logged and treated as "no duplicate" so legitimate requests are never
// blocked by an outage. The unique index catches the rare race at insert.
func (s *bookingService) HasActiveDuplicate(ctx context.Context, characterID string, typeID primitive.ObjectID) bool {
	filter := bson.M{
		"character_id":       characterID,
		"assistance_type_id": typeID,
		"status":             bson.M{"$ne": string(models.StatusCancelled)},
	}
	count, err := s.db.Collection(bookingsCollection).CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		log.Printf("WARNING: duplicate check failed for character %s, type %s: %v (failing open)", characterID, typeID.Hex(), err)
		return false
	}
	return count > 0
}

// validateCreate checks every field before any storage write. The assistance
// type must already have been resolved by the caller.
func validateCreate(input CreateBookingInput, assistanceType *models.AssistanceType, maxPhotos int) error {
	fields := map[string]string{}
	if !characterIDPattern.MatchString(input.CharacterID) {
		fields["character_id"] = "character ID must be numeric"
	}
	if input.ContactInfo == "" {
		fields["contact_info"] = "contact info is required"
	}
	if input.AdditionalInfo == "" {
		fields["additional_info"] = "additional info is required"
	}
	if input.WillingToDonate != "yes" && input.WillingToDonate != "no" {
		fields["willing_to_donate"] = "donation preference must be 'yes' or 'no'"
	}
	if len(input.PhotoURLs) > 0 && !assistanceType.AllowPhotoUpload {
		fields["photo_urls"] = "photo upload is not available for this assistance type"
	}
	if len(input.PhotoURLs) > maxPhotos {
		fields["photo_urls"] = fmt.Sprintf("at most %d photos are allowed", maxPhotos)
	}
	if assistanceType.AllowSchedule {
		validateSchedule(input.Schedule, fields)
	}
	if len(fields) > 0 {
		return newValidationError(fields)
	}
	return nil
}

func validateSchedule(sched models.Schedule, fields map[string]string) {
	if len(sched.SelectedDays) == 0 {
		fields["selected_days"] = "at least one day must be selected"
	}
	for _, d := range sched.SelectedDays {
		if !models.IsWeekday(d) {
			fields["selected_days"] = fmt.Sprintf("'%s' is not a weekday", d)
			break
		}
	}
	if !sched.TimeRangePreset.Valid() {
		fields["time_range_preset"] = "unknown time range preset"
	}
	if sched.TimeRangePreset == models.PresetCustom {
		if !clockTimePattern.MatchString(sched.StartTime) || !clockTimePattern.MatchString(sched.EndTime) {
			fields["start_time"] = "custom times must be HH:MM"
		} else if sched.StartTime >= sched.EndTime {
			fields["start_time"] = "start time must be before end time"
		}
	}
	if sched.Slots < 1 || sched.Slots > 4 {
		fields["slots"] = "slots must be between 1 and 4"
	}
}

// Create validates the submission, runs the duplicate guard, snapshots the
// assistance-type name and inserts a pending booking.
func (s *bookingService) Create(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	assistanceType, err := s.catalog.FindTypeByID(ctx, input.AssistanceTypeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newValidationError(map[string]string{"assistance_type_id": "assistance type does not exist"})
		}
		return nil, err
	}
	if !assistanceType.IsActive {
		return nil, newValidationError(map[string]string{"assistance_type_id": "assistance type is not available"})
	}

	if err := validateCreate(input, assistanceType, s.cfg.MaxPhotosPerReq); err != nil {
		return nil, err
	}

	if s.HasActiveDuplicate(ctx, input.CharacterID, input.AssistanceTypeID) {
		return nil, ErrDuplicate
	}

	schedule := input.Schedule
	if !assistanceType.AllowSchedule {
		// Uniform payload shape regardless of path.
		schedule = models.DefaultSchedule()
	}
	photos := input.PhotoURLs
	if photos == nil {
		photos = []string{}
	}

	now := time.Now().UTC()
	booking := &models.Booking{
		ID:                 primitive.NewObjectID(),
		RequestNumber:      GenerateRequestNumber(input.CharacterID),
		CharacterID:        input.CharacterID,
		ContactInfo:        input.ContactInfo,
		AssistanceTypeID:   assistanceType.ID,
		AssistanceTypeName: assistanceType.Name, // snapshot, never re-joined
		AdditionalInfo:     input.AdditionalInfo,
		PhotoURLs:          photos,
		Schedule:           schedule,
		WillingToDonate:    input.WillingToDonate,
		Status:             models.StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	collection := s.db.Collection(bookingsCollection)
	err = db.Try(func() error {
		_, insertErr := collection.InsertOne(ctx, booking)
		return insertErr
	})
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			// Lost the race between the advisory check and the insert.
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to insert booking %s for character %s: %w",
			booking.RequestNumber, input.CharacterID, err)
	}

	return booking, nil
}

// FindByID fetches a booking by its store-assigned ID.
func (s *bookingService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.Collection(bookingsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding booking %s: %w", id.Hex(), err)
	}
	return &booking, nil
}

// FindByRequestNumber fetches a booking by its human-shareable token. When the
// token collides (it is not guaranteed unique), the oldest booking wins.
func (s *bookingService) FindByRequestNumber(ctx context.Context, requestNumber string) (*models.Booking, error) {
	var booking models.Booking
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	err := s.db.Collection(bookingsCollection).
		FindOne(ctx, bson.M{"request_number": requestNumber}, opts).
		Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding booking by request number %s: %w", requestNumber, err)
	}
	return &booking, nil
}

// List returns bookings for staff views, newest first.
func (s *bookingService) List(ctx context.Context, filter BookingFilter) ([]models.Booking, error) {
	query := bson.M{}
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, newValidationError(map[string]string{"status": fmt.Sprintf("unknown status '%s'", filter.Status)})
		}
		query["status"] = string(filter.Status)
	}
	if filter.CharacterID != "" {
		query["character_id"] = filter.CharacterID
	}

	limit := filter.Limit
	if limit <= 0 || limit > s.cfg.MaxBookingListSize {
		limit = s.cfg.MaxBookingListSize
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.db.Collection(bookingsCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// Update applies a requester edit. Legal only while the booking is still
// pending; the rejection names the current status. Status itself cannot move
// through this path.
func (s *bookingService) Update(ctx context.Context, id primitive.ObjectID, updates BookingUpdate) (*models.Booking, error) {
	fields := map[string]string{}
	set := bson.M{}

	if updates.AdditionalInfo != nil {
		if *updates.AdditionalInfo == "" {
			fields["additional_info"] = "additional info cannot be empty"
		} else {
			set["additional_info"] = *updates.AdditionalInfo
		}
	}
	if updates.WillingToDonate != nil {
		if *updates.WillingToDonate != "yes" && *updates.WillingToDonate != "no" {
			fields["willing_to_donate"] = "donation preference must be 'yes' or 'no'"
		} else {
			set["willing_to_donate"] = *updates.WillingToDonate
		}
	}

	// Capability-gated fields need the current document's assistance type.
	if updates.PhotoURLs != nil || updates.Schedule != nil {
		current, err := s.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		assistanceType, err := s.catalog.FindTypeByID(ctx, current.AssistanceTypeID)
		if err != nil {
			return nil, err
		}
		if updates.PhotoURLs != nil {
			switch {
			case !assistanceType.AllowPhotoUpload && len(*updates.PhotoURLs) > 0:
				fields["photo_urls"] = "photo upload is not available for this assistance type"
			case len(*updates.PhotoURLs) > s.cfg.MaxPhotosPerReq:
				fields["photo_urls"] = fmt.Sprintf("at most %d photos are allowed", s.cfg.MaxPhotosPerReq)
			default:
				set["photo_urls"] = *updates.PhotoURLs
			}
		}
		if updates.Schedule != nil {
			if !assistanceType.AllowSchedule {
				fields["schedule"] = "scheduling is not available for this assistance type"
			} else {
				validateSchedule(*updates.Schedule, fields)
				if len(fields) == 0 {
					set["schedule"] = *updates.Schedule
				}
			}
		}
	}

	if len(fields) > 0 {
		return nil, newValidationError(fields)
	}
	if len(set) == 0 {
		return nil, newValidationError(map[string]string{"updates": "no valid fields provided"})
	}
	set["updated_at"] = time.Now().UTC()

	filter := bson.M{"_id": id, "status": string(models.StatusPending)}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Booking
	err := s.db.Collection(bookingsCollection).
		FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).
		Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Not found, or no longer pending. Re-fetch to name the reason.
			current, checkErr := s.FindByID(ctx, id)
			if checkErr != nil {
				return nil, checkErr
			}
			return nil, &StateError{Op: "edit", Current: current.Status}
		}
		return nil, fmt.Errorf("failed to update booking %s: %w", id.Hex(), err)
	}
	return &updated, nil
}

// transitionSources lists the statuses a staff transition to next may start
// from.
func transitionSources(next models.BookingStatus) []string {
	switch next {
	case models.StatusConfirmed:
		return []string{string(models.StatusPending)}
	case models.StatusCompleted, models.StatusCancelled:
		return []string{string(models.StatusPending), string(models.StatusConfirmed)}
	}
	return nil
}

// UpdateStatus performs a staff transition through the state machine.
func (s *bookingService) UpdateStatus(ctx context.Context, id primitive.ObjectID, next models.BookingStatus) error {
	sources := transitionSources(next)
	if sources == nil {
		return newValidationError(map[string]string{"status": fmt.Sprintf("'%s' is not a valid target status", next)})
	}

	filter := bson.M{"_id": id, "status": bson.M{"$in": sources}}
	update := bson.M{"$set": bson.M{"status": string(next), "updated_at": time.Now().UTC()}}

	result, err := s.db.Collection(bookingsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("db error transitioning booking %s to %s: %w", id.Hex(), next, err)
	}
	if result.MatchedCount == 0 {
		current, checkErr := s.FindByID(ctx, id)
		if checkErr != nil {
			return checkErr
		}
		return &StateError{Op: fmt.Sprintf("move to '%s'", next), Current: current.Status}
	}
	return nil
}

// Cancel is the requester's self-service cancellation: pending or confirmed
// bookings move to cancelled.
func (s *bookingService) Cancel(ctx context.Context, id primitive.ObjectID) error {
	return s.UpdateStatus(ctx, id, models.StatusCancelled)
}

// Delete hard-deletes a booking, legal only from cancelled. The removed
// document is returned so callers can schedule photo cleanup. Comments are
// removed transitively.
func (s *bookingService) Delete(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	filter := bson.M{"_id": id, "status": string(models.StatusCancelled)}

	var deleted models.Booking
	err := s.db.Collection(bookingsCollection).FindOneAndDelete(ctx, filter).Decode(&deleted)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			current, checkErr := s.FindByID(ctx, id)
			if checkErr != nil {
				return nil, checkErr
			}
			return nil, &StateError{Op: "delete", Current: current.Status}
		}
		return nil, fmt.Errorf("failed to delete booking %s: %w", id.Hex(), err)
	}

	if _, err := s.db.Collection(commentsCollection).DeleteMany(ctx, bson.M{"request_id": id}); err != nil {
		// The booking is gone; orphaned comments are harmless but noisy.
		log.Printf("Warning: failed to delete comments for booking %s: %v", id.Hex(), err)
	}
	return &deleted, nil
}

// BulkUpdateStatus transitions every booking in ids that the state machine
// allows. Malformed IDs are silently filtered; the count actually modified is
// returned, never an all-or-nothing error.
func (s *bookingService) BulkUpdateStatus(ctx context.Context, ids []string, next models.BookingStatus) (int64, error) {
	sources := transitionSources(next)
	if sources == nil {
		return 0, newValidationError(map[string]string{"status": fmt.Sprintf("'%s' is not a valid target status", next)})
	}

	objectIDs := db.ParseIDs(ids)
	if len(objectIDs) == 0 {
		return 0, nil
	}

	filter := bson.M{"_id": bson.M{"$in": objectIDs}, "status": bson.M{"$in": sources}}
	update := bson.M{"$set": bson.M{"status": string(next), "updated_at": time.Now().UTC()}}

	result, err := s.db.Collection(bookingsCollection).UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("db error bulk-transitioning %d bookings to %s: %w", len(objectIDs), next, err)
	}
	return result.ModifiedCount, nil
}

// BulkDelete hard-deletes every cancelled booking in ids, with the same
// partial-failure tolerance as BulkUpdateStatus. Comments go with their
// bookings.
func (s *bookingService) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	objectIDs := db.ParseIDs(ids)
	if len(objectIDs) == 0 {
		return 0, nil
	}

	// Resolve which of the candidates are actually deletable first so the
	// comment cleanup targets exactly the removed bookings.
	filter := bson.M{"_id": bson.M{"$in": objectIDs}, "status": string(models.StatusCancelled)}
	cursor, err := s.db.Collection(bookingsCollection).Find(ctx, filter,
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return 0, fmt.Errorf("db error resolving bulk delete candidates: %w", err)
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return 0, fmt.Errorf("failed to decode bulk delete candidates: %w", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}
	deletable := make([]primitive.ObjectID, len(docs))
	for i, d := range docs {
		deletable[i] = d.ID
	}

	result, err := s.db.Collection(bookingsCollection).DeleteMany(ctx,
		bson.M{"_id": bson.M{"$in": deletable}, "status": string(models.StatusCancelled)})
	if err != nil {
		return 0, fmt.Errorf("db error bulk-deleting bookings: %w", err)
	}

	if _, err := s.db.Collection(commentsCollection).DeleteMany(ctx,
		bson.M{"request_id": bson.M{"$in": deletable}}); err != nil {
		log.Printf("Warning: failed to delete comments during bulk delete: %v", err)
	}
	return result.DeletedCount, nil
}
