package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"huntmate/backend/internal/config"
	"huntmate/backend/internal/models"
)

// ICatalogService defines the interface for the assistance-type and template
// catalog.
type ICatalogService interface {
	ListActiveTypes(ctx context.Context) ([]models.AssistanceType, error)
	ListTypes(ctx context.Context) ([]models.AssistanceType, error)
	FindTypeByID(ctx context.Context, id primitive.ObjectID) (*models.AssistanceType, error)
	ReorderType(ctx context.Context, id primitive.ObjectID, newOrder int) error
	ToggleType(ctx context.Context, id primitive.ObjectID, field models.ToggleField) error

	ListActiveTemplates(ctx context.Context) ([]models.AssistanceTemplate, error)
	ListTemplates(ctx context.Context) ([]models.AssistanceTemplate, error)
	CreateTemplate(ctx context.Context, tpl *models.AssistanceTemplate) (*models.AssistanceTemplate, error)
	UpdateTemplate(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.AssistanceTemplate, error)
	ReorderTemplate(ctx context.Context, id primitive.ObjectID, newOrder int) error
	DeleteTemplate(ctx context.Context, id primitive.ObjectID) error

	// EnsureSeeded and MigrateCatalog run once at process start; read paths
	// stay side-effect free.
	EnsureSeeded(ctx context.Context) error
	MigrateCatalog(ctx context.Context) error
}

const (
	typesCollection      = "assistance_types"
	templatesCollection  = "assistance_templates"
	catalogUpdateChannel = "catalog_updates"
)

// defaultTypes is the fixed set seeded into an empty catalog.
var defaultTypes = []models.AssistanceType{
	{Name: "Boss Hunt", Description: "Schedule a party to take down a field or raid boss.", IsActive: true, ListOrder: 0, AllowPhotoUpload: true, AllowSchedule: true},
	{Name: "Leveling", Description: "Power-leveling sessions with an experienced partner.", IsActive: true, ListOrder: 1, AllowPhotoUpload: false, AllowSchedule: true},
	{Name: "Dungeon Run", Description: "Guided runs through instanced dungeons.", IsActive: true, ListOrder: 2, AllowPhotoUpload: false, AllowSchedule: true},
	{Name: "Quest Help", Description: "Help completing a stuck quest line.", IsActive: true, ListOrder: 3, AllowPhotoUpload: true, AllowSchedule: false},
	{Name: "Gear Advice", Description: "Build and equipment review, answered asynchronously.", IsActive: true, ListOrder: 4, AllowPhotoUpload: true, AllowSchedule: false},
}

// catalogService implements ICatalogService with a small in-process cache of
// active types, invalidated via Redis Pub/Sub when an admin mutates the
// catalog.
type catalogService struct {
	db    *mongo.Database
	cfg   *config.Config
	rdb   *redis.Client
	cache []models.AssistanceType // active types, ordered; nil = cold
	mutex sync.RWMutex
}

// NewCatalogService creates a new CatalogService. When rdb is non-nil, a
// background listener reloads the cache on catalog update notifications.
func NewCatalogService(db *mongo.Database, cfg *config.Config, rdb *redis.Client) ICatalogService {
	s := &catalogService{db: db, cfg: cfg, rdb: rdb}
	if rdb != nil {
		go func() {
			if err := s.subscribeToChanges(context.Background()); err != nil {
				log.Printf("CRITICAL: Catalog Pub/Sub listener stopped: %v", err)
			}
		}()
	}
	return s
}

// ListActiveTypes returns active types ordered by list_order ascending.
// Ties are broken by insertion order (_id ascending). Served from cache when
// warm.
func (s *catalogService) ListActiveTypes(ctx context.Context) ([]models.AssistanceType, error) {
	s.mutex.RLock()
	cached := s.cache
	s.mutex.RUnlock()
	if cached != nil {
		out := make([]models.AssistanceType, len(cached))
		copy(out, cached)
		return out, nil
	}

	types, err := s.loadActiveTypes(ctx)
	if err != nil {
		return nil, err
	}

	s.mutex.Lock()
	s.cache = types
	s.mutex.Unlock()

	out := make([]models.AssistanceType, len(types))
	copy(out, types)
	return out, nil
}

func (s *catalogService) loadActiveTypes(ctx context.Context) ([]models.AssistanceType, error) {
	collection := s.db.Collection(typesCollection)
	opts := options.Find().SetSort(bson.D{{Key: "list_order", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := collection.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query active assistance types: %w", err)
	}
	defer cursor.Close(ctx)

	var types []models.AssistanceType
	if err = cursor.All(ctx, &types); err != nil {
		return nil, fmt.Errorf("failed to decode assistance types: %w", err)
	}
	return types, nil
}

// ListTypes returns every type, active or not, for admin screens.
func (s *catalogService) ListTypes(ctx context.Context) ([]models.AssistanceType, error) {
	collection := s.db.Collection(typesCollection)
	opts := options.Find().SetSort(bson.D{{Key: "list_order", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query assistance types: %w", err)
	}
	defer cursor.Close(ctx)

	var types []models.AssistanceType
	if err = cursor.All(ctx, &types); err != nil {
		return nil, fmt.Errorf("failed to decode assistance types: %w", err)
	}
	return types, nil
}

// FindTypeByID fetches a single assistance type.
func (s *catalogService) FindTypeByID(ctx context.Context, id primitive.ObjectID) (*models.AssistanceType, error) {
	var t models.AssistanceType
	err := s.db.Collection(typesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding assistance type %s: %w", id.Hex(), err)
	}
	return &t, nil
}

// ReorderType sets list_order directly. Callers are responsible for keeping
// the full ordering consistent; a swap requires two calls.
func (s *catalogService) ReorderType(ctx context.Context, id primitive.ObjectID, newOrder int) error {
	result, err := s.db.Collection(typesCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"list_order": newOrder}})
	if err != nil {
		return fmt.Errorf("db error reordering assistance type %s: %w", id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	s.invalidate(ctx)
	return nil
}

// ToggleType flips one of the boolean capability flags in a single atomic
// update (aggregation pipeline $not on the current value).
func (s *catalogService) ToggleType(ctx context.Context, id primitive.ObjectID, field models.ToggleField) error {
	if !field.Valid() {
		return newValidationError(map[string]string{"field": fmt.Sprintf("'%s' is not a toggleable flag", field)})
	}
	pipeline := bson.A{
		bson.M{"$set": bson.M{string(field): bson.M{"$not": "$" + string(field)}}},
	}
	result, err := s.db.Collection(typesCollection).UpdateOne(ctx, bson.M{"_id": id}, pipeline)
	if err != nil {
		return fmt.Errorf("db error toggling %s on assistance type %s: %w", field, id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	s.invalidate(ctx)
	return nil
}

// ListActiveTemplates returns active quick-start templates for the wizard.
func (s *catalogService) ListActiveTemplates(ctx context.Context) ([]models.AssistanceTemplate, error) {
	return s.listTemplates(ctx, bson.M{"is_active": true})
}

// ListTemplates returns all templates for admin screens.
func (s *catalogService) ListTemplates(ctx context.Context) ([]models.AssistanceTemplate, error) {
	return s.listTemplates(ctx, bson.M{})
}

func (s *catalogService) listTemplates(ctx context.Context, filter bson.M) ([]models.AssistanceTemplate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "list_order", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(templatesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query assistance templates: %w", err)
	}
	defer cursor.Close(ctx)

	var templates []models.AssistanceTemplate
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, fmt.Errorf("failed to decode assistance templates: %w", err)
	}
	return templates, nil
}

// CreateTemplate inserts a new admin-owned template referencing an existing
// assistance type.
func (s *catalogService) CreateTemplate(ctx context.Context, tpl *models.AssistanceTemplate) (*models.AssistanceTemplate, error) {
	fields := map[string]string{}
	if tpl.Title == "" {
		fields["title"] = "title is required"
	}
	if tpl.AssistanceTypeID.IsZero() {
		fields["assistance_type_id"] = "assistance type is required"
	}
	if len(fields) > 0 {
		return nil, newValidationError(fields)
	}
	if _, err := s.FindTypeByID(ctx, tpl.AssistanceTypeID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newValidationError(map[string]string{"assistance_type_id": "assistance type does not exist"})
		}
		return nil, err
	}

	now := time.Now().UTC()
	tpl.ID = primitive.NewObjectID()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now
	if _, err := s.db.Collection(templatesCollection).InsertOne(ctx, tpl); err != nil {
		return nil, fmt.Errorf("failed to insert assistance template: %w", err)
	}
	return tpl, nil
}

// UpdateTemplate updates mutable template fields. Status-like fields
// (is_active) flow through here too since templates carry no lifecycle.
func (s *catalogService) UpdateTemplate(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.AssistanceTemplate, error) {
	allowed := bson.M{}
	for key, value := range updates {
		switch key {
		case "title", "description", "additional_info", "image_url", "is_active", "assistance_type_id":
			allowed[key] = value
		default:
			return nil, newValidationError(map[string]string{key: "field cannot be updated"})
		}
	}
	if len(allowed) == 0 {
		return nil, newValidationError(map[string]string{"updates": "no valid fields provided"})
	}
	allowed["updated_at"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.AssistanceTemplate
	err := s.db.Collection(templatesCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": allowed}, opts).
		Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update assistance template %s: %w", id.Hex(), err)
	}
	return &updated, nil
}

// ReorderTemplate sets list_order directly, same contract as ReorderType.
func (s *catalogService) ReorderTemplate(ctx context.Context, id primitive.ObjectID, newOrder int) error {
	result, err := s.db.Collection(templatesCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"list_order": newOrder, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("db error reordering template %s: %w", id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTemplate removes a template. Templates are admin bookmarks, not
// referenced by bookings, so hard delete is safe.
func (s *catalogService) DeleteTemplate(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.db.Collection(templatesCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("db error deleting template %s: %w", id.Hex(), err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureSeeded populates an empty catalog with the fixed default set. It is
// idempotent and runs once at process start.
func (s *catalogService) EnsureSeeded(ctx context.Context) error {
	collection := s.db.Collection(typesCollection)
	count, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count assistance types: %w", err)
	}
	if count > 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(defaultTypes))
	for _, t := range defaultTypes {
		t.ID = primitive.NewObjectID()
		docs = append(docs, t)
	}
	if _, err := collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to seed assistance types: %w", err)
	}
	log.Printf("Seeded %d default assistance types.", len(docs))
	return nil
}

// MigrateCatalog backfills fields added after early documents were written:
// missing capability flags default to false, missing list_order is assigned
// positionally in _id order. Idempotent.
func (s *catalogService) MigrateCatalog(ctx context.Context) error {
	collection := s.db.Collection(typesCollection)

	for _, field := range []string{"allow_photo_upload", "allow_schedule"} {
		_, err := collection.UpdateMany(ctx,
			bson.M{field: bson.M{"$exists": false}},
			bson.M{"$set": bson.M{field: false}})
		if err != nil {
			return fmt.Errorf("failed to backfill %s: %w", field, err)
		}
	}

	// Positional list_order for documents that predate ordering.
	cursor, err := collection.Find(ctx,
		bson.M{"list_order": bson.M{"$exists": false}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return fmt.Errorf("failed to query unordered assistance types: %w", err)
	}
	defer cursor.Close(ctx)

	var unordered []models.AssistanceType
	if err = cursor.All(ctx, &unordered); err != nil {
		return fmt.Errorf("failed to decode unordered assistance types: %w", err)
	}
	if len(unordered) == 0 {
		return nil
	}

	// Place backfilled documents after any explicitly ordered ones.
	next := 0
	var maxDoc struct {
		ListOrder int `bson:"list_order"`
	}
	err = collection.FindOne(ctx,
		bson.M{"list_order": bson.M{"$exists": true}},
		options.FindOne().SetSort(bson.D{{Key: "list_order", Value: -1}})).Decode(&maxDoc)
	if err == nil {
		next = maxDoc.ListOrder + 1
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("failed to find max list_order: %w", err)
	}

	for _, t := range unordered {
		_, err := collection.UpdateByID(ctx, t.ID, bson.M{"$set": bson.M{"list_order": next}})
		if err != nil {
			return fmt.Errorf("failed to backfill list_order for %s: %w", t.ID.Hex(), err)
		}
		next++
	}
	log.Printf("Backfilled list_order for %d assistance types.", len(unordered))
	return nil
}

// invalidate clears the local cache and notifies other instances.
func (s *catalogService) invalidate(ctx context.Context) {
	s.mutex.Lock()
	s.cache = nil
	s.mutex.Unlock()

	if s.rdb != nil {
		if err := s.rdb.Publish(ctx, catalogUpdateChannel, "reload").Err(); err != nil {
			log.Printf("Warning: Failed to publish catalog update notification: %v", err)
		}
	}
}

// subscribeToChanges listens for catalog update messages on Redis Pub/Sub and
// drops the local cache so the next read reloads.
func (s *catalogService) subscribeToChanges(ctx context.Context) error {
	pubsub := s.rdb.Subscribe(ctx, catalogUpdateChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to confirm catalog Pub/Sub subscription: %w", err)
	}

	ch := pubsub.Channel()
	log.Println("Subscribed to Redis channel for catalog updates:", catalogUpdateChannel)

	for msg := range ch {
		log.Printf("Received catalog update notification on channel %s", msg.Channel)
		s.mutex.Lock()
		s.cache = nil
		s.mutex.Unlock()
	}

	log.Println("Catalog Pub/Sub listener stopped.")
	return nil
}
