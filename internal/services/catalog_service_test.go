package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"huntmate/backend/internal/models"
	"huntmate/backend/internal/utils"
)

func setupTestDBCatalog(t *testing.T, dbName string) *mongo.Database {
	return utils.SetupTestDB(t, dbName, typesCollection, templatesCollection)
}

func TestCatalogService_SeedingIsIdempotent(t *testing.T) {
	db := setupTestDBCatalog(t, "testdb_catalog_seed")
	svc := NewCatalogService(db, testConfig(), nil)
	ctx := context.Background()

	require.NoError(t, svc.EnsureSeeded(ctx))
	first, err := svc.ListTypes(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// A second run changes nothing.
	require.NoError(t, svc.EnsureSeeded(ctx))
	second, err := svc.ListTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, second, len(first))
}

func TestCatalogService_ActiveOrderingAndCache(t *testing.T) {
	db := setupTestDBCatalog(t, "testdb_catalog_order")
	svc := NewCatalogService(db, testConfig(), nil)
	ctx := context.Background()

	require.NoError(t, svc.EnsureSeeded(ctx))

	types, err := svc.ListActiveTypes(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, types)
	for i := 1; i < len(types); i++ {
		assert.LessOrEqual(t, types[i-1].ListOrder, types[i].ListOrder)
		assert.True(t, types[i].IsActive)
	}

	// Deactivated types disappear from the active list after invalidation.
	victim := types[0]
	require.NoError(t, svc.ToggleType(ctx, victim.ID, models.ToggleIsActive))

	active, err := svc.ListActiveTypes(ctx)
	require.NoError(t, err)
	for _, at := range active {
		assert.NotEqual(t, victim.ID, at.ID)
	}
	assert.Len(t, active, len(types)-1)

	// But they remain visible to admin listing.
	all, err := svc.ListTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(types))

	// Reordering moves a type and invalidates the cache.
	last := active[len(active)-1]
	require.NoError(t, svc.ReorderType(ctx, last.ID, -1))
	reordered, err := svc.ListActiveTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, last.ID, reordered[0].ID)
}

func TestCatalogService_ToggleFlags(t *testing.T) {
	db := setupTestDBCatalog(t, "testdb_catalog_toggle")
	svc := NewCatalogService(db, testConfig(), nil)
	ctx := context.Background()

	require.NoError(t, svc.EnsureSeeded(ctx))
	types, err := svc.ListTypes(ctx)
	require.NoError(t, err)
	at := types[0]

	require.NoError(t, svc.ToggleType(ctx, at.ID, models.ToggleAllowPhotoUpload))
	flipped, err := svc.FindTypeByID(ctx, at.ID)
	require.NoError(t, err)
	assert.Equal(t, !at.AllowPhotoUpload, flipped.AllowPhotoUpload)
	assert.Equal(t, at.AllowSchedule, flipped.AllowSchedule)

	// Flipping twice restores the original value.
	require.NoError(t, svc.ToggleType(ctx, at.ID, models.ToggleAllowPhotoUpload))
	restored, err := svc.FindTypeByID(ctx, at.ID)
	require.NoError(t, err)
	assert.Equal(t, at.AllowPhotoUpload, restored.AllowPhotoUpload)

	// Unknown flags and unknown types are rejected.
	var ve *ValidationError
	err = svc.ToggleType(ctx, at.ID, models.ToggleField("name"))
	assert.ErrorAs(t, err, &ve)
	err = svc.ToggleType(ctx, primitive.NewObjectID(), models.ToggleIsActive)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogService_TemplateCRUD(t *testing.T) {
	db := setupTestDBCatalog(t, "testdb_catalog_templates")
	svc := NewCatalogService(db, testConfig(), nil)
	ctx := context.Background()

	require.NoError(t, svc.EnsureSeeded(ctx))
	types, err := svc.ListTypes(ctx)
	require.NoError(t, err)
	at := types[0]

	// Title and type are mandatory.
	_, err = svc.CreateTemplate(ctx, &models.AssistanceTemplate{})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "title")
	assert.Contains(t, ve.Fields, "assistance_type_id")

	// The referenced type must exist.
	_, err = svc.CreateTemplate(ctx, &models.AssistanceTemplate{
		Title:            "Ghost",
		AssistanceTypeID: primitive.NewObjectID(),
	})
	require.ErrorAs(t, err, &ve)

	tpl, err := svc.CreateTemplate(ctx, &models.AssistanceTemplate{
		Title:            "Weekend raid party",
		Description:      "Prefilled request for the usual Saturday raid.",
		AssistanceTypeID: at.ID,
		AdditionalInfo:   "Meet at the guild hall, bring potions.",
		IsActive:         true,
	})
	require.NoError(t, err)
	assert.False(t, tpl.ID.IsZero())
	assert.False(t, tpl.CreatedAt.IsZero())

	active, err := svc.ListActiveTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	// Updates are restricted to known fields.
	_, err = svc.UpdateTemplate(ctx, tpl.ID, map[string]interface{}{"created_at": "nope"})
	assert.ErrorAs(t, err, &ve)

	updated, err := svc.UpdateTemplate(ctx, tpl.ID, map[string]interface{}{
		"title":     "Saturday raid party",
		"is_active": false,
	})
	require.NoError(t, err)
	assert.Equal(t, "Saturday raid party", updated.Title)
	assert.False(t, updated.IsActive)

	active, err = svc.ListActiveTemplates(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.ReorderTemplate(ctx, tpl.ID, 5))
	require.NoError(t, svc.DeleteTemplate(ctx, tpl.ID))
	assert.ErrorIs(t, svc.DeleteTemplate(ctx, tpl.ID), ErrNotFound)
	_, err = svc.UpdateTemplate(ctx, tpl.ID, map[string]interface{}{"title": "gone"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogService_MigrateBackfillsFields(t *testing.T) {
	db := setupTestDBCatalog(t, "testdb_catalog_migrate")
	svc := NewCatalogService(db, testConfig(), nil)
	ctx := context.Background()

	// Simulate documents written before the capability flags and ordering
	// existed.
	legacyID := primitive.NewObjectID()
	_, err := db.Collection(typesCollection).InsertOne(ctx, bson.M{
		"_id":       legacyID,
		"name":      "Legacy Escort",
		"is_active": true,
	})
	require.NoError(t, err)
	_, err = db.Collection(typesCollection).InsertOne(ctx, bson.M{
		"_id":        primitive.NewObjectID(),
		"name":       "Ordered Already",
		"is_active":  true,
		"list_order": 3,
	})
	require.NoError(t, err)

	require.NoError(t, svc.MigrateCatalog(ctx))

	migrated, err := svc.FindTypeByID(ctx, legacyID)
	require.NoError(t, err)
	assert.False(t, migrated.AllowPhotoUpload)
	assert.False(t, migrated.AllowSchedule)
	// Backfilled ordering lands after explicitly ordered documents.
	assert.Equal(t, 4, migrated.ListOrder)

	// Running again changes nothing.
	require.NoError(t, svc.MigrateCatalog(ctx))
	again, err := svc.FindTypeByID(ctx, legacyID)
	require.NoError(t, err)
	assert.Equal(t, 4, again.ListOrder)
}
