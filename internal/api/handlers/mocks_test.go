package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"huntmate/backend/internal/models"
	"huntmate/backend/internal/services"
)

// --- Mocks ---

// MockBookingService implements services.IBookingService
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Create(ctx context.Context, input services.CreateBookingInput) (*models.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) FindByRequestNumber(ctx context.Context, requestNumber string) (*models.Booking, error) {
	args := m.Called(ctx, requestNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) List(ctx context.Context, filter services.BookingFilter) ([]models.Booking, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockBookingService) Update(ctx context.Context, id primitive.ObjectID, updates services.BookingUpdate) (*models.Booking, error) {
	args := m.Called(ctx, id, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) UpdateStatus(ctx context.Context, id primitive.ObjectID, next models.BookingStatus) error {
	args := m.Called(ctx, id, next)
	return args.Error(0)
}

func (m *MockBookingService) Cancel(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookingService) Delete(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) BulkUpdateStatus(ctx context.Context, ids []string, next models.BookingStatus) (int64, error) {
	args := m.Called(ctx, ids, next)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingService) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingService) HasActiveDuplicate(ctx context.Context, characterID string, typeID primitive.ObjectID) bool {
	args := m.Called(ctx, characterID, typeID)
	return args.Bool(0)
}

func (m *MockBookingService) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockCommentService implements services.ICommentService
type MockCommentService struct {
	mock.Mock
}

func (m *MockCommentService) Append(ctx context.Context, requestID primitive.ObjectID, content, authorName string, isAdmin bool) (*models.Comment, error) {
	args := m.Called(ctx, requestID, content, authorName, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockCommentService) ListByRequest(ctx context.Context, requestID primitive.ObjectID) ([]models.Comment, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *MockCommentService) MarkRead(ctx context.Context, requestID primitive.ObjectID, viewerIsAdmin bool) (int64, error) {
	args := m.Called(ctx, requestID, viewerIsAdmin)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCommentService) UnreadCount(ctx context.Context, requestID primitive.ObjectID, viewerIsAdmin bool) (int64, error) {
	args := m.Called(ctx, requestID, viewerIsAdmin)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCommentService) UnreadCounts(ctx context.Context, requestIDs []string, viewerIsAdmin bool) (map[string]int64, error) {
	args := m.Called(ctx, requestIDs, viewerIsAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

// MockCatalogService implements services.ICatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListActiveTypes(ctx context.Context) ([]models.AssistanceType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AssistanceType), args.Error(1)
}

func (m *MockCatalogService) ListTypes(ctx context.Context) ([]models.AssistanceType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AssistanceType), args.Error(1)
}

func (m *MockCatalogService) FindTypeByID(ctx context.Context, id primitive.ObjectID) (*models.AssistanceType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssistanceType), args.Error(1)
}

func (m *MockCatalogService) ReorderType(ctx context.Context, id primitive.ObjectID, newOrder int) error {
	args := m.Called(ctx, id, newOrder)
	return args.Error(0)
}

func (m *MockCatalogService) ToggleType(ctx context.Context, id primitive.ObjectID, field models.ToggleField) error {
	args := m.Called(ctx, id, field)
	return args.Error(0)
}

func (m *MockCatalogService) ListActiveTemplates(ctx context.Context) ([]models.AssistanceTemplate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AssistanceTemplate), args.Error(1)
}

func (m *MockCatalogService) ListTemplates(ctx context.Context) ([]models.AssistanceTemplate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AssistanceTemplate), args.Error(1)
}

func (m *MockCatalogService) CreateTemplate(ctx context.Context, tpl *models.AssistanceTemplate) (*models.AssistanceTemplate, error) {
	args := m.Called(ctx, tpl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssistanceTemplate), args.Error(1)
}

func (m *MockCatalogService) UpdateTemplate(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.AssistanceTemplate, error) {
	args := m.Called(ctx, id, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssistanceTemplate), args.Error(1)
}

func (m *MockCatalogService) ReorderTemplate(ctx context.Context, id primitive.ObjectID, newOrder int) error {
	args := m.Called(ctx, id, newOrder)
	return args.Error(0)
}

func (m *MockCatalogService) DeleteTemplate(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCatalogService) EnsureSeeded(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCatalogService) MigrateCatalog(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
