package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"huntmate/backend/internal/config"
	"huntmate/backend/internal/db"
	"huntmate/backend/internal/models"
)

// ICommentService defines the interface for the append-only comment thread
// attached to each booking.
type ICommentService interface {
	Append(ctx context.Context, requestID primitive.ObjectID, content, authorName string, isAdmin bool) (*models.Comment, error)
	ListByRequest(ctx context.Context, requestID primitive.ObjectID) ([]models.Comment, error)
	MarkRead(ctx context.Context, requestID primitive.ObjectID, viewerIsAdmin bool) (int64, error)
	UnreadCount(ctx context.Context, requestID primitive.ObjectID, viewerIsAdmin bool) (int64, error)
	UnreadCounts(ctx context.Context, requestIDs []string, viewerIsAdmin bool) (map[string]int64, error)
}

const commentsCollection = "comments"

// commentService implements ICommentService.
type commentService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewCommentService creates a new CommentService.
func NewCommentService(database *mongo.Database, cfg *config.Config) ICommentService {
	return &commentService{db: database, cfg: cfg}
}

// Append adds a comment to a booking's thread. Comments are never edited or
// deleted individually; they only go away when their booking is hard-deleted.
func (s *commentService) Append(ctx context.Context, requestID primitive.ObjectID, content, authorName string, isAdmin bool) (*models.Comment, error) {
	if content == "" {
		return nil, newValidationError(map[string]string{"content": "comment content is required"})
	}

	// The thread must hang off an existing booking.
	count, err := s.db.Collection(bookingsCollection).CountDocuments(ctx,
		bson.M{"_id": requestID}, options.Count().SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("error checking booking %s for comment: %w", requestID.Hex(), err)
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	comment := &models.Comment{
		ID:         primitive.NewObjectID(),
		RequestID:  requestID,
		Content:    content,
		IsAdmin:    isAdmin,
		AuthorName: authorName,
		CreatedAt:  time.Now().UTC(),
		IsRead:     false,
	}

	collection := s.db.Collection(commentsCollection)
	err = db.Try(func() error {
		_, insertErr := collection.InsertOne(ctx, comment)
		return insertErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to append comment to booking %s: %w", requestID.Hex(), err)
	}
	return comment, nil
}

// ListByRequest returns a booking's comments oldest first, reading as a
// conversation.
func (s *commentService) ListByRequest(ctx context.Context, requestID primitive.ObjectID) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.db.Collection(commentsCollection).Find(ctx, bson.M{"request_id": requestID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments for booking %s: %w", requestID.Hex(), err)
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err = cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}
	return comments, nil
}

// MarkRead flips is_read on every comment written by the other side of the
// conversation. A viewer marks the counterpart's comments read, never their
// own.
func (s *commentService) MarkRead(ctx context.Context, requestID primitive.ObjectID, viewerIsAdmin bool) (int64, error) {
	filter := bson.M{
		"request_id": requestID,
		"is_admin":   !viewerIsAdmin,
		"is_read":    false,
	}
	result, err := s.db.Collection(commentsCollection).UpdateMany(ctx, filter,
		bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark comments read for booking %s: %w", requestID.Hex(), err)
	}
	return result.ModifiedCount, nil
}

// UnreadCount returns how many counterpart comments the viewer has not read
// yet on a single booking.
func (s *commentService) UnreadCount(ctx context.Context, requestID primitive.ObjectID, viewerIsAdmin bool) (int64, error) {
	filter := bson.M{
		"request_id": requestID,
		"is_admin":   !viewerIsAdmin,
		"is_read":    false,
	}
	count, err := s.db.Collection(commentsCollection).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread comments for booking %s: %w", requestID.Hex(), err)
	}
	return count, nil
}

// UnreadCounts returns unread counts for many bookings in one aggregation,
// keyed by hex ID. Malformed IDs are filtered and bookings with no unread
// comments are simply absent from the result.
func (s *commentService) UnreadCounts(ctx context.Context, requestIDs []string, viewerIsAdmin bool) (map[string]int64, error) {
	objectIDs := db.ParseIDs(requestIDs)
	counts := make(map[string]int64, len(objectIDs))
	if len(objectIDs) == 0 {
		return counts, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"request_id": bson.M{"$in": objectIDs},
			"is_admin":   !viewerIsAdmin,
			"is_read":    false,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$request_id",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := s.db.Collection(commentsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate unread counts: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID    primitive.ObjectID `bson:"_id"`
		Count int64              `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode unread counts: %w", err)
	}
	for _, row := range rows {
		counts[row.ID.Hex()] = row.Count
	}
	return counts, nil
}
