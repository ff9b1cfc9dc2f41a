package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is one message on a booking's append-only log. IsRead is the only
// mutable field; it is flipped in bulk by the other party's viewing action.
type Comment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RequestID  primitive.ObjectID `bson:"request_id" json:"request_id"`
	Content    string             `bson:"content" json:"content"`
	IsAdmin    bool               `bson:"is_admin" json:"is_admin"`
	AuthorName string             `bson:"author_name,omitempty" json:"author_name,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	IsRead     bool               `bson:"is_read" json:"is_read"`
}
