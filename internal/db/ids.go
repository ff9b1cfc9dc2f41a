package db

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidID marks a malformed document ID. It is a distinct error class
// from "not found": a malformed ID can never match any document, and callers
// report it differently.
var ErrInvalidID = errors.New("invalid ID format")

// ParseID parses a 24-hex-character document ID. Malformed input returns
// ErrInvalidID.
func ParseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

// ParseIDs parses a list of IDs, silently dropping malformed entries. Bulk
// operations are partial-failure tolerant: invalid IDs never fail the call,
// they just don't count.
func ParseIDs(ss []string) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(ss))
	for _, s := range ss {
		id, err := ParseID(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
