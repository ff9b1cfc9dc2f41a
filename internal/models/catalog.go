package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssistanceType is a category of help offered (boss hunt, leveling, etc.)
// with capability flags controlling which wizard steps apply to it.
type AssistanceType struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name             string             `bson:"name" json:"name"`
	Description      string             `bson:"description" json:"description"`
	IsActive         bool               `bson:"is_active" json:"is_active"`
	ListOrder        int                `bson:"list_order" json:"list_order"`
	AllowPhotoUpload bool               `bson:"allow_photo_upload" json:"allow_photo_upload"`
	AllowSchedule    bool               `bson:"allow_schedule" json:"allow_schedule"`
}

// AssistanceTemplate is an admin-owned quick-start draft referencing a type.
// The wizard reads templates, it never mutates them.
type AssistanceTemplate struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title            string             `bson:"title" json:"title"`
	Description      string             `bson:"description" json:"description"`
	AssistanceTypeID primitive.ObjectID `bson:"assistance_type_id" json:"assistance_type_id"`
	AdditionalInfo   string             `bson:"additional_info" json:"additional_info"`
	ImageURL         string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	IsActive         bool               `bson:"is_active" json:"is_active"`
	ListOrder        int                `bson:"list_order" json:"list_order"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// ToggleField names a boolean catalog flag that admins may flip.
type ToggleField string

const (
	ToggleIsActive         ToggleField = "is_active"
	ToggleAllowPhotoUpload ToggleField = "allow_photo_upload"
	ToggleAllowSchedule    ToggleField = "allow_schedule"
)

// Valid reports whether the field is one of the toggleable flags.
func (f ToggleField) Valid() bool {
	switch f {
	case ToggleIsActive, ToggleAllowPhotoUpload, ToggleAllowSchedule:
		return true
	}
	return false
}
