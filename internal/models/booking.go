package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingStatus is the lifecycle state of an assistance request.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is one of the four known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
// A cancelled booking may still be hard-deleted, but deletion is a
// destructive exit, not a transition.
func (s BookingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether a staff transition s -> next is legal.
// pending -> confirmed|completed|cancelled; confirmed -> completed|cancelled.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if !next.Valid() || s == next {
		return false
	}
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCompleted || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

// TimeRangePreset identifies a coarse preferred time window.
type TimeRangePreset string

const (
	PresetEarly  TimeRangePreset = "early"
	PresetMiddle TimeRangePreset = "middle"
	PresetLate   TimeRangePreset = "late"
	PresetCustom TimeRangePreset = "custom"
)

// Valid reports whether p is a known preset.
func (p TimeRangePreset) Valid() bool {
	switch p {
	case PresetEarly, PresetMiddle, PresetLate, PresetCustom:
		return true
	}
	return false
}

// Weekdays are the identifiers accepted in Schedule.SelectedDays.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// IsWeekday reports whether d is one of the seven weekday identifiers.
func IsWeekday(d string) bool {
	for _, w := range Weekdays {
		if w == d {
			return true
		}
	}
	return false
}

// Schedule holds the requester's time preference. It is stored, not
// adjudicated against any capacity.
type Schedule struct {
	SelectedDays    []string        `bson:"selected_days" json:"selected_days"`
	TimeRangePreset TimeRangePreset `bson:"time_range_preset" json:"time_range_preset"`
	StartTime       string          `bson:"start_time,omitempty" json:"start_time,omitempty"` // "HH:MM", custom preset only
	EndTime         string          `bson:"end_time,omitempty" json:"end_time,omitempty"`
	Slots           int             `bson:"slots" json:"slots"` // 1..4
}

// DefaultSchedule is substituted when the selected assistance type does not
// allow scheduling, so the payload shape stays uniform regardless of path.
func DefaultSchedule() Schedule {
	return Schedule{
		SelectedDays:    []string{"saturday"},
		TimeRangePreset: PresetMiddle,
		Slots:           1,
	}
}

// Booking is the central assistance-request record.
type Booking struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RequestNumber string             `bson:"request_number" json:"request_number"`

	// Requester facts, immutable after creation.
	CharacterID string `bson:"character_id" json:"character_id"`
	ContactInfo string `bson:"contact_info" json:"contact_info"`

	// Request content.
	AssistanceTypeID primitive.ObjectID `bson:"assistance_type_id" json:"assistance_type_id"`
	// AssistanceTypeName is a snapshot taken at creation time. It is
	// intentionally immutable history and does not track later renames.
	AssistanceTypeName string   `bson:"assistance_type_name" json:"assistance_type_name"`
	AdditionalInfo     string   `bson:"additional_info" json:"additional_info"`
	PhotoURLs          []string `bson:"photo_urls" json:"photo_urls"`

	Schedule        Schedule      `bson:"schedule" json:"schedule"`
	WillingToDonate string        `bson:"willing_to_donate" json:"willing_to_donate"` // "yes" | "no"
	Status          BookingStatus `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
