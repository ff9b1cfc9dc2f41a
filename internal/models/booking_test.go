package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	// pending can go anywhere forward
	assert.True(t, StatusPending.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusPending.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))

	// confirmed can only finish or cancel
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusConfirmed.CanTransitionTo(StatusPending))

	// terminal states go nowhere
	for _, next := range []BookingStatus{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled} {
		assert.False(t, StatusCompleted.CanTransitionTo(next), "completed -> %s", next)
		assert.False(t, StatusCancelled.CanTransitionTo(next), "cancelled -> %s", next)
	}

	// self-transitions and unknown targets are rejected
	assert.False(t, StatusPending.CanTransitionTo(StatusPending))
	assert.False(t, StatusPending.CanTransitionTo(BookingStatus("archived")))
}

func TestBookingStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestDefaultSchedule(t *testing.T) {
	s := DefaultSchedule()
	assert.Len(t, s.SelectedDays, 1)
	assert.True(t, IsWeekday(s.SelectedDays[0]))
	assert.Equal(t, PresetMiddle, s.TimeRangePreset)
	assert.Equal(t, 1, s.Slots)
	assert.Empty(t, s.StartTime)
	assert.Empty(t, s.EndTime)
}

func TestIsWeekday(t *testing.T) {
	assert.True(t, IsWeekday("monday"))
	assert.True(t, IsWeekday("sunday"))
	assert.False(t, IsWeekday("Monday"))
	assert.False(t, IsWeekday("someday"))
}
