package wizard

import (
	"sync"
	"time"

	"huntmate/backend/internal/models"
)

// DefaultRecentCapacity bounds the local recent-requests list.
const DefaultRecentCapacity = 20

// RecentEntry is a local bookmark for a submitted request. There is no
// authenticated "my bookings" query; retrieval is by knowledge of the request
// number or this cache.
type RecentEntry struct {
	ID            string    `json:"id"`
	RequestNumber string    `json:"request_number"`
	TypeName      string    `json:"type_name"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// RecentRequests is a bounded, newest-first list of submitted bookings held
// on the client side.
type RecentRequests struct {
	mu       sync.Mutex
	capacity int
	entries  []RecentEntry
}

// NewRecentRequests creates a cache holding at most capacity entries.
func NewRecentRequests(capacity int) *RecentRequests {
	if capacity <= 0 {
		capacity = DefaultRecentCapacity
	}
	return &RecentRequests{capacity: capacity}
}

// Add records a booking at the front of the list. An existing entry with the
// same ID is replaced, so re-submitting after an edit refreshes its status
// rather than duplicating the bookmark. The oldest entry falls off when the
// capacity is exceeded.
func (r *RecentRequests) Add(b *models.Booking) {
	entry := RecentEntry{
		ID:            b.ID.Hex(),
		RequestNumber: b.RequestNumber,
		TypeName:      b.AssistanceTypeName,
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	filtered := r.entries[:0]
	for _, e := range r.entries {
		if e.ID != entry.ID {
			filtered = append(filtered, e)
		}
	}
	r.entries = append([]RecentEntry{entry}, filtered...)
	if len(r.entries) > r.capacity {
		r.entries = r.entries[:r.capacity]
	}
}

// List returns a copy of the entries, newest first.
func (r *RecentRequests) List() []RecentEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecentEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Remove drops the entry with the given ID, e.g. after the booking was
// deleted server-side.
func (r *RecentRequests) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}
