// Package event manages the wedding-day schedule shown on the public
// site: ceremony, reception, and anything else the couple adds.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is one schedule entry.
type Event struct {
	ID        uuid.UUID `json:"id"`
	WeddingID uuid.UUID `json:"wedding_id"`
	Title     string    `json:"title"`
	// Location is free-form: a venue name, an address, or a video link.
	Location    string     `json:"location,omitempty"`
	Description string     `json:"description,omitempty"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	// DressCode is shown verbatim when set.
	DressCode string    `json:"dress_code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
