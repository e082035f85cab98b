// Package guest manages a wedding's guest list and RSVP state. Every
// query is scoped by wedding ID; a guest row is meaningless outside its
// wedding.
package guest

import (
	"time"

	"github.com/google/uuid"
)

// RSVP states.
const (
	RSVPPending   = "pending"
	RSVPAttending = "attending"
	RSVPDeclined  = "declined"
)

// Contact channels a guest can be reached on.
const (
	ChannelEmail    = "email"
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
)

// Guest is one invited party member. Channel is the guest's preferred
// announcement channel; PlusOnes is how many additional seats the guest
// confirmed.
type Guest struct {
	ID         uuid.UUID  `json:"id"`
	WeddingID  uuid.UUID  `json:"wedding_id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Email      string     `json:"email,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	Channel    string     `json:"channel"`
	RSVPStatus string     `json:"rsvp_status"`
	PlusOnes   int        `json:"plus_ones"`
	MealChoice string     `json:"meal_choice,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	RSVPAt     *time.Time `json:"rsvp_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// RSVPUpdate is the guest-submitted RSVP payload.
type RSVPUpdate struct {
	Status     string `json:"status"`
	PlusOnes   int    `json:"plus_ones"`
	MealChoice string `json:"meal_choice"`
	Notes      string `json:"notes"`
}

// Valid reports whether the payload carries a legal RSVP state.
func (u RSVPUpdate) Valid() bool {
	switch u.Status {
	case RSVPAttending, RSVPDeclined, RSVPPending:
		return u.PlusOnes >= 0
	}
	return false
}

// Counts summarizes RSVP progress for the admin dashboard.
type Counts struct {
	Total     int `json:"total"`
	Attending int `json:"attending"`
	Declined  int `json:"declined"`
	Pending   int `json:"pending"`
	// Seats is attending guests plus their confirmed plus-ones.
	Seats int `json:"seats"`
}
