// Package announce delivers couple-authored announcements ("save the
// date", schedule changes, day-of logistics) to a wedding's guest list
// over each guest's preferred channel.
package announce

import (
	"time"

	"github.com/google/uuid"
)

// Announcement states.
const (
	StatusDraft   = "draft"
	StatusQueued  = "queued"
	StatusSending = "sending"
	StatusSent    = "sent"
)

// Per-recipient delivery states.
const (
	RecipientPending = "pending"
	RecipientSent    = "sent"
	RecipientFailed  = "failed"
	// RecipientSkipped marks guests with no usable address on their
	// preferred channel.
	RecipientSkipped = "skipped"
)

// Announcement is one message authored by the couple. Subject and Body
// are Liquid templates rendered per guest.
type Announcement struct {
	ID          uuid.UUID  `json:"id"`
	WeddingID   uuid.UUID  `json:"wedding_id"`
	Subject     string     `json:"subject"`
	Body        string     `json:"body"`
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Recipient is one guest's delivery record for an announcement.
type Recipient struct {
	ID             uuid.UUID  `json:"id"`
	AnnouncementID uuid.UUID  `json:"announcement_id"`
	GuestID        uuid.UUID  `json:"guest_id"`
	Channel        string     `json:"channel"`
	Address        string     `json:"address"`
	GuestFirstName string     `json:"guest_first_name"`
	GuestLastName  string     `json:"guest_last_name"`
	Status         string     `json:"status"`
	Error          string     `json:"error,omitempty"`
	MessageID      string     `json:"message_id,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
}

// DeliveryCounts summarizes fan-out progress for one announcement.
type DeliveryCounts struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Done reports whether the fan-out has no work left.
func (c DeliveryCounts) Done() bool { return c.Pending == 0 }
