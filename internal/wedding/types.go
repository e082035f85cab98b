// Package wedding holds the tenant records: each wedding is one couple's
// isolated site and data scope within the shared platform.
package wedding

import (
	"time"

	"github.com/google/uuid"
)

// Wedding statuses.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Wedding is a tenant record. Subdomain and slug are unique, lowercase,
// and are both resolution keys: subdomain for host-based routing, slug
// for /w/<slug> path routing.
type Wedding struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	CoupleNames string    `json:"couple_names"`
	Subdomain   string    `json:"subdomain"`
	Slug        string    `json:"slug"`
	WeddingDate time.Time `json:"wedding_date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Owner links a customer account to a wedding it administers.
type Owner struct {
	WeddingID  uuid.UUID `json:"wedding_id"`
	CustomerID string    `json:"customer_id"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}
