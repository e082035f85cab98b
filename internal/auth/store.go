package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Customer is a paying account holder: the couple (or planner) who
// administers one or more wedding sites.
type Customer struct {
	ID        string    `json:"id"`
	GoogleID  string    `json:"google_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustomerStore persists customer accounts.
type CustomerStore interface {
	// UpsertFromGoogle creates or refreshes the customer record matching
	// a Google profile and returns it.
	UpsertFromGoogle(ctx context.Context, info *GoogleUserInfo) (*Customer, error)
	// Get returns the customer by ID, or (nil, nil) when absent.
	Get(ctx context.Context, id string) (*Customer, error)
}

// SQLCustomerStore implements CustomerStore against Postgres.
type SQLCustomerStore struct {
	db *sql.DB
}

// NewSQLCustomerStore creates a customer store backed by Postgres.
func NewSQLCustomerStore(db *sql.DB) *SQLCustomerStore {
	return &SQLCustomerStore{db: db}
}

// UpsertFromGoogle keys on the stable Google subject ID so an email
// change on the Google side does not fork the account.
func (s *SQLCustomerStore) UpsertFromGoogle(ctx context.Context, info *GoogleUserInfo) (*Customer, error) {
	customer := &Customer{}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO customers (id, google_id, email, name, picture, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (google_id) DO UPDATE
		SET email = EXCLUDED.email,
		    name = EXCLUDED.name,
		    picture = EXCLUDED.picture,
		    updated_at = NOW()
		RETURNING id, google_id, email, name, picture, created_at, updated_at
	`, uuid.New().String(), info.ID, info.Email, info.Name, info.Picture).Scan(
		&customer.ID, &customer.GoogleID, &customer.Email, &customer.Name,
		&customer.Picture, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert customer: %w", err)
	}
	return customer, nil
}

// Get returns the customer by ID.
func (s *SQLCustomerStore) Get(ctx context.Context, id string) (*Customer, error) {
	customer := &Customer{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, google_id, email, name, picture, created_at, updated_at
		FROM customers WHERE id = $1
	`, id).Scan(
		&customer.ID, &customer.GoogleID, &customer.Email, &customer.Name,
		&customer.Picture, &customer.CreatedAt, &customer.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return customer, nil
}
