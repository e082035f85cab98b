package event

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store persists schedule entries in Postgres.
type Store struct {
	db *sql.DB
}

// NewStore creates an event store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const eventColumns = `id, wedding_id, title, location, description,
	starts_at, ends_at, dress_code, created_at, updated_at`

// Create inserts a schedule entry.
func (s *Store) Create(ctx context.Context, e *Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, wedding_id, title, location, description,
			starts_at, ends_at, dress_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, e.ID, e.WeddingID, e.Title, e.Location, e.Description,
		e.StartsAt, e.EndsAt, e.DressCode, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Get returns an event scoped to its wedding, or (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, weddingID, eventID uuid.UUID) (*Event, error) {
	e := &Event{}
	err := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE wedding_id = $1 AND id = $2`,
		weddingID, eventID).Scan(
		&e.ID, &e.WeddingID, &e.Title, &e.Location, &e.Description,
		&e.StartsAt, &e.EndsAt, &e.DressCode, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// List returns a wedding's schedule in chronological order.
func (s *Store) List(ctx context.Context, weddingID uuid.UUID) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE wedding_id = $1 ORDER BY starts_at`,
		weddingID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.ID, &e.WeddingID, &e.Title, &e.Location, &e.Description,
			&e.StartsAt, &e.EndsAt, &e.DressCode, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Update rewrites a schedule entry.
func (s *Store) Update(ctx context.Context, e *Event) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE events
		SET title = $3, location = $4, description = $5,
			starts_at = $6, ends_at = $7, dress_code = $8, updated_at = NOW()
		WHERE wedding_id = $1 AND id = $2
	`, e.WeddingID, e.ID, e.Title, e.Location, e.Description,
		e.StartsAt, e.EndsAt, e.DressCode)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("event %s not found in wedding %s", e.ID, e.WeddingID)
	}
	return nil
}

// Delete removes a schedule entry.
func (s *Store) Delete(ctx context.Context, weddingID, eventID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM events WHERE wedding_id = $1 AND id = $2`, weddingID, eventID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}
