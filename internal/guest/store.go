package guest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store persists guests in Postgres.
type Store struct {
	db *sql.DB
}

// NewStore creates a guest store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const guestColumns = `id, wedding_id, first_name, last_name, email, phone,
	channel, rsvp_status, plus_ones, meal_choice, notes, rsvp_at, created_at, updated_at`

func scanGuest(row interface{ Scan(...interface{}) error }) (*Guest, error) {
	g := &Guest{}
	err := row.Scan(&g.ID, &g.WeddingID, &g.FirstName, &g.LastName, &g.Email, &g.Phone,
		&g.Channel, &g.RSVPStatus, &g.PlusOnes, &g.MealChoice, &g.Notes, &g.RSVPAt,
		&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Create inserts a guest with a pending RSVP.
func (s *Store) Create(ctx context.Context, g *Guest) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.RSVPStatus == "" {
		g.RSVPStatus = RSVPPending
	}
	if g.Channel == "" {
		g.Channel = ChannelEmail
	}
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guests (id, wedding_id, first_name, last_name, email, phone,
			channel, rsvp_status, plus_ones, meal_choice, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, g.ID, g.WeddingID, g.FirstName, g.LastName, g.Email, g.Phone,
		g.Channel, g.RSVPStatus, g.PlusOnes, g.MealChoice, g.Notes, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create guest: %w", err)
	}
	return nil
}

// Get returns a guest scoped to its wedding, or (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, weddingID, guestID uuid.UUID) (*Guest, error) {
	g, err := scanGuest(s.db.QueryRowContext(ctx,
		`SELECT `+guestColumns+` FROM guests WHERE wedding_id = $1 AND id = $2`,
		weddingID, guestID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get guest: %w", err)
	}
	return g, nil
}

// List returns all guests for a wedding, ordered by name.
func (s *Store) List(ctx context.Context, weddingID uuid.UUID) ([]*Guest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+guestColumns+` FROM guests WHERE wedding_id = $1 ORDER BY last_name, first_name`,
		weddingID)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	defer rows.Close()

	var guests []*Guest
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan guest: %w", err)
		}
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

// Update rewrites a guest's editable fields.
func (s *Store) Update(ctx context.Context, g *Guest) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE guests
		SET first_name = $3, last_name = $4, email = $5, phone = $6,
			channel = $7, plus_ones = $8, meal_choice = $9, notes = $10, updated_at = NOW()
		WHERE wedding_id = $1 AND id = $2
	`, g.WeddingID, g.ID, g.FirstName, g.LastName, g.Email, g.Phone,
		g.Channel, g.PlusOnes, g.MealChoice, g.Notes)
	if err != nil {
		return fmt.Errorf("update guest: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update guest: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("guest %s not found in wedding %s", g.ID, g.WeddingID)
	}
	return nil
}

// SubmitRSVP records the guest's reply and stamps rsvp_at.
func (s *Store) SubmitRSVP(ctx context.Context, weddingID, guestID uuid.UUID, u RSVPUpdate) error {
	if !u.Valid() {
		return fmt.Errorf("invalid rsvp status %q", u.Status)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE guests
		SET rsvp_status = $3, plus_ones = $4, meal_choice = $5, notes = $6,
			rsvp_at = NOW(), updated_at = NOW()
		WHERE wedding_id = $1 AND id = $2
	`, weddingID, guestID, u.Status, u.PlusOnes, u.MealChoice, u.Notes)
	if err != nil {
		return fmt.Errorf("submit rsvp: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("submit rsvp: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("guest %s not found in wedding %s", guestID, weddingID)
	}
	return nil
}

// Delete removes a guest from the list.
func (s *Store) Delete(ctx context.Context, weddingID, guestID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM guests WHERE wedding_id = $1 AND id = $2`, weddingID, guestID)
	if err != nil {
		return fmt.Errorf("delete guest: %w", err)
	}
	return nil
}

// RSVPCounts aggregates RSVP progress for the admin dashboard.
func (s *Store) RSVPCounts(ctx context.Context, weddingID uuid.UUID) (*Counts, error) {
	c := &Counts{}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE rsvp_status = 'attending'),
			COUNT(*) FILTER (WHERE rsvp_status = 'declined'),
			COUNT(*) FILTER (WHERE rsvp_status = 'pending'),
			COALESCE(SUM(1 + plus_ones) FILTER (WHERE rsvp_status = 'attending'), 0)
		FROM guests WHERE wedding_id = $1
	`, weddingID).Scan(&c.Total, &c.Attending, &c.Declined, &c.Pending, &c.Seats)
	if err != nil {
		return nil, fmt.Errorf("rsvp counts: %w", err)
	}
	return c, nil
}
