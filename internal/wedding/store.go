package wedding

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store provides database operations for wedding tenant records
type Store struct {
	db *sql.DB
}

// NewStore creates a new wedding store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var labelRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// ValidateLabel checks a subdomain or slug candidate: lowercase
// alphanumeric with interior hyphens, max 63 chars.
func ValidateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("label cannot be empty")
	}
	if len(label) > 63 {
		return fmt.Errorf("label too long (max 63 characters)")
	}
	if !labelRe.MatchString(label) {
		return fmt.Errorf("label must be lowercase alphanumeric with interior hyphens")
	}
	return nil
}

// Create inserts a new wedding. Subdomain and slug are normalized to
// lowercase before insert; uniqueness is enforced by the schema.
func (s *Store) Create(ctx context.Context, w *Wedding) error {
	w.Subdomain = strings.ToLower(strings.TrimSpace(w.Subdomain))
	w.Slug = strings.ToLower(strings.TrimSpace(w.Slug))
	if err := ValidateLabel(w.Subdomain); err != nil {
		return fmt.Errorf("invalid subdomain: %w", err)
	}
	if err := ValidateLabel(w.Slug); err != nil {
		return fmt.Errorf("invalid slug: %w", err)
	}

	w.ID = uuid.New()
	w.CreatedAt = time.Now()
	w.UpdatedAt = time.Now()
	if w.Status == "" {
		w.Status = StatusActive
	}

	query := `INSERT INTO weddings (id, title, couple_names, subdomain, slug, wedding_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.ExecContext(ctx, query, w.ID, w.Title, w.CoupleNames, w.Subdomain,
		w.Slug, w.WeddingDate, w.Status, w.CreatedAt, w.UpdatedAt)
	return err
}

// Get retrieves a wedding by ID
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Wedding, error) {
	query := `SELECT id, title, couple_names, subdomain, slug, wedding_date, status, created_at, updated_at
		FROM weddings WHERE id = $1`

	w := &Wedding{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&w.ID, &w.Title, &w.CoupleNames, &w.Subdomain, &w.Slug,
		&w.WeddingDate, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return w, err
}

// GetBySubdomain retrieves a wedding by exact (case-insensitive) subdomain match
func (s *Store) GetBySubdomain(ctx context.Context, subdomain string) (*Wedding, error) {
	query := `SELECT id, title, couple_names, subdomain, slug, wedding_date, status, created_at, updated_at
		FROM weddings WHERE subdomain = lower($1)`

	w := &Wedding{}
	err := s.db.QueryRowContext(ctx, query, subdomain).Scan(
		&w.ID, &w.Title, &w.CoupleNames, &w.Subdomain, &w.Slug,
		&w.WeddingDate, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return w, err
}

// GetBySlug retrieves a wedding by its path-routing slug
func (s *Store) GetBySlug(ctx context.Context, slug string) (*Wedding, error) {
	query := `SELECT id, title, couple_names, subdomain, slug, wedding_date, status, created_at, updated_at
		FROM weddings WHERE slug = lower($1)`

	w := &Wedding{}
	err := s.db.QueryRowContext(ctx, query, slug).Scan(
		&w.ID, &w.Title, &w.CoupleNames, &w.Subdomain, &w.Slug,
		&w.WeddingDate, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return w, err
}

// Update persists mutable wedding fields
func (s *Store) Update(ctx context.Context, w *Wedding) error {
	w.UpdatedAt = time.Now()
	query := `UPDATE weddings SET title = $1, couple_names = $2, wedding_date = $3, status = $4, updated_at = $5
		WHERE id = $6`
	result, err := s.db.ExecContext(ctx, query, w.Title, w.CoupleNames, w.WeddingDate, w.Status, w.UpdatedAt, w.ID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("wedding %s not found", w.ID)
	}
	return nil
}

// AddOwner links a customer account to a wedding
func (s *Store) AddOwner(ctx context.Context, weddingID uuid.UUID, customerID, role string) error {
	if role == "" {
		role = "owner"
	}
	query := `INSERT INTO wedding_owners (wedding_id, customer_id, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (wedding_id, customer_id) DO NOTHING`
	_, err := s.db.ExecContext(ctx, query, weddingID, customerID, role, time.Now())
	return err
}

// IsOwner reports whether the customer administers the wedding
func (s *Store) IsOwner(ctx context.Context, weddingID, customerID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wedding_owners WHERE wedding_id = $1 AND customer_id = $2`,
		weddingID, customerID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check wedding ownership: %w", err)
	}
	return count > 0, nil
}

// ListForOwner returns all weddings a customer administers
func (s *Store) ListForOwner(ctx context.Context, customerID string) ([]*Wedding, error) {
	query := `SELECT w.id, w.title, w.couple_names, w.subdomain, w.slug, w.wedding_date, w.status, w.created_at, w.updated_at
		FROM weddings w
		JOIN wedding_owners o ON o.wedding_id = w.id
		WHERE o.customer_id = $1 AND w.status = 'active'
		ORDER BY w.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var weddings []*Wedding
	for rows.Next() {
		w := &Wedding{}
		err := rows.Scan(&w.ID, &w.Title, &w.CoupleNames, &w.Subdomain, &w.Slug,
			&w.WeddingDate, &w.Status, &w.CreatedAt, &w.UpdatedAt)
		if err != nil {
			return nil, err
		}
		weddings = append(weddings, w)
	}
	return weddings, rows.Err()
}
