package tenant

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// Store is the lookup surface the resolver needs. All lookups return
// ("", nil) on a miss; an error means the datastore itself failed.
type Store interface {
	// WeddingIDByDomain returns the tenant owning a verified custom
	// domain matching any of the given host candidates.
	WeddingIDByDomain(ctx context.Context, hosts ...string) (string, error)
	// WeddingIDBySubdomain returns the tenant with the given subdomain
	// (exact, case-insensitive).
	WeddingIDBySubdomain(ctx context.Context, subdomain string) (string, error)
	// WeddingIDBySlug returns the tenant with the given path-routing slug.
	WeddingIDBySlug(ctx context.Context, slug string) (string, error)
	// IsOwner reports whether the customer administers the wedding.
	IsOwner(ctx context.Context, weddingID, customerID string) (bool, error)
}

// SQLStore implements Store against Postgres.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a tenant lookup store backed by Postgres.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// WeddingIDByDomain looks up a verified custom-domain record matching any
// candidate host. Unverified rows never resolve.
func (s *SQLStore) WeddingIDByDomain(ctx context.Context, hosts ...string) (string, error) {
	if len(hosts) == 0 {
		return "", nil
	}
	var weddingID string
	err := s.db.QueryRowContext(ctx, `
		SELECT wedding_id FROM wedding_domains
		WHERE domain = ANY($1) AND is_verified = true
		LIMIT 1
	`, pq.Array(hosts)).Scan(&weddingID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("custom-domain lookup: %w", err)
	}
	return weddingID, nil
}

// WeddingIDBySubdomain looks up a tenant by exact subdomain match.
func (s *SQLStore) WeddingIDBySubdomain(ctx context.Context, subdomain string) (string, error) {
	var weddingID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM weddings WHERE subdomain = lower($1)`, subdomain).Scan(&weddingID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("subdomain lookup: %w", err)
	}
	return weddingID, nil
}

// WeddingIDBySlug looks up a tenant by its /w/<slug> routing slug.
func (s *SQLStore) WeddingIDBySlug(ctx context.Context, slug string) (string, error) {
	var weddingID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM weddings WHERE slug = lower($1)`, slug).Scan(&weddingID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("slug lookup: %w", err)
	}
	return weddingID, nil
}

// IsOwner joins the session's customer against the tenant-ownership table.
func (s *SQLStore) IsOwner(ctx context.Context, weddingID, customerID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wedding_owners WHERE wedding_id = $1 AND customer_id = $2`,
		weddingID, customerID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("ownership lookup: %w", err)
	}
	return count > 0, nil
}
