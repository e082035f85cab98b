package announce

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence surface the dispatcher works against.
type Store interface {
	// ClaimPending atomically moves up to limit pending recipients into
	// flight for the announcement and returns them.
	ClaimPending(ctx context.Context, announcementID uuid.UUID, limit int) ([]*Recipient, error)
	// NextQueued returns the oldest queued-or-sending announcement due
	// for dispatch, or (nil, nil).
	NextQueued(ctx context.Context) (*Announcement, error)
	MarkRecipientSent(ctx context.Context, recipientID uuid.UUID, messageID string) error
	MarkRecipientFailed(ctx context.Context, recipientID uuid.UUID, sendErr string) error
	// FinishIfDone flips the announcement to sent when no pending
	// recipients remain.
	FinishIfDone(ctx context.Context, announcementID uuid.UUID) (bool, error)
	// WeddingVars loads the wedding-level template variables shared by
	// every recipient of an announcement.
	WeddingVars(ctx context.Context, weddingID uuid.UUID) (map[string]interface{}, error)
}

// SQLStore persists announcements and their recipients in Postgres.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates an announcement store.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Create inserts a draft announcement.
func (s *SQLStore) Create(ctx context.Context, a *Announcement) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Status = StatusDraft
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO announcements (id, wedding_id, subject, body, status, scheduled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.WeddingID, a.Subject, a.Body, a.Status, a.ScheduledAt, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// Get returns an announcement scoped to its wedding, or (nil, nil).
func (s *SQLStore) Get(ctx context.Context, weddingID, announcementID uuid.UUID) (*Announcement, error) {
	a := &Announcement{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, wedding_id, subject, body, status, scheduled_at, created_at, updated_at
		FROM announcements WHERE wedding_id = $1 AND id = $2
	`, weddingID, announcementID).Scan(
		&a.ID, &a.WeddingID, &a.Subject, &a.Body, &a.Status, &a.ScheduledAt, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get announcement: %w", err)
	}
	return a, nil
}

// List returns a wedding's announcements, newest first.
func (s *SQLStore) List(ctx context.Context, weddingID uuid.UUID) ([]*Announcement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wedding_id, subject, body, status, scheduled_at, created_at, updated_at
		FROM announcements WHERE wedding_id = $1 ORDER BY created_at DESC
	`, weddingID)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	var out []*Announcement
	for rows.Next() {
		a := &Announcement{}
		if err := rows.Scan(&a.ID, &a.WeddingID, &a.Subject, &a.Body, &a.Status,
			&a.ScheduledAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Queue materializes the recipient list from the wedding's guests and
// flips the announcement to queued. Guests with no usable address on
// their preferred channel get a skipped row immediately, so the couple
// sees exactly who an announcement cannot reach.
func (s *SQLStore) Queue(ctx context.Context, weddingID, announcementID uuid.UUID) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("queue announcement: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE announcements SET status = $3, updated_at = NOW()
		WHERE wedding_id = $1 AND id = $2 AND status = $4
	`, weddingID, announcementID, StatusQueued, StatusDraft)
	if err != nil {
		return 0, fmt.Errorf("queue announcement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("announcement %s is not a draft", announcementID)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO announcement_recipients
			(id, announcement_id, guest_id, channel, address, status)
		SELECT gen_random_uuid(), $2, g.id, g.channel,
			CASE WHEN g.channel = 'email' THEN g.email ELSE g.phone END,
			CASE WHEN (g.channel = 'email' AND g.email <> '')
			       OR (g.channel <> 'email' AND g.phone <> '')
			     THEN 'pending' ELSE 'skipped' END
		FROM guests g
		WHERE g.wedding_id = $1
	`, weddingID, announcementID)
	if err != nil {
		return 0, fmt.Errorf("materialize recipients: %w", err)
	}
	queued, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("materialize recipients: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("queue announcement: %w", err)
	}
	return int(queued), nil
}

// NextQueued returns the oldest announcement with dispatch work, honoring
// scheduled_at.
func (s *SQLStore) NextQueued(ctx context.Context) (*Announcement, error) {
	a := &Announcement{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, wedding_id, subject, body, status, scheduled_at, created_at, updated_at
		FROM announcements
		WHERE status IN ($1, $2)
		  AND (scheduled_at IS NULL OR scheduled_at <= NOW())
		ORDER BY created_at ASC
		LIMIT 1
	`, StatusQueued, StatusSending).Scan(
		&a.ID, &a.WeddingID, &a.Subject, &a.Body, &a.Status, &a.ScheduledAt, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next queued announcement: %w", err)
	}
	return a, nil
}

// ClaimPending grabs a batch of pending recipients with SKIP LOCKED so
// concurrent dispatchers never double-send, and flips the announcement
// to sending.
func (s *SQLStore) ClaimPending(ctx context.Context, announcementID uuid.UUID, limit int) ([]*Recipient, error) {
	rows, err := s.db.QueryContext(ctx, `
		WITH claimed AS (
			SELECT r.id FROM announcement_recipients r
			WHERE r.announcement_id = $1 AND r.status = 'pending'
			ORDER BY r.id
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE announcement_recipients r
		SET status = 'sending'
		FROM claimed, guests g
		WHERE r.id = claimed.id AND g.id = r.guest_id
		RETURNING r.id, r.announcement_id, r.guest_id, r.channel, r.address,
			g.first_name, g.last_name
	`, announcementID, limit)
	if err != nil {
		return nil, fmt.Errorf("claim recipients: %w", err)
	}
	defer rows.Close()

	var out []*Recipient
	for rows.Next() {
		r := &Recipient{Status: RecipientPending}
		if err := rows.Scan(&r.ID, &r.AnnouncementID, &r.GuestID, &r.Channel, &r.Address,
			&r.GuestFirstName, &r.GuestLastName); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(out) > 0 {
		_, err = s.db.ExecContext(ctx, `
			UPDATE announcements SET status = $2, updated_at = NOW()
			WHERE id = $1 AND status = $3
		`, announcementID, StatusSending, StatusQueued)
		if err != nil {
			return nil, fmt.Errorf("mark announcement sending: %w", err)
		}
	}
	return out, nil
}

// MarkRecipientSent records a successful delivery.
func (s *SQLStore) MarkRecipientSent(ctx context.Context, recipientID uuid.UUID, messageID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE announcement_recipients
		SET status = 'sent', message_id = $2, sent_at = NOW(), error = ''
		WHERE id = $1
	`, recipientID, messageID)
	if err != nil {
		return fmt.Errorf("mark recipient sent: %w", err)
	}
	return nil
}

// MarkRecipientFailed records a delivery failure.
func (s *SQLStore) MarkRecipientFailed(ctx context.Context, recipientID uuid.UUID, sendErr string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE announcement_recipients
		SET status = 'failed', error = $2
		WHERE id = $1
	`, recipientID, sendErr)
	if err != nil {
		return fmt.Errorf("mark recipient failed: %w", err)
	}
	return nil
}

// FinishIfDone flips the announcement to sent once nothing is pending or
// in flight. Returns whether it finished.
func (s *SQLStore) FinishIfDone(ctx context.Context, announcementID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE announcements SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		  AND NOT EXISTS (
			SELECT 1 FROM announcement_recipients
			WHERE announcement_id = $1 AND status IN ('pending', 'sending')
		  )
	`, announcementID, StatusSent, StatusSending)
	if err != nil {
		return false, fmt.Errorf("finish announcement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// WeddingVars exposes the wedding's own details to templates, keyed the
// way couples reference them: wedding_title, couple_names, wedding_date.
func (s *SQLStore) WeddingVars(ctx context.Context, weddingID uuid.UUID) (map[string]interface{}, error) {
	var (
		title       string
		coupleNames string
		weddingDate time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT title, couple_names, wedding_date FROM weddings WHERE id = $1
	`, weddingID).Scan(&title, &coupleNames, &weddingDate)
	if err == sql.ErrNoRows {
		return map[string]interface{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("wedding vars: %w", err)
	}
	return map[string]interface{}{
		"wedding_title": title,
		"couple_names":  coupleNames,
		"wedding_date":  weddingDate,
	}, nil
}

// Counts aggregates delivery progress for an announcement.
func (s *SQLStore) Counts(ctx context.Context, announcementID uuid.UUID) (*DeliveryCounts, error) {
	c := &DeliveryCounts{}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('pending', 'sending')),
			COUNT(*) FILTER (WHERE status = 'sent'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'skipped')
		FROM announcement_recipients WHERE announcement_id = $1
	`, announcementID).Scan(&c.Total, &c.Pending, &c.Sent, &c.Failed, &c.Skipped)
	if err != nil {
		return nil, fmt.Errorf("delivery counts: %w", err)
	}
	return c, nil
}
