package wedding

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestValidateLabel(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		wantErr bool
	}{
		{"simple", "acme", false},
		{"with hyphen", "jane-and-sam", false},
		{"with digits", "wedding2026", false},
		{"empty", "", true},
		{"uppercase", "Acme", true},
		{"leading hyphen", "-acme", true},
		{"trailing hyphen", "acme-", true},
		{"underscore", "jane_sam", true},
		{"dot", "jane.sam", true},
		{"too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLabel(tt.label)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLabel(%q) error = %v, wantErr %v", tt.label, err, tt.wantErr)
			}
		})
	}
}

func TestStore_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewStore(db)

	t.Run("normalizes subdomain and slug", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO weddings").
			WillReturnResult(sqlmock.NewResult(1, 1))

		w := &Wedding{
			Title:       "Jane & Sam",
			CoupleNames: "Jane and Sam",
			Subdomain:   "  JaneSam  ",
			Slug:        "Jane-And-Sam",
			WeddingDate: time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		}
		if err := store.Create(context.Background(), w); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if w.Subdomain != "janesam" {
			t.Errorf("Create() subdomain = %q, want %q", w.Subdomain, "janesam")
		}
		if w.Slug != "jane-and-sam" {
			t.Errorf("Create() slug = %q, want %q", w.Slug, "jane-and-sam")
		}
		if w.Status != StatusActive {
			t.Errorf("Create() status = %q, want %q", w.Status, StatusActive)
		}
		if w.ID == uuid.Nil {
			t.Error("Create() did not assign an ID")
		}
	})

	t.Run("rejects invalid subdomain", func(t *testing.T) {
		w := &Wedding{Subdomain: "Bad_Label", Slug: "ok-slug"}
		if err := store.Create(context.Background(), w); err == nil {
			t.Error("Create() expected error for invalid subdomain")
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}

func TestStore_GetBySubdomain(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewStore(db)
	id := uuid.New()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "title", "couple_names", "subdomain", "slug", "wedding_date", "status", "created_at", "updated_at",
		}).AddRow(id, "Jane & Sam", "Jane and Sam", "acme", "jane-and-sam", now, "active", now, now)

		mock.ExpectQuery("SELECT id, title, couple_names, subdomain, slug, wedding_date, status, created_at, updated_at FROM weddings WHERE subdomain").
			WithArgs("ACME").
			WillReturnRows(rows)

		w, err := store.GetBySubdomain(context.Background(), "ACME")
		if err != nil {
			t.Fatalf("GetBySubdomain() error = %v", err)
		}
		if w == nil || w.ID != id {
			t.Errorf("GetBySubdomain() = %+v, want id %s", w, id)
		}
	})

	t.Run("miss returns nil, nil", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, title, couple_names, subdomain, slug, wedding_date, status, created_at, updated_at FROM weddings WHERE subdomain").
			WithArgs("nobody").
			WillReturnError(sql.ErrNoRows)

		w, err := store.GetBySubdomain(context.Background(), "nobody")
		if err != nil {
			t.Fatalf("GetBySubdomain() error = %v", err)
		}
		if w != nil {
			t.Errorf("GetBySubdomain() = %+v, want nil", w)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}

func TestStore_IsOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewStore(db)

	t.Run("owner", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs("w-1", "cust-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		owned, err := store.IsOwner(context.Background(), "w-1", "cust-1")
		if err != nil {
			t.Fatalf("IsOwner() error = %v", err)
		}
		if !owned {
			t.Error("IsOwner() = false, want true")
		}
	})

	t.Run("not owner", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs("w-1", "cust-2").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		owned, err := store.IsOwner(context.Background(), "w-1", "cust-2")
		if err != nil {
			t.Fatalf("IsOwner() error = %v", err)
		}
		if owned {
			t.Error("IsOwner() = true, want false")
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %s", err)
	}
}
