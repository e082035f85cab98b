package event

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestStoreCreateAssignsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	store := NewStore(db)

	e := &Event{
		WeddingID: uuid.New(),
		Title:     "Ceremony",
		Location:  "St. Mary's Chapel",
		StartsAt:  time.Date(2026, 6, 20, 14, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(`INSERT INTO events`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Create(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if e.ID == uuid.Nil {
		t.Error("Create did not assign an ID")
	}
}

func TestStoreListChronological(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	store := NewStore(db)

	weddingID := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "wedding_id", "title", "location", "description",
		"starts_at", "ends_at", "dress_code", "created_at", "updated_at"}).
		AddRow(uuid.New(), weddingID, "Ceremony", "Chapel", "", now, nil, "formal", now, now).
		AddRow(uuid.New(), weddingID, "Reception", "The Barn", "", now.Add(2*time.Hour), nil, "", now, now)

	mock.ExpectQuery(`SELECT (.+) FROM events WHERE wedding_id`).
		WithArgs(weddingID).
		WillReturnRows(rows)

	events, err := store.List(context.Background(), weddingID)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Title != "Ceremony" || events[1].Title != "Reception" {
		t.Errorf("unexpected order: %s, %s", events[0].Title, events[1].Title)
	}
	if events[0].EndsAt != nil {
		t.Error("null ends_at should scan to nil")
	}
}

func TestStoreUpdateUnknownEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	store := NewStore(db)

	mock.ExpectExec(`UPDATE events`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	e := &Event{ID: uuid.New(), WeddingID: uuid.New(), Title: "Afterparty"}
	if err := store.Update(context.Background(), e); err == nil {
		t.Fatal("expected error for unknown event")
	}
}
