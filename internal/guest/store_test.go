package guest

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestRSVPUpdateValid(t *testing.T) {
	tests := []struct {
		name string
		u    RSVPUpdate
		want bool
	}{
		{"attending", RSVPUpdate{Status: RSVPAttending}, true},
		{"declined", RSVPUpdate{Status: RSVPDeclined}, true},
		{"pending", RSVPUpdate{Status: RSVPPending}, true},
		{"attending with plus ones", RSVPUpdate{Status: RSVPAttending, PlusOnes: 2}, true},
		{"negative plus ones", RSVPUpdate{Status: RSVPAttending, PlusOnes: -1}, false},
		{"unknown status", RSVPUpdate{Status: "maybe"}, false},
		{"empty status", RSVPUpdate{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.u.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStoreCreateDefaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	store := NewStore(db)

	weddingID := uuid.New()
	g := &Guest{WeddingID: weddingID, FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}

	mock.ExpectExec(`INSERT INTO guests`).
		WithArgs(sqlmock.AnyArg(), weddingID, "Jane", "Doe", "jane@example.com", "",
			ChannelEmail, RSVPPending, 0, "", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Create(context.Background(), g); err != nil {
		t.Fatal(err)
	}
	if g.ID == uuid.Nil {
		t.Error("Create did not assign an ID")
	}
	if g.RSVPStatus != RSVPPending {
		t.Errorf("RSVPStatus = %q, want pending", g.RSVPStatus)
	}
	if g.Channel != ChannelEmail {
		t.Errorf("Channel = %q, want email default", g.Channel)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStoreSubmitRSVP(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	store := NewStore(db)

	weddingID, guestID := uuid.New(), uuid.New()
	mock.ExpectExec(`UPDATE guests`).
		WithArgs(weddingID, guestID, RSVPAttending, 1, "vegetarian", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = store.SubmitRSVP(context.Background(), weddingID, guestID, RSVPUpdate{
		Status:     RSVPAttending,
		PlusOnes:   1,
		MealChoice: "vegetarian",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStoreSubmitRSVPInvalidStatus(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	store := NewStore(db)

	err = store.SubmitRSVP(context.Background(), uuid.New(), uuid.New(), RSVPUpdate{Status: "maybe"})
	if err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestStoreSubmitRSVPUnknownGuest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	store := NewStore(db)

	mock.ExpectExec(`UPDATE guests`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = store.SubmitRSVP(context.Background(), uuid.New(), uuid.New(), RSVPUpdate{Status: RSVPDeclined})
	if err == nil {
		t.Fatal("expected error for unknown guest")
	}
}

func TestStoreRSVPCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	store := NewStore(db)

	weddingID := uuid.New()
	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(weddingID).
		WillReturnRows(sqlmock.NewRows([]string{"total", "attending", "declined", "pending", "seats"}).
			AddRow(42, 30, 5, 7, 48))

	counts, err := store.RSVPCounts(context.Background(), weddingID)
	if err != nil {
		t.Fatal(err)
	}
	if counts.Total != 42 || counts.Attending != 30 || counts.Seats != 48 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}
