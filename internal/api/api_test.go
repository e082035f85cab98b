package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vowsuite/vowsuite/internal/announce"
	"github.com/vowsuite/vowsuite/internal/config"
	"github.com/vowsuite/vowsuite/internal/event"
	"github.com/vowsuite/vowsuite/internal/guest"
	"github.com/vowsuite/vowsuite/internal/tenant"
	"github.com/vowsuite/vowsuite/internal/wedding"
)

func testHandlers(t *testing.T, opts ...func(*sqlmock.Sqlmock)) (*Handlers, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	h := NewHandlers(db, nil, &config.Config{},
		wedding.NewStore(db), guest.NewStore(db), event.NewStore(db),
		nil, nil, announce.NewSQLStore(db))
	return h, mock
}

// tenantRequest builds a request carrying a resolved wedding ID.
func tenantRequest(method, target string, body []byte, weddingID uuid.UUID) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(tenant.WithWeddingID(req.Context(), weddingID.String()))
}

func TestHealthCheckReportsDependencies(t *testing.T) {
	h, mock := testHandlers(t)
	mock.ExpectPing()

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Dependencies["database"] != "ok" {
		t.Errorf("body = %+v", body)
	}
}

func TestGetWeddingWithoutTenant(t *testing.T) {
	h, _ := testHandlers(t)

	rec := httptest.NewRecorder()
	h.GetWedding(rec, httptest.NewRequest("GET", "/api/wedding", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSubmitRSVP(t *testing.T) {
	h, mock := testHandlers(t)
	wid := uuid.New()
	gid := uuid.New()

	mock.ExpectExec(`UPDATE guests`).
		WithArgs(wid, gid, guest.RSVPAttending, 1, "vegetarian", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	now := time.Now()
	guestRow := sqlmock.NewRows([]string{
		"id", "wedding_id", "first_name", "last_name", "email", "phone",
		"channel", "rsvp_status", "plus_ones", "meal_choice", "notes", "rsvp_at",
		"created_at", "updated_at",
	}).AddRow(gid, wid, "Jane", "Doe", "jane@example.com", "",
		guest.ChannelEmail, guest.RSVPAttending, 1, "vegetarian", "", now, now, now)
	mock.ExpectQuery(`FROM guests`).WithArgs(wid, gid).WillReturnRows(guestRow)

	payload, _ := json.Marshal(guest.RSVPUpdate{
		Status: guest.RSVPAttending, PlusOnes: 1, MealChoice: "vegetarian",
	})

	router := chi.NewRouter()
	router.Post("/api/rsvp/{guestID}", h.SubmitRSVP)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, tenantRequest("POST", "/api/rsvp/"+gid.String(), payload, wid))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), guest.RSVPAttending) {
		t.Errorf("response missing rsvp status: %s", rec.Body.String())
	}
}

func TestSubmitRSVPRejectsBadStatus(t *testing.T) {
	h, _ := testHandlers(t)
	wid := uuid.New()
	gid := uuid.New()

	payload := []byte(`{"status":"maybe"}`)
	router := chi.NewRouter()
	router.Post("/api/rsvp/{guestID}", h.SubmitRSVP)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, tenantRequest("POST", "/api/rsvp/"+gid.String(), payload, wid))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAdminCreateGuestValidation(t *testing.T) {
	h, _ := testHandlers(t)
	wid := uuid.New()

	rec := httptest.NewRecorder()
	h.AdminCreateGuest(rec, tenantRequest("POST", "/admin/api/guests", []byte(`{"last_name":"Doe"}`), wid))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAdminCreateGuest(t *testing.T) {
	h, mock := testHandlers(t)
	wid := uuid.New()

	mock.ExpectExec(`INSERT INTO guests`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	payload := []byte(`{"first_name":"Jane","last_name":"Doe","email":"jane@example.com"}`)
	rec := httptest.NewRecorder()
	h.AdminCreateGuest(rec, tenantRequest("POST", "/admin/api/guests", payload, wid))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created guest.Guest
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.WeddingID != wid {
		t.Errorf("guest not scoped to tenant: %s", created.WeddingID)
	}
	if created.RSVPStatus != guest.RSVPPending {
		t.Errorf("rsvp status = %q, want pending", created.RSVPStatus)
	}
}

func TestAdminCreateAnnouncementValidation(t *testing.T) {
	h, _ := testHandlers(t)
	wid := uuid.New()

	rec := httptest.NewRecorder()
	h.AdminCreateAnnouncement(rec, tenantRequest("POST", "/admin/api/announcements",
		[]byte(`{"subject":"no body"}`), wid))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

type fakeSessions struct{ customerID string }

func (f fakeSessions) CustomerID(*http.Request) string { return f.customerID }

func TestDashboardWeddingsRequiresSession(t *testing.T) {
	h, _ := testHandlers(t)

	rec := httptest.NewRecorder()
	h.DashboardWeddings(fakeSessions{})(rec, httptest.NewRequest("GET", "/dashboard/api/weddings", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestDashboardWeddings(t *testing.T) {
	h, mock := testHandlers(t)

	rows := sqlmock.NewRows([]string{
		"id", "title", "couple_names", "subdomain", "slug", "wedding_date",
		"status", "created_at", "updated_at",
	}).AddRow(uuid.New(), "Jane & Sam", "Jane and Sam", "janeandsam", "janeandsam",
		time.Now(), wedding.StatusActive, time.Now(), time.Now())
	mock.ExpectQuery(`FROM weddings w`).WithArgs("cust-1").WillReturnRows(rows)

	rec := httptest.NewRecorder()
	h.DashboardWeddings(fakeSessions{customerID: "cust-1"})(rec,
		httptest.NewRequest("GET", "/dashboard/api/weddings", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "janeandsam") {
		t.Errorf("response missing wedding: %s", rec.Body.String())
	}
}
