package api

import (
	"net/http"
	"time"

	"github.com/vowsuite/vowsuite/internal/pkg/httputil"
	"github.com/vowsuite/vowsuite/internal/tenant"
	"github.com/vowsuite/vowsuite/internal/wedding"
)

// DashboardWeddings lists the weddings the signed-in customer
// administers. Runs outside tenant resolution: the dashboard spans all
// of a customer's weddings.
func (h *Handlers) DashboardWeddings(sessions tenant.SessionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID := sessions.CustomerID(r)
		if customerID == "" {
			httputil.Error(w, http.StatusUnauthorized, "sign in required")
			return
		}
		weddings, err := h.weddings.ListForOwner(r.Context(), customerID)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		httputil.OK(w, map[string]interface{}{"weddings": weddings})
	}
}

// CreateWedding onboards a new wedding site and makes the signed-in
// customer its owner.
func (h *Handlers) CreateWedding(sessions tenant.SessionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID := sessions.CustomerID(r)
		if customerID == "" {
			httputil.Error(w, http.StatusUnauthorized, "sign in required")
			return
		}

		var body struct {
			Title       string    `json:"title"`
			CoupleNames string    `json:"couple_names"`
			Subdomain   string    `json:"subdomain"`
			Slug        string    `json:"slug"`
			WeddingDate time.Time `json:"wedding_date"`
		}
		if !httputil.Decode(w, r, &body) {
			return
		}
		if body.Title == "" {
			httputil.BadRequest(w, "title is required")
			return
		}
		if body.Slug == "" {
			body.Slug = body.Subdomain
		}

		wed := &wedding.Wedding{
			Title:       body.Title,
			CoupleNames: body.CoupleNames,
			Subdomain:   body.Subdomain,
			Slug:        body.Slug,
			WeddingDate: body.WeddingDate,
		}
		if err := h.weddings.Create(r.Context(), wed); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		if err := h.weddings.AddOwner(r.Context(), wed.ID, customerID, "owner"); err != nil {
			httputil.InternalError(w, err)
			return
		}
		httputil.Created(w, wed)
	}
}
