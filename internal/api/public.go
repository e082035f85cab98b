package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vowsuite/vowsuite/internal/guest"
	"github.com/vowsuite/vowsuite/internal/pkg/httputil"
	"github.com/vowsuite/vowsuite/internal/tenant"
)

// weddingID pulls the resolved tenant off the request context. Handlers
// behind RequireTenant can assume it parses.
func weddingID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(tenant.FromContext(r.Context()))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// GetWedding returns the public site payload for the resolved tenant.
func (h *Handlers) GetWedding(w http.ResponseWriter, r *http.Request) {
	id, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	wed, err := h.weddings.Get(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if wed == nil {
		httputil.NotFound(w, "wedding not found")
		return
	}
	httputil.OK(w, wed)
}

// ListEvents returns the wedding's schedule.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	events, err := h.events.List(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"events": events})
}

// ListGalleryPhotos returns a page of the wedding's gallery.
func (h *Handlers) ListGalleryPhotos(w http.ResponseWriter, r *http.Request) {
	if h.gallery == nil {
		httputil.NotFound(w, "gallery is not enabled")
		return
	}
	id, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	photos, total, err := h.gallery.List(r.Context(), id.String(), page, limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"photos": photos, "total": total})
}

// GetRSVP returns one guest's RSVP state so the form can pre-fill.
// Guests reach it through a personalized invite link carrying their ID.
func (h *Handlers) GetRSVP(w http.ResponseWriter, r *http.Request) {
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	gid, err := uuid.Parse(chi.URLParam(r, "guestID"))
	if err != nil {
		httputil.BadRequest(w, "invalid guest id")
		return
	}
	g, err := h.guests.Get(r.Context(), wid, gid)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if g == nil {
		httputil.NotFound(w, "guest not found")
		return
	}
	httputil.OK(w, g)
}

// SubmitRSVP records a guest's reply.
func (h *Handlers) SubmitRSVP(w http.ResponseWriter, r *http.Request) {
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	gid, err := uuid.Parse(chi.URLParam(r, "guestID"))
	if err != nil {
		httputil.BadRequest(w, "invalid guest id")
		return
	}

	var update guest.RSVPUpdate
	if !httputil.Decode(w, r, &update) {
		return
	}
	if !update.Valid() {
		httputil.BadRequest(w, "invalid rsvp")
		return
	}

	if err := h.guests.SubmitRSVP(r.Context(), wid, gid, update); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	g, err := h.guests.Get(r.Context(), wid, gid)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, g)
}
