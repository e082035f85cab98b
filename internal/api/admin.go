package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vowsuite/vowsuite/internal/announce"
	"github.com/vowsuite/vowsuite/internal/domains"
	"github.com/vowsuite/vowsuite/internal/event"
	"github.com/vowsuite/vowsuite/internal/guest"
	"github.com/vowsuite/vowsuite/internal/pkg/httputil"
)

// ---- Guests ----

// AdminListGuests returns the full guest list.
func (h *Handlers) AdminListGuests(w http.ResponseWriter, r *http.Request) {
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	guests, err := h.guests.List(r.Context(), wid)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"guests": guests})
}

// AdminCreateGuest adds a guest to the list.
func (h *Handlers) AdminCreateGuest(w http.ResponseWriter, r *http.Request) {
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	var g guest.Guest
	if !httputil.Decode(w, r, &g) {
		return
	}
	if g.FirstName == "" {
		httputil.BadRequest(w, "first_name is required")
		return
	}
	g.WeddingID = wid
	if err := h.guests.Create(r.Context(), &g); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, &g)
}

// AdminUpdateGuest rewrites a guest's editable fields.
func (h *Handlers) AdminUpdateGuest(w http.ResponseWriter, r *http.Request) {
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
	var g guest.Guest
	if !httputil.Decode(w, r, &g) {
		return
	}
	g.ID = gid
	g.WeddingID = wid
	if err := h.guests.Update(r.Context(), &g); err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.OK(w, &g)
}

// AdminDeleteGuest removes a guest.
func (h *Handlers) AdminDeleteGuest(w http.ResponseWriter, r *http.Request) {
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
	if err := h.guests.Delete(r.Context(), wid, gid); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}

// AdminRSVPCounts returns the RSVP dashboard numbers.
func (h *Handlers) AdminRSVPCounts(w http.ResponseWriter, r *http.Request) {
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	counts, err := h.guests.RSVPCounts(r.Context(), wid)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, counts)
}

// ---- Events ----

// AdminCreateEvent adds a schedule entry.
func (h *Handlers) AdminCreateEvent(w http.ResponseWriter, r *http.Request) {
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	var e event.Event
	if !httputil.Decode(w, r, &e) {
		return
	}
	if e.Title == "" || e.StartsAt.IsZero() {
		httputil.BadRequest(w, "title and starts_at are required")
		return
	}
	e.WeddingID = wid
	if err := h.events.Create(r.Context(), &e); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, &e)
}

// AdminUpdateEvent rewrites a schedule entry.
func (h *Handlers) AdminUpdateEvent(w http.ResponseWriter, r *http.Request) {
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	eid, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.BadRequest(w, "invalid event id")
		return
	}
	var e event.Event
	if !httputil.Decode(w, r, &e) {
		return
	}
	e.ID = eid
	e.WeddingID = wid
	if err := h.events.Update(r.Context(), &e); err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.OK(w, &e)
}

// AdminDeleteEvent removes a schedule entry.
func (h *Handlers) AdminDeleteEvent(w http.ResponseWriter, r *http.Request) {
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	eid, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.BadRequest(w, "invalid event id")
		return
	}
	if err := h.events.Delete(r.Context(), wid, eid); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}

// ---- Announcements ----

// AdminCreateAnnouncement drafts an announcement.
func (h *Handlers) AdminCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	var body struct {
		Subject     string     `json:"subject"`
		Body        string     `json:"body"`
		ScheduledAt *time.Time `json:"scheduled_at"`
	}
	if !httputil.Decode(w, r, &body) {
		return
	}
	if body.Subject == "" || body.Body == "" {
		httputil.BadRequest(w, "subject and body are required")
		return
	}

	a := &announce.Announcement{
		WeddingID:   wid,
		Subject:     body.Subject,
		Body:        body.Body,
		ScheduledAt: body.ScheduledAt,
	}
	if err := h.announcements.Create(r.Context(), a); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, a)
}

// AdminListAnnouncements returns the wedding's announcements.
func (h *Handlers) AdminListAnnouncements(w http.ResponseWriter, r *http.Request) {
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	list, err := h.announcements.List(r.Context(), wid)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"announcements": list})
}

// AdminQueueAnnouncement materializes the recipient list and hands the
// announcement to the dispatcher.
func (h *Handlers) AdminQueueAnnouncement(w http.ResponseWriter, r *http.Request) {
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	aid, err := uuid.Parse(chi.URLParam(r, "announcementID"))
	if err != nil {
		httputil.BadRequest(w, "invalid announcement id")
		return
	}
	recipients, err := h.announcements.Queue(r.Context(), wid, aid)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.OK(w, map[string]interface{}{"queued": recipients})
}

// AdminAnnouncementCounts returns delivery progress.
func (h *Handlers) AdminAnnouncementCounts(w http.ResponseWriter, r *http.Request) {
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	aid, err := uuid.Parse(chi.URLParam(r, "announcementID"))
	if err != nil {
		httputil.BadRequest(w, "invalid announcement id")
		return
	}
	a, err := h.announcements.Get(r.Context(), wid, aid)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if a == nil {
		httputil.NotFound(w, "announcement not found")
		return
	}
	counts, err := h.announcements.Counts(r.Context(), aid)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"status": a.Status, "counts": counts})
}

// ---- Custom domains ----

// AdminRegisterDomain starts custom-domain setup and returns the DNS
// records the couple must create.
func (h *Handlers) AdminRegisterDomain(w http.ResponseWriter, r *http.Request) {
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	var body struct {
		Domain string `json:"domain"`
	}
	if !httputil.Decode(w, r, &body) {
		return
	}
	d, err := h.domains.Register(r.Context(), wid.String(), body.Domain)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.Created(w, d)
}

// AdminListDomains returns the wedding's custom domains.
func (h *Handlers) AdminListDomains(w http.ResponseWriter, r *http.Request) {
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	list, err := h.domains.ListForWedding(r.Context(), wid.String())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"domains": list})
}

// AdminVerifyDomain re-checks DNS for a pending domain.
func (h *Handlers) AdminVerifyDomain(w http.ResponseWriter, r *http.Request) {
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	d, err := h.domainForWedding(r, wid.String())
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	verified, err := h.domains.Verify(r.Context(), d.ID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, verified)
}

// AdminDeleteDomain detaches a custom domain.
func (h *Handlers) AdminDeleteDomain(w http.ResponseWriter, r *http.Request) {
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	d, err := h.domainForWedding(r, wid.String())
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	if err := h.domains.Delete(r.Context(), d.ID); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}

// domainForWedding loads the domain from the URL and checks it belongs
// to the resolved wedding, so one couple can never touch another's
// domain records.
func (h *Handlers) domainForWedding(r *http.Request, weddingID string) (*domains.CustomDomain, error) {
	d, err := h.domains.Get(r.Context(), chi.URLParam(r, "domainID"))
	if err != nil {
		return nil, err
	}
	if d == nil || d.WeddingID != weddingID {
		return nil, errors.New("domain not found")
	}
	return d, nil
}

// ---- Gallery ----

// AdminUploadPhoto accepts a multipart photo upload.
func (h *Handlers) AdminUploadPhoto(w http.ResponseWriter, r *http.Request) {
	if h.gallery == nil {
		httputil.NotFound(w, "gallery is not enabled")
		return
	}
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		httputil.BadRequest(w, "photo file is required")
		return
	}
	defer file.Close()

	photo, err := h.gallery.Upload(r.Context(), wid.String(), header.Filename, file)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.Created(w, photo)
}

// AdminSetPhotoCaption updates a photo's caption.
func (h *Handlers) AdminSetPhotoCaption(w http.ResponseWriter, r *http.Request) {
	if h.gallery == nil {
		httputil.NotFound(w, "gallery is not enabled")
		return
	}
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	var body struct {
		Caption string `json:"caption"`
	}
	if !httputil.Decode(w, r, &body) {
		return
	}
	photoID := chi.URLParam(r, "photoID")
	if err := h.gallery.SetCaption(r.Context(), wid.String(), photoID, body.Caption); err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.NoContent(w)
}

// AdminDeletePhoto removes a photo and its variants.
func (h *Handlers) AdminDeletePhoto(w http.ResponseWriter, r *http.Request) {
	if h.gallery == nil {
		httputil.NotFound(w, "gallery is not enabled")
		return
	}
	wid, ok := weddingID(r)
	if !ok {
		httputil.NotFound(w, "wedding not found")
		return
	}
	photoID := chi.URLParam(r, "photoID")
	if err := h.gallery.Delete(r.Context(), wid.String(), photoID); err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.NoContent(w)
}
