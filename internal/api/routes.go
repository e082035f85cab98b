package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vowsuite/vowsuite/internal/auth"
	"github.com/vowsuite/vowsuite/internal/tenant"
)

// SetupRoutes builds the full router: tenant resolution on every
// request, the public site API, the session-scoped dashboard API, and
// the owner-gated admin API.
func SetupRoutes(h *Handlers, authManager *auth.Manager, resolver *tenant.Resolver, tenantStore tenant.Store) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	platform := h.cfg.Resolver.PlatformDomain
	origins := []string{"http://localhost:3000", "http://localhost:5173"}
	if platform != "" {
		origins = append(origins, "https://"+platform, "https://www."+platform)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{tenant.HeaderWeddingID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Every request passes through the resolver; skip-listed paths come
	// out untouched.
	r.Use(tenant.Middleware(resolver))

	r.Get("/health", h.HealthCheck)
	r.Get("/api/health", h.HealthCheck)

	if authManager != nil {
		r.Get("/auth/sign-in", authManager.HandleSignIn)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Get("/auth/sign-out", authManager.HandleSignOut)
		r.Get("/auth/me", authManager.HandleMe)

		// Dashboard spans all of a customer's weddings, so it runs on
		// session identity rather than tenant resolution.
		r.Route("/dashboard/api", func(r chi.Router) {
			r.Get("/weddings", h.DashboardWeddings(authManager))
			r.Post("/weddings", h.CreateWedding(authManager))
		})
	}

	// Public wedding-site API.
	r.Group(func(r chi.Router) {
		r.Use(tenant.RequireTenant)
		r.Get("/api/wedding", h.GetWedding)
		r.Get("/api/events", h.ListEvents)
		r.Get("/api/gallery", h.ListGalleryPhotos)
		r.Get("/api/rsvp/{guestID}", h.GetRSVP)
		r.Post("/api/rsvp/{guestID}", h.SubmitRSVP)
	})

	// Couple-facing admin API: requires a resolved tenant, a session,
	// and ownership of the wedding.
	r.Route("/admin/api", func(r chi.Router) {
		r.Use(tenant.RequireTenant)
		if authManager != nil {
			r.Use(tenant.AdminGate(authManager, tenantStore))
		}

		r.Get("/guests", h.AdminListGuests)
		r.Post("/guests", h.AdminCreateGuest)
		r.Put("/guests/{guestID}", h.AdminUpdateGuest)
		r.Delete("/guests/{guestID}", h.AdminDeleteGuest)
		r.Get("/guests/counts", h.AdminRSVPCounts)

		r.Post("/events", h.AdminCreateEvent)
		r.Put("/events/{eventID}", h.AdminUpdateEvent)
		r.Delete("/events/{eventID}", h.AdminDeleteEvent)

		r.Get("/announcements", h.AdminListAnnouncements)
		r.Post("/announcements", h.AdminCreateAnnouncement)
		r.Post("/announcements/{announcementID}/queue", h.AdminQueueAnnouncement)
		r.Get("/announcements/{announcementID}/counts", h.AdminAnnouncementCounts)

		r.Get("/domains", h.AdminListDomains)
		r.Post("/domains", h.AdminRegisterDomain)
		r.Post("/domains/{domainID}/verify", h.AdminVerifyDomain)
		r.Delete("/domains/{domainID}", h.AdminDeleteDomain)

		r.Post("/gallery", h.AdminUploadPhoto)
		r.Put("/gallery/{photoID}/caption", h.AdminSetPhotoCaption)
		r.Delete("/gallery/{photoID}", h.AdminDeletePhoto)
	})

	return r
}
