// Package api exposes the HTTP surface of the platform: public wedding
// sites, the couple-facing admin API, and auth endpoints.
package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vowsuite/vowsuite/internal/announce"
	"github.com/vowsuite/vowsuite/internal/config"
	"github.com/vowsuite/vowsuite/internal/domains"
	"github.com/vowsuite/vowsuite/internal/event"
	"github.com/vowsuite/vowsuite/internal/gallery"
	"github.com/vowsuite/vowsuite/internal/guest"
	"github.com/vowsuite/vowsuite/internal/pkg/httputil"
	"github.com/vowsuite/vowsuite/internal/wedding"
)

// Handlers holds the stores and services behind the HTTP surface.
type Handlers struct {
	db            *sql.DB
	redisClient   *redis.Client
	cfg           *config.Config
	weddings      *wedding.Store
	guests        *guest.Store
	events        *event.Store
	gallery       *gallery.Service
	domains       *domains.Service
	announcements *announce.SQLStore
}

// NewHandlers wires the handler set. redisClient and gallery/domains
// services may be nil when the corresponding feature is disabled.
func NewHandlers(db *sql.DB, redisClient *redis.Client, cfg *config.Config,
	weddings *wedding.Store, guests *guest.Store, events *event.Store,
	gallerySvc *gallery.Service, domainsSvc *domains.Service,
	announcements *announce.SQLStore) *Handlers {
	return &Handlers{
		db:            db,
		redisClient:   redisClient,
		cfg:           cfg,
		weddings:      weddings,
		guests:        guests,
		events:        events,
		gallery:       gallerySvc,
		domains:       domainsSvc,
		announcements: announcements,
	}
}

// HealthCheck reports process liveness plus dependency status. The
// endpoint stays 200 as long as the process serves; dependency failures
// show up in the body for monitors to alert on.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := map[string]string{}
	if err := h.db.PingContext(ctx); err != nil {
		deps["database"] = "down: " + err.Error()
	} else {
		deps["database"] = "ok"
	}
	if h.redisClient != nil {
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			deps["redis"] = "down: " + err.Error()
		} else {
			deps["redis"] = "ok"
		}
	}

	httputil.OK(w, map[string]interface{}{
		"status":       "ok",
		"time":         time.Now().UTC().Format(time.RFC3339),
		"dependencies": deps,
	})
}
