package tenant

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// HeaderWeddingID is the response header carrying the resolved tenant, so
// edge caches and the frontend can key on it.
const HeaderWeddingID = "x-wedding-id"

// CookieWeddingID persists the resolved tenant across navigations. It is
// deliberately readable by client-side scripts.
const CookieWeddingID = "wedding_id"

// cookieMaxAge is 30 days.
const cookieMaxAge = 30 * 24 * time.Hour

type contextKey struct{ name string }

var weddingIDKey = &contextKey{"wedding-id"}

// FromContext returns the wedding ID attached to the request context, or
// "" when the request resolved tenant-less.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(weddingIDKey).(string)
	return id
}

// WithWeddingID returns a context carrying the wedding ID. Exported for
// handler tests.
func WithWeddingID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, weddingIDKey, id)
}

// Middleware runs the resolver on every request and attaches the outcome:
// request context, x-wedding-id response header, and wedding_id cookie.
// Skip-listed and unresolved requests pass through untouched.
func Middleware(r *Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			res := r.Resolve(req)
			if !res.Resolved() {
				next.ServeHTTP(w, req)
				return
			}

			w.Header().Set(HeaderWeddingID, res.WeddingID)
			// Secure follows the connection, never the dev flags: localhost
			// testing stays enabled by default in production deployments.
			http.SetCookie(w, &http.Cookie{
				Name:     CookieWeddingID,
				Value:    res.WeddingID,
				Path:     "/",
				MaxAge:   int(cookieMaxAge.Seconds()),
				SameSite: http.SameSiteLaxMode,
				Secure:   requestIsSecure(req),
				HttpOnly: false,
			})

			next.ServeHTTP(w, req.WithContext(WithWeddingID(req.Context(), res.WeddingID)))
		})
	}
}

// requestIsSecure reports whether the client connection is HTTPS, either
// directly or via a terminating proxy.
func requestIsSecure(req *http.Request) bool {
	if req.TLS != nil {
		return true
	}
	return strings.EqualFold(req.Header.Get("X-Forwarded-Proto"), "https")
}

// RequireTenant rejects requests that resolved tenant-less. Mounted on
// routes that only make sense inside a wedding site.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if FromContext(req.Context()) == "" {
			http.NotFound(w, req)
			return
		}
		next.ServeHTTP(w, req)
	})
}
