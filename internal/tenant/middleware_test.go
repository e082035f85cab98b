package tenant

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler(sawWeddingID *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if sawWeddingID != nil {
			*sawWeddingID = FromContext(req.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestMiddlewareAttachesTenant(t *testing.T) {
	store := &fakeStore{subdomains: map[string]string{"acme": "w-acme"}}
	r := NewResolver(saasConfig(), store)

	var saw string
	handler := Middleware(r)(okHandler(&saw))

	req := httptest.NewRequest("GET", "http://acme.vowsuite.com/rsvp", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if saw != "w-acme" {
		t.Errorf("handler saw wedding ID %q, want w-acme", saw)
	}
	if got := rec.Header().Get(HeaderWeddingID); got != "w-acme" {
		t.Errorf("%s header = %q, want w-acme", HeaderWeddingID, got)
	}

	cookie := findCookie(t, rec, CookieWeddingID)
	if cookie == nil {
		t.Fatal("wedding_id cookie not set")
	}
	if cookie.Value != "w-acme" {
		t.Errorf("cookie value = %q, want w-acme", cookie.Value)
	}
	if cookie.MaxAge != 30*24*3600 {
		t.Errorf("cookie max-age = %d, want 30 days", cookie.MaxAge)
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie SameSite = %v, want Lax", cookie.SameSite)
	}
	if cookie.Path != "/" {
		t.Errorf("cookie path = %q, want /", cookie.Path)
	}
	if cookie.HttpOnly {
		t.Error("wedding_id cookie must stay readable by client scripts")
	}
}

func TestMiddlewareSkipListUntouched(t *testing.T) {
	store := &fakeStore{subdomains: map[string]string{"acme": "w-acme"}}
	r := NewResolver(saasConfig(), store)

	var saw string
	handler := Middleware(r)(okHandler(&saw))

	req := httptest.NewRequest("GET", "http://acme.vowsuite.com/favicon.ico", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if saw != "" {
		t.Errorf("skip-listed request carried wedding ID %q", saw)
	}
	if rec.Header().Get(HeaderWeddingID) != "" {
		t.Error("skip-listed request got the tenant header")
	}
	if findCookie(t, rec, CookieWeddingID) != nil {
		t.Error("skip-listed request got the tenant cookie")
	}
}

func TestMiddlewareUnresolvedUntouched(t *testing.T) {
	r := NewResolver(saasConfig(), &fakeStore{})
	handler := Middleware(r)(okHandler(nil))

	req := httptest.NewRequest("GET", "http://vowsuite.com/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get(HeaderWeddingID) != "" {
		t.Error("unresolved request got the tenant header")
	}
	if findCookie(t, rec, CookieWeddingID) != nil {
		t.Error("unresolved request got the tenant cookie")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("unresolved request blocked: status %d", rec.Code)
	}
}

func TestMiddlewareCookieSecureFlag(t *testing.T) {
	store := &fakeStore{subdomains: map[string]string{"acme": "w-acme"}}

	tests := []struct {
		name             string
		dev              bool
		localhostTesting bool
		forwarded        string
		wantSecure       bool
	}{
		{"production behind https proxy", false, false, "https", true},
		{"production plain http", false, false, "", false},
		// Shipped defaults keep localhost testing on; that must not
		// strip Secure from TLS traffic.
		{"default config behind https proxy", false, true, "https", true},
		{"dev behind https proxy", true, true, "https", true},
		{"dev plain http", true, true, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := saasConfig()
			cfg.Development = tt.dev
			cfg.EnableLocalhostTesting = tt.localhostTesting
			handler := Middleware(NewResolver(cfg, store))(okHandler(nil))

			req := httptest.NewRequest("GET", "http://acme.vowsuite.com/", nil)
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-Proto", tt.forwarded)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			cookie := findCookie(t, rec, CookieWeddingID)
			if cookie == nil {
				t.Fatal("wedding_id cookie not set")
			}
			if cookie.Secure != tt.wantSecure {
				t.Errorf("cookie Secure = %v, want %v", cookie.Secure, tt.wantSecure)
			}
		})
	}
}

func TestRequireTenant(t *testing.T) {
	handler := RequireTenant(okHandler(nil))

	req := httptest.NewRequest("GET", "http://vowsuite.com/guests", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("tenant-less request: status %d, want 404", rec.Code)
	}

	req = httptest.NewRequest("GET", "http://acme.vowsuite.com/guests", nil)
	req = req.WithContext(WithWeddingID(req.Context(), "w-acme"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("tenant request: status %d, want 200", rec.Code)
	}
}
