package tenant

import (
	"context"
	"net/http"
	"strings"

	"github.com/vowsuite/vowsuite/internal/config"
	"github.com/vowsuite/vowsuite/internal/pkg/logger"
)

// Query parameters honored as local-testing overrides.
const (
	QueryParamWeddingID = "weddingId"
	QueryParamSubdomain = "subdomain"
)

// Path prefixes that never receive tenant context, regardless of
// deployment mode: static assets, framework internals, health checks, and
// the tenant-less sections of the product (marketing storefront,
// dashboard, onboarding, auth).
var skipPrefixes = []string{
	"/_next/",
	"/static/",
	"/assets/",
	"/api/health",
	"/health",
	"/auth/",
	"/dashboard",
	"/onboarding",
	"/store/",
}

// Exact tenant-less paths.
var skipExact = map[string]bool{
	"/favicon.ico": true,
	"/robots.txt":  true,
}

// Resolution is the per-request outcome: a wedding ID, or none.
type Resolution struct {
	WeddingID string
	// Skipped marks requests on the skip list; no strategy ran.
	Skipped bool
}

// Resolved reports whether a tenant was attached.
func (r Resolution) Resolved() bool { return r.WeddingID != "" }

// strategy is one resolution step. It returns the wedding ID, or "" to
// let the next strategy run.
type strategy func(ctx context.Context, req *http.Request) string

// Resolver determines the tenant for an inbound request. It is
// constructed once at startup; the precedence chain is an explicit
// ordered list of strategies, evaluated first-match-wins.
type Resolver struct {
	cfg        config.ResolverConfig
	store      Store
	strategies []strategy
}

// NewResolver builds a resolver from startup configuration. The resolver
// never reads the process environment at request time.
func NewResolver(cfg config.ResolverConfig, store Store) *Resolver {
	r := &Resolver{cfg: cfg, store: store}
	r.strategies = []strategy{
		r.localTestingOverride,
		r.selfHostedDefault,
		r.saasDomainResolution,
	}
	return r
}

// devMode reports whether local-testing behavior is active.
func (r *Resolver) devMode() bool {
	return r.cfg.EnableLocalhostTesting || r.cfg.Development
}

// ShouldSkip reports whether the path bypasses resolution entirely.
// The skip is unconditional regardless of deployment mode.
func ShouldSkip(path string) bool {
	if skipExact[path] {
		return true
	}
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Resolve runs the precedence chain for one request. It never returns an
// error: lookup failures and timeouts degrade to a tenant-less result so
// a datastore hiccup cannot take down untenanted traffic.
func (r *Resolver) Resolve(req *http.Request) Resolution {
	if ShouldSkip(req.URL.Path) {
		return Resolution{Skipped: true}
	}

	ctx := req.Context()
	for _, s := range r.strategies {
		if id := s(ctx, req); id != "" {
			return Resolution{WeddingID: id}
		}
	}
	return Resolution{}
}

// localTestingOverride honors ?weddingId= and ?subdomain= query params so
// engineers can exercise tenant routing without DNS. Active only in saas
// mode with local testing enabled.
func (r *Resolver) localTestingOverride(ctx context.Context, req *http.Request) string {
	if r.cfg.DeploymentMode != config.ModeSaaS || !r.devMode() {
		return ""
	}

	q := req.URL.Query()
	if id := q.Get(QueryParamWeddingID); id != "" {
		return id
	}
	if sub := q.Get(QueryParamSubdomain); sub != "" {
		id, err := r.store.WeddingIDBySubdomain(ctx, sub)
		if err != nil {
			logger.Warn("subdomain override lookup failed", "subdomain", sub, "error", err)
			return ""
		}
		return id
	}
	return ""
}

// selfHostedDefault short-circuits to the configured wedding in
// self-hosted deployments. No per-request lookup happens.
func (r *Resolver) selfHostedDefault(ctx context.Context, req *http.Request) string {
	if r.cfg.DeploymentMode != config.ModeSelfHosted {
		return ""
	}
	return r.cfg.DefaultWeddingID
}

// saasDomainResolution runs the domain-based lookup chain, raced against
// the configured timeout. The slow lookup's late result is discarded via
// the buffered channel; it is not cancelled at the transport level beyond
// the context deadline.
func (r *Resolver) saasDomainResolution(ctx context.Context, req *http.Request) string {
	if r.cfg.DeploymentMode != config.ModeSaaS {
		return ""
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.cfg.LookupTimeout())
	defer cancel()

	ch := make(chan string, 1)
	go func() {
		ch <- r.lookupByDomain(lookupCtx, req.Host, req.URL.Path)
	}()

	select {
	case id := <-ch:
		return id
	case <-lookupCtx.Done():
		logger.Warn("tenant lookup timed out", "host", req.Host, "path", req.URL.Path)
		return ""
	}
}

// lookupByDomain is the core sub-algorithm: verified custom domain, then
// subdomain, then /w/<slug> path, strictly short-circuiting. Any store
// error is logged and treated as a miss.
func (r *Resolver) lookupByDomain(ctx context.Context, host, path string) string {
	raw := strings.ToLower(StripPort(host))
	normalized := NormalizeHost(host)

	// A verified custom domain is an explicit ownership claim and takes
	// precedence over subdomain and path matching.
	candidates := []string{raw}
	if normalized != raw {
		candidates = append(candidates, normalized)
	}
	id, err := r.store.WeddingIDByDomain(ctx, candidates...)
	if err != nil {
		logger.Error("custom-domain lookup failed", "host", raw, "error", err)
		return ""
	}
	if id != "" {
		return id
	}

	if sub := ExtractSubdomain(host, r.devMode()); sub != "" {
		id, err := r.store.WeddingIDBySubdomain(ctx, sub)
		if err != nil {
			logger.Error("subdomain lookup failed", "subdomain", sub, "error", err)
			return ""
		}
		if id != "" {
			return id
		}
	}

	if slug := slugFromPath(path); slug != "" {
		id, err := r.store.WeddingIDBySlug(ctx, slug)
		if err != nil {
			logger.Error("slug lookup failed", "slug", slug, "error", err)
			return ""
		}
		if id != "" {
			return id
		}
	}

	return ""
}

// slugFromPath extracts the slug from a /w/<slug> path, or "".
func slugFromPath(path string) string {
	const prefix = "/w/"
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := strings.TrimPrefix(path, prefix)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
