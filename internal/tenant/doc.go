// Package tenant resolves which wedding an inbound HTTP request belongs
// to. Resolution runs once per request as middleware, before any
// tenant-scoped handler, and propagates the wedding ID downstream via the
// x-wedding-id response header and the wedding_id cookie.
//
// Strategies run in strict precedence order with first-match-wins:
//
//  1. skip list (static assets, health, tenant-less product sections)
//  2. local-testing query overrides (dev only, saas mode only)
//  3. self-hosted default wedding
//  4. saas domain resolution (custom domain → subdomain → /w/<slug> path),
//     raced against a bounded lookup timeout
//
// A resolution miss is not an error: the request proceeds tenant-less.
package tenant
