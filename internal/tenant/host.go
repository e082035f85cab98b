package tenant

import (
	"net"
	"strings"
)

// Suffixes that emulate subdomain routing on a developer machine without
// DNS. Only honored when the resolver runs in development mode.
var devHostSuffixes = []string{".localhost", ".lvh.me"}

// StripPort removes a trailing :port from a host string, leaving bare
// hostnames and IP addresses untouched.
func StripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// NormalizeHost lowercases a hostname and collapses a leading "www." so
// that www.couple.com and couple.com are the same candidate. Normalizing
// twice yields the same string.
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSuffix(StripPort(host), "."))
	return strings.TrimPrefix(host, "www.")
}

// ExtractSubdomain returns the candidate tenant subdomain for a hostname,
// or "" when the host carries none.
//
// Production hosts need 3+ dot-separated labels; the first label is the
// candidate ("couple.vowsuite.com" → "couple"). Bare localhost and raw
// IPv4 addresses never yield a subdomain. In dev mode, *.localhost and
// *.lvh.me also resolve, so engineers can exercise multi-tenant routing
// locally.
func ExtractSubdomain(host string, dev bool) string {
	host = strings.ToLower(strings.TrimSuffix(StripPort(host), "."))
	if host == "" || host == "localhost" {
		return ""
	}
	if net.ParseIP(host) != nil {
		return ""
	}

	for _, suffix := range devHostSuffixes {
		if strings.HasSuffix(host, suffix) {
			// Local-only hosts never use the production label rule.
			if !dev {
				return ""
			}
			label := strings.TrimSuffix(host, suffix)
			if label != "" && !strings.Contains(label, ".") {
				return label
			}
			return ""
		}
	}

	// Collapse a leading www before counting labels, so www.acme.vowsuite.com
	// still yields acme and www.example.com yields nothing.
	host = strings.TrimPrefix(host, "www.")
	labels := strings.Split(host, ".")
	if len(labels) < 3 || labels[0] == "" {
		return ""
	}
	return labels[0]
}
