// Package httputil provides shared JSON response and request-decoding
// helpers used by all API handlers.
package httputil
