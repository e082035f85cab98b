package tenant

import (
	"net/http"
	"net/url"

	"github.com/vowsuite/vowsuite/internal/pkg/logger"
)

// SessionReader exposes the authenticated customer for a request. The
// auth package implements it; the gate only needs the identity.
type SessionReader interface {
	// CustomerID returns the signed-in customer's ID, or "" when the
	// request carries no valid session.
	CustomerID(req *http.Request) string
}

// signInPath is where both unauthenticated and unauthorized admin
// requests land.
const signInPath = "/auth/sign-in"

// AdminGate protects /admin paths on tenant sites: the request must carry
// a valid session AND the session's customer must own the resolved
// wedding. Anything else redirects to sign-in; an ownership miss (or an
// ownership-check failure) additionally carries error=access_denied so
// the page can explain the denial rather than silently loop.
func AdminGate(sessions SessionReader, store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			customerID := sessions.CustomerID(req)
			if customerID == "" {
				redirectToSignIn(w, req, "")
				return
			}

			weddingID := FromContext(req.Context())
			if weddingID == "" {
				redirectToSignIn(w, req, "access_denied")
				return
			}

			owned, err := store.IsOwner(req.Context(), weddingID, customerID)
			if err != nil {
				// Fail closed: an unknown ownership state must not grant
				// admin access.
				logger.Error("admin ownership check failed",
					"wedding_id", weddingID, "customer_id", customerID, "error", err)
				redirectToSignIn(w, req, "access_denied")
				return
			}
			if !owned {
				redirectToSignIn(w, req, "access_denied")
				return
			}

			next.ServeHTTP(w, req)
		})
	}
}

// redirectToSignIn sends the browser to the sign-in page, preserving the
// original destination in next= so sign-in can return the customer.
func redirectToSignIn(w http.ResponseWriter, req *http.Request, errCode string) {
	q := url.Values{}
	if errCode != "" {
		q.Set("error", errCode)
	}
	q.Set("next", req.URL.RequestURI())
	http.Redirect(w, req, signInPath+"?"+q.Encode(), http.StatusFound)
}
