package httpapi

import (
	"crypto/subtle"
	"net/http"
)

// Header names for the fetch-only API surface. Route layers outside this
// package enforce the same pair of checks, so the names are exported.
const (
	HeaderCSRFToken     = "X-CSRF-TOKEN"
	HeaderRequestedWith = "X-Requested-With"
	XMLHTTPRequest      = "XMLHttpRequest"
)

// CSRFTokenSource returns the expected CSRF token for a request's session,
// or empty when the request has no session.
type CSRFTokenSource func(r *http.Request) string

// RequireAJAX rejects requests missing the X-Requested-With marker. The
// tile API is fetch-only; a plain form post or cross-site navigation never
// carries the header.
func RequireAJAX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(HeaderRequestedWith) != XMLHTTPRequest {
			respondJSON(w, http.StatusForbidden, errorResponse{Error: "ajax requests only"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCSRF enforces the double-submit token on mutating requests.
func RequireCSRF(source CSRFTokenSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			expected := source(r)
			got := r.Header.Get(HeaderCSRFToken)
			if !TokensMatch(expected, got) {
				respondJSON(w, http.StatusForbidden, errorResponse{Error: "invalid csrf token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Mount registers the API endpoints on a mux with the AJAX marker and,
// when csrf is non-nil, the double-submit token enforced on every
// mutating route. The layout endpoint is a plain GET and stays open to
// page loads.
func (h *Handlers) Mount(mux *http.ServeMux, csrf CSRFTokenSource) {
	guard := func(fn http.HandlerFunc) http.Handler {
		var next http.Handler = fn
		if csrf != nil {
			next = RequireCSRF(csrf)(next)
		}
		return RequireAJAX(next)
	}

	mux.Handle("GET /dashboard/_layout", http.HandlerFunc(h.HandleLayout))
	mux.Handle("POST /api/tiles", guard(h.HandleFetchTile))
	mux.Handle("POST /api/tiles/reorder", guard(h.HandleReorder))
	mux.Handle("POST /api/tiles/resize", guard(h.HandleResize))
	mux.Handle("POST /api/tiles/move-screen", guard(h.HandleMoveScreen))
	mux.Handle("POST /api/tasks/complete", guard(h.HandleCompleteTask))
	mux.Handle("POST /api/notes", guard(h.HandleNotes))
	mux.Handle("POST /api/bookmarks", guard(h.HandleBookmarks))
	mux.Handle("POST /api/link-board", guard(h.HandleLinkBoard))
	mux.Handle("POST /api/assistant/suggestions", guard(h.HandleSuggestions))
	mux.Handle("POST /api/assistant/query", guard(h.HandleAssistantQuery))
}

// TokensMatch reports whether a submitted CSRF token matches the session's
// in constant time. Empty values never match.
func TokensMatch(expected, got string) bool {
	if expected == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
