package server

import (
	"context"
	"mime"
	"net/http"

	"github.com/jrsteele09/go-webadmin/guard"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyResolution stores the guard resolution of the requested view
	ContextKeyResolution ContextKey = "resolution"
)

// RequireAuthorizedView resolves the request path through the navigation guard.
// Unauthorized views redirect to the guard's fallback, unknown ones are not found.
func (s *Server) RequireAuthorizedView(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resolution := s.app.Router.Resolve(r.URL.Path)

		switch resolution.Kind {
		case guard.Redirect:
			http.Redirect(w, r, resolution.Target, http.StatusSeeOther)
			return
		case guard.NotFound:
			writeJSON(w, http.StatusNotFound, resolution)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyResolution, resolution)
		next(w, r.WithContext(ctx))
	}
}

// RequireJSON rejects request bodies that are not JSON
func (s *Server) RequireJSON(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			writeJSONError(w, "invalid_request", "Content-Type must be application/json", http.StatusUnsupportedMediaType)
			return
		}
		next(w, r)
	}
}

func resolutionFromContext(ctx context.Context) (guard.Resolution, bool) {
	resolution, ok := ctx.Value(ContextKeyResolution).(guard.Resolution)
	return resolution, ok
}
