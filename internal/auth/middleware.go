package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const viewerKey contextKey = "viewer"

func (s *Service) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Enabled() {
			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), &Viewer{ID: AnonymousViewer})))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
			return
		}

		viewer, err := s.ValidateToken(parts[1])
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
	})
}

// Authenticate resolves the viewer for a websocket handshake, which
// carries its token as a query parameter.
func (s *Service) Authenticate(token string) (*Viewer, error) {
	if !s.Enabled() {
		return &Viewer{ID: AnonymousViewer}, nil
	}
	return s.ValidateToken(token)
}

func WithViewer(ctx context.Context, v *Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, v)
}

func ViewerFromContext(ctx context.Context) *Viewer {
	v, _ := ctx.Value(viewerKey).(*Viewer)
	return v
}

// ViewerIDFromContext returns the authenticated viewer ID, or "" outside
// AuthMiddleware.
func ViewerIDFromContext(ctx context.Context) string {
	if v := ViewerFromContext(ctx); v != nil {
		return v.ID
	}
	return ""
}
