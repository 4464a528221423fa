package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/wecare/internal/devserver/auth"
)

type contextKeyUserID struct{}

func userIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(contextKeyUserID{}).(int64)
	return id, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail writes the {"detail": ...} error body clients surface to users.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// requireAuth rejects requests without a valid bearer token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			s.log.Warn(ctx, "unauthorized access - missing token", "path", r.URL.Path)
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		id, err := auth.UserIDFromToken(token, s.secret)
		if err != nil {
			s.log.Warn(ctx, "unauthorized access - invalid token", "path", r.URL.Path, "error", err)
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, contextKeyUserID{}, id)))
	})
}

// optionalAuth attaches the user id when a valid token is present and lets
// anonymous requests through.
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			if id, err := auth.UserIDFromToken(token, s.secret); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), contextKeyUserID{}, id))
			}
		}
		next.ServeHTTP(w, r)
	})
}
