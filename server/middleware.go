package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"harvestmind/auth"
)

type contextKeyUserID struct{}
type contextKeyRole struct{}

// UserID retrieves the authenticated user id from the context.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyUserID{}).(string)
	return id
}

// UserRole retrieves the authenticated role from the context.
func UserRole(ctx context.Context) auth.Role {
	role, _ := ctx.Value(contextKeyRole{}).(auth.Role)
	return role
}

// RequireAuth validates the bearer token and stores its identity on the
// request context.
func RequireAuth(tokens *auth.TokenIssuer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			userID, role, err := tokens.Verify(token)
			if err != nil {
				logger.Warn("rejected bearer token", "error", err)
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, contextKeyUserID{}, userID)
			ctx = context.WithValue(ctx, contextKeyRole{}, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole guards a route group. The switch is exhaustive over the
// closed role set; anything else is forbidden.
func RequireRole(allowed ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := UserRole(r.Context())
			switch role {
			case auth.RoleFarmer, auth.RoleGovernment, auth.RoleResearcher:
				for _, a := range allowed {
					if role == a {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			respondError(w, http.StatusForbidden, "forbidden")
		})
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	normalized := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			normalized[origin] = struct{}{}
		}
	}

	allowed := func(origin string) bool {
		if _, ok := normalized["*"]; ok {
			return true
		}
		_, ok := normalized[origin]
		return ok
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !allowed(origin) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
