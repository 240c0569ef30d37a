package admin

import (
	"log/slog"
	"net/http"

	"escena/pkg/requestcontext"
)

// AdminRole is the session role allowed through RequireAdmin.
const AdminRole = "admin"

// RequireAdmin must run after auth.RequireAuth. Non-admin sessions get 401,
// matching how the platform's admin screens have always answered.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.Role(ctx) != AdminRole {
				logger.WarnContext(ctx, "admin role required",
					"request_id", requestcontext.RequestID(ctx),
					"user_id", requestcontext.UserID(ctx).String(),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin role required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
