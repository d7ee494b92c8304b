package middleware

import (
	"log/slog"
	"net/http"

	"github.com/permitworks/permit-management/internal/auth"
)

// RequirePermission guards a route group behind one or more capabilities.
// The actor passes if its role carries any of them.
func RequirePermission(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := auth.ActorFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			for _, perm := range permissions {
				if actor.HasPermission(perm) {
					next.ServeHTTP(w, r)
					return
				}
			}

			slog.Warn("access denied: role lacks required permissions",
				"user_id", actor.UserID,
				"role", actor.Role,
				"required_permissions", permissions)
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		})
	}
}
