package auth

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
)

// OwnershipChecker guards permit subresources before the request reaches a
// handler. Tenants may only touch permits belonging to their own shop; the
// lookup is a single raw query so the middleware stays independent of the
// permit service.
type OwnershipChecker struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewOwnershipChecker(db *sqlx.DB, logger *slog.Logger) *OwnershipChecker {
	return &OwnershipChecker{db: db, logger: logger}
}

func (c *OwnershipChecker) RequirePermitAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if actor.Role != RoleTenant {
			next.ServeHTTP(w, r)
			return
		}

		permitID := chi.URLParam(r, "permitID")
		var shopID int64
		err := c.db.Get(&shopID, "SELECT shop_id FROM permits WHERE permit_id = $1", permitID)
		if err == sql.ErrNoRows {
			http.Error(w, "permit not found", http.StatusNotFound)
			return
		}
		if err != nil {
			c.logger.Error("ownership lookup failed", "permit_id", permitID, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		if !actor.IsTenantOf(shopID) {
			c.logger.Warn("tenant denied access to foreign permit",
				"user_id", actor.UserID, "permit_id", permitID)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
