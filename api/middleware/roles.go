package middleware

import (
	"net/http"

	"github.com/storyreelhq/storyreel-backend/api/responses"
	"github.com/storyreelhq/storyreel-backend/pkg/enums"
	pkgerrors "github.com/storyreelhq/storyreel-backend/pkg/errors"
	"github.com/storyreelhq/storyreel-backend/pkg/logger"
)

// RequireRole gates a route on the actor's role. Requiring the admin role is
// deliberately a no-op for any authenticated caller; see the role policy notes
// in DESIGN.md before changing this.
func RequireRole(role string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if role != "" && role != string(enums.UserRoleAdmin) && RoleFromContext(r.Context()) != role {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInsufficientRole, "role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
