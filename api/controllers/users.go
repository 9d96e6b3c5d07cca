package controllers

import (
	"net/http"

	"github.com/storyreelhq/storyreel-backend/api/middleware"
	"github.com/storyreelhq/storyreel-backend/api/responses"
	"github.com/storyreelhq/storyreel-backend/internal/users"
	pkgerrors "github.com/storyreelhq/storyreel-backend/pkg/errors"
	"github.com/storyreelhq/storyreel-backend/pkg/logger"
)

// CurrentUser returns the account resolved by the Auth middleware.
func CurrentUser(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFromContext(r.Context())
		if user == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthenticated, "missing credentials"))
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}
