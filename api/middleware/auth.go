package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/storyreelhq/storyreel-backend/api/responses"
	pkgAuth "github.com/storyreelhq/storyreel-backend/pkg/auth"
	"github.com/storyreelhq/storyreel-backend/pkg/config"
	"github.com/storyreelhq/storyreel-backend/pkg/db/models"
	pkgerrors "github.com/storyreelhq/storyreel-backend/pkg/errors"
	"github.com/storyreelhq/storyreel-backend/pkg/logger"
)

// UserResolver loads the account referenced by a token subject.
type UserResolver interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Auth validates a bearer token, resolves the subject account, and seeds the
// request context. A token whose subject no longer exists is rejected as invalid.
func Auth(cfg config.JWTConfig, users UserResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthenticated, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgAuth.ClassifyTokenError(err))
				return
			}

			user, err := users.FindByID(r.Context(), claims.UserID)
			if err != nil {
				if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeTokenInvalid, "unknown token subject"))
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve token subject"))
				return
			}

			ctx := WithUserID(r.Context(), user.ID.String())
			ctx = context.WithValue(ctx, ctxUsername, user.Username)
			ctx = WithRole(ctx, string(user.Role))
			ctx = WithUser(ctx, user)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    user.ID.String(),
					"actor_role": string(user.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", false
	}
	if !strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(raw[7:])
	if token == "" {
		return "", false
	}
	return token, true
}
