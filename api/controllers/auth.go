package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/storyreelhq/storyreel-backend/api/middleware"
	"github.com/storyreelhq/storyreel-backend/api/responses"
	"github.com/storyreelhq/storyreel-backend/api/validators"
	"github.com/storyreelhq/storyreel-backend/internal/auth"
	pkgerrors "github.com/storyreelhq/storyreel-backend/pkg/errors"
	"github.com/storyreelhq/storyreel-backend/pkg/logger"
	"github.com/storyreelhq/storyreel-backend/pkg/metrics"
)

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, m *metrics.AuthMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			m.IncLogin("failure")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		m.IncLogin("success")
		responses.WriteSuccess(w, result)
	}
}

// AuthRegister opens a new account and logs it in immediately.
func AuthRegister(svc auth.Service, m *metrics.AuthMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.Register(r.Context(), body); err != nil {
			m.IncRegistration("failure")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), auth.LoginRequest{
			Identifier: body.Username,
			Password:   body.Password,
		})
		if err != nil {
			m.IncRegistration("failure")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		m.IncRegistration("success")
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AuthLogout acknowledges a logout. Tokens are stateless, so the client is
// expected to discard its copy; the token stays verifiable until expiry.
func AuthLogout(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if logg != nil {
			logg.Info(r.Context(), "auth.logout")
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged out"})
	}
}

// ChangePassword replaces the caller's password after re-verifying the old one.
func ChangePassword(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.ChangePasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ChangePassword(r.Context(), userID, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "password changed"})
	}
}

// CloseAccount deactivates or deletes the caller's account based on the
// mode query parameter.
func CloseAccount(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mode := auth.CloseAccountMode(r.URL.Query().Get("mode"))
		if mode == "" {
			err := pkgerrors.New(pkgerrors.CodeInvalidOperation, "mode query parameter is required")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.CloseAccount(r.Context(), userID, mode); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "account closed", "mode": string(mode)})
	}
}

func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeTokenInvalid, err, "invalid token subject")
	}
	return id, nil
}
