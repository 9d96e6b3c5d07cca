package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/storyreelhq/storyreel-backend/pkg/auth"
	"github.com/storyreelhq/storyreel-backend/pkg/config"
	"github.com/storyreelhq/storyreel-backend/pkg/db/models"
	"github.com/storyreelhq/storyreel-backend/pkg/enums"
	pkgerrors "github.com/storyreelhq/storyreel-backend/pkg/errors"
	"github.com/storyreelhq/storyreel-backend/pkg/types"
)

type fakeResolver struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeResolver) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

func authTestJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "middleware-secret",
		Issuer:            "storyreel",
		ExpirationMinutes: 15,
	}
}

func mintToken(t *testing.T, cfg config.JWTConfig, user *models.User, now time.Time) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, now, pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return body.Error.Code
}

func TestAuthResolvesSubject(t *testing.T) {
	cfg := authTestJWTConfig()
	user := &models.User{
		ID:       uuid.New(),
		Username: "ahsoka",
		Role:     enums.UserRoleUser,
		IsActive: true,
	}
	resolver := &fakeResolver{users: map[uuid.UUID]*models.User{user.ID: user}}

	var gotUserID, gotRole string
	var gotUser *models.User
	handler := Auth(cfg, resolver, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		gotUser = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, user, time.Now()))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if gotUserID != user.ID.String() {
		t.Fatalf("expected user id %s, got %s", user.ID, gotUserID)
	}
	if gotRole != "user" {
		t.Fatalf("expected role user, got %s", gotRole)
	}
	if gotUser == nil || gotUser.Username != "ahsoka" {
		t.Fatalf("expected resolved user in context, got %+v", gotUser)
	}
}

func TestAuthPrefersStoredRole(t *testing.T) {
	// A token minted before a demotion still carries the old role claim;
	// the context role must reflect the row resolved on this request.
	cfg := authTestJWTConfig()
	user := &models.User{
		ID:       uuid.New(),
		Username: "cassian",
		Role:     enums.UserRoleAdmin,
		IsActive: true,
	}
	token := mintToken(t, cfg, user, time.Now())

	demoted := *user
	demoted.Role = enums.UserRoleViewer
	resolver := &fakeResolver{users: map[uuid.UUID]*models.User{user.ID: &demoted}}

	var gotRole string
	handler := Auth(cfg, resolver, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if gotRole != string(enums.UserRoleViewer) {
		t.Fatalf("expected stored role viewer, got %s", gotRole)
	}
}

func TestAuthRejectsMissingOrMalformedHeader(t *testing.T) {
	cfg := authTestJWTConfig()
	resolver := &fakeResolver{users: map[uuid.UUID]*models.User{}}
	handler := Auth(cfg, resolver, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	cases := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			if code := decodeErrorCode(t, w); code != string(pkgerrors.CodeUnauthenticated) {
				t.Fatalf("expected UNAUTHENTICATED, got %s", code)
			}
		})
	}
}

func TestAuthRejectsTamperedToken(t *testing.T) {
	cfg := authTestJWTConfig()
	user := &models.User{ID: uuid.New(), Username: "sabine", Role: enums.UserRoleUser}
	resolver := &fakeResolver{users: map[uuid.UUID]*models.User{user.ID: user}}
	handler := Auth(cfg, resolver, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	token := mintToken(t, cfg, user, time.Now())
	tampered := []byte(token)
	tampered[len(tampered)/2] ^= 0x01

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+string(tampered))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if code := decodeErrorCode(t, w); code != string(pkgerrors.CodeTokenInvalid) {
		t.Fatalf("expected TOKEN_INVALID, got %s", code)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	cfg := authTestJWTConfig()
	user := &models.User{ID: uuid.New(), Username: "ezra", Role: enums.UserRoleUser}
	resolver := &fakeResolver{users: map[uuid.UUID]*models.User{user.ID: user}}
	handler := Auth(cfg, resolver, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	expired := mintToken(t, cfg, user, time.Now().Add(-2*time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if code := decodeErrorCode(t, w); code != string(pkgerrors.CodeTokenExpired) {
		t.Fatalf("expected TOKEN_EXPIRED, got %s", code)
	}
}

func TestAuthRejectsUnknownSubject(t *testing.T) {
	cfg := authTestJWTConfig()
	ghost := &models.User{ID: uuid.New(), Username: "ghost", Role: enums.UserRoleUser}
	resolver := &fakeResolver{users: map[uuid.UUID]*models.User{}}
	handler := Auth(cfg, resolver, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, ghost, time.Now()))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if code := decodeErrorCode(t, w); code != string(pkgerrors.CodeTokenInvalid) {
		t.Fatalf("expected TOKEN_INVALID, got %s", code)
	}
}
