package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/storyreelhq/storyreel-backend/internal/users"
	pkgAuth "github.com/storyreelhq/storyreel-backend/pkg/auth"
	"github.com/storyreelhq/storyreel-backend/pkg/config"
	"github.com/storyreelhq/storyreel-backend/pkg/db/models"
	"github.com/storyreelhq/storyreel-backend/pkg/enums"
	pkgerrors "github.com/storyreelhq/storyreel-backend/pkg/errors"
	"github.com/storyreelhq/storyreel-backend/pkg/security"
)

type fakeUserRepo struct {
	byID map[uuid.UUID]*models.User
}

func newFakeUserRepo(seed ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{byID: map[uuid.UUID]*models.User{}}
	for _, u := range seed {
		repo.byID[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	for _, u := range f.byID {
		if u.Username == dto.Username {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicateUsername, "username already taken")
		}
		if u.PhoneNumber != nil && dto.PhoneNumber != nil && *u.PhoneNumber == *dto.PhoneNumber {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicatePhone, "phone number already registered")
		}
	}
	user := dto.ToModel()
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

func (f *fakeUserRepo) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	for _, u := range f.byID {
		if u.PhoneNumber != nil && *u.PhoneNumber == phone {
			return u, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

func (f *fakeUserRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := f.byID[id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUserRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	u, ok := f.byID[id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	u.IsActive = active
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	delete(f.byID, id)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "storyreel",
		ExpirationMinutes: 30,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func strPtr(s string) *string { return &s }

func seededUser(t *testing.T, password string) *models.User {
	t.Helper()
	return &models.User{
		ID:           uuid.New(),
		Username:     "leia",
		PasswordHash: mustHashPassword(t, password),
		PhoneNumber:  strPtr("+15550009999"),
		Role:         enums.UserRoleUser,
		IsActive:     true,
	}
}

func buildService(t *testing.T, repo userRepository) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: testPasswordConfig(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestLoginByUsername(t *testing.T) {
	user := seededUser(t, "open-sesame")
	svc := buildService(t, newFakeUserRepo(user))

	resp, err := svc.Login(context.Background(), LoginRequest{
		Identifier: "leia",
		Password:   "open-sesame",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.TokenType != "bearer" {
		t.Fatalf("unexpected token type %s", resp.TokenType)
	}
	if resp.ExpiresIn != 30*60 {
		t.Fatalf("unexpected expires_in %d", resp.ExpiresIn)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected sub %s, got %s", user.ID, claims.UserID)
	}
	if claims.Role != enums.UserRoleUser {
		t.Fatalf("unexpected role claim %s", claims.Role)
	}
}

func TestLoginByPhoneNumber(t *testing.T) {
	user := seededUser(t, "open-sesame")
	svc := buildService(t, newFakeUserRepo(user))

	resp, err := svc.Login(context.Background(), LoginRequest{
		Identifier: "+15550009999",
		Password:   "open-sesame",
	})
	if err != nil {
		t.Fatalf("login by phone: %v", err)
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatalf("unexpected user in response: %+v", resp.User)
	}
}

func TestLoginFailuresCollapse(t *testing.T) {
	user := seededUser(t, "open-sesame")
	inactive := &models.User{
		ID:           uuid.New(),
		Username:     "mothma",
		PasswordHash: mustHashPassword(t, "open-sesame"),
		IsActive:     false,
	}
	svc := buildService(t, newFakeUserRepo(user, inactive))

	cases := []struct {
		name       string
		identifier string
		password   string
	}{
		{"unknown identifier", "nobody", "open-sesame"},
		{"wrong password", "leia", "wrong"},
		{"inactive account", "mothma", "open-sesame"},
		{"empty identifier", "", "open-sesame"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), LoginRequest{
				Identifier: tc.identifier,
				Password:   tc.password,
			})
			if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidCredentials) {
				t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
			}
		})
	}
}

func TestRegisterCreatesAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := buildService(t, repo)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Username:    "lando",
		Password:    "cloud-city-1",
		PhoneNumber: "+15550004444",
		Email:       strPtr("lando@example.com"),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User == nil || resp.User.Username != "lando" {
		t.Fatalf("unexpected register response: %+v", resp)
	}
	if resp.User.Role != enums.UserRoleUser {
		t.Fatalf("expected default role, got %s", resp.User.Role)
	}

	login, err := svc.Login(context.Background(), LoginRequest{
		Identifier: "lando",
		Password:   "cloud-city-1",
	})
	if err != nil {
		t.Fatalf("login after register: %v", err)
	}
	if login.User.ID != resp.User.ID {
		t.Fatal("expected login to resolve the registered account")
	}
}

func TestRegisterRequiresPhone(t *testing.T) {
	svc := buildService(t, newFakeUserRepo())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "chewie",
		Password: "rrrwwwgg-1",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodePhoneRequired) {
		t.Fatalf("expected PHONE_REQUIRED, got %v", err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	user := seededUser(t, "open-sesame")
	svc := buildService(t, newFakeUserRepo(user))

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username:    "leia",
		Password:    "password-1",
		PhoneNumber: "+15550001234",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeDuplicateUsername) {
		t.Fatalf("expected DUPLICATE_USERNAME, got %v", err)
	}

	_, err = svc.Register(context.Background(), RegisterRequest{
		Username:    "freshname",
		Password:    "password-1",
		PhoneNumber: "+15550009999",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeDuplicatePhone) {
		t.Fatalf("expected DUPLICATE_PHONE, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	user := seededUser(t, "old-password-1")
	repo := newFakeUserRepo(user)
	svc := buildService(t, repo)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, user.ID, ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "new-password-1",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidCredentials) {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, ChangePasswordRequest{
		OldPassword: "old-password-1",
		NewPassword: "new-password-1",
	}); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := svc.Login(ctx, LoginRequest{Identifier: "leia", Password: "old-password-1"}); err == nil {
		t.Fatal("expected old password to be rejected")
	}
	if _, err := svc.Login(ctx, LoginRequest{Identifier: "leia", Password: "new-password-1"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	err = svc.ChangePassword(ctx, uuid.New(), ChangePasswordRequest{
		OldPassword: "x",
		NewPassword: "young-padawan",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for missing user, got %v", err)
	}
}

func TestCloseAccountDeactivate(t *testing.T) {
	user := seededUser(t, "open-sesame")
	repo := newFakeUserRepo(user)
	svc := buildService(t, repo)
	ctx := context.Background()

	if err := svc.CloseAccount(ctx, user.ID, CloseModeDeactivate); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if user.IsActive {
		t.Fatal("expected account to be deactivated")
	}

	_, err := svc.Login(ctx, LoginRequest{Identifier: "leia", Password: "open-sesame"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidCredentials) {
		t.Fatalf("expected deactivated login to fail with INVALID_CREDENTIALS, got %v", err)
	}
}

func TestCloseAccountDelete(t *testing.T) {
	user := seededUser(t, "open-sesame")
	repo := newFakeUserRepo(user)
	svc := buildService(t, repo)
	ctx := context.Background()

	if err := svc.CloseAccount(ctx, user.ID, CloseModeDelete); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, user.ID); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected user row to be gone, got %v", err)
	}
}

func TestCloseAccountRejectsUnknownMode(t *testing.T) {
	user := seededUser(t, "open-sesame")
	svc := buildService(t, newFakeUserRepo(user))

	for _, mode := range []CloseAccountMode{"archive", ""} {
		err := svc.CloseAccount(context.Background(), user.ID, mode)
		if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidOperation) {
			t.Fatalf("mode %q: expected INVALID_OPERATION, got %v", mode, err)
		}
	}
}
