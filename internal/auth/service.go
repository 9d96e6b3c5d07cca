package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storyreelhq/storyreel-backend/internal/users"
	pkgAuth "github.com/storyreelhq/storyreel-backend/pkg/auth"
	"github.com/storyreelhq/storyreel-backend/pkg/config"
	"github.com/storyreelhq/storyreel-backend/pkg/db/models"
	pkgerrors "github.com/storyreelhq/storyreel-backend/pkg/errors"
	"github.com/storyreelhq/storyreel-backend/pkg/security"
)

const invalidCredentialsMessage = "incorrect username or password"

// Service defines the account operations needed by the auth controllers.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error
	CloseAccount(ctx context.Context, userID uuid.UUID, mode CloseAccountMode) error
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	users       userRepository
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles the dependencies required to build the account service.
type ServiceParams struct {
	UserRepo       userRepository
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
}

// NewService constructs an account service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.JWTConfig.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &service{
		users:       params.UserRepo,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
	}, nil
}

// Login authenticates by username or phone number and mints an access token.
// Missing accounts, deactivated accounts, and bad passwords all collapse into
// the same INVALID_CREDENTIALS error so callers cannot probe which accounts exist.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Identifier, req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &LoginResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.jwtCfg.AccessTokenTTL() / time.Second),
		User:        users.FromModel(user),
	}, nil
}

// Register opens a new account. The phone number is mandatory and both
// username and phone must be unused.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	phone := strings.TrimSpace(req.PhoneNumber)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodePhoneRequired, "phone number is required")
	}
	if req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}

	// Advisory pre-checks for a friendlier error before the insert; the
	// unique constraints remain the authority under concurrent registration.
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDuplicateUsername, "username already taken")
	} else if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
	}
	if _, err := s.users.FindByPhone(ctx, phone); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDuplicatePhone, "phone number already registered")
	} else if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check phone number")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Username:     username,
		PasswordHash: passwordHash,
		PhoneNumber:  &phone,
		Email:        req.Email,
		FullName:     req.FullName,
		Address:      req.Address,
	})
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeDuplicateUsername) ||
			pkgerrors.HasCode(err, pkgerrors.CodeDuplicatePhone) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	return &RegisterResponse{User: users.FromModel(user)}, nil
}

// ChangePassword verifies the caller's current password before replacing it.
func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(req.OldPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeInvalidCredentials, "old password is incorrect")
	}

	newHash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return s.users.UpdatePasswordHash(ctx, userID, newHash)
}

// CloseAccount deactivates or permanently deletes the caller's account.
func (s *service) CloseAccount(ctx context.Context, userID uuid.UUID, mode CloseAccountMode) error {
	switch mode {
	case CloseModeDeactivate:
		return s.users.SetActive(ctx, userID, false)
	case CloseModeDelete:
		return s.users.Delete(ctx, userID)
	default:
		return pkgerrors.New(pkgerrors.CodeInvalidOperation, fmt.Sprintf("unknown close mode %q", mode))
	}
}

func (s *service) authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	input := strings.TrimSpace(identifier)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
	}

	user, err := s.users.FindByUsername(ctx, input)
	if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		user, err = s.users.FindByPhone(ctx, input)
	}
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
	}
	return user, nil
}
