package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"buzzatt/internal/apperr"
	"buzzatt/internal/logger"
	"buzzatt/internal/metrics"
	"buzzatt/internal/model"
)

// TokenType is reported alongside every issued access token.
const TokenType = "bearer"

// UserStore is the credential store the service reads and writes.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, u model.User, passwordHash string) (model.User, error)
}

// Options configures token issuance and hashing.
type Options struct {
	Issuer     string
	SigningKey string
	TokenTTL   time.Duration
	BcryptCost int
}

// LoginResult is the token bundle returned to a client after login.
type LoginResult struct {
	AccessToken  string            `json:"access_token"`
	TokenType    string            `json:"token_type"`
	MatricNumber *string           `json:"matric_number"`
	Email        string            `json:"email"`
	ProfileType  model.ProfileType `json:"profile_type"`
}

// RegisterInput is a new user's profile and password.
type RegisterInput struct {
	Email        string
	FirstName    string
	LastName     string
	Department   string
	Faculty      string
	Password     string
	ProfileType  model.ProfileType
	MatricNumber *string
}

// Service verifies credentials, registers users and validates tokens.
type Service struct {
	users   UserStore
	revoked RevocationList
	opts    Options
	metrics *metrics.Metrics

	// dummyHash is compared against when the email is unknown so that both
	// failure paths cost one bcrypt comparison.
	dummyHash string
}

// NewService creates a service backed by a user store and revocation list.
func NewService(users UserStore, revoked RevocationList, opts Options, m *metrics.Metrics) (*Service, error) {
	if opts.SigningKey == "" {
		return nil, errors.New("auth: signing key required")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 30 * time.Minute
	}
	if revoked == nil {
		revoked = NewMemoryRevocations()
	}
	dummy, err := HashPassword("buzzatt-dummy-password", opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: prepare dummy hash: %w", err)
	}
	return &Service{users: users, revoked: revoked, opts: opts, metrics: m, dummyHash: dummy}, nil
}

// Login checks email and password and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	acc, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		s.metrics.Login("error")
		return LoginResult{}, apperr.Dependency("look up user", err)
	}
	if acc == nil {
		CheckPassword(password, s.dummyHash)
		s.metrics.Login("failure")
		return LoginResult{}, ErrInvalidCredentials
	}
	if !CheckPassword(password, acc.PasswordHash) {
		s.metrics.Login("failure")
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := Issue(acc.Email, acc.ProfileType, s.opts.Issuer, s.opts.SigningKey, s.opts.TokenTTL)
	if err != nil {
		s.metrics.Login("error")
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	s.metrics.Login("success")
	logger.FromContext(ctx).Info("user logged in", "user_id", acc.ID, "profile_type", acc.ProfileType)

	return LoginResult{
		AccessToken:  token.Value,
		TokenType:    TokenType,
		MatricNumber: acc.MatricNumber,
		Email:        acc.Email,
		ProfileType:  acc.ProfileType,
	}, nil
}

// Register validates and persists a new user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	u := model.User{
		Email:       strings.TrimSpace(in.Email),
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Department:  strings.TrimSpace(in.Department),
		Faculty:     strings.TrimSpace(in.Faculty),
		ProfileType: in.ProfileType,
	}
	if in.MatricNumber != nil {
		if m := strings.TrimSpace(*in.MatricNumber); m != "" {
			u.MatricNumber = &m
		}
	}

	if !u.ProfileType.Valid() {
		return model.User{}, apperr.Validation("profile_type must be student or lecturer")
	}
	if u.Email == "" {
		return model.User{}, apperr.Validation("email is required")
	}
	if err := validatePassword(in.Password); err != nil {
		return model.User{}, apperr.Validation(err.Error())
	}

	existing, err := s.users.FindByEmail(ctx, u.Email)
	if err != nil {
		return model.User{}, apperr.Dependency("look up user", err)
	}
	if existing != nil {
		return model.User{}, ErrDuplicateEmail
	}
	if u.ProfileType == model.ProfileStudent && u.MatricNumber == nil {
		return model.User{}, ErrMissingMatricNumber
	}

	hash, err := HashPassword(in.Password, s.opts.BcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.Create(ctx, u, hash)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return model.User{}, err
		}
		return model.User{}, apperr.Dependency("create user", err)
	}
	s.metrics.Registered()
	logger.FromContext(ctx).Info("user registered", "user_id", created.ID, "profile_type", created.ProfileType)
	return created, nil
}

// Authenticate validates a bearer token and rejects revoked ones.
func (s *Service) Authenticate(ctx context.Context, token string) (Claims, error) {
	claims, err := Parse(token, s.opts.SigningKey, s.opts.Issuer)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	revoked, err := s.revoked.Marked(ctx, claims.ID)
	if err != nil {
		return Claims{}, apperr.Dependency("check token revocation", err)
	}
	if revoked {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// Logout revokes the token described by claims until it expires.
func (s *Service) Logout(ctx context.Context, claims Claims) error {
	if claims.ExpiresAt == nil {
		return ErrInvalidToken
	}
	if err := s.revoked.MarkUntil(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperr.Dependency("revoke token", err)
	}
	return nil
}
