// Authentication and registration service.
//
// This file implements AuthService, which owns account registration and
// credential verification. It normalizes inputs, maps repository errors to
// stable service-level sentinels, and issues signed session tokens on
// successful login. All password comparison goes through the write-only
// credential type, so a plaintext or hash can never leak out of this layer.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the account's public identifier but never the email or password.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/blogd/go-blog-backend/internal/auth"
	"github.com/blogd/go-blog-backend/internal/domain"
	"github.com/blogd/go-blog-backend/internal/repo"
)

// UserRepo defines the repository contract required by the account-facing
// services. Implementations are responsible for persistence of user rows.
type UserRepo interface {
	// CreateUser inserts a new user row, assigning its public identifier.
	CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error

	// GetUserByPublicID fetches a user by their opaque public identifier.
	GetUserByPublicID(ctx context.Context, db *gorm.DB, publicID string) (*domain.User, error)

	// GetUserByEmail fetches a user by email (case-insensitive).
	GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error)

	// ListUsers returns all user rows.
	ListUsers(ctx context.Context, db *gorm.DB) ([]domain.User, error)

	// SaveUser persists in-place modifications to an existing user row.
	SaveUser(ctx context.Context, db *gorm.DB, u *domain.User) error

	// SoftDeleteUser marks the user deleted without removing the row.
	SoftDeleteUser(ctx context.Context, db *gorm.DB, id uint) error
}

// AuthService provides registration and login. It never returns password
// material; the only secret that leaves it is a signed token.
type AuthService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Users is the user repository used by this service.
	Users UserRepo
	// Tokens signs and verifies session tokens.
	Tokens *auth.TokenIssuer

	// BcryptCost is the work factor applied to new credentials.
	BcryptCost int
}

// NewAuthService constructs an AuthService bound to the given issuer.
func NewAuthService(db *gorm.DB, users UserRepo, tokens *auth.TokenIssuer, bcryptCost int) *AuthService {
	return &AuthService{DB: db, Users: users, Tokens: tokens, BcryptCost: bcryptCost}
}

// Register creates an account for the given identity. When an account with
// the same email already exists it is returned unchanged with created=false;
// registration is not an enumeration-free endpoint and reports this openly.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, bool, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Register")
	defer span.End()

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, false, ErrInvalidUser
	}

	if existing, err := s.Users.GetUserByEmail(ctx, s.DB, email); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}

	cred, err := auth.NewCredential(password, s.BcryptCost)
	if err != nil {
		return nil, false, err
	}
	u := &domain.User{
		Username: username,
		Email:    email,
		Password: cred,
		Status:   domain.StatusActive,
	}
	if err := s.Users.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// Raced with another signup for the same identity.
			return nil, false, ErrConflict
		}
		return nil, false, err
	}
	span.SetAttributes(attribute.String("user.public_id", u.PublicID))
	return u, true, nil
}

// Login verifies the credentials and returns a signed session token for the
// account's public identifier. Missing fields, unknown accounts, and wrong
// passwords each map to a distinct sentinel so handlers can mirror the
// historical status codes exactly.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Login")
	defer span.End()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", ErrLoginRequired
	}

	u, err := s.Users.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	// Deleted accounts cannot start new sessions.
	if u.Deleted() {
		return "", ErrUserNotFound
	}
	if !u.Password.Verify(password) {
		return "", ErrWrongPassword
	}

	span.SetAttributes(attribute.String("user.public_id", u.PublicID))
	return s.Tokens.Issue(u.PublicID)
}

// Resolve maps a bearer token to the live account it represents. It collapses
// every failure mode (bad signature, expiry, unknown subject, deleted
// account) to (nil, false) so callers cannot distinguish why a token was
// rejected.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.User, bool) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Resolve", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	publicID, ok := s.Tokens.Verify(token)
	if !ok {
		return nil, false
	}
	u, err := s.Users.GetUserByPublicID(ctx, s.DB, publicID)
	if err != nil || u.Deleted() {
		return nil, false
	}
	return u, true
}
