// Account management service.
//
// This file implements UserService, which manages account records on behalf
// of administrators and account owners. It enforces the ownership rule for
// mutations (only the account itself may change or delete it), maps
// repository errors to service sentinels, and keeps deleted accounts loadable
// so stale sessions degrade predictably instead of erroring.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/blogd/go-blog-backend/internal/auth"
	"github.com/blogd/go-blog-backend/internal/domain"
	"github.com/blogd/go-blog-backend/internal/repo"
)

// UserService provides administrative and self-service account operations.
type UserService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Users is the user repository used by this service.
	Users UserRepo

	// BcryptCost is the work factor applied when a password is changed.
	BcryptCost int
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, users UserRepo, bcryptCost int) *UserService {
	return &UserService{DB: db, Users: users, BcryptCost: bcryptCost}
}

// Create inserts a new account with an explicit admin flag. It is the
// administrative variant of registration and fails on duplicates instead of
// returning the existing row.
func (s *UserService) Create(ctx context.Context, username, email, password string, admin bool) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, ErrInvalidUser
	}

	cred, err := auth.NewCredential(password, s.BcryptCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Username: username,
		Email:    email,
		Password: cred,
		Admin:    admin,
		Status:   domain.StatusActive,
	}
	if err := s.Users.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return u, nil
}

// Get returns the account with the given public identifier. Deleted accounts
// are reported as not found to the outside.
func (s *UserService) Get(ctx context.Context, publicID string) (*domain.User, error) {
	u, err := s.Users.GetUserByPublicID(ctx, s.DB, publicID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if u.Deleted() {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// List returns every non-deleted account, oldest first.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	all, err := s.Users.ListUsers(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(all))
	for _, u := range all {
		if !u.Deleted() {
			out = append(out, u)
		}
	}
	return out, nil
}

// Update rewrites the mutable fields of the account identified by publicID.
// Only the account itself may update it; blank fields are left unchanged.
func (s *UserService) Update(ctx context.Context, actor *domain.User, publicID, username, email, password string) (*domain.User, error) {
	if actor == nil || actor.PublicID != publicID {
		return nil, ErrForbidden
	}
	u, err := s.Get(ctx, publicID)
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(username); v != "" {
		u.Username = v
	}
	if v := strings.TrimSpace(email); v != "" {
		u.Email = strings.ToLower(v)
	}
	if password != "" {
		if err := u.Password.Set(password, s.BcryptCost); err != nil {
			return nil, err
		}
	}

	if err := s.Users.SaveUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return u, nil
}

// Delete soft-deletes the account identified by publicID. Only the account
// itself may delete it. The row is retained so tokens that still reference it
// resolve to a deleted account rather than a dangling identifier.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, publicID string) error {
	if actor == nil || actor.PublicID != publicID {
		return ErrForbidden
	}
	u, err := s.Get(ctx, publicID)
	if err != nil {
		return err
	}
	if err := s.Users.SoftDeleteUser(ctx, s.DB, u.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
