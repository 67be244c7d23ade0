// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return ErrNotFound.
//   - Unique-constraint violations surface as ErrDuplicate.
//   - Other DB errors propagate unchanged.
package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blogd/go-blog-backend/internal/domain"
)

// CreateUser inserts a new user row. The public identifier is a freshly
// generated UUID; email is stored lowercased. The caller is expected to have
// set the password credential already.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if u.PublicID == "" {
		u.PublicID = uuid.NewString()
	}
	u.Email = strings.ToLower(u.Email)
	if u.Status == "" {
		u.Status = domain.StatusActive
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUser fetches a user by internal id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByPublicID fetches a user by its opaque public identifier.
func GetUserByPublicID(ctx context.Context, db *gorm.DB, publicID string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "public_id = ?", publicID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user by email (case-insensitive via lowercasing).
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "email = ?", strings.ToLower(email)).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all users ordered by creation time ascending.
func ListUsers(ctx context.Context, db *gorm.DB) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// SaveUser persists in-place modifications to an existing user row.
// Unique-constraint violations surface as ErrDuplicate.
func SaveUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if err := db.WithContext(ctx).Save(u).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// SoftDeleteUser transitions the user's status to "deleted" without removing
// the row. Returns ErrNotFound if no row was affected.
func SoftDeleteUser(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("status", domain.StatusDeleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
