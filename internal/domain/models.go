// Package domain defines the persistence models for users and posts. These
// types are mapped with GORM and form the core data layer of the blog
// application.
package domain

import (
	"time"

	"github.com/blogd/go-blog-backend/internal/auth"
)

// Lifecycle status values. Users and posts are never removed from storage;
// deletion is a status transition so history stays auditable and deleted
// identities can still be excluded from authentication explicitly.
const (
	StatusActive  = "active"
	StatusDeleted = "deleted"
	StatusLive    = "live"
)

// User represents an identity capable of authenticating and owning posts.
//
// Fields:
//   - ID: internal numeric primary key; never leaves the process boundary.
//   - PublicID: opaque UUID exposed externally in place of the internal id;
//     immutable once assigned.
//   - Username / Email: globally unique; email stored lowercased.
//   - Password: write-only bcrypt credential (see auth.Credential). The hash
//     never serializes to JSON and has no read accessor.
//   - Admin: grants access to admin-only routes.
//   - Status: "active" or "deleted" (soft delete).
type User struct {
	ID        uint            `json:"-"        gorm:"primaryKey"`
	PublicID  string          `json:"id"       gorm:"type:char(36);uniqueIndex;not null"`
	Username  string          `json:"username" gorm:"type:varchar(80);uniqueIndex;not null"`
	Email     string          `json:"email"    gorm:"type:varchar(100);uniqueIndex;not null"`
	Password  auth.Credential `json:"-"        gorm:"type:varchar(200);column:password_hash"`
	Admin     bool            `json:"-"        gorm:"not null;default:false"`
	Status    string          `json:"-"        gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt time.Time       `json:"-"`
	UpdatedAt time.Time       `json:"-"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Deleted reports whether the user has been soft-deleted. Deleted users must
// never authenticate successfully.
func (u *User) Deleted() bool { return u.Status == StatusDeleted }

// Post represents owned content associated with exactly one user.
//
// Fields:
//   - ID: numeric primary key.
//   - AuthorID: internal id of the owning user; immutable after creation and
//     checked against the caller on every mutation.
//   - Title / Content: post payload.
//   - Status: "live" or "deleted" (soft delete).
type Post struct {
	ID        uint      `json:"id"        gorm:"primaryKey"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	Title     string    `json:"title"     gorm:"type:varchar(50);not null"`
	Content   string    `json:"content"   gorm:"type:text"`
	Status    string    `json:"status"    gorm:"type:varchar(20);not null;default:'live'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Author is the owning user. The FK keeps author_id valid; user rows are
	// soft-deleted in practice so the cascade rarely fires.
	Author User `json:"-" gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string { return "posts" }
