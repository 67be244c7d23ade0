// Package domain defines the core persistence models for the application.
package domain

import "time"

// Idempotency records the result of a previously processed write request,
// keyed by (user_id, scope, key). It enables safe retries for POST endpoints
// by letting handlers return the originally produced resource instead of
// re-executing side effects. Scope names the operation family ("post.create").
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:ux_user_scope_key,priority:1"`
	Scope     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_scope_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_scope_key,priority:3"`
	PostID    uint      `gorm:"not null"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
