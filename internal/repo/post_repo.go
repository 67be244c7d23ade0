// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Post model.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/blogd/go-blog-backend/internal/domain"
)

// CreatePost inserts a new post row owned by authorID with status "live".
func CreatePost(ctx context.Context, db *gorm.DB, authorID uint, title, content string) (*domain.Post, error) {
	p := &domain.Post{
		AuthorID: authorID,
		Title:    title,
		Content:  content,
		Status:   domain.StatusLive,
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPost fetches a single live post by id, or ErrNotFound. Soft-deleted
// posts are invisible to reads, unlike users.
func GetPost(ctx context.Context, db *gorm.DB, id uint) (*domain.Post, error) {
	var p domain.Post
	if err := db.WithContext(ctx).First(&p, "id = ? AND status = ?", id, domain.StatusLive).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPosts returns all live posts ordered by creation time descending.
func ListPosts(ctx context.Context, db *gorm.DB) ([]domain.Post, error) {
	var out []domain.Post
	err := db.WithContext(ctx).
		Where("status = ?", domain.StatusLive).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ListPostsByAuthor returns all live posts authored by authorID, most recent
// first. This is the hot query memoized by the service layer.
func ListPostsByAuthor(ctx context.Context, db *gorm.DB, authorID uint) ([]domain.Post, error) {
	var out []domain.Post
	err := db.WithContext(ctx).
		Where("author_id = ? AND status = ?", authorID, domain.StatusLive).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// SavePost persists in-place modifications to an existing post row.
// Unique-constraint violations surface as ErrDuplicate.
func SavePost(ctx context.Context, db *gorm.DB, p *domain.Post) error {
	if err := db.WithContext(ctx).Save(p).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// SoftDeletePost transitions a live post's status to "deleted" without
// removing the row. Returns ErrNotFound if the post is missing or already
// deleted.
func SoftDeletePost(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ? AND status = ?", id, domain.StatusLive).
		Update("status", domain.StatusDeleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
