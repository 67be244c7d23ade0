// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/blogd/go-blog-backend/internal/domain"
)

// PostsStats returns aggregate metadata for an author's posts: the total
// number of rows and the maximum UpdatedAt timestamp among those rows. When
// the author has no posts, count is 0 and maxUpdatedAt is nil.
//
// The HTTP layer folds these into a weak ETag for GET /user/:id/posts so
// unchanged lists can be answered with 304 without serializing the payload.
func PostsStats(ctx context.Context, db *gorm.DB, authorID uint) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Post{}).
		Where("author_id = ? AND status = ?", authorID, domain.StatusLive)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
