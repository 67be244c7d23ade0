// Post CRUD and cache-coherent listing service.
//
// This file implements PostService, the application-level component that owns
// the post lifecycle. It validates inputs, enforces the author-only rule for
// mutations, memoizes the per-author listing through the injected cache, and
// evicts the affected cache entry after every successful write so the next
// read observes the new state.
//
// Observability: public methods are OpenTelemetry-instrumented; spans include
// post and author identifiers where applicable.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/blogd/go-blog-backend/internal/cache"
	"github.com/blogd/go-blog-backend/internal/domain"
	"github.com/blogd/go-blog-backend/internal/repo"
)

// maxTitleRunes caps stored post titles; the column is varchar(50).
const maxTitleRunes = 50

// PostRepo defines the repository contract required by PostService.
type PostRepo interface {
	// CreatePost inserts a live post owned by authorID.
	CreatePost(ctx context.Context, db *gorm.DB, authorID uint, title, content string) (*domain.Post, error)

	// GetPost fetches a live post by id.
	GetPost(ctx context.Context, db *gorm.DB, id uint) (*domain.Post, error)

	// ListPosts returns all live posts, newest first.
	ListPosts(ctx context.Context, db *gorm.DB) ([]domain.Post, error)

	// ListPostsByAuthor returns the author's live posts, newest first.
	ListPostsByAuthor(ctx context.Context, db *gorm.DB, authorID uint) ([]domain.Post, error)

	// SavePost persists in-place modifications to an existing post row.
	SavePost(ctx context.Context, db *gorm.DB, p *domain.Post) error

	// SoftDeletePost marks the post deleted without removing the row.
	SoftDeletePost(ctx context.Context, db *gorm.DB, id uint) error
}

// PostService coordinates post persistence and the memoized read path.
type PostService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Posts is the post repository used by this service.
	Posts PostRepo
	// Users resolves public identifiers for the per-author listing.
	Users UserRepo

	// Cache memoizes ListByUser results. Nil disables memoization.
	Cache *cache.Store
	// CacheTTL bounds how long a memoized listing may be served.
	CacheTTL time.Duration
}

// NewPostService constructs a PostService with the given memoization policy.
func NewPostService(db *gorm.DB, posts PostRepo, users UserRepo, c *cache.Store, ttl time.Duration) *PostService {
	return &PostService{DB: db, Posts: posts, Users: users, Cache: c, CacheTTL: ttl}
}

// postsCacheKey names the memoized listing for one author.
func postsCacheKey(authorID uint) string {
	return fmt.Sprintf("posts:user:%d", authorID)
}

// Create inserts a new post owned by the acting user and evicts the author's
// memoized listing before returning, so a follow-up read sees the new post.
func (s *PostService) Create(ctx context.Context, actor *domain.User, title, content string) (*domain.Post, error) {
	tr := otel.Tracer("services/PostService")
	ctx, span := tr.Start(ctx, "Create")
	defer span.End()

	if actor == nil {
		return nil, ErrForbidden
	}
	span.SetAttributes(attribute.String("user.public_id", actor.PublicID))
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, ErrInvalidPost
	}
	if runes := []rune(title); len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes])
	}

	p, err := s.Posts.CreatePost(ctx, s.DB, actor.ID, title, content)
	if err != nil {
		return nil, err
	}
	s.invalidate(actor.ID)
	span.SetAttributes(attribute.Int("post.id", int(p.ID)))
	return p, nil
}

// Get returns a single live post.
func (s *PostService) Get(ctx context.Context, id uint) (*domain.Post, error) {
	p, err := s.Posts.GetPost(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return p, nil
}

// List returns all live posts, newest first. The global listing is not
// memoized; only the per-author listing is hot enough to warrant it.
func (s *PostService) List(ctx context.Context) ([]domain.Post, error) {
	return s.Posts.ListPosts(ctx, s.DB)
}

// ListByUser returns the live posts of the account identified by publicID,
// served from the memoization cache when a fresh entry exists. A stale read
// is bounded by CacheTTL; writes through this service evict eagerly so their
// own authors read their writes immediately.
func (s *PostService) ListByUser(ctx context.Context, publicID string) ([]domain.Post, error) {
	tr := otel.Tracer("services/PostService")
	ctx, span := tr.Start(ctx, "ListByUser",
		trace.WithAttributes(attribute.String("user.public_id", publicID)),
	)
	defer span.End()

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

	if s.Cache == nil {
		return s.Posts.ListPostsByAuthor(ctx, s.DB, u.ID)
	}
	v, err := s.Cache.GetOrCompute(postsCacheKey(u.ID), s.CacheTTL, func() (any, error) {
		return s.Posts.ListPostsByAuthor(ctx, s.DB, u.ID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Post), nil
}

// Update rewrites the title and content of a post. Only the author may edit;
// non-authors get ErrForbidden regardless of admin status. The author's
// memoized listing is evicted after the row is persisted.
func (s *PostService) Update(ctx context.Context, actor *domain.User, id uint, title, content string) (*domain.Post, error) {
	tr := otel.Tracer("services/PostService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(attribute.Int("post.id", int(id))),
	)
	defer span.End()

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.ID != p.AuthorID {
		return nil, ErrForbidden
	}

	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, ErrInvalidPost
	}
	if runes := []rune(title); len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes])
	}
	p.Title = title
	p.Content = content

	if err := s.Posts.SavePost(ctx, s.DB, p); err != nil {
		return nil, err
	}
	s.invalidate(p.AuthorID)
	return p, nil
}

// Delete soft-deletes a post. Only the author may delete. The author's
// memoized listing is evicted after the row is persisted.
func (s *PostService) Delete(ctx context.Context, actor *domain.User, id uint) error {
	tr := otel.Tracer("services/PostService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.Int("post.id", int(id))),
	)
	defer span.End()

	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if actor == nil || actor.ID != p.AuthorID {
		return ErrForbidden
	}

	if err := s.Posts.SoftDeletePost(ctx, s.DB, p.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	s.invalidate(p.AuthorID)
	return nil
}

// invalidate evicts the author's memoized listing. Eviction happens after the
// row is persisted and before the call returns, so the caller's next read
// recomputes from the database.
func (s *PostService) invalidate(authorID uint) {
	if s.Cache != nil {
		s.Cache.Invalidate(postsCacheKey(authorID))
	}
}
