// Post HTTP handlers.
//
// This file exposes REST endpoints for post resources:
//   - GET    /post/      (public list)
//   - POST   /post/      (create, authenticated, idempotency-aware)
//   - GET    /post/{id}  (public fetch)
//   - PUT    /post/{id}  (update, author only)
//   - DELETE /post/{id}  (delete, author only)
//
// Writes evict the author's memoized listing inside the service before
// responding, so a client that writes and immediately re-reads its own
// listing observes the new state.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blogd/go-blog-backend/internal/domain"
	"github.com/blogd/go-blog-backend/internal/http/middleware"
	"github.com/blogd/go-blog-backend/internal/repo"
	"github.com/blogd/go-blog-backend/internal/services"
	"github.com/blogd/go-blog-backend/internal/utils"
)

// IdempotencyScopePostCreate names the dedup scope for POST /post/ records.
const IdempotencyScopePostCreate = "post.create"

// PostService defines post operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type PostService interface {
	// Create inserts a new post owned by the acting user.
	Create(ctx context.Context, actor *domain.User, title, content string) (*domain.Post, error)
	// Get returns a single live post.
	Get(ctx context.Context, id uint) (*domain.Post, error)
	// List returns all live posts, newest first.
	List(ctx context.Context) ([]domain.Post, error)
	// ListByUser returns the live posts of one account, possibly memoized.
	ListByUser(ctx context.Context, publicID string) ([]domain.Post, error)
	// Update rewrites a post's title and content (author only).
	Update(ctx context.Context, actor *domain.User, id uint, title, content string) (*domain.Post, error)
	// Delete soft-deletes a post (author only).
	Delete(ctx context.Context, actor *domain.User, id uint) error
}

//
// DTOs
//

// PostRequest is the JSON payload for creating or updating a post.
type PostRequest struct {
	Title   string `json:"title" binding:"required" example:"On caching"`
	Content string `json:"content" binding:"required" example:"Invalidate after you persist, not before."`
}

//
// Helpers
//

// postID parses the numeric :id path parameter. A non-numeric id is reported
// as not found, matching how unknown ids behave.
func postID(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Post not found.")
		return 0, false
	}
	return uint(n), true
}

// failPost translates shared post-service sentinels into the historical wire
// responses.
func failPost(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrForbidden):
		// Historically ownership failures report 401, not 403.
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Unauthorized.")
	case errors.Is(err, services.ErrPostNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Post not found.")
	case errors.Is(err, services.ErrInvalidPost):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrInvalidPost.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "An error occurred.")
	}
}

//
// Handlers
//

// ListPosts godoc
// @ID          listPosts
// @Summary     List all posts
// @Description Returns every live post, newest first. Optional offset/limit query parameters window the result. Responds 204 when there are none.
// @Tags        Posts
// @Produce     json
//
// @Param       offset  query  int  false  "Number of posts to skip"     minimum(0)
// @Param       limit   query  int  false  "Maximum posts to return"     minimum(1)
//
// @Success     200  {array}   domain.Post
// @Success     204  {string}  string  "No Content"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /post/ [get]
func (h *Handlers) ListPosts(c *gin.Context) {
	posts, err := h.postSvc.List(c.Request.Context())
	if err != nil {
		failPost(c, err)
		return
	}

	// Optional result window; malformed values fall back to the full list.
	posts = utils.Window(posts,
		utils.AtoiDefault(c.Query("offset"), 0),
		utils.AtoiDefault(c.Query("limit"), 0))

	if len(posts) == 0 {
		noContent(c)
		return
	}
	ok(c, http.StatusOK, posts)
}

// GetPost godoc
// @ID          getPost
// @Summary     Fetch a post
// @Description Returns a single live post.
// @Tags        Posts
// @Produce     json
//
// @Param       id  path  int  true  "Post ID"
//
// @Success     200  {object}  domain.Post
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /post/{id} [get]
func (h *Handlers) GetPost(c *gin.Context) {
	id, ok2 := postID(c)
	if !ok2 {
		return
	}
	p, err := h.postSvc.Get(c.Request.Context(), id)
	if err != nil {
		failPost(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// CreatePost godoc
// @ID          createPost
// @Summary     Create a post
// @Description Creates a post owned by the caller. Supply an Idempotency-Key header to make retries safe: a replayed request returns the originally created post.
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false  "Client-chosen key for safe retries"
// @Param       body             body    handlers.PostRequest  true  "New post payload"
//
// @Success     201  {object}  domain.Post
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Token missing or invalid"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /post/ [post]
func (h *Handlers) CreatePost(c *gin.Context) {
	ctx := c.Request.Context()
	actor, _ := middleware.CurrentUser(c)

	// Serve a detected replay from the stored record instead of re-creating.
	if middleware.IsReplay(c) {
		if p, ok2 := h.replayedPost(c, actor); ok2 {
			ok(c, http.StatusCreated, p)
			return
		}
	}

	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	p, err := h.postSvc.Create(ctx, actor, req.Title, req.Content)
	if err != nil {
		failPost(c, err)
		return
	}
	h.recordIdempotency(c, actor, p)
	ok(c, http.StatusCreated, p)
}

// UpdatePost godoc
// @ID          updatePost
// @Summary     Update a post
// @Description Rewrites the title and content of a post the caller authored.
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  int  true  "Post ID"
// @Param       body  body  handlers.PostRequest  true  "Replacement payload"
//
// @Success     201  {object}  domain.Post
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Token invalid or not the author"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /post/{id} [put]
func (h *Handlers) UpdatePost(c *gin.Context) {
	id, ok2 := postID(c)
	if !ok2 {
		return
	}
	actor, _ := middleware.CurrentUser(c)

	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	p, err := h.postSvc.Update(c.Request.Context(), actor, id, req.Title, req.Content)
	if err != nil {
		failPost(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// DeletePost godoc
// @ID          deletePost
// @Summary     Delete a post
// @Description Soft-deletes a post the caller authored.
// @Tags        Posts
// @Security    BearerAuth
//
// @Param       id  path  int  true  "Post ID"
//
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Token invalid or not the author"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /post/{id} [delete]
func (h *Handlers) DeletePost(c *gin.Context) {
	id, ok2 := postID(c)
	if !ok2 {
		return
	}
	actor, _ := middleware.CurrentUser(c)

	if err := h.postSvc.Delete(c.Request.Context(), actor, id); err != nil {
		failPost(c, err)
		return
	}
	noContent(c)
}

//
// Idempotency plumbing (best effort; failures never fail the request)
//

// replayedPost loads the post persisted under the request's idempotency key.
func (h *Handlers) replayedPost(c *gin.Context, actor *domain.User) (*domain.Post, bool) {
	svc, ok2 := h.postSvc.(*services.PostService)
	if !ok2 || svc.DB == nil || actor == nil {
		return nil, false
	}
	key, ok2 := middleware.GetIdempotencyKey(c)
	if !ok2 {
		return nil, false
	}
	rec, err := repo.GetIdempotency(c.Request.Context(), svc.DB, actor.ID, IdempotencyScopePostCreate, key, time.Now().UTC())
	if err != nil {
		return nil, false
	}
	p, err := h.postSvc.Get(c.Request.Context(), rec.PostID)
	if err != nil {
		return nil, false
	}
	return p, true
}

// recordIdempotency persists the (user, key) → post mapping after a create.
func (h *Handlers) recordIdempotency(c *gin.Context, actor *domain.User, p *domain.Post) {
	svc, ok2 := h.postSvc.(*services.PostService)
	if !ok2 || svc.DB == nil || actor == nil {
		return
	}
	key, ok2 := middleware.GetIdempotencyKey(c)
	if !ok2 {
		return
	}
	if _, err := repo.CreateIdempotency(c.Request.Context(), svc.DB, actor.ID, IdempotencyScopePostCreate, key, p.ID, http.StatusCreated, h.idemTTL); err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Warn().Err(err).Msg("idempotency record not stored")
	}
}
