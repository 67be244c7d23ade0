// User HTTP handlers.
//
// This file exposes REST endpoints for user resources:
//   - POST   /user/           (create, admin only)
//   - GET    /user/           (list, admin only)
//   - GET    /user/{id}       (fetch one, admin only)
//   - PUT    /user/{id}       (update own account)
//   - DELETE /user/{id}       (delete own account)
//   - GET    /user/{id}/posts (public, memoized, ETag support)
//
// Ownership failures on PUT/DELETE surface as 401 "Unauthorized." to match
// the responses existing clients were built against.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/blogd/go-blog-backend/internal/domain"
	"github.com/blogd/go-blog-backend/internal/http/middleware"
	"github.com/blogd/go-blog-backend/internal/repo"
	"github.com/blogd/go-blog-backend/internal/services"
)

// UserService defines account operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type UserService interface {
	// Create inserts an account with an explicit admin flag.
	Create(ctx context.Context, username, email, password string, admin bool) (*domain.User, error)
	// Get returns the account with the given public identifier.
	Get(ctx context.Context, publicID string) (*domain.User, error)
	// List returns every non-deleted account.
	List(ctx context.Context) ([]domain.User, error)
	// Update rewrites the mutable fields of the actor's own account.
	Update(ctx context.Context, actor *domain.User, publicID, username, email, password string) (*domain.User, error)
	// Delete soft-deletes the actor's own account.
	Delete(ctx context.Context, actor *domain.User, publicID string) error
}

//
// DTOs
//

// CreateUserRequest is the JSON payload for POST /user/.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required" example:"reader"`
	Email    string `json:"email" binding:"required" example:"reader@example.com"`
	Password string `json:"password" binding:"required" example:"hunter2"`
	// Admin grants access to admin-only routes.
	Admin bool `json:"admin" example:"false"`
}

// UpdateUserRequest is the JSON payload for PUT /user/{id}. Empty fields are
// left unchanged.
type UpdateUserRequest struct {
	Username string `json:"username" example:"reader2"`
	Email    string `json:"email" example:"reader2@example.com"`
	Password string `json:"password" example:"correct-horse"`
}

//
// Helpers
//

// failUser translates shared user-service sentinels into the historical wire
// responses. It returns false when err was not recognized so callers can
// handle their endpoint-specific cases first.
func failUser(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrForbidden):
		// Historically ownership failures report 401, not 403.
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Unauthorized.")
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "User not found.")
	case errors.Is(err, services.ErrConflict):
		fail(c, http.StatusConflict, ErrCodeConflict, "Database conflict.")
	case errors.Is(err, services.ErrInvalidUser):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrInvalidUser.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "An error occurred.")
	}
}

//
// Handlers
//

// CreateUser godoc
// @ID          createUser
// @Summary     Create a user (admin)
// @Description Creates an account with an explicit admin flag. Requires an administrator token.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.CreateUserRequest  true  "New user payload"
//
// @Success     201  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Token missing or invalid"
// @Failure     403  {object}  handlers.ErrorResponse  "Not an admin"
// @Failure     409  {object}  handlers.ErrorResponse  "Username or email taken"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /user/ [post]
func (h *Handlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.userSvc.Create(c.Request.Context(), req.Username, req.Email, req.Password, req.Admin)
	if err != nil {
		failUser(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List users (admin)
// @Description Returns every account. Responds 204 when there are none.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {array}   domain.User
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Token missing or invalid"
// @Failure     403  {object}  handlers.ErrorResponse  "Not an admin"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /user/ [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.userSvc.List(c.Request.Context())
	if err != nil {
		failUser(c, err)
		return
	}
	if len(users) == 0 {
		noContent(c)
		return
	}
	ok(c, http.StatusOK, users)
}

// GetUser godoc
// @ID          getUser
// @Summary     Fetch a user (admin)
// @Description Returns the account with the given public identifier.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "User public ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "Token missing or invalid"
// @Failure     403  {object}  handlers.ErrorResponse  "Not an admin"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /user/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	u, err := h.userSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failUser(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdateUser godoc
// @ID          updateUser
// @Summary     Update own account
// @Description Rewrites the mutable fields of the caller's own account. Empty fields are left unchanged.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string  true  "User public ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UpdateUserRequest  true  "Fields to change"
//
// @Success     201  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Token invalid or not the owner"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Username or email taken"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /user/{id} [put]
func (h *Handlers) UpdateUser(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.userSvc.Update(c.Request.Context(), actor, c.Param("id"), req.Username, req.Email, req.Password)
	if err != nil {
		failUser(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// DeleteUser godoc
// @ID          deleteUser
// @Summary     Delete own account
// @Description Soft-deletes the caller's own account. Outstanding tokens stop resolving immediately.
// @Tags        Users
// @Security    BearerAuth
//
// @Param       id  path  string  true  "User public ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Token invalid or not the owner"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /user/{id} [delete]
func (h *Handlers) DeleteUser(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	if err := h.userSvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		failUser(c, err)
		return
	}
	noContent(c)
}

// GetUserPosts godoc
// @ID          getUserPosts
// @Summary     List a user's posts
// @Description Returns the user's live posts, newest first. The listing is memoized server-side and supports a weak ETag; unchanged lists answer 304. Responds 204 when the user has no posts.
// @Tags        Users
// @Produce     json
//
// @Param       id             path    string  true   "User public ID (UUID)"       format(uuid)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"  example(W/\"abc123\")
//
// @Success     200  {array}   domain.Post
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     204  {string}  string  "No Content"
// @Success     304  {string}  string  "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /user/{id}/posts [get]
func (h *Handlers) GetUserPosts(c *gin.Context) {
	ctx := c.Request.Context()
	publicID := c.Param("id")

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.postSvc.(*services.PostService); ok {
		db = svc.DB
	}
	if db != nil {
		if author, err := repo.GetUserByPublicID(ctx, db, publicID); err == nil && !author.Deleted() {
			count, maxTS, serr := repo.PostsStats(ctx, db, author.ID)
			if serr == nil {
				var ts int64
				if maxTS != nil {
					ts = maxTS.Unix()
				}
				etag := fmt.Sprintf(`W/"posts:%s:%d:%d"`, publicID, count, ts)
				c.Header("ETag", etag)
				if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
					c.Status(http.StatusNotModified)
					return
				}
			}
		}
	}

	posts, err := h.postSvc.ListByUser(ctx, publicID)
	if err != nil {
		failUser(c, err)
		return
	}
	if len(posts) == 0 {
		noContent(c)
		return
	}
	ok(c, http.StatusOK, posts)
}
