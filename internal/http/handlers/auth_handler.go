// Auth HTTP handlers.
//
// This file exposes the session endpoints:
//   - POST /auth/login   (verify credentials, issue token)
//   - POST /auth/signup  (self-service registration)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate service sentinels into the historical status/message pairs
// that existing clients depend on.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blogd/go-blog-backend/internal/domain"
	"github.com/blogd/go-blog-backend/internal/services"
)

// AuthService defines session operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AuthService interface {
	// Login verifies credentials and returns a signed session token.
	Login(ctx context.Context, email, password string) (string, error)
	// Register creates an account, or reports the existing one with created=false.
	Register(ctx context.Context, username, email, password string) (*domain.User, bool, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for sessions, users, and posts. It depends
// on abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	authSvc AuthService
	userSvc UserService
	postSvc PostService

	// idemTTL bounds how long a completed POST /post/ can be replayed.
	idemTTL time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
// idemTTL controls the replay window for idempotent post creation.
func New(authSvc AuthService, userSvc UserService, postSvc PostService, idemTTL time.Duration) *Handlers {
	return &Handlers{authSvc: authSvc, userSvc: userSvc, postSvc: postSvc, idemTTL: idemTTL}
}

//
// DTOs
//

// LoginRequest is the JSON payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" example:"reader@example.com"`
	Password string `json:"password" example:"hunter2"`
}

// TokenResponse carries the signed session token returned on login.
type TokenResponse struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIs..."`
}

// SignupRequest is the JSON payload for POST /auth/signup.
type SignupRequest struct {
	Username string `json:"username" example:"reader"`
	Email    string `json:"email" example:"reader@example.com"`
	Password string `json:"password" example:"hunter2"`
}

// MessageResponse is the generic acknowledgment body used by signup.
type MessageResponse struct {
	Message string `json:"message" example:"User successfully registered."`
}

//
// Handlers
//

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies email and password and returns a session token valid for 30 minutes.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object}  handlers.TokenResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing credentials or unknown user"
// @Failure     403  {object}  handlers.ErrorResponse  "Wrong password"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Login required.")
		return
	}

	token, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		ok(c, http.StatusOK, TokenResponse{Token: token})
	case errors.Is(err, services.ErrLoginRequired):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Login required.")
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "User does not exist.")
	case errors.Is(err, services.ErrWrongPassword):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "Wrong password.")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "An error occurred.")
	}
}

// Signup godoc
// @ID          signup
// @Summary     Register a new account
// @Description Creates an account. When the email is already registered the existing account is acknowledged with 202.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.SignupRequest  true  "New account payload"
//
// @Success     201  {object}  handlers.MessageResponse  "User successfully registered."
// @Success     202  {object}  handlers.MessageResponse  "User already exists."
// @Failure     400  {object}  handlers.ErrorResponse    "Missing fields"
// @Failure     500  {object}  handlers.ErrorResponse    "Internal error"
// @Router      /auth/signup [post]
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	_, created, err := h.authSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	switch {
	case err == nil && created:
		ok(c, http.StatusCreated, MessageResponse{Message: "User successfully registered."})
	case err == nil:
		ok(c, http.StatusAccepted, MessageResponse{Message: "User already exists."})
	case errors.Is(err, services.ErrInvalidUser):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrInvalidUser.Error())
	case errors.Is(err, services.ErrConflict):
		fail(c, http.StatusConflict, ErrCodeConflict, "Database conflict.")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "An error occurred.")
	}
}
