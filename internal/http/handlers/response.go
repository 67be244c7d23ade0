// Package handlers exposes the HTTP endpoints for accounts, sessions, and
// posts.
//
// This file holds the shared response helpers. Every failure goes out as an
// ErrorResponse envelope with a stable machine code and the exact legacy
// message strings clients already match on, e.g.
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "Post not found."
//	}
//
// Success bodies are handler-specific; ok() and noContent() only keep the
// status handling uniform.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blogd/go-blog-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by every endpoint. RequestID
// echoes the X-Request-ID header so a client report can be matched to server
// logs; Code is stable for machines (see errors.go), Message is for people.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"not_found"`
	Message   string `json:"message" example:"Post not found."`
}

// fail aborts the request with a structured error. Server-side failures
// (status >= 500) also land in the request-scoped log.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail lets the router (NoRoute, NoMethod) emit the same envelope without
// reaching into unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes body as JSON with the given status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes 204 with an empty body.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
