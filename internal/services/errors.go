// Package services defines the business logic for accounts, sessions, and
// posts. This file centralizes common service-level error values so that they
// can be consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Account and session errors.
var (
	// ErrLoginRequired is returned when a login attempt is missing the email
	// or the password.
	ErrLoginRequired = errors.New("login required")

	// ErrUserNotFound indicates that the requested user does not exist or has
	// been deleted.
	ErrUserNotFound = errors.New("user not found")

	// ErrWrongPassword is returned when the supplied password does not verify
	// against the stored credential.
	ErrWrongPassword = errors.New("wrong password")

	// ErrInvalidUser is returned when a user payload is missing required
	// fields (username, email, or password).
	ErrInvalidUser = errors.New("username, email, and password are required")

	// ErrConflict indicates a unique-constraint violation (username or email
	// already taken).
	ErrConflict = errors.New("conflicting record exists")
)

// Post errors.
var (
	// ErrPostNotFound indicates that the requested post does not exist or has
	// been deleted.
	ErrPostNotFound = errors.New("post not found")

	// ErrInvalidPost is returned when a post payload is missing the title or
	// the content.
	ErrInvalidPost = errors.New("title and content are required")

	// ErrForbidden is returned when the acting user is neither the owner of
	// the target resource nor otherwise permitted to act on it.
	ErrForbidden = errors.New("not permitted")
)
