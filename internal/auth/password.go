// Package auth implements the credential and token primitives of the
// application: write-only password hashes and signed, time-bounded bearer
// tokens. It has no HTTP or storage dependencies beyond the database/sql
// interfaces needed to persist the hash column.
package auth

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrHashNotReadable is the panic value raised when code attempts to read a
// stored password hash. Reading the hash is a programming error, not a
// runtime condition, so the failure is loud by design of the API.
var ErrHashNotReadable = errors.New("auth: password hashes may not be viewed")

// Credential is a write-only password holder. The only supported operations
// are Set (replace the stored bcrypt hash) and Verify (recompute-and-compare).
// Every read path a caller could stumble into (String, GoString, fmt verbs,
// JSON marshalling) either panics or redacts, so a hash can never leak into
// logs or responses by accident.
//
// Credential implements sql.Scanner and driver.Valuer so GORM can persist the
// column; the persistence path is not considered a caller-facing accessor.
type Credential struct {
	hash string
}

// NewCredential hashes plaintext at the given bcrypt cost and returns the
// resulting credential. Costs below bcrypt.DefaultCost are raised to the
// default so the hash stays expensive as hardware improves.
func NewCredential(plaintext string, cost int) (Credential, error) {
	var c Credential
	if err := c.Set(plaintext, cost); err != nil {
		return Credential{}, err
	}
	return c, nil
}

// Set replaces the stored hash with a bcrypt hash of plaintext. The plaintext
// does not persist past the call.
func (c *Credential) Set(plaintext string, cost int) error {
	if cost < bcrypt.DefaultCost {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	c.hash = string(h)
	return nil
}

// Verify recomputes the hash for plaintext and compares it to the stored one.
// It returns false for an empty credential.
func (c *Credential) Verify(plaintext string) bool {
	if c.hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.hash), []byte(plaintext)) == nil
}

// Empty reports whether no hash has been set.
func (c *Credential) Empty() bool { return c.hash == "" }

// String panics. Hashes have no read accessor.
func (c Credential) String() string { panic(ErrHashNotReadable) }

// GoString panics, covering %#v formatting.
func (c Credential) GoString() string { panic(ErrHashNotReadable) }

// MarshalJSON always emits null; the hash never serializes.
func (c Credential) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Scan implements sql.Scanner, loading the hash column from storage.
func (c *Credential) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		c.hash = ""
	case string:
		c.hash = v
	case []byte:
		c.hash = string(v)
	default:
		return fmt.Errorf("auth: cannot scan %T into Credential", src)
	}
	return nil
}

// Value implements driver.Valuer, exposing the hash to the persistence layer
// only.
func (c Credential) Value() (driver.Value, error) {
	if c.hash == "" {
		return nil, nil
	}
	return c.hash, nil
}
