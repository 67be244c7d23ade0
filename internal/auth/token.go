package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL bounds the blast radius of a leaked token without refresh
// machinery.
const DefaultTokenTTL = 30 * time.Minute

// ErrNoSecret is returned by NewTokenIssuer when no signing secret is
// configured. Tokens cannot be issued or verified without one, so this is a
// fatal configuration error.
var ErrNoSecret = errors.New("auth: signing secret is empty")

// Claims is the JWT payload carried by issued tokens. The subject is the
// user's public identifier, never the internal storage key.
type Claims struct {
	PublicID string `json:"public_id"`
	jwt.RegisteredClaims
}

// TokenIssuer issues and verifies HS256-signed bearer tokens. Tokens are
// stateless: there is no session table and no revocation before expiry.
// Verification failures of any kind (malformed token, bad signature, expiry)
// collapse to a single "invalid" outcome so callers cannot distinguish why a
// token was rejected.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer with the given signing secret and
// validity window. A non-positive ttl falls back to DefaultTokenTTL.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token asserting "this request acts as publicID" until the
// configured expiry elapses.
func (ti *TokenIssuer) Issue(publicID string) (string, error) {
	now := ti.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		PublicID: publicID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	return token.SignedString(ti.secret)
}

// Verify parses and validates tokenString, returning the subject's public
// identifier. The boolean is false for any decode, signature, or expiry
// failure; no detail about the failure is exposed.
func (ti *TokenIssuer) Verify(tokenString string) (string, bool) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return ti.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return ti.now() }))
	if err != nil || !token.Valid || claims.PublicID == "" {
		return "", false
	}
	return claims.PublicID, true
}
