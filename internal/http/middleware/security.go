// Hardening headers.
//
// This file provides SecurityHeaders, which attaches a conservative set of
// HTTP security headers suitable for a JSON API running behind a reverse
// proxy. HSTS is opt-in and only emitted when the request actually arrived
// over HTTPS; no CSP is set since the API never serves HTML.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures the headers emitted by SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS turns on Strict-Transport-Security for HTTPS requests.
	// Only enable when traffic is HTTPS end-to-end, proxy hop included.
	EnableHSTS bool
	// HSTSMaxAge is the HSTS lifetime; non-positive values fall back to 180
	// days.
	HSTSMaxAge time.Duration
	// NoStore adds Cache-Control: no-store (plus legacy Pragma/Expires) to
	// keep sensitive responses out of shared caches. Leave it off when
	// conditional requests (ETag on the posts listing) should keep working.
	NoStore bool
	// EnablePolicy includes browser feature policies (Permissions-Policy,
	// X-Permitted-Cross-Domain-Policies). Harmless for non-browser clients.
	EnablePolicy bool
}

// SecurityHeaders returns a middleware that adds baseline hardening headers
// to every response: nosniff, frame denial, and a no-referrer policy, plus
// the optional groups selected in opt. When an X-Request-ID header is
// present it is added to Access-Control-Expose-Headers so browser clients
// can correlate failures with server logs.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hstsValue := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		// Never advertise HSTS on plain HTTP; browsers ignore it and it
		// invites misconfiguration.
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hstsValue)
		}

		if rid := h.Get("X-Request-ID"); rid != "" {
			const hdr = "Access-Control-Expose-Headers"
			cur := h.Get(hdr)
			switch {
			case cur == "":
				h.Set(hdr, "X-Request-ID")
			case !strings.Contains(cur, "X-Request-ID"):
				h.Set(hdr, cur+", X-Request-ID")
			}
		}

		c.Next()
	}
}

// isHTTPS reports whether the request used HTTPS either directly or via a
// proxy that set X-Forwarded-Proto.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
