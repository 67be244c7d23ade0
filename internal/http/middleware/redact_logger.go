// RedactingLogger scrubs obvious PII from request metadata before it reaches
// the logs: emails, phone numbers, and UUID-shaped identifiers in query
// strings and header values, plus full masking of credential headers. Bodies
// are never logged.
//
//	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
//	    MaskHeaders: []string{"X-Api-Key"},
//	}))
//
// Scrubbing reduces but does not eliminate leakage; clients should still keep
// PII out of query strings where possible.

package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Order matters when applying these: UUIDs first, then emails, then phones,
// so the loose phone pattern cannot eat the digit runs inside a UUID.
var (
	redactUUIDRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	redactEmailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Matches "+1 212-555-1212", "212 555 1212", "(212) 555-1212".
	redactPhoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

func scrub(s string) string {
	if s == "" {
		return s
	}
	s = redactUUIDRE.ReplaceAllString(s, "[REDACTED:id]")
	s = redactEmailRE.ReplaceAllString(s, "[REDACTED:email]")
	s = redactPhoneRE.ReplaceAllString(s, "[REDACTED:phone]")
	return s
}

// RedactOptions adds extra header names whose values are replaced wholesale
// with "[REDACTED]". Matching is case-insensitive and merged with the
// built-in set (Authorization, Cookie, Set-Cookie, and the legacy
// x-access-token header).
type RedactOptions struct {
	MaskHeaders []string
}

// RedactingLogger logs method, path, scrubbed query, status, response size,
// latency, and scrubbed headers as structured JSON. Level tracks the
// response: info for 2xx/3xx, warn for 4xx, error for 5xx.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]struct{}{
		"authorization":   {},
		"cookie":          {},
		"set-cookie":      {},
		HeaderAccessToken: {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		safeQuery := scrub(c.Request.URL.RawQuery)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = scrub(strings.Join(vv, ", "))
		}

		c.Next()

		status := c.Writer.Status()
		reqID := c.Writer.Header().Get("X-Request-ID")
		if reqID == "" {
			reqID = c.GetHeader("X-Request-ID")
		}

		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}

		ev.
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", safeQuery).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
