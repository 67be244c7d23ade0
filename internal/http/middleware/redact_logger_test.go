package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func withCapturedLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf) // plain JSON lines
	return &buf
}

func TestScrub(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"plain text", "plain text"},
		{"a.b+tag@example.com", "[REDACTED:email]"},
		{"+1-555-123-4567", "[REDACTED:phone]"},
		{"123e4567-e89b-12d3-a456-426614174000", "[REDACTED:id]"},
		// a UUID must not be half-eaten by the phone pattern
		{"id=123e4567-e89b-12d3-a456-426614174000 phone 555-123-4567",
			"id=[REDACTED:id] phone [REDACTED:phone]"},
	}
	for _, tc := range cases {
		if got := scrub(tc.in); got != tc.want {
			t.Fatalf("scrub(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestRedactingLogger_InfoAndRedactions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	buf := withCapturedLogger(t)

	// Simulate the upstream RequestID middleware setting the response header.
	r.Use(func(c *gin.Context) {
		c.Header("X-Request-ID", "rid-resp")
		c.Next()
	})
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))

	// Parameterized route so c.FullPath() is the pattern, not the raw path.
	r.GET("/user/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	q := "email=a.b+tag@example.com&phone=+1-555-123-4567&id=123e4567-e89b-12d3-a456-426614174000"
	req := httptest.NewRequest(http.MethodGet, "/user/123?"+q, nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Cookie", "sid=topsecret")
	req.Header.Set("X-Api-Key", "shhh")
	req.Header.Set(HeaderAccessToken, "jwt-here")
	// PII in an ordinary header is pattern-redacted, not fully masked.
	req.Header.Set("X-Custom", "email a@b.com id=123e4567-e89b-12d3-a456-426614174000 phone 555-123-4567")
	// The response header wins over this request-side id.
	req.Header.Set("X-Request-ID", "rid-req")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	logs := buf.String()
	for _, want := range []string{
		`"level":"info"`,
		`"path":"/user/:id"`,
		`"request_id":"rid-resp"`,
		`[REDACTED:email]`,
		`[REDACTED:phone]`,
		`[REDACTED:id]`,
		`"Authorization":"[REDACTED]"`,
		`"Cookie":"[REDACTED]"`,
		`"X-Api-Key":"[REDACTED]"`,
		`"X-Access-Token":"[REDACTED]"`,
		`"X-Custom":"email [REDACTED:email] id=[REDACTED:id] phone [REDACTED:phone]"`,
	} {
		if !strings.Contains(logs, want) {
			t.Fatalf("log line missing %s:\n%s", want, logs)
		}
	}
}

func TestRedactingLogger_LevelsAndRequestIDFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	buf := withCapturedLogger(t)

	// No response-side X-Request-ID this time; logger falls back to the
	// request header.
	r.Use(RedactingLogger(RedactOptions{}))

	r.GET("/post/999", func(c *gin.Context) { c.Status(http.StatusNotFound) })          // 4xx -> warn
	r.GET("/post/", func(c *gin.Context) { c.Status(http.StatusInternalServerError) }) // 5xx -> error

	reqWarn := httptest.NewRequest(http.MethodGet, "/post/999", nil)
	reqWarn.Header.Set("X-Request-ID", "rid-warn")
	r.ServeHTTP(httptest.NewRecorder(), reqWarn)

	reqErr := httptest.NewRequest(http.MethodGet, "/post/", nil)
	reqErr.Header.Set("X-Request-ID", "rid-err")
	r.ServeHTTP(httptest.NewRecorder(), reqErr)

	logs := buf.String()
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, `"request_id":"rid-warn"`) {
		t.Fatalf("warn log not found or missing request_id fallback: %s", logs)
	}
	if !strings.Contains(logs, `"level":"error"`) || !strings.Contains(logs, `"request_id":"rid-err"`) {
		t.Fatalf("error log not found or missing request_id fallback: %s", logs)
	}
}
