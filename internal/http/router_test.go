package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/blogd/go-blog-backend/internal/auth"
	"github.com/blogd/go-blog-backend/internal/config"
	"github.com/blogd/go-blog-backend/internal/domain"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Post{}, &domain.Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	iss, err := auth.NewTokenIssuer("router-test-secret", 30*time.Minute)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return iss
}

func baseConfig() config.Config {
	return config.Config{
		APIBasePath:    "/api/v1",
		RateRPS:        100,
		RateBurst:      50,
		BcryptCost:     4, // keep hashing cheap in tests
		PostsCacheTTL:  time.Minute,
		IdempotencyTTL: time.Hour,
		CORS:           config.CORSConfig{AllowedOrigins: nil}, // AllowAllOrigins branch
		Security:       config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
	}
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	db := newTestDB(t, "routerdb")
	RegisterRoutes(r, db, newTestIssuer(t), baseConfig())

	// /health works
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || len(w.Body.Bytes()) == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (POST /health)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	cfg := baseConfig()
	cfg.APIBasePath = "/api/v2"
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}

	db := newTestDB(t, "routerdb_cors")
	RegisterRoutes(r, db, newTestIssuer(t), cfg)

	// Any request runs through CORS middleware; header should reflect origin.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" should mount at root
	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })

	// non-root prefix
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

// --- end-to-end scenarios through the full stack (real sqlite, no fakes) ---

type e2e struct {
	t *testing.T
	r *gin.Engine
}

func newE2E(t *testing.T, dbName string) *e2e {
	return newE2ECfg(t, dbName, baseConfig())
}

func newE2ECfg(t *testing.T, dbName string, cfg config.Config) *e2e {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestDB(t, dbName), newTestIssuer(t), cfg)
	return &e2e{t: t, r: r}
}

func (e *e2e) do(method, path, token, body string, hdr map[string]string) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func (e *e2e) signupAndLogin(username, email string) string {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/v1/auth/signup", "",
		fmt.Sprintf(`{"username":%q,"email":%q,"password":"pw12345"}`, username, email), nil)
	if w.Code != http.StatusCreated {
		e.t.Fatalf("signup %s = %d: %s", username, w.Code, w.Body.String())
	}
	w = e.do(http.MethodPost, "/api/v1/auth/login", "",
		fmt.Sprintf(`{"email":%q,"password":"pw12345"}`, email), nil)
	if w.Code != http.StatusOK {
		e.t.Fatalf("login %s = %d: %s", username, w.Code, w.Body.String())
	}
	var tok struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &tok); err != nil || tok.Token == "" {
		e.t.Fatalf("token missing: %s", w.Body.String())
	}
	return tok.Token
}

func TestE2E_SignupLoginCreateRead(t *testing.T) {
	e := newE2E(t, "routerdb_e2e_basic")
	token := e.signupAndLogin("alice", "alice@example.com")

	// Create a post.
	w := e.do(http.MethodPost, "/api/v1/post/", token, `{"title":"first","content":"hello"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create post = %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil || created.ID == 0 {
		t.Fatalf("bad create body: %s", w.Body.String())
	}

	// Read it back anonymously.
	w = e.do(http.MethodGet, fmt.Sprintf("/api/v1/post/%d", created.ID), "", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get post = %d: %s", w.Code, w.Body.String())
	}

	// Anonymous create is rejected before the handler runs.
	w = e.do(http.MethodPost, "/api/v1/post/", "", `{"title":"x","content":"y"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Token is missing or invalid.")) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestE2E_IdempotentCreateReplays(t *testing.T) {
	e := newE2E(t, "routerdb_e2e_idem")
	token := e.signupAndLogin("bob", "bob@example.com")

	hdr := map[string]string{"Idempotency-Key": "retry-abc-123"}
	w := e.do(http.MethodPost, "/api/v1/post/", token, `{"title":"once","content":"only"}`, hdr)
	if w.Code != http.StatusCreated {
		t.Fatalf("first create = %d: %s", w.Code, w.Body.String())
	}
	var first struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("bad body: %s", w.Body.String())
	}

	// Same key replays the stored post instead of creating a second one.
	w = e.do(http.MethodPost, "/api/v1/post/", token, `{"title":"once","content":"only"}`, hdr)
	if w.Code != http.StatusCreated {
		t.Fatalf("replay = %d: %s", w.Code, w.Body.String())
	}
	var second struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatalf("bad body: %s", w.Body.String())
	}
	if second.ID != first.ID {
		t.Fatalf("replay created a new post: %d != %d", second.ID, first.ID)
	}

	// The listing contains exactly one post.
	w = e.do(http.MethodGet, "/api/v1/post/", "", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var posts []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &posts); err != nil || len(posts) != 1 {
		t.Fatalf("expected one post, got: %s", w.Body.String())
	}
}

func TestE2E_OwnershipAndAdminGuards(t *testing.T) {
	e := newE2E(t, "routerdb_e2e_guards")
	alice := e.signupAndLogin("alice2", "alice2@example.com")
	bob := e.signupAndLogin("bob2", "bob2@example.com")

	// Alice creates a post; Bob may not edit or delete it.
	w := e.do(http.MethodPost, "/api/v1/post/", alice, `{"title":"mine","content":"c"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d", w.Code)
	}
	var p struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("bad body: %s", w.Body.String())
	}

	w = e.do(http.MethodPut, fmt.Sprintf("/api/v1/post/%d", p.ID), bob, `{"title":"stolen","content":"c"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("cross-user update = %d: %s", w.Code, w.Body.String())
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Unauthorized.")) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	w = e.do(http.MethodDelete, fmt.Sprintf("/api/v1/post/%d", p.ID), bob, "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("cross-user delete = %d", w.Code)
	}

	// Non-admin Bob may not list users.
	w = e.do(http.MethodGet, "/api/v1/user/", bob, "", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin list users = %d: %s", w.Code, w.Body.String())
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("User is not an admin.")) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestE2E_RateLimitKeysByAccountAndSkipsReplays(t *testing.T) {
	// No refill, two tokens per bucket: signup+login drain the IP bucket,
	// leaving the account bucket to prove its own accounting.
	cfg := baseConfig()
	cfg.RateRPS = 0
	cfg.RateBurst = 2

	e := newE2ECfg(t, "routerdb_e2e_ratelimit", cfg)
	token := e.signupAndLogin("dave", "dave@example.com")

	// The anonymous bucket is spent.
	w := e.do(http.MethodGet, "/api/v1/post/", "", "", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("anonymous list after drained ip bucket = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("rate_limited")) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	// Authenticated writes draw from the account bucket, not the IP one.
	hdr := map[string]string{"Idempotency-Key": "rl-key-1"}
	w = e.do(http.MethodPost, "/api/v1/post/", token, `{"title":"t","content":"c"}`, hdr)
	if w.Code != http.StatusCreated {
		t.Fatalf("authed create = %d: %s", w.Code, w.Body.String())
	}
	var first struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil || first.ID == 0 {
		t.Fatalf("bad create body: %s", w.Body.String())
	}

	// Replays of a completed key are served without consuming tokens.
	for i := 0; i < 2; i++ {
		w = e.do(http.MethodPost, "/api/v1/post/", token, `{"title":"t","content":"c"}`, hdr)
		if w.Code != http.StatusCreated {
			t.Fatalf("replay %d = %d: %s", i, w.Code, w.Body.String())
		}
		var got struct {
			ID uint `json:"id"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil || got.ID != first.ID {
			t.Fatalf("replay %d body: %s", i, w.Body.String())
		}
	}

	// Fresh keys are still charged: one more fits the burst, the next is cut off.
	w = e.do(http.MethodPost, "/api/v1/post/", token, `{"title":"t2","content":"c2"}`,
		map[string]string{"Idempotency-Key": "rl-key-2"})
	if w.Code != http.StatusCreated {
		t.Fatalf("second fresh create = %d: %s", w.Code, w.Body.String())
	}
	w = e.do(http.MethodPost, "/api/v1/post/", token, `{"title":"t3","content":"c3"}`,
		map[string]string{"Idempotency-Key": "rl-key-3"})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("over-burst create = %d: %s", w.Code, w.Body.String())
	}
}

func TestE2E_DeletedAccountStopsResolving(t *testing.T) {
	e := newE2E(t, "routerdb_e2e_deleted")
	token := e.signupAndLogin("carol", "carol@example.com")

	w := e.do(http.MethodPost, "/api/v1/post/", token, `{"title":"t","content":"c"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d", w.Code)
	}

	// The token subject is the account's public id.
	publicID, okv := newTestIssuer(t).Verify(token)
	if !okv {
		t.Fatalf("verify failed for issued token")
	}

	w = e.do(http.MethodDelete, "/api/v1/user/"+publicID, token, "", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("self delete = %d: %s", w.Code, w.Body.String())
	}

	// The outstanding token no longer resolves.
	w = e.do(http.MethodPost, "/api/v1/post/", token, `{"title":"t2","content":"c2"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("post after delete = %d: %s", w.Code, w.Body.String())
	}
}
