// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/blogd/go-blog-backend/internal/auth"
	"github.com/blogd/go-blog-backend/internal/cache"
	"github.com/blogd/go-blog-backend/internal/config"
	"github.com/blogd/go-blog-backend/internal/domain"
	"github.com/blogd/go-blog-backend/internal/http/handlers"
	"github.com/blogd/go-blog-backend/internal/http/middleware"
	"github.com/blogd/go-blog-backend/internal/repo"
	"github.com/blogd/go-blog-backend/internal/services"
)

// userRepoShim adapts the repository free functions to the services.UserRepo
// interface expected by the auth, user, and post services. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type userRepoShim struct{}

func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return repo.CreateUser(ctx, db, u)
}

func (userRepoShim) GetUserByPublicID(ctx context.Context, db *gorm.DB, publicID string) (*domain.User, error) {
	return repo.GetUserByPublicID(ctx, db, publicID)
}

func (userRepoShim) GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return repo.GetUserByEmail(ctx, db, email)
}

func (userRepoShim) ListUsers(ctx context.Context, db *gorm.DB) ([]domain.User, error) {
	return repo.ListUsers(ctx, db)
}

func (userRepoShim) SaveUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return repo.SaveUser(ctx, db, u)
}

func (userRepoShim) SoftDeleteUser(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.SoftDeleteUser(ctx, db, id)
}

// postRepoShim adapts the post repository free functions to
// services.PostRepo.
type postRepoShim struct{}

func (postRepoShim) CreatePost(ctx context.Context, db *gorm.DB, authorID uint, title, content string) (*domain.Post, error) {
	return repo.CreatePost(ctx, db, authorID, title, content)
}

func (postRepoShim) GetPost(ctx context.Context, db *gorm.DB, id uint) (*domain.Post, error) {
	return repo.GetPost(ctx, db, id)
}

func (postRepoShim) ListPosts(ctx context.Context, db *gorm.DB) ([]domain.Post, error) {
	return repo.ListPosts(ctx, db)
}

func (postRepoShim) ListPostsByAuthor(ctx context.Context, db *gorm.DB, authorID uint) ([]domain.Post, error) {
	return repo.ListPostsByAuthor(ctx, db, authorID)
}

func (postRepoShim) SavePost(ctx context.Context, db *gorm.DB, p *domain.Post) error {
	return repo.SavePost(ctx, db, p)
}

func (postRepoShim) SoftDeletePost(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.SoftDeletePost(ctx, db, id)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS and security headers, health and metrics endpoints, and then mounts
// the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter, gzip
//  6. Metrics
//  7. CORS and Security headers
//
// Authentication, idempotency, and rate limiting are route concerns mounted
// in that order on each API endpoint: RequireAuth resolves the account, the
// idempotency validator (POST /post/ only) flags replays, and the limiter
// runs last so buckets key on the account rather than the client IP and
// flagged replays skip the token check entirely.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, tokens *auth.TokenIssuer, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderAccessToken, middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderAccessToken, middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/cache/tokens
	users := userRepoShim{}
	posts := postRepoShim{}
	authSvc := services.NewAuthService(db, users, tokens, cfg.BcryptCost)
	userSvc := services.NewUserService(db, users, cfg.BcryptCost)
	postSvc := services.NewPostService(db, posts, users, cache.New(), cfg.PostsCacheTTL)
	h := handlers.New(authSvc, userSvc, postSvc, cfg.IdempotencyTTL)

	requireAuth := middleware.RequireAuth(authSvc.Resolve)

	// Token-bucket rate limiter, mounted per route after the auth guard so
	// authenticated traffic is keyed by account (anonymous by client IP).
	// Health, metrics, and swagger stay unthrottled.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	limit := rl.Handler()

	// Idempotency validation for post creation. Runs after RequireAuth so
	// replay lookups can be scoped to the authenticated user.
	idem := middleware.IdempotencyValidator(
		handlers.IdempotencyScopePostCreate,
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID uint, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Auth
		api.POST("/auth/login", limit, h.Login)
		api.POST("/auth/signup", limit, h.Signup)

		// Users
		user := api.Group("/user")
		{
			admin := user.Group("", requireAuth, middleware.RequireAdmin(), limit)
			admin.POST("/", h.CreateUser)
			admin.GET("/", h.ListUsers)
			admin.GET("/:id", h.GetUser)

			user.PUT("/:id", requireAuth, limit, h.UpdateUser)
			user.DELETE("/:id", requireAuth, limit, h.DeleteUser)

			// Public, memoized listing with ETag support.
			user.GET("/:id/posts", limit, h.GetUserPosts)
		}

		// Posts
		post := api.Group("/post")
		{
			post.GET("/", limit, h.ListPosts)
			post.GET("/:id", limit, h.GetPost)

			// The replay flag set by the validator lets the limiter skip
			// charging idempotent retries.
			post.POST("/", requireAuth, idem, limit, h.CreatePost)
			post.PUT("/:id", requireAuth, limit, h.UpdatePost)
			post.DELETE("/:id", requireAuth, limit, h.DeletePost)
		}
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
