// Package httpapi mounts the achievement API on a Gin engine together with
// the cross-cutting middleware: tracing, request ids, identity, access logs,
// recovery, metrics, idempotency, rate limiting, CORS, security headers and
// compression.
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

	_ "github.com/shelfquest/achievements-backend/docs"
	"github.com/shelfquest/achievements-backend/internal/config"
	"github.com/shelfquest/achievements-backend/internal/http/handlers"
	"github.com/shelfquest/achievements-backend/internal/http/middleware"
	"github.com/shelfquest/achievements-backend/internal/leaderboard"
	"github.com/shelfquest/achievements-backend/internal/repo"
	"github.com/shelfquest/achievements-backend/internal/services"
)

// Deps are the services the routes are bound to. Leaderboard may be nil.
type Deps struct {
	DB           *gorm.DB
	Achievements *services.AchievementService
	Events       *services.EventProcessor
	Reading      *services.ReadingService
	Leaderboard  *leaderboard.Leaderboard
}

const maxBodyBytes = 1 << 20

// RegisterRoutes installs middleware and mounts every endpoint. Order:
//  1. otelgin, so every request is traced
//  2. RequestID and Identity, before anything logs
//  3. AccessLog, then Recovery so panics are logged with the request id
//  4. body limit, gzip and metrics
//  5. idempotency before the rate limiter so replays bypass it
//  6. CORS and security headers
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID(), middleware.Identity())
	r.Use(middleware.AccessLog(middleware.AccessLogOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(middleware.Metrics())

	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			if deps.DB == nil {
				return false, nil
			}
			rec, err := repo.GetIdempotency(ctx, deps.DB, userID, scope, key, now)
			return err == nil && rec != nil, nil
		},
	))
	r.Use(middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).Handler())

	r.Use(cors.New(corsConfig(cfg.CORS.AllowedOrigins)))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", health(deps.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var board handlers.Leaderboard
	if deps.Leaderboard != nil {
		board = deps.Leaderboard
	}
	h := handlers.New(deps.Achievements, deps.Events, deps.Reading, board)
	h.DB = deps.DB
	if cfg.IdempotencyTTL > 0 {
		h.IdempotencyTTL = cfg.IdempotencyTTL
	}

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/achievements/check", h.CheckAchievements)
		api.GET("/achievements", h.ListAchievements)
		api.GET("/achievements/unnotified", h.ListUnnotified)
		api.GET("/achievements/catalog", h.ListCatalog)
		api.POST("/achievements/:id/notified", h.MarkNotified)

		api.POST("/events", h.EnqueueEvent)
		api.POST("/events/process", h.ProcessEvents)

		api.PUT("/books/:id/status", h.SetBookStatus)

		api.GET("/leaderboard", h.TopReaders)
		api.GET("/leaderboard/me", h.MyRank)
	}
}

// corsConfig allows any origin without credentials when none are configured.
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization",
			middleware.HeaderUserID, middleware.HeaderIdempotencyKey, "If-None-Match"},
		ExposeHeaders: []string{"X-Request-ID", "ETag", "Idempotency-Replayed", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

// health reports liveness and, when a store is attached, whether it answers.
func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix treats "" and "/" as the root group.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
