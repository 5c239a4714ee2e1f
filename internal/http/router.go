// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Anonymous visitor identity for the public chatbot, JWT for the console
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

	"github.com/propdesk/go-guidebook-backend/internal/assistant"
	"github.com/propdesk/go-guidebook-backend/internal/config"
	"github.com/propdesk/go-guidebook-backend/internal/http/handlers"
	"github.com/propdesk/go-guidebook-backend/internal/http/middleware"
	"github.com/propdesk/go-guidebook-backend/internal/repo"
	"github.com/propdesk/go-guidebook-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter + gzip
//  6. Metrics
//  7. Visitor identity (anonymous chat sessions)
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per visitor/IP, bypass on replay)
//  10. CORS and security headers
//
// notifier may be nil; escalation alerts are then disabled.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, gen assistant.Generator, notifier services.EscalationNotifier, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction (guests leave phone numbers and
	// emails in chat; those must never reach the logs in clear text)
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			middleware.HeaderVisitorID,
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

	// 7) Anonymous visitor identity for the public chatbot
	r.Use(middleware.VisitorIdentity())

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, visitorID, sessionID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, visitorID, sessionID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per visitor/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByVisitorOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured; the chat
	// widget is embedded on arbitrary property sites)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderVisitorID, middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed"},
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
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderVisitorID, middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed"},
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

	// Swagger UI (opt-in; never on by default in production)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/model client
	convSvc := &services.ConversationService{
		DB:             db,
		Gen:            gen,
		HistoryLimit:   cfg.HistoryLimit,
		MaxPromptRunes: cfg.MaxPromptRunes,
		Notifier:       notifier,
	}
	gbSvc := &services.GuidebookService{
		DB:            db,
		PublicBaseURL: cfg.PublicBaseURL,
		Cache:         services.NewResolutionCache(),
	}
	propSvc := &services.PropertyService{DB: db}
	authSvc := &services.AuthService{
		DB:        db,
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
	}
	h := handlers.New(convSvc, gbSvc, propSvc, authSvc)
	h.IdempotencyTTL = cfg.IdempotencyTTL

	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)

	// Public chatbot API (anonymous, rate limited)
	{
		api.GET("/chatbot/resolve", h.ResolveGuidebook)
		api.POST("/chatbot/sessions", h.StartSession)
		api.POST("/chatbot/sessions/:id/messages", h.PostTurn)
		api.GET("/chatbot/sessions/:id/messages", h.ListTurns)
		api.POST("/chatbot/sessions/:id/contact", h.SubmitContact)
		api.POST("/chatbot/sessions/:id/contact/skip", h.SkipContact)
		api.POST("/chatbot/sessions/:id/end", h.EndSession)

		// QR image is public: it is printed and framed inside properties.
		api.GET("/guidebooks/:id/qr", h.GuidebookQR)
	}

	// Staff login
	api.POST("/auth/login", h.Login)

	// Staff console API (JWT)
	staff := api.Group("", middleware.StaffAuth(cfg.Auth.JWTSecret))
	{
		// Guidebooks
		staff.POST("/guidebooks", h.CreateGuidebook)
		staff.GET("/guidebooks", h.ListGuidebooks)
		staff.GET("/guidebooks/:id", h.GetGuidebook)
		staff.PUT("/guidebooks/:id", h.UpdateGuidebook)

		// Properties and mappings
		staff.POST("/properties", h.CreateProperty)
		staff.GET("/properties", h.ListProperties)
		staff.GET("/properties/:id", h.GetProperty)
		staff.PUT("/properties/:id", h.UpdateProperty)
		staff.PUT("/properties/:id/guidebook", h.AssignGuidebook)
		staff.GET("/properties/:id/guidebook", h.GetPropertyGuidebook)
		staff.GET("/mappings", h.ListMappings)

		// Managers (admin only; managers cannot mint peers)
		staff.POST("/managers", middleware.RequireRole("admin"), h.RegisterManager)
		staff.GET("/managers", h.ListManagers)
		staff.GET("/managers/:id", h.GetManager)

		// Analytics
		staff.GET("/sessions", h.ListSessions)
		staff.GET("/sessions/:id/messages", h.SessionTranscript)
		staff.GET("/escalations", h.ListEscalations)
		staff.GET("/stats", h.Stats)
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
