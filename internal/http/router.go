// Package httpapi wires the Gin transport to the advisor handlers and the
// shared middleware: tracing, correlation ids, redacted logging, panic
// recovery, metrics, rate limiting, compression, CORS, security headers and
// caller authentication.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/auth"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/config"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/http/handlers"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/http/middleware"

	_ "github.com/JeevaSuryaWorks/emergentiq-advisor/docs" // swagger spec registration
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

var corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "X-Request-ID", "If-None-Match"}

// RegisterRoutes attaches middleware and endpoints to r. verifier may be nil
// (header identities only).
//
// Middleware order:
//  1. OpenTelemetry
//  2. RequestID
//  3. RedactingLogger
//  4. Recovery
//  5. Body size limit
//  6. Metrics (+ /metrics)
//  7. Rate limiter (per client IP, before auth; /health and /metrics exempt)
//  8. gzip
//  9. CORS and security headers
//  10. Authenticate (API group only, so preflights and probes stay anonymous)
func RegisterRoutes(r *gin.Engine, h *handlers.Handlers, verifier auth.Verifier, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	// Location ids contain "/" and arrive percent-encoded in path params.
	r.UseRawPath = true
	r.UnescapePathValues = true
	// ClientIP honours X-Forwarded-For only from configured proxies. The
	// list is validated by config.Load.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Error().Err(err).Msg("invalid trusted proxies; using peer address")
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP(), "/health", "/metrics")
	r.Use(rl.Handler())

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "ETag", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "ETag", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	apiBase := cfg.APIBasePath
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:      cfg.Security.EnableHSTS,
		HSTSMaxAge:      cfg.Security.HSTSMaxAge,
		EnablePolicy:    true,
		NoStorePrefixes: []string{joinPath(apiBase, "/profile"), joinPath(apiBase, "/sessions"), joinPath(apiBase, "/bookmarks")},
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := groupWithPrefix(r, apiBase)
	api.Use(middleware.Authenticate(middleware.AuthOptions{
		Verifier: verifier,
		Require:  cfg.RequireAuth,
	}))
	{
		// Sessions
		api.POST("/sessions", h.OpenSession)
		api.GET("/sessions", h.ListSessions)
		api.GET("/sessions/:id", h.GetSession)
		api.PUT("/sessions/:id/title", h.RenameSession)
		api.DELETE("/sessions/:id", h.DeleteSession)

		// Messages
		api.GET("/sessions/:id/messages", h.ListMessages)
		api.POST("/sessions/:id/messages", h.SendMessage)
		api.DELETE("/sessions/:id/messages", h.ClearMessages)
		api.POST("/sessions/:id/cancel", h.CancelRequest)

		// Locations
		api.GET("/locations", h.ListRootLocations)
		api.GET("/locations/:id/children", h.ListChildLocations)
		api.GET("/virtual-locations", h.ListVirtualLocations)
		api.GET("/virtual-locations/verify", h.VerifyVirtualLocation)

		// Onboarding
		api.GET("/onboarding-options", h.GetOnboardingOptions)
		api.POST("/onboarding", h.CreateOnboarding)
		api.GET("/onboarding/:id", h.GetOnboarding)
		api.POST("/onboarding/:id/locations/drill", h.DrillLocation)
		api.POST("/onboarding/:id/locations/jump", h.JumpLocation)
		api.POST("/onboarding/:id/locations/toggle", h.ToggleLocation)
		api.GET("/onboarding/:id/interests", h.SearchInterests)
		api.POST("/onboarding/:id/interests/toggle", h.ToggleInterest)
		api.PUT("/onboarding/:id/preferences", h.UpdatePreferences)
		api.POST("/onboarding/:id/complete", h.CompleteOnboarding)

		// Profile and bookmarks
		api.GET("/profile", h.GetProfile)
		api.PUT("/profile", h.PutProfile)
		api.GET("/bookmarks", h.ListBookmarks)
		api.POST("/bookmarks/:collegeId/toggle", h.ToggleBookmark)
	}
}

// limitBody caps the request body at maxBytes; larger bodies fail on read.
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

func joinPath(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	return base + p
}
