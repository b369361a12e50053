package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/walletauth/service"
)

// Options configures the HTTP surface around the auth service
type Options struct {
	Cookies        CookieConfig
	AllowedOrigins []string
	TrustedProxies []string
	RateLimit      RateLimitConfig
	Metrics        *Metrics
	Logger         *slog.Logger
}

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}

	router := gin.New()
	// Only listed proxies may override the client address used for rate limiting
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		opts.Logger.Error("invalid trusted proxies, trusting none", "error", err)
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(
		RequestLogger(opts.Logger),
		Recovery(),
		opts.Metrics.Middleware(),
		CORS(opts.AllowedOrigins),
	)

	// Create handlers
	handlers := NewAuthHandlers(authService, opts.Cookies, opts.Metrics)
	limiter := RateLimit(opts.RateLimit)
	guard := SessionGuard(authService, opts.Cookies, opts.Metrics)

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.POST("/challenge", limiter, handlers.Challenge)
		auth.POST("/login", limiter, handlers.Login)
		auth.GET("/me", guard, handlers.Me)
		auth.POST("/logout", guard, handlers.Logout)
	}

	router.GET("/healthz", handlers.Health)
	router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))

	return router
}
