package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieConfig controls how session tokens are stored in the browser
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Domain      string
	Secure      bool
	SameSite    http.SameSite

	// MaxAge applies to both cookies and should equal the refresh token
	// lifetime. The access cookie has to outlive its token so that an expired
	// access token still reaches the guard and gets rotated.
	MaxAge time.Duration
}

// DefaultCookieConfig returns the cookie settings used in development
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		AccessName:  "access_token",
		RefreshName: "refresh_token",
		SameSite:    http.SameSiteLaxMode,
		MaxAge:      24 * time.Hour,
	}
}

func (cfg CookieConfig) setAccess(c *gin.Context, token string) {
	cfg.set(c, cfg.AccessName, token)
}

func (cfg CookieConfig) setRefresh(c *gin.Context, token string) {
	cfg.set(c, cfg.RefreshName, token)
}

func (cfg CookieConfig) clearAccess(c *gin.Context) {
	cfg.clear(c, cfg.AccessName)
}

func (cfg CookieConfig) clearRefresh(c *gin.Context) {
	cfg.clear(c, cfg.RefreshName)
}

func (cfg CookieConfig) set(c *gin.Context, name, value string) {
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(name, value, int(cfg.MaxAge.Seconds()), "/", cfg.Domain, cfg.Secure, true)
}

func (cfg CookieConfig) clear(c *gin.Context, name string) {
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(name, "", -1, "/", cfg.Domain, cfg.Secure, true)
}
