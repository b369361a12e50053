package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/internal/slogx"
	"github.com/layer-3/walletauth/service"
)

// AddressKey is the gin context key holding the authenticated address
const AddressKey = "userAddress"

// SessionGuard creates middleware that validates the access token and
// transparently replaces it from the refresh token when it is stale
func SessionGuard(authService *service.AuthService, cookies CookieConfig, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		access := accessToken(c, cookies.AccessName)
		refresh, _ := c.Cookie(cookies.RefreshName)

		result := authService.Guard(c.Request.Context(), access, refresh)
		metrics.observeGuard(result.Decision)

		if result.ClearAccess {
			cookies.clearAccess(c)
		}
		if result.ClearRefresh {
			cookies.clearRefresh(c)
		}

		if !result.Authenticated() {
			slogx.FromContext(c.Request.Context()).Info("session rejected", "reason", result.Reason)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "please authenticate - " + result.Reason})
			return
		}

		if result.Decision == service.GuardRotate {
			cookies.setAccess(c, result.AccessToken)
			slogx.FromContext(c.Request.Context()).Debug("access token rotated", "address", result.Address)
		}

		c.Set(AddressKey, result.Address)
		ctx := core.WithAddress(c.Request.Context(), result.Address)
		ctx = slogx.WithContext(ctx, slogx.FromContext(ctx).With("address", result.Address))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// AddressFrom returns the address bound by SessionGuard
func AddressFrom(c *gin.Context) (string, bool) {
	return core.AddressFromContext(c.Request.Context())
}

// accessToken reads the access token cookie, falling back to a bearer header
func accessToken(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}

	auth := c.GetHeader("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}

	return ""
}
