package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/walletauth/internal/slogx"
	"github.com/layer-3/walletauth/service"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
	cookies     CookieConfig
	metrics     *Metrics
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, cookies CookieConfig, metrics *Metrics) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		cookies:     cookies,
		metrics:     metrics,
	}
}

// Challenge handles the challenge request
func (h *AuthHandlers) Challenge(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "address is required"})
		return
	}

	challenge, err := h.authService.CreateChallenge(c.Request.Context(), req.Address)
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.metrics.observeChallenge()
	c.String(http.StatusOK, challenge.Message())
}

// Login handles the login request
func (h *AuthHandlers) Login(c *gin.Context) {
	var req struct {
		Address   string `json:"address" binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.observeLogin("bad_request")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "address and signature are required"})
		return
	}

	address, pair, err := h.authService.Login(c.Request.Context(), req.Address, req.Signature)
	h.metrics.observeLogin(loginResult(err))
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.cookies.setAccess(c, pair.AccessToken)
	h.cookies.setRefresh(c, pair.RefreshToken)

	slogx.FromContext(c.Request.Context()).Info("signed in", "address", address)

	c.JSON(http.StatusOK, gin.H{
		"address": address,
	})
}

// Me returns information about the authenticated user
func (h *AuthHandlers) Me(c *gin.Context) {
	address, ok := AddressFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "please authenticate"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address": address,
		"message": fmt.Sprintf("hello %s !!", address),
	})
}

// Logout clears both session cookies
func (h *AuthHandlers) Logout(c *gin.Context) {
	address, ok := AddressFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "please authenticate"})
		return
	}

	h.authService.Logout(c.Request.Context(), address)

	h.cookies.clearAccess(c)
	h.cookies.clearRefresh(c)

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Health reports whether the challenge store is reachable
func (h *AuthHandlers) Health(c *gin.Context) {
	if err := h.authService.Ping(c.Request.Context()); err != nil {
		slogx.FromContext(c.Request.Context()).Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
