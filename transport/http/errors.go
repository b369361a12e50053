package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/internal/slogx"
)

// StatusChallengeExpired tells the client to request a new challenge
const StatusChallengeExpired = 440

// statusFor maps domain errors to a status code and a short client-facing reason
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidIdentity):
		return http.StatusUnprocessableEntity, "address is not valid"
	case errors.Is(err, core.ErrChallengeNotFound):
		return http.StatusUnprocessableEntity, "challenge does not exist"
	case errors.Is(err, core.ErrChallengeExpired):
		return StatusChallengeExpired, "challenge expired"
	case errors.Is(err, core.ErrSignatureInvalid):
		return http.StatusUnprocessableEntity, "signature invalid"
	case errors.Is(err, core.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func abortWithError(c *gin.Context, err error) {
	status, reason := statusFor(err)

	logger := slogx.FromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Info("request rejected", "status", status, "error", err)
	}

	c.AbortWithStatusJSON(status, gin.H{"error": reason})
}
