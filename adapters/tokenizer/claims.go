package tokenizer

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/layer-3/walletauth/core"
)

// SessionClaims combines standard claims with the role discriminator
type SessionClaims struct {
	jwt.RegisteredClaims
	Role core.Role `json:"role"`
}
