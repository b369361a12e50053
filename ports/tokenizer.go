package ports

import "github.com/layer-3/walletauth/core"

// Tokenizer mints and validates session tokens
type Tokenizer interface {
	IssueAccessToken(address string) (string, *core.Claims, error)
	IssueRefreshToken(address string) (string, *core.Claims, error)
	IssuePair(address string) (*core.TokenPair, error)

	// Parse validates signature and expiry and returns the claims whatever the role
	Parse(token string) (*core.Claims, error)

	// Verify is Parse plus a check of the role discriminator
	Verify(token string, role core.Role) (*core.Claims, error)
}
