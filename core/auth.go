package core

import (
	"fmt"
	"strings"
	"time"
)

// Role discriminates the two classes of session tokens
type Role string

const (
	// RoleAccess is carried by short-lived access tokens
	RoleAccess Role = "normal"

	// RoleRefresh is carried by refresh tokens, which may only mint access tokens
	RoleRefresh Role = "refresh"
)

// Challenge represents an outstanding sign-in challenge for a single address
type Challenge struct {
	ID        string    `json:"id"`         // Unique identifier, used for compare-and-delete
	Address   string    `json:"address"`    // Checksummed address the challenge was issued to
	Domain    string    `json:"domain"`     // Domain requesting the signature
	URI       string    `json:"uri"`        // Origin URI of the sign-in request
	Statement string    `json:"statement"`  // Human-readable intent
	ChainID   int64     `json:"chain_id"`   // Chain the address is expected on
	Nonce     string    `json:"nonce"`      // Random freshness marker
	RequestID string    `json:"request_id"` // Digest of address, nonce and issue time
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Message renders the exact text the wallet has to sign.
// The output only depends on the challenge fields, so the stored record is
// enough to rebuild it byte for byte at verification time.
func (c *Challenge) Message() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s wants you to sign in with your Ethereum account:\n", c.Domain)
	fmt.Fprintf(&b, "%s\n\n", c.Address)
	if c.Statement != "" {
		fmt.Fprintf(&b, "%s\n\n", c.Statement)
	}
	fmt.Fprintf(&b, "URI: %s\n", c.URI)
	b.WriteString("Version: 1\n")
	fmt.Fprintf(&b, "Chain ID: %d\n", c.ChainID)
	fmt.Fprintf(&b, "Nonce: %s\n", c.Nonce)
	fmt.Fprintf(&b, "Issued At: %s\n", c.IssuedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Expiration Time: %s\n", c.ExpiresAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Request ID: %s", c.RequestID)
	return b.String()
}

// Expired reports whether the challenge can no longer be used at now
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Claims is the verified content of a session token
type Claims struct {
	ID        string    // Token identifier (jti)
	Address   string    // Address the token was issued to
	Role      Role      // Access or refresh
	IssuedAt  time.Time // When the token was minted
	ExpiresAt time.Time // First instant at which the token is no longer valid
}

// TokenPair is what a successful sign-in hands to the client
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
