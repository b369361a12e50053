package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/internal/eth"
	"github.com/layer-3/walletauth/ports"
)

// ChallengeConfig describes what the signed message binds the wallet to
type ChallengeConfig struct {
	Domain    string
	URI       string
	Statement string
	ChainID   int64
	TTL       time.Duration
}

// ChallengeGenerator builds sign-in challenges
type ChallengeGenerator struct {
	cfg   ChallengeConfig
	clock ports.Clock
}

// NewChallengeGenerator creates a new challenge generator
func NewChallengeGenerator(cfg ChallengeConfig, clock ports.Clock) *ChallengeGenerator {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultChallengeTTL
	}
	return &ChallengeGenerator{cfg: cfg, clock: clock}
}

// Generate validates the address and builds a fresh challenge for it.
// Nothing is stored here.
func (g *ChallengeGenerator) Generate(address string) (*core.Challenge, error) {
	normalized, err := eth.NormalizeAddress(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidIdentity, address)
	}

	now := g.clock.Now()
	nonce := uuid.New().String()

	digest := sha256.Sum256([]byte(normalized + nonce + strconv.FormatInt(now.UnixMilli(), 10)))

	return &core.Challenge{
		ID:        uuid.New().String(),
		Address:   normalized,
		Domain:    g.cfg.Domain,
		URI:       g.cfg.URI,
		Statement: g.cfg.Statement,
		ChainID:   g.cfg.ChainID,
		Nonce:     nonce,
		RequestID: hex.EncodeToString(digest[:]),
		IssuedAt:  now,
		ExpiresAt: now.Add(g.cfg.TTL),
	}, nil
}
