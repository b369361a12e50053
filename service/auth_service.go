package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/internal/eth"
	"github.com/layer-3/walletauth/internal/slogx"
	"github.com/layer-3/walletauth/ports"
)

const (
	DefaultChallengeTTL = 5 * time.Minute
	DefaultStoreTimeout = 2 * time.Second
)

// Config holds the service level parameters
type Config struct {
	Challenge    ChallengeConfig
	StoreTimeout time.Duration
}

// AuthService handles authentication business logic
type AuthService struct {
	generator *ChallengeGenerator
	tokenizer ports.Tokenizer
	store     ports.ChallengeStore
	verifier  ports.SignatureVerifier
	eventPub  ports.EventPublisher
	clock     ports.Clock
	logger    *slog.Logger

	storeTimeout time.Duration
}

// NewAuthService creates a new authentication service
func NewAuthService(
	cfg Config,
	tokenizer ports.Tokenizer,
	store ports.ChallengeStore,
	verifier ports.SignatureVerifier,
	eventPub ports.EventPublisher,
	clock ports.Clock,
	logger *slog.Logger,
) *AuthService {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		generator:    NewChallengeGenerator(cfg.Challenge, clock),
		tokenizer:    tokenizer,
		store:        store,
		verifier:     verifier,
		eventPub:     eventPub,
		clock:        clock,
		logger:       logger,
		storeTimeout: cfg.StoreTimeout,
	}
}

// CreateChallenge generates and stores a challenge for address, replacing any
// outstanding one, and returns the text the wallet has to sign
func (s *AuthService) CreateChallenge(ctx context.Context, address string) (*core.Challenge, error) {
	challenge, err := s.generator.Generate(address)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.store.Put(storeCtx, challenge); err != nil {
		return nil, storageError(err)
	}

	return challenge, nil
}

// Login verifies signature against the stored challenge for address and, on
// success, consumes the challenge and issues a token pair
func (s *AuthService) Login(ctx context.Context, address, signature string) (string, *core.TokenPair, error) {
	normalized, err := eth.NormalizeAddress(address)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %q", core.ErrInvalidIdentity, address)
	}
	if signature == "" {
		return "", nil, core.ErrMalformedSignature
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	challenge, err := s.store.Get(storeCtx, normalized)
	if err != nil {
		if errors.Is(err, core.ErrChallengeNotFound) {
			return "", nil, core.ErrChallengeNotFound
		}
		return "", nil, storageError(err)
	}

	if challenge.Expired(s.clock.Now()) {
		if _, err := s.store.Consume(storeCtx, normalized, challenge.ID); err != nil {
			return "", nil, storageError(err)
		}
		return "", nil, core.ErrChallengeExpired
	}

	verifyErr := s.verifier.Verify(challenge.Message(), signature, normalized)

	// The challenge is single use whatever the outcome. Consume only removes it
	// if nobody replaced it in the meantime.
	consumed, err := s.store.Consume(storeCtx, normalized, challenge.ID)
	if err != nil {
		return "", nil, storageError(err)
	}

	if verifyErr != nil {
		return "", nil, fmt.Errorf("signature verification failed: %w", verifyErr)
	}
	if !consumed {
		return "", nil, fmt.Errorf("%w: superseded by a newer challenge", core.ErrChallengeNotFound)
	}

	pair, err := s.tokenizer.IssuePair(normalized)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	if err := s.eventPub.PublishLogin(ctx, normalized); err != nil {
		s.log(ctx).WarnContext(ctx, "failed to publish login event", "address", normalized, "error", err)
	}

	return normalized, pair, nil
}

// Logout announces that address signed out. Tokens are stateless, clearing
// them is up to the transport.
func (s *AuthService) Logout(ctx context.Context, address string) {
	if err := s.eventPub.PublishLogout(ctx, address); err != nil {
		s.log(ctx).WarnContext(ctx, "failed to publish logout event", "address", address, "error", err)
	}
}

// Ping reports whether the challenge store is reachable
func (s *AuthService) Ping(ctx context.Context) error {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.store.Ping(storeCtx); err != nil {
		return storageError(err)
	}
	return nil
}

// log prefers the request scoped logger bound by the transport
func (s *AuthService) log(ctx context.Context) *slog.Logger {
	if l, ok := slogx.Lookup(ctx); ok {
		return l
	}
	return s.logger
}

func storageError(err error) error {
	if errors.Is(err, core.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
}
