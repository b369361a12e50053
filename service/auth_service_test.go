package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/walletauth/adapters/clock"
	"github.com/layer-3/walletauth/adapters/events"
	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/adapters/tokenizer"
	"github.com/layer-3/walletauth/adapters/verifier"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/internal/eth"
	"github.com/layer-3/walletauth/ports"
)

var epoch = time.Date(2024, 6, 11, 6, 30, 48, 0, time.UTC)

type harness struct {
	svc    *AuthService
	clock  *clock.Fake
	store  *store.MemoryStore
	tokens *tokenizer.JWTTokenizer
	wallet *eth.KeySigner
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	store     ports.ChallengeStore
	publisher ports.EventPublisher
	timeout   time.Duration
}

func withStore(s ports.ChallengeStore) harnessOption {
	return func(c *harnessConfig) { c.store = s }
}

func withPublisher(p ports.EventPublisher) harnessOption {
	return func(c *harnessConfig) { c.publisher = p }
}

func withStoreTimeout(d time.Duration) harnessOption {
	return func(c *harnessConfig) { c.timeout = d }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	c := clock.NewFake(epoch)
	mem := store.NewMemoryStore(c)
	cfg := harnessConfig{store: mem, publisher: events.NopPublisher{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	tk, err := tokenizer.NewJWTTokenizer(tokenizer.Config{
		Secret:     []byte("0123456789abcdef0123456789abcdef"),
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}, c)
	require.NoError(t, err)

	wallet, err := eth.GenerateKeySigner()
	require.NoError(t, err)

	svc := NewAuthService(Config{
		Challenge: ChallengeConfig{
			Domain:    "localhost:8080",
			URI:       "http://localhost:8080",
			Statement: "I want to sign in.",
			ChainID:   1,
			TTL:       5 * time.Minute,
		},
		StoreTimeout: cfg.timeout,
	}, tk, cfg.store, verifier.NewEthVerifier(), cfg.publisher, c, nil)

	return &harness{svc: svc, clock: c, store: mem, tokens: tk, wallet: wallet}
}

func (h *harness) address() string {
	return h.wallet.Address().Hex()
}

func (h *harness) challengeAndSign(t *testing.T) (*core.Challenge, string) {
	t.Helper()
	challenge, err := h.svc.CreateChallenge(context.Background(), h.address())
	require.NoError(t, err)
	sig, err := h.wallet.SignText(challenge.Message())
	require.NoError(t, err)
	return challenge, sig
}

func TestCreateChallenge(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	challenge, err := h.svc.CreateChallenge(ctx, strings.ToLower(h.address()))
	require.NoError(t, err)

	assert.Equal(t, h.address(), challenge.Address)
	assert.Equal(t, epoch, challenge.IssuedAt)
	assert.Equal(t, epoch.Add(5*time.Minute), challenge.ExpiresAt)
	assert.Len(t, challenge.RequestID, 64)

	msg := challenge.Message()
	assert.Contains(t, msg, "localhost:8080 wants you to sign in with your Ethereum account:\n"+h.address())
	assert.Contains(t, msg, "I want to sign in.")
	assert.Contains(t, msg, "Nonce: "+challenge.Nonce)
	assert.Contains(t, msg, "Issued At: 2024-06-11T06:30:48Z")
	assert.Contains(t, msg, "Expiration Time: 2024-06-11T06:35:48Z")

	stored, err := h.store.Get(ctx, h.address())
	require.NoError(t, err)
	assert.Equal(t, msg, stored.Message())
}

func TestCreateChallengeInvalidIdentity(t *testing.T) {
	h := newHarness(t)

	for _, addr := range []string{"", "0x123", "not an address", "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"} {
		_, err := h.svc.CreateChallenge(context.Background(), addr)
		assert.ErrorIs(t, err, core.ErrInvalidIdentity, addr)
	}
	assert.Equal(t, 0, h.store.Len())
}

func TestLoginSucceedsExactlyOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, sig := h.challengeAndSign(t)

	address, pair, err := h.svc.Login(ctx, h.address(), sig)
	require.NoError(t, err)
	assert.Equal(t, h.address(), address)

	access, err := h.tokens.Verify(pair.AccessToken, core.RoleAccess)
	require.NoError(t, err)
	assert.Equal(t, h.address(), access.Address)

	refresh, err := h.tokens.Verify(pair.RefreshToken, core.RoleRefresh)
	require.NoError(t, err)
	assert.Equal(t, h.address(), refresh.Address)

	_, _, err = h.svc.Login(ctx, h.address(), sig)
	assert.ErrorIs(t, err, core.ErrChallengeNotFound)
}

func TestLoginAcceptsLowercaseAddress(t *testing.T) {
	h := newHarness(t)
	_, sig := h.challengeAndSign(t)

	address, _, err := h.svc.Login(context.Background(), strings.ToLower(h.address()), sig)
	require.NoError(t, err)
	assert.Equal(t, h.address(), address)
}

func TestLoginOnlyLatestChallengeCounts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, firstSig := h.challengeAndSign(t)
	second, secondSig := h.challengeAndSign(t)
	assert.NotEqual(t, first.Message(), second.Message())

	t.Run("replaying the first signature fails", func(t *testing.T) {
		_, _, err := h.svc.Login(ctx, h.address(), firstSig)
		assert.ErrorIs(t, err, core.ErrSignatureInvalid)
	})

	t.Run("a failed attempt burns the outstanding challenge", func(t *testing.T) {
		_, _, err := h.svc.Login(ctx, h.address(), secondSig)
		assert.ErrorIs(t, err, core.ErrChallengeNotFound)
	})

	t.Run("a fresh challenge works", func(t *testing.T) {
		_, sig := h.challengeAndSign(t)
		_, _, err := h.svc.Login(ctx, h.address(), sig)
		assert.NoError(t, err)
	})
}

func TestLoginRejectsOtherSigner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	challenge, err := h.svc.CreateChallenge(ctx, h.address())
	require.NoError(t, err)

	mallory, err := eth.GenerateKeySigner()
	require.NoError(t, err)
	forged, err := mallory.SignText(challenge.Message())
	require.NoError(t, err)

	_, _, err = h.svc.Login(ctx, h.address(), forged)
	assert.ErrorIs(t, err, core.ErrIdentityMismatch)
	assert.ErrorIs(t, err, core.ErrSignatureInvalid)
	assert.Equal(t, 0, h.store.Len())
}

func TestLoginMalformedInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.challengeAndSign(t)

	_, _, err := h.svc.Login(ctx, "0xnope", "0x00")
	assert.ErrorIs(t, err, core.ErrInvalidIdentity)

	// Fast fail before lookup keeps the challenge
	_, _, err = h.svc.Login(ctx, h.address(), "")
	assert.ErrorIs(t, err, core.ErrSignatureInvalid)
	assert.Equal(t, 1, h.store.Len())

	_, _, err = h.svc.Login(ctx, h.address(), "0xdeadbeef")
	assert.ErrorIs(t, err, core.ErrMalformedSignature)
	assert.Equal(t, 0, h.store.Len())
}

func TestLoginWithoutChallenge(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.svc.Login(context.Background(), h.address(), "0x00")
	assert.ErrorIs(t, err, core.ErrChallengeNotFound)
}

func TestLoginChallengeExpiry(t *testing.T) {
	t.Run("valid up to and including expiry", func(t *testing.T) {
		h := newHarness(t)
		_, sig := h.challengeAndSign(t)

		h.clock.Advance(5 * time.Minute)
		_, _, err := h.svc.Login(context.Background(), h.address(), sig)
		assert.NoError(t, err)
	})

	t.Run("rejected after expiry and deleted", func(t *testing.T) {
		h := newHarness(t)
		_, sig := h.challengeAndSign(t)

		h.clock.Advance(5*time.Minute + time.Second)
		_, _, err := h.svc.Login(context.Background(), h.address(), sig)
		assert.ErrorIs(t, err, core.ErrChallengeExpired)

		_, _, err = h.svc.Login(context.Background(), h.address(), sig)
		assert.ErrorIs(t, err, core.ErrChallengeNotFound)
	})
}

// supersedingStore replaces the challenge right before it is consumed,
// simulating a concurrent challenge request for the same address
type supersedingStore struct {
	*store.MemoryStore
	replacement *core.Challenge
}

func (s *supersedingStore) Consume(ctx context.Context, address, challengeID string) (bool, error) {
	if s.replacement != nil {
		_ = s.MemoryStore.Put(ctx, s.replacement)
		s.replacement = nil
	}
	return s.MemoryStore.Consume(ctx, address, challengeID)
}

func TestLoginSupersededDuringVerification(t *testing.T) {
	racing := &supersedingStore{MemoryStore: store.NewMemoryStore(clock.NewFake(epoch))}
	h := newHarness(t, withStore(racing))
	ctx := context.Background()

	_, sig := h.challengeAndSign(t)
	newer, err := h.svc.generator.Generate(h.address())
	require.NoError(t, err)
	racing.replacement = newer

	_, _, err = h.svc.Login(ctx, h.address(), sig)
	assert.ErrorIs(t, err, core.ErrChallengeNotFound)

	stored, err := racing.Get(ctx, h.address())
	require.NoError(t, err)
	assert.Equal(t, newer.ID, stored.ID)
}

// blockingStore never answers before the context gives up
type blockingStore struct {
	ports.ChallengeStore
}

func (blockingStore) Put(ctx context.Context, _ *core.Challenge) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingStore) Get(ctx context.Context, _ string) (*core.Challenge, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingStore) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestStoreTimeoutIsRetryable(t *testing.T) {
	h := newHarness(t, withStore(blockingStore{}), withStoreTimeout(10*time.Millisecond))
	ctx := context.Background()

	_, err := h.svc.CreateChallenge(ctx, h.address())
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
	assert.True(t, errors.Is(err, core.ErrStorageUnavailable))

	_, _, err = h.svc.Login(ctx, h.address(), "0x00")
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
	assert.NotErrorIs(t, err, core.ErrSignatureInvalid)

	assert.ErrorIs(t, h.svc.Ping(ctx), core.ErrStorageUnavailable)
}

type recordingPublisher struct {
	logins, logouts []string
	err             error
}

func (p *recordingPublisher) PublishLogin(_ context.Context, address string) error {
	p.logins = append(p.logins, address)
	return p.err
}

func (p *recordingPublisher) PublishLogout(_ context.Context, address string) error {
	p.logouts = append(p.logouts, address)
	return p.err
}

func TestSessionEvents(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	h := newHarness(t, withPublisher(pub))
	ctx := context.Background()

	_, sig := h.challengeAndSign(t)
	_, _, err := h.svc.Login(ctx, h.address(), sig)
	require.NoError(t, err, "publish failures must not fail the login")

	h.svc.Logout(ctx, h.address())

	assert.Equal(t, []string{h.address()}, pub.logins)
	assert.Equal(t, []string{h.address()}, pub.logouts)
}
