package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

const (
	DefaultIssuer     = "walletauth"
	DefaultKeyID      = "1"
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 24 * time.Hour
)

// Config holds the token signing parameters
type Config struct {
	Secret     []byte
	Issuer     string
	KeyID      string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

var _ ports.Tokenizer = (*JWTTokenizer)(nil)

// JWTTokenizer implements the Tokenizer interface with HS256 JWTs
type JWTTokenizer struct {
	secret     []byte
	issuer     string
	keyID      string
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      ports.Clock
	parser     *jwt.Parser
}

// NewJWTTokenizer creates a new JWT tokenizer
func NewJWTTokenizer(cfg Config, clock ports.Clock) (*JWTTokenizer, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.KeyID == "" {
		cfg.KeyID = DefaultKeyID
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}

	return &JWTTokenizer{
		secret:     cfg.Secret,
		issuer:     cfg.Issuer,
		keyID:      cfg.KeyID,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		clock:      clock,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(clock.Now),
		),
	}, nil
}

// AccessTTL returns the lifetime of access tokens
func (j *JWTTokenizer) AccessTTL() time.Duration { return j.accessTTL }

// RefreshTTL returns the lifetime of refresh tokens
func (j *JWTTokenizer) RefreshTTL() time.Duration { return j.refreshTTL }

// IssueAccessToken mints a short-lived access token for address
func (j *JWTTokenizer) IssueAccessToken(address string) (string, *core.Claims, error) {
	return j.issue(address, core.RoleAccess, j.accessTTL)
}

// IssueRefreshToken mints a refresh token for address
func (j *JWTTokenizer) IssueRefreshToken(address string) (string, *core.Claims, error) {
	return j.issue(address, core.RoleRefresh, j.refreshTTL)
}

// IssuePair mints both tokens for a freshly authenticated address
func (j *JWTTokenizer) IssuePair(address string) (*core.TokenPair, error) {
	access, accessClaims, err := j.IssueAccessToken(address)
	if err != nil {
		return nil, err
	}

	refresh, refreshClaims, err := j.IssueRefreshToken(address)
	if err != nil {
		return nil, err
	}

	return &core.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessClaims.ExpiresAt,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshClaims.ExpiresAt,
	}, nil
}

// Parse validates a token and returns its claims
func (j *JWTTokenizer) Parse(tokenStr string) (*core.Claims, error) {
	claims := &SessionClaims{}
	token, err := j.parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", core.ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, core.ErrTokenInvalid
	}

	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing claims", core.ErrTokenInvalid)
	}

	switch claims.Role {
	case core.RoleAccess, core.RoleRefresh:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", core.ErrTokenInvalid, claims.Role)
	}

	result := &core.Claims{
		ID:        claims.ID,
		Address:   claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}

	return result, nil
}

// Verify validates a token and requires it to carry role
func (j *JWTTokenizer) Verify(tokenStr string, role core.Role) (*core.Claims, error) {
	claims, err := j.Parse(tokenStr)
	if err != nil {
		return nil, err
	}

	if claims.Role != role {
		return nil, core.ErrTokenRoleMismatch
	}

	return claims, nil
}

func (j *JWTTokenizer) issue(address string, role core.Role, ttl time.Duration) (string, *core.Claims, error) {
	now := j.clock.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   address,
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = j.keyID

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign %s token: %w", role, err)
	}

	return signedToken, &core.Claims{
		ID:        claims.ID,
		Address:   address,
		Role:      role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
