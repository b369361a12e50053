package config

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// MinSecretLength is the shortest accepted HS256 secret
const MinSecretLength = 32

// Config is the complete service configuration, read from the environment
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":9000"`
	GinMode  string `env:"GIN_MODE" envDefault:"release"`

	JWTSecret       string        `env:"JWT_SECRET,required,unset"`
	JWTIssuer       string        `env:"JWT_ISSUER" envDefault:"walletauth"`
	JWTKeyID        string        `env:"JWT_KEY_ID" envDefault:"1"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"24h"`

	ChallengeTTL    time.Duration `env:"CHALLENGE_TTL" envDefault:"5m"`
	StoreTimeout    time.Duration `env:"STORE_TIMEOUT" envDefault:"2s"`
	RedisURL        string        `env:"REDIS_URL"`
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" envDefault:"1m"`

	Domain    string `env:"SIWE_DOMAIN" envDefault:"localhost:3000"`
	URI       string `env:"SIWE_URI" envDefault:"http://localhost:3000"`
	Statement string `env:"SIWE_STATEMENT" envDefault:"I want to authenticate and receive a session token."`
	ChainID   int64  `env:"CHAIN_ID" envDefault:"1"`

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:8080"`

	// TrustedProxies lists the IPs or CIDRs allowed to set X-Forwarded-For.
	// Empty means the peer address is always the client address.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	AccessCookieName  string `env:"ACCESS_COOKIE_NAME" envDefault:"access_token"`
	RefreshCookieName string `env:"REFRESH_COOKIE_NAME" envDefault:"refresh_token"`
	CookieDomain      string `env:"COOKIE_DOMAIN"`
	CookieSecure      bool   `env:"COOKIE_SECURE" envDefault:"false"`
	CookieSameSite    string `env:"COOKIE_SAMESITE" envDefault:"lax"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`

	EventsEnabled bool `env:"EVENTS_ENABLED" envDefault:"false"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load parses environment variables into a Config and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values env tags cannot express
func (c *Config) Validate() error {
	var errs []error

	if len(c.JWTSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinSecretLength))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.ChallengeTTL <= 0 {
		errs = append(errs, errors.New("token and challenge TTLs must be positive"))
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must be longer than ACCESS_TOKEN_TTL"))
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("unknown GIN_MODE %q", c.GinMode))
	}
	if c.JanitorInterval <= 0 {
		errs = append(errs, errors.New("JANITOR_INTERVAL must be positive"))
	}
	for _, proxy := range c.TrustedProxies {
		if !validProxy(proxy) {
			errs = append(errs, fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP or CIDR", proxy))
		}
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	if _, err := ParseSameSite(c.CookieSameSite); err != nil {
		errs = append(errs, err)
	}
	if strings.EqualFold(c.CookieSameSite, "none") && !c.CookieSecure {
		errs = append(errs, errors.New("COOKIE_SAMESITE=none requires COOKIE_SECURE=true"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func validProxy(s string) bool {
	if strings.Contains(s, "/") {
		_, _, err := net.ParseCIDR(s)
		return err == nil
	}
	return net.ParseIP(s) != nil
}

// SameSite returns the parsed cookie SameSite mode
func (c *Config) SameSite() http.SameSite {
	mode, _ := ParseSameSite(c.CookieSameSite)
	return mode
}

// ParseSameSite maps a config value to an http.SameSite mode
func ParseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return http.SameSiteDefaultMode, fmt.Errorf("unknown COOKIE_SAMESITE %q", s)
	}
}
