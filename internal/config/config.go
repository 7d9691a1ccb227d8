package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "HOTEL"

// Denied redirect modes for the access guard.
const (
	DeniedRedirectForbidden = "forbidden"
	DeniedRedirectLogin     = "login"
)

// Mail providers.
const (
	MailProviderLog  = "log"
	MailProviderHTTP = "http"
)

// Config holds the application configuration
type Config struct {
	// Database connection string (DSN)
	DatabaseURL string

	// Server bind address (host:port)
	ServerAddr string

	// Public base URL, used to build magic-link callback URLs
	ServerURL string

	// Maximum database connection pool size
	MaxDBConnections int

	// Enable debug logging
	Debug bool

	Auth    AuthConfig
	Guard   GuardConfig
	Mail    MailConfig
	Cache   CacheConfig
	Metrics MetricsConfig
}

// AuthConfig controls magic-link codes and browser sessions.
type AuthConfig struct {
	// SigningKey is the HMAC key used to sign magic-link codes
	SigningKey string

	SessionTTL   time.Duration
	MagicLinkTTL time.Duration

	// CookieSecure forces the Secure attribute on the session cookie
	CookieSecure bool
}

// GuardConfig controls where the access guard sends callers whose role is not allowed.
type GuardConfig struct {
	// DeniedRedirect is "forbidden" (/403) or "login" (/auth/login)
	DeniedRedirect string
}

// MailConfig selects how magic links are delivered.
type MailConfig struct {
	Provider string
	APIURL   string
	APIKey   string
	From     string
}

// CacheConfig sizes the compiled room filter cache. Size 0 disables it.
type CacheConfig struct {
	FilterSize int
	FilterTTL  time.Duration
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// SetDefaults registers default values on the global viper instance.
func SetDefaults() {
	viper.SetDefault("database_url", "file:hotel.db?cache=shared")
	viper.SetDefault("server_addr", "localhost:8080")
	viper.SetDefault("server_url", "http://localhost:8080")
	viper.SetDefault("max_db_connections", 25)
	viper.SetDefault("debug", false)

	viper.SetDefault("auth.signing_key", "")
	viper.SetDefault("auth.session_ttl", 12*time.Hour)
	viper.SetDefault("auth.magic_link_ttl", 15*time.Minute)
	viper.SetDefault("auth.cookie_secure", false)

	viper.SetDefault("guard.denied_redirect", DeniedRedirectForbidden)

	viper.SetDefault("mail.provider", MailProviderLog)
	viper.SetDefault("mail.api_url", "")
	viper.SetDefault("mail.api_key", "")
	viper.SetDefault("mail.from", "Crawdale Hotel <no-reply@crawdale.local>")

	viper.SetDefault("cache.filter_size", 64)
	viper.SetDefault("cache.filter_ttl", 10*time.Minute)

	viper.SetDefault("metrics.enabled", true)
}

// Load reads configuration from viper (config file, HOTEL_ environment variables and defaults)
func Load() (*Config, error) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	SetDefaults()

	cfg := &Config{
		DatabaseURL:      viper.GetString("database_url"),
		ServerAddr:       viper.GetString("server_addr"),
		ServerURL:        strings.TrimRight(viper.GetString("server_url"), "/"),
		MaxDBConnections: viper.GetInt("max_db_connections"),
		Debug:            viper.GetBool("debug"),
		Auth: AuthConfig{
			SigningKey:   viper.GetString("auth.signing_key"),
			SessionTTL:   viper.GetDuration("auth.session_ttl"),
			MagicLinkTTL: viper.GetDuration("auth.magic_link_ttl"),
			CookieSecure: viper.GetBool("auth.cookie_secure"),
		},
		Guard: GuardConfig{
			DeniedRedirect: strings.ToLower(viper.GetString("guard.denied_redirect")),
		},
		Mail: MailConfig{
			Provider: strings.ToLower(viper.GetString("mail.provider")),
			APIURL:   viper.GetString("mail.api_url"),
			APIKey:   viper.GetString("mail.api_key"),
			From:     viper.GetString("mail.from"),
		},
		Cache: CacheConfig{
			FilterSize: viper.GetInt("cache.filter_size"),
			FilterTTL:  viper.GetDuration("cache.filter_ttl"),
		},
		Metrics: MetricsConfig{
			Enabled: viper.GetBool("metrics.enabled"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	if c.ServerURL == "" {
		return fmt.Errorf("server_url is required")
	}
	if c.Auth.SigningKey == "" {
		return fmt.Errorf("auth.signing_key is required (env: %s_AUTH_SIGNING_KEY)", EnvPrefix)
	}
	if len(c.Auth.SigningKey) < 16 {
		return fmt.Errorf("auth.signing_key must be at least 16 characters")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}
	if c.Auth.MagicLinkTTL <= 0 {
		return fmt.Errorf("auth.magic_link_ttl must be positive")
	}

	switch c.Guard.DeniedRedirect {
	case DeniedRedirectForbidden, DeniedRedirectLogin:
	default:
		return fmt.Errorf("guard.denied_redirect must be %q or %q, got %q",
			DeniedRedirectForbidden, DeniedRedirectLogin, c.Guard.DeniedRedirect)
	}

	switch c.Mail.Provider {
	case MailProviderLog:
	case MailProviderHTTP:
		if c.Mail.APIURL == "" {
			return fmt.Errorf("mail.api_url is required when mail.provider is %q", MailProviderHTTP)
		}
	default:
		return fmt.Errorf("unknown mail.provider %q", c.Mail.Provider)
	}

	if c.Cache.FilterSize < 0 {
		return fmt.Errorf("cache.filter_size must not be negative")
	}
	return nil
}
