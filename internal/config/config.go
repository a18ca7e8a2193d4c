package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the process-wide settings of the service.
// It is built once at startup and handed to every component that needs it.
type Config struct {
	Port   string `env:"PORT" envDefault:"3000"`
	AppURL string `env:"APP_URL" envDefault:"http://localhost:3000"`

	APIKey      string   `env:"SHOPIFY_API_KEY"`
	APISecret   string   `env:"SHOPIFY_API_SECRET"`
	Scopes      []string `env:"SHOPIFY_SCOPES" envSeparator:"," envDefault:"read_products,read_orders,read_analytics,read_product_feeds,read_product_listings"`
	APIVersion  string   `env:"SHOPIFY_API_VERSION" envDefault:"2022-01"`
	DefaultShop string   `env:"SHOPIFY_DEFAULT_SHOP" envDefault:"xg-dev"`

	OAuthRedirectURL  string `env:"OAUTH_REDIRECT_URL"`
	WebhookAddressURL string `env:"WEBHOOK_ADDRESS"`

	OAuthStateTTL              time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`
	HTTPClientTimeout          time.Duration `env:"HTTP_CLIENT_TIMEOUT" envDefault:"10s"`
	WebhookRegistrationTimeout time.Duration `env:"WEBHOOK_REGISTRATION_TIMEOUT" envDefault:"15s"`
	WebhookMaxBodyBytes        int64         `env:"WEBHOOK_MAX_BODY_BYTES" envDefault:"1048576"`
	WebhookVerifyHMAC          bool          `env:"WEBHOOK_VERIFY_HMAC" envDefault:"true"`

	RedisURL      string `env:"REDIS_URL"`
	MongoURI      string `env:"MONGODB_URI"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"shopify_app"`
	EncryptionKey string `env:"ENCRYPTION_KEY"`

	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"shopify.orders"`

	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load reads an optional .env file and parses the environment into a Config.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil
	cfg, err := Parse(env.Options{})
	return cfg, dotenv, err
}

// Parse builds a Config using the given env options and validates it.
func Parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Scopes = DedupeScopes(cfg.Scopes)
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, errors.New("SHOPIFY_API_KEY is required"))
	}
	if c.APISecret == "" {
		errs = append(errs, errors.New("SHOPIFY_API_SECRET is required"))
	}
	if len(c.Scopes) == 0 {
		errs = append(errs, errors.New("SHOPIFY_SCOPES must list at least one scope"))
	}
	if c.OAuthStateTTL <= 0 {
		errs = append(errs, errors.New("OAUTH_STATE_TTL must be positive"))
	}
	if c.HTTPClientTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_CLIENT_TIMEOUT must be positive"))
	}
	if c.WebhookRegistrationTimeout <= 0 {
		errs = append(errs, errors.New("WEBHOOK_REGISTRATION_TIMEOUT must be positive"))
	}
	if c.WebhookMaxBodyBytes <= 0 {
		errs = append(errs, errors.New("WEBHOOK_MAX_BODY_BYTES must be positive"))
	}
	if c.MongoURI != "" && c.EncryptionKey == "" {
		errs = append(errs, errors.New("ENCRYPTION_KEY is required when MONGODB_URI is set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// RedirectURI is the OAuth callback address registered with Shopify.
func (c *Config) RedirectURI() string {
	if c.OAuthRedirectURL != "" {
		return c.OAuthRedirectURL
	}
	return c.AppURL + "/oauth/callback"
}

// WebhookAddress is where Shopify delivers order webhooks.
func (c *Config) WebhookAddress() string {
	if c.WebhookAddressURL != "" {
		return c.WebhookAddressURL
	}
	return c.AppURL + "/webhook/order_placed"
}

// DedupeScopes trims scopes and drops blanks and repeats, keeping first-seen order.
func DedupeScopes(scopes []string) []string {
	seen := make(map[string]struct{}, len(scopes))
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
