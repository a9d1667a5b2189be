package config

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	MongoURI      string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017/?replicaSet=rs0"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"fitcoach"`
	RedisURI      string `env:"REDIS_URI" envDefault:"redis://localhost:6379/0"`

	JWTSecret       string        `env:"JWT_SECRET" envDefault:"your-secret-key-change-in-production"`
	JWTIssuer       string        `env:"JWT_ISSUER" envDefault:"fitcoach"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`

	FrontendURL    string   `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	// AllowedHost is the bare hostname enforced in production, empty disables the check.
	AllowedHost string `env:"ALLOWED_HOST"`
	// TrustProxy makes rate limiting key on X-Forwarded-For instead of the socket address.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`

	CloudinaryName      string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL" envDefault:"http://localhost:3000/auth/google/callback"`

	// NotifyBackend selects the notification bus: redis, nats or none.
	NotifyBackend     string `env:"NOTIFY_BACKEND" envDefault:"redis"`
	NATSURL           string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	NATSSubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"fitcoach.notify"`

	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"100"`
	ProfileCacheTTL time.Duration `env:"PROFILE_CACHE_TTL" envDefault:"5m"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	c.NotifyBackend = strings.ToLower(strings.TrimSpace(c.NotifyBackend))

	// CORS: ALLOWED_ORIGINS wins, otherwise fall back to FRONTEND_URL
	origins := parseOrigins(c.AllowedOrigins)
	if len(origins) == 0 && strings.TrimSpace(c.FrontendURL) != "" {
		origins = []string{strings.TrimSpace(c.FrontendURL)}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	c.AllowedOrigins = origins
}

// Validate rejects configurations that must not reach production.
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.JWTSecret == "" || c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be set in production")
		}
	}
	switch c.NotifyBackend {
	case "redis", "nats", "none":
	default:
		return errors.New("NOTIFY_BACKEND must be one of redis, nats, none")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	return nil
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// CloudinaryEnabled reports whether avatar uploads can be served.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func parseOrigins(in []string) []string {
	var out []string
	for _, part := range in {
		part = strings.TrimSpace(part)
		if part != "" && !containsOrigin(out, part) {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}
