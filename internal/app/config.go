package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/lootcart/lootcart/internal/domain/reward"
)

// Config holds the complete application configuration, loadable from
// environment variables (LOOT_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL; leave empty to run on the in-memory store" flag:"database-url"`
	Reward      RewardConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// RewardConfig controls the loot-box reward subsystem.
type RewardConfig struct {
	// EveryN is the reward cadence: every EveryN-th completed order earns a
	// reward coupon. Must be at least 1.
	EveryN  int `default:"4" usage:"Issue a reward coupon on every Nth order" flag:"reward-every-n"`
	Weights reward.Config
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// Validate rejects configurations the checkout engine must never run with.
// A cadence below 1 would break the per-order modulo, so it fails startup
// instead of surfacing per request.
func (c *Config) Validate() error {
	if c.Reward.EveryN < 1 {
		return errors.Errorf("reward cadence must be >= 1, got %d", c.Reward.EveryN)
	}
	if err := c.Reward.Weights.Validate(); err != nil {
		return errors.Wrap(err, "reward weights")
	}
	return nil
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and platform defaults, then validates it.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "LOOT",
		Files:     []string{"config.yaml", "/etc/lootcart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's LOOT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
