// Package config loads the ladderd configuration from defaults, an
// optional TOML file, and LADDERD_ environment variables, in that
// priority order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultConfigPath is where ladderd looks for its configuration when
// no --conf flag is given.
const DefaultConfigPath = "ladderd.toml"

// Config is the complete ladderd configuration.
type Config struct {
	Gateway GatewayConfig `toml:"gateway" mapstructure:"gateway"`
	XRPL    XRPLConfig    `toml:"xrpl" mapstructure:"xrpl"`
	Ladder  LadderConfig  `toml:"ladder" mapstructure:"ladder"`
	Signing SigningConfig `toml:"signing" mapstructure:"signing"`
	Journal JournalConfig `toml:"journal" mapstructure:"journal"`
}

// GatewayConfig points at the credential-holding wallet gateway.
type GatewayConfig struct {
	URL          string        `toml:"url" mapstructure:"url"`
	Timeout      time.Duration `toml:"timeout" mapstructure:"timeout"`
	PollInterval time.Duration `toml:"poll_interval" mapstructure:"poll_interval"`
}

// XRPLConfig points at a rippled-compatible JSON-RPC endpoint.
type XRPLConfig struct {
	URL string `toml:"url" mapstructure:"url"`
}

// LadderConfig carries the ladder validation bounds.
type LadderConfig struct {
	MinOrders    int     `toml:"min_orders" mapstructure:"min_orders"`
	MaxOrders    int     `toml:"max_orders" mapstructure:"max_orders"`
	MinOrderSize float64 `toml:"min_order_size" mapstructure:"min_order_size"`
}

// SigningConfig carries the coordinator's timing policy.
type SigningConfig struct {
	AttemptTimeout time.Duration `toml:"attempt_timeout" mapstructure:"attempt_timeout"`
	InterSignDelay time.Duration `toml:"inter_sign_delay" mapstructure:"inter_sign_delay"`
}

// JournalConfig carries the run-journal location.
type JournalConfig struct {
	Path string `toml:"path" mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gateway.url", "http://localhost:3001")
	v.SetDefault("gateway.timeout", 15*time.Second)
	v.SetDefault("gateway.poll_interval", 5*time.Second)

	v.SetDefault("xrpl.url", "https://xrplcluster.com")

	v.SetDefault("ladder.min_orders", 2)
	// 0 means unbounded: signing is sequential, one wallet prompt per
	// transaction, so there is no ledger-imposed batch ceiling.
	v.SetDefault("ladder.max_orders", 0)
	v.SetDefault("ladder.min_order_size", 1e-6)

	// The wallet payload itself expires after a few minutes; the
	// attempt timeout just has to outlive it.
	v.SetDefault("signing.attempt_timeout", 5*time.Minute)
	v.SetDefault("signing.inter_sign_delay", 2*time.Second)

	v.SetDefault("journal.path", "ladderd.db")
}

// Load reads the configuration. A missing file at the default path is
// fine (defaults plus environment apply); an explicitly given path
// must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	v.SetEnvPrefix("LADDERD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values no command could run
// with.
func Validate(cfg *Config) error {
	if cfg.Gateway.URL == "" {
		return fmt.Errorf("gateway.url must be set")
	}
	if cfg.XRPL.URL == "" {
		return fmt.Errorf("xrpl.url must be set")
	}
	if cfg.Gateway.PollInterval <= 0 {
		return fmt.Errorf("gateway.poll_interval must be positive, got %s", cfg.Gateway.PollInterval)
	}
	if cfg.Ladder.MinOrders < 2 {
		return fmt.Errorf("ladder.min_orders must be at least 2, got %d", cfg.Ladder.MinOrders)
	}
	if cfg.Ladder.MaxOrders < 0 {
		return fmt.Errorf("ladder.max_orders must be 0 (unbounded) or positive, got %d", cfg.Ladder.MaxOrders)
	}
	if cfg.Ladder.MinOrderSize <= 0 {
		return fmt.Errorf("ladder.min_order_size must be positive, got %g", cfg.Ladder.MinOrderSize)
	}
	if cfg.Signing.AttemptTimeout < 0 {
		return fmt.Errorf("signing.attempt_timeout must not be negative, got %s", cfg.Signing.AttemptTimeout)
	}
	if cfg.Signing.InterSignDelay < 0 {
		return fmt.Errorf("signing.inter_sign_delay must not be negative, got %s", cfg.Signing.InterSignDelay)
	}
	if cfg.Journal.Path == "" {
		return fmt.Errorf("journal.path must be set")
	}
	return nil
}
