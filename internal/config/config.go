package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration, loaded from config.yaml
// with FORTRESS_-prefixed environment overrides.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Business BusinessConfig `mapstructure:"business"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
}

type ServerConfig struct {
	Port      string `mapstructure:"port"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// BusinessConfig holds the ledger engine constants.
type BusinessConfig struct {
	SignupBonus        float64       `mapstructure:"signup_bonus"`
	ReferralReward     float64       `mapstructure:"referral_reward"`
	VipMinimumBalance  float64       `mapstructure:"vip_minimum_balance"`
	AutoSettle         bool          `mapstructure:"auto_settle"`
	SettlementInterval time.Duration `mapstructure:"settlement_interval"`
	DefaultAsset       string        `mapstructure:"default_asset"`
}

type PricingConfig struct {
	Pair         string        `mapstructure:"pair"`
	InitialPrice float64       `mapstructure:"initial_price"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// Load reads the configuration file at path, falling back to defaults
// for anything unset. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.jwt_secret", "fortress-secret-key")
	v.SetDefault("database.path", "fortress.db")
	v.SetDefault("business.signup_bonus", 0.0)
	v.SetDefault("business.referral_reward", 10.0)
	v.SetDefault("business.vip_minimum_balance", 120.0)
	v.SetDefault("business.auto_settle", false)
	v.SetDefault("business.settlement_interval", time.Second)
	v.SetDefault("business.default_asset", "USDT")
	v.SetDefault("pricing.pair", "BTC-USDT")
	v.SetDefault("pricing.initial_price", 65000.0)
	v.SetDefault("pricing.tick_interval", time.Second)

	v.SetEnvPrefix("FORTRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A present-but-broken config file should fail loudly; a
		// missing one falls back to defaults.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(underlying(err)) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func underlying(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr
	}
	return err
}
