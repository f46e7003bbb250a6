package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"dex-seasonal/pkg/amount"
	"dex-seasonal/pkg/chain"
	"dex-seasonal/pkg/client"
)

const DefaultSolanaRPC = "https://api.devnet.solana.com"

// Config holds the application configuration
type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	Slippage float64       `mapstructure:"slippage"`
	Debounce time.Duration `mapstructure:"debounce"`
	EVM      EVMConfig     `mapstructure:"evm"`
	Solana   SolanaConfig  `mapstructure:"solana"`
	Jupiter  JupiterConfig `mapstructure:"jupiter"`
}

// EVMConfig configures the router-based chain. An empty private key leaves
// the EVM wallet unavailable.
type EVMConfig struct {
	RPCURL     string        `mapstructure:"rpc_url"`
	PrivateKey string        `mapstructure:"private_key"`
	Router     string        `mapstructure:"router"`
	WETH       string        `mapstructure:"weth"`
	GasLimit   uint64        `mapstructure:"gas_limit"`
	ChainPoll  time.Duration `mapstructure:"chain_poll"`
}

type SolanaConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	PrivateKey     string        `mapstructure:"private_key"`
	Commitment     string        `mapstructure:"commitment"`
	HealthPoll     time.Duration `mapstructure:"health_poll"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"`
}

type JupiterConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	PriceURL string        `mapstructure:"price_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

var globalConfig *Config

// keys lists every setting so environment variables bind even when no
// config file mentions them.
var keys = []string{
	"log_level", "slippage", "debounce",
	"evm.rpc_url", "evm.private_key", "evm.router", "evm.weth", "evm.gas_limit", "evm.chain_poll",
	"solana.rpc_url", "solana.private_key", "solana.commitment", "solana.health_poll", "solana.confirm_timeout",
	"jupiter.base_url", "jupiter.price_url", "jupiter.timeout",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "warn")
	v.SetDefault("slippage", 0.5)
	v.SetDefault("debounce", 500*time.Millisecond)

	v.SetDefault("evm.rpc_url", "http://127.0.0.1:8545")
	v.SetDefault("evm.router", chain.DefaultRouter)
	v.SetDefault("evm.chain_poll", 4*time.Second)

	v.SetDefault("solana.rpc_url", DefaultSolanaRPC)
	v.SetDefault("solana.commitment", "confirmed")
	v.SetDefault("solana.health_poll", 15*time.Second)
	v.SetDefault("solana.confirm_timeout", 90*time.Second)

	v.SetDefault("jupiter.base_url", client.DefaultJupiterURL)
	v.SetDefault("jupiter.price_url", client.DefaultPriceURL)
	v.SetDefault("jupiter.timeout", 10*time.Second)
}

// Load reads configuration from environment variables and config file.
// configFile, when set, replaces the .dex-seasonal.yaml lookup.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".dex-seasonal")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	// DEX_SEASONAL_EVM_PRIVATE_KEY maps to evm.private_key
	v.SetEnvPrefix("DEX_SEASONAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", k, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// Validate checks values a user can get wrong in a config file.
func (c *Config) Validate() error {
	if err := amount.ValidateSlippage(c.Slippage); err != nil {
		return err
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative")
	}
	if c.Solana.RPCURL == "" {
		c.Solana.RPCURL = DefaultSolanaRPC
	}
	return nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}
