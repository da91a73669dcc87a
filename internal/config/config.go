package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the MEV engine.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Router    RouterConfig    `mapstructure:"router"`
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	Mempool   MempoolConfig   `mapstructure:"mempool"`
	Pool      PoolConfig      `mapstructure:"pool"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Signer    SignerConfig    `mapstructure:"signer"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig contains the status/health API server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ChainConfig contains the chain RPC connection configuration.
type ChainConfig struct {
	RPCURL            string        `mapstructure:"rpc_url"`
	WebSocketURL      string        `mapstructure:"websocket_url"`
	ChainID           uint64        `mapstructure:"chain_id"`
	ConnectionTimeout time.Duration `mapstructure:"connection_timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
}

// RouterConfig contains the UniV2-compatible router the bot trades
// through and the transaction-building parameters derived from it.
type RouterConfig struct {
	Address       string        `mapstructure:"address"`
	DeadlineSkew  time.Duration `mapstructure:"deadline_skew"`
	FrontrunLimit uint64        `mapstructure:"frontrun_gas_limit"`
	BackrunLimit  uint64        `mapstructure:"backrun_gas_limit"`
	ExpiryWindow  uint64        `mapstructure:"expiry_window_blocks"`
}

// ArbitrageConfig contains the bridging-token vocabulary the arbitrage
// search builds triangular candidate paths from.
type ArbitrageConfig struct {
	WrappedToken string   `mapstructure:"wrapped_token"`
	Stables      []string `mapstructure:"stables"`
}

// MempoolConfig contains the transaction ingest pipeline configuration.
type MempoolConfig struct {
	DedupeCapacity  int     `mapstructure:"dedupe_capacity"`
	WorkerPoolSize  int     `mapstructure:"worker_pool_size"`
	WorkerQueueSize int     `mapstructure:"worker_queue_size"`
	MinGasPriceGwei float64 `mapstructure:"min_gas_price_gwei"`
	MaxGasPriceGwei float64 `mapstructure:"max_gas_price_gwei"`
	MinValueWei     string  `mapstructure:"min_value_wei"`
}

// PoolConfig contains the pool provider's resolution/caching behavior.
type PoolConfig struct {
	DefaultFeeBps uint64        `mapstructure:"default_fee_bps"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	FactoryAddress string       `mapstructure:"factory_address"`
}

// RelayConfig contains the private relay submission configuration.
type RelayConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SignerConfig contains the bot's signing key source. PrivateKeyEnv and
// AuthKeyEnv name environment variables rather than holding secrets
// directly, so a config file can be committed safely.
type SignerConfig struct {
	PrivateKeyEnv string `mapstructure:"private_key_env"`
	AuthKeyEnv    string `mapstructure:"auth_key_env"`
	StartNonce    uint64 `mapstructure:"start_nonce"`
}

// MonitoringConfig contains metrics/audit-trail configuration.
type MonitoringConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
	MaxRecords  int  `mapstructure:"max_records"`
}

// Load loads configuration from file and environment variables. A
// ".env" file in the working directory, if present, is loaded into the
// process environment before viper reads it; its absence is not an
// error since production deployments set real environment variables
// directly.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Default returns a Config populated with the same defaults Load()
// would apply to an empty environment, without touching viper's global
// state. It is used by tests and by callers that need a usable Config
// without reading a file (e.g. the status API's own test suite).
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Chain: ChainConfig{
			RPCURL:            "https://mainnet.base.org",
			WebSocketURL:      "wss://mainnet.base.org",
			ChainID:           8453,
			ConnectionTimeout: 30 * time.Second,
			MaxRetries:        5,
		},
		Router: RouterConfig{
			Address:       "0x4752ba5dbc23f44d87826276bf6fd6b1c372ad24",
			DeadlineSkew:  2 * time.Minute,
			FrontrunLimit: 300_000,
			BackrunLimit:  300_000,
			ExpiryWindow:  2,
		},
		Arbitrage: ArbitrageConfig{
			WrappedToken: "0x4200000000000000000000000000000000000006",
			Stables: []string{
				"0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
				"0xd9aAEc86B65D86f6A7B5B1b0c42FFA531710b6CA",
			},
		},
		Mempool: MempoolConfig{
			DedupeCapacity:  0,
			WorkerPoolSize:  0,
			WorkerQueueSize: 0,
			MinGasPriceGwei: 1,
			MaxGasPriceGwei: 500,
			MinValueWei:     "0",
		},
		Pool: PoolConfig{
			DefaultFeeBps: 30,
			CacheTTL:      2 * time.Second,
		},
		Relay: RelayConfig{
			Endpoint: "https://relay.flashbots.net",
			Timeout:  5 * time.Second,
		},
		Signer: SignerConfig{
			PrivateKeyEnv: "MEV_PRIVATE_KEY",
			AuthKeyEnv:    "MEV_RELAY_AUTH_KEY",
			StartNonce:    0,
		},
		Monitoring: MonitoringConfig{
			Enabled:     true,
			MetricsPort: 9090,
			MaxRecords:  1000,
		},
	}
}

// setDefaults sets default configuration values on viper's global state.
func setDefaults() {
	d := Default()

	viper.SetDefault("server.host", d.Server.Host)
	viper.SetDefault("server.port", d.Server.Port)
	viper.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	viper.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	viper.SetDefault("server.idle_timeout", d.Server.IdleTimeout)

	viper.SetDefault("chain.rpc_url", d.Chain.RPCURL)
	viper.SetDefault("chain.websocket_url", d.Chain.WebSocketURL)
	viper.SetDefault("chain.chain_id", d.Chain.ChainID)
	viper.SetDefault("chain.connection_timeout", d.Chain.ConnectionTimeout)
	viper.SetDefault("chain.max_retries", d.Chain.MaxRetries)

	viper.SetDefault("router.address", d.Router.Address)
	viper.SetDefault("router.deadline_skew", d.Router.DeadlineSkew)
	viper.SetDefault("router.frontrun_gas_limit", d.Router.FrontrunLimit)
	viper.SetDefault("router.backrun_gas_limit", d.Router.BackrunLimit)
	viper.SetDefault("router.expiry_window_blocks", d.Router.ExpiryWindow)

	viper.SetDefault("arbitrage.wrapped_token", d.Arbitrage.WrappedToken)
	viper.SetDefault("arbitrage.stables", d.Arbitrage.Stables)

	viper.SetDefault("mempool.dedupe_capacity", d.Mempool.DedupeCapacity)
	viper.SetDefault("mempool.worker_pool_size", d.Mempool.WorkerPoolSize)
	viper.SetDefault("mempool.worker_queue_size", d.Mempool.WorkerQueueSize)
	viper.SetDefault("mempool.min_gas_price_gwei", d.Mempool.MinGasPriceGwei)
	viper.SetDefault("mempool.max_gas_price_gwei", d.Mempool.MaxGasPriceGwei)
	viper.SetDefault("mempool.min_value_wei", d.Mempool.MinValueWei)

	viper.SetDefault("pool.default_fee_bps", d.Pool.DefaultFeeBps)
	viper.SetDefault("pool.cache_ttl", d.Pool.CacheTTL)
	viper.SetDefault("pool.factory_address", d.Pool.FactoryAddress)

	viper.SetDefault("relay.endpoint", d.Relay.Endpoint)
	viper.SetDefault("relay.timeout", d.Relay.Timeout)

	viper.SetDefault("signer.private_key_env", d.Signer.PrivateKeyEnv)
	viper.SetDefault("signer.auth_key_env", d.Signer.AuthKeyEnv)
	viper.SetDefault("signer.start_nonce", d.Signer.StartNonce)

	viper.SetDefault("monitoring.enabled", d.Monitoring.Enabled)
	viper.SetDefault("monitoring.metrics_port", d.Monitoring.MetricsPort)
	viper.SetDefault("monitoring.max_records", d.Monitoring.MaxRecords)
}
