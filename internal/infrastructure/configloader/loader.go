package configloader

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeoutSeconds"`
	WriteTimeout int    `yaml:"writeTimeoutSeconds"`
	IdleTimeout  int    `yaml:"idleTimeoutSeconds"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// PerformanceConfig bounds concurrency and batch sizes.
type PerformanceConfig struct {
	// ConcurrencyWindow is the number of token fetch-pairs issued per window
	// inside the aggregator. Window N+1 never starts before window N joined.
	ConcurrencyWindow int `yaml:"concurrencyWindow"`
	// MaxBatchAddresses caps POST /balances/{chain}; exceeding it fails the
	// whole request.
	MaxBatchAddresses int `yaml:"maxBatchAddresses"`
	// OutboundRPS rate-limits JSON-RPC calls per endpoint; zero disables.
	OutboundRPS float64 `yaml:"outboundRps"`
}

// MetadataCacheConfig holds TTL cache settings.
type MetadataCacheConfig struct {
	TTLMillis int64 `yaml:"ttlMillis"`
}

// GetTTL returns the configured TTL as a duration.
func (c MetadataCacheConfig) GetTTL() time.Duration {
	return time.Duration(c.TTLMillis) * time.Millisecond
}

// SpamFilterConfig tunes the scam classifier.
type SpamFilterConfig struct {
	Keywords []string `yaml:"keywords"`
	// IncludeBareTokens keeps non-scam tokens without icon or reference.
	// Default false: metadata-sparse unverified tokens are treated as noise.
	IncludeBareTokens bool `yaml:"includeBareTokens"`
}

// NearConfig configures the contract-call chain adapter.
type NearConfig struct {
	RPCURL string `yaml:"rpcURL"`
	// TokenIndexURL is the external token-discovery index queried for
	// candidate token ids.
	TokenIndexURL string `yaml:"tokenIndexURL"`
	// TokenIndexTimeoutSeconds bounds the index lookup; this is the only
	// outbound call in the system with an explicit timeout.
	TokenIndexTimeoutSeconds int    `yaml:"tokenIndexTimeoutSeconds"`
	VerifiedTokensFile       string `yaml:"verifiedTokensFile"`
	NativeSymbol             string `yaml:"nativeSymbol"`
	NativeDecimals           uint32 `yaml:"nativeDecimals"`
}

// SolanaConfig configures the token-account chain adapter.
type SolanaConfig struct {
	RPCURL string `yaml:"rpcURL"`
	// TokenProgramID filters the ownership enumeration to fungible-token
	// accounts of the SPL token program.
	TokenProgramID string   `yaml:"tokenProgramID"`
	NativeSymbol   string   `yaml:"nativeSymbol"`
	VerifiedMints  []string `yaml:"verifiedMints"`
}

// UTXOChainConfig configures one prefix/length-validated chain served by a
// single explorer call.
type UTXOChainConfig struct {
	Name        string   `yaml:"name"`
	Symbol      string   `yaml:"symbol"`
	ExplorerURL string   `yaml:"explorerURL"`
	Prefixes    []string `yaml:"prefixes"`
	MinLength   int      `yaml:"minLength"`
	MaxLength   int      `yaml:"maxLength"`
	Decimals    uint32   `yaml:"decimals"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
	Performance   PerformanceConfig   `yaml:"performance"`
	MetadataCache MetadataCacheConfig `yaml:"metadataCache"`
	SpamFilter    SpamFilterConfig    `yaml:"spamFilter"`
	Near          NearConfig          `yaml:"near"`
	Solana        SolanaConfig        `yaml:"solana"`
	UTXOChains    []UTXOChainConfig   `yaml:"utxoChains"`
}

// Load reads the YAML configuration file from the given path, unmarshals it
// and applies defaults for anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 30
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Performance.ConcurrencyWindow <= 0 {
		cfg.Performance.ConcurrencyWindow = 5
	}
	if cfg.Performance.MaxBatchAddresses <= 0 {
		cfg.Performance.MaxBatchAddresses = 20
	}
	if cfg.MetadataCache.TTLMillis <= 0 {
		cfg.MetadataCache.TTLMillis = 30000
	}
	if cfg.Near.RPCURL == "" {
		cfg.Near.RPCURL = "https://rpc.mainnet.near.org"
	}
	if cfg.Near.TokenIndexTimeoutSeconds <= 0 {
		cfg.Near.TokenIndexTimeoutSeconds = 10
	}
	if cfg.Near.NativeSymbol == "" {
		cfg.Near.NativeSymbol = "NEAR"
	}
	if cfg.Near.NativeDecimals == 0 {
		cfg.Near.NativeDecimals = 24
	}
	if cfg.Solana.RPCURL == "" {
		cfg.Solana.RPCURL = "https://api.mainnet-beta.solana.com"
	}
	if cfg.Solana.TokenProgramID == "" {
		cfg.Solana.TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	}
	if cfg.Solana.NativeSymbol == "" {
		cfg.Solana.NativeSymbol = "SOL"
	}
	for i := range cfg.UTXOChains {
		if cfg.UTXOChains[i].Decimals == 0 {
			cfg.UTXOChains[i].Decimals = 8
		}
	}
}
