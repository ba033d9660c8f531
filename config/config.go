package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// RedisURL selects redis-backed balances and events when set
	RedisURL string `mapstructure:"REDIS_URL"`

	Chain   ChainConfig   `mapstructure:",squash"`
	Pinata  PinataConfig  `mapstructure:",squash"`
	Assets  AssetsConfig  `mapstructure:",squash"`
	Economy EconomyConfig `mapstructure:",squash"`

	SessionTTL      time.Duration `mapstructure:"SESSION_TTL"`
	CleanupInterval time.Duration `mapstructure:"CLEANUP_INTERVAL"`
	ExternalTimeout time.Duration `mapstructure:"EXTERNAL_TIMEOUT"`
}

// ChainConfig holds the node and issuing account settings
type ChainConfig struct {
	RPCURL          string `mapstructure:"RPC_URL"`
	ContractAddress string `mapstructure:"SMART_CONTRACT_ADDRESS"`
	PrivateKey      string `mapstructure:"ACCOUNT_PRIVATE_KEY"`
	AccountAddress  string `mapstructure:"ACCOUNT_ADDRESS"`
	ChainID         int64  `mapstructure:"CHAIN_ID"`
	GasLimit        uint64 `mapstructure:"GAS_LIMIT"`
	GasPriceGwei    string `mapstructure:"GAS_PRICE_GWEI"`
}

// PinataConfig holds the content store settings
type PinataConfig struct {
	JWT        string `mapstructure:"PINATA_JWT"`
	UploadURL  string `mapstructure:"PINATA_BASE_URL"`
	PinJSONURL string `mapstructure:"PINATA_LEGACY_URL"`
	GatewayURL string `mapstructure:"PINATA_GATEWAY_URL"`
}

// AssetsConfig locates files read at runtime
type AssetsConfig struct {
	RecordsFile    string `mapstructure:"RECORDS_FILE"`
	RecordsBackend string `mapstructure:"RECORDS_BACKEND"`
	QuestionsFile  string `mapstructure:"QUESTIONS_FILE"`
	CertTemplate   string `mapstructure:"CERT_TEMPLATE"`
	CertFont       string `mapstructure:"CERT_FONT"`
}

// EconomyConfig holds the token rewards and thresholds
type EconomyConfig struct {
	InitialGrant     int64 `mapstructure:"INITIAL_GRANT"`
	RewardPerCorrect int64 `mapstructure:"TOKENS_PER_CORRECT_ANSWER"`
	MinimumMint      int64 `mapstructure:"MINIMUM_TOKENS_FOR_NFT"`
	QuizSize         int   `mapstructure:"QUIZ_SIZE"`
}

const (
	RecordsBackendFile  = "file"
	RecordsBackendRedis = "redis"
)

// Load reads .env if present, then config.yaml if present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// a missing config file is fine, the environment is enough
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// every key needs a default for AutomaticEnv to reach it during Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":9000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIS_URL", "")

	v.SetDefault("RPC_URL", "http://127.0.0.1:8545")
	v.SetDefault("SMART_CONTRACT_ADDRESS", "")
	v.SetDefault("ACCOUNT_PRIVATE_KEY", "")
	v.SetDefault("ACCOUNT_ADDRESS", "")
	v.SetDefault("CHAIN_ID", 0)
	v.SetDefault("GAS_LIMIT", 300000)
	v.SetDefault("GAS_PRICE_GWEI", "2")

	v.SetDefault("PINATA_JWT", "")
	v.SetDefault("PINATA_BASE_URL", "https://uploads.pinata.cloud/v3/files")
	v.SetDefault("PINATA_LEGACY_URL", "https://api.pinata.cloud/pinning/pinJSONToIPFS")
	v.SetDefault("PINATA_GATEWAY_URL", "https://gateway.pinata.cloud/ipfs/")

	v.SetDefault("RECORDS_FILE", "./StudentBadges/StudentBadgeData.json")
	v.SetDefault("RECORDS_BACKEND", RecordsBackendFile)
	v.SetDefault("QUESTIONS_FILE", "")
	v.SetDefault("CERT_TEMPLATE", "./assets/certificate_template.png")
	v.SetDefault("CERT_FONT", "./assets/Mark-Regular.ttf")

	v.SetDefault("INITIAL_GRANT", 10000)
	v.SetDefault("TOKENS_PER_CORRECT_ANSWER", 50)
	v.SetDefault("MINIMUM_TOKENS_FOR_NFT", 10)
	v.SetDefault("QUIZ_SIZE", 5)

	v.SetDefault("SESSION_TTL", time.Hour)
	v.SetDefault("CLEANUP_INTERVAL", 5*time.Minute)
	v.SetDefault("EXTERNAL_TIMEOUT", 30*time.Second)
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Economy.InitialGrant < 0 {
		errs = append(errs, fmt.Errorf("INITIAL_GRANT must not be negative, got %d", c.Economy.InitialGrant))
	}
	if c.Economy.RewardPerCorrect < 0 {
		errs = append(errs, fmt.Errorf("TOKENS_PER_CORRECT_ANSWER must not be negative, got %d", c.Economy.RewardPerCorrect))
	}
	if c.Economy.MinimumMint < 0 {
		errs = append(errs, fmt.Errorf("MINIMUM_TOKENS_FOR_NFT must not be negative, got %d", c.Economy.MinimumMint))
	}
	if c.Economy.QuizSize <= 0 {
		errs = append(errs, fmt.Errorf("QUIZ_SIZE must be positive, got %d", c.Economy.QuizSize))
	}
	if c.Chain.GasLimit == 0 {
		errs = append(errs, errors.New("GAS_LIMIT must be positive"))
	}
	if c.Chain.ChainID < 0 {
		errs = append(errs, fmt.Errorf("CHAIN_ID must not be negative, got %d", c.Chain.ChainID))
	}
	if c.Chain.ContractAddress != "" && !common.IsHexAddress(c.Chain.ContractAddress) {
		errs = append(errs, fmt.Errorf("SMART_CONTRACT_ADDRESS %q is not an address", c.Chain.ContractAddress))
	}
	if c.Chain.AccountAddress != "" && !common.IsHexAddress(c.Chain.AccountAddress) {
		errs = append(errs, fmt.Errorf("ACCOUNT_ADDRESS %q is not an address", c.Chain.AccountAddress))
	}
	if c.ExternalTimeout <= 0 {
		errs = append(errs, errors.New("EXTERNAL_TIMEOUT must be positive"))
	}
	if c.CleanupInterval <= 0 {
		errs = append(errs, errors.New("CLEANUP_INTERVAL must be positive"))
	}
	if c.SessionTTL < 0 {
		errs = append(errs, errors.New("SESSION_TTL must not be negative"))
	}

	switch c.Assets.RecordsBackend {
	case RecordsBackendFile:
	case RecordsBackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("RECORDS_BACKEND=redis requires REDIS_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("RECORDS_BACKEND must be %q or %q, got %q", RecordsBackendFile, RecordsBackendRedis, c.Assets.RecordsBackend))
	}

	return errors.Join(errs...)
}
