package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "ESCROW"

type Config struct {
	AWS      AWSConfig      `mapstructure:"aws"`
	DynamoDB DynamoDBConfig `mapstructure:"dynamodb"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Server   ServerConfig   `mapstructure:"server"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Escrow   EscrowConfig   `mapstructure:"escrow"`
	Payout   PayoutConfig   `mapstructure:"payout"`
}

type AWSConfig struct {
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Endpoint        string `mapstructure:"endpoint"`
}

type DynamoDBConfig struct {
	TableName        string `mapstructure:"table_name"`
	MaxRetries       int    `mapstructure:"max_retries"`
	UseLocalEndpoint bool   `mapstructure:"use_local_endpoint"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ServerConfig struct {
	GRPCPort    int    `mapstructure:"grpc_port"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

type NATSConfig struct {
	URL                  string `mapstructure:"url"`
	MaxReconnect         int    `mapstructure:"max_reconnect"`
	ReconnectWaitSeconds int    `mapstructure:"reconnect_wait_seconds"`
	TimeoutSeconds       int    `mapstructure:"timeout_seconds"`
}

// StorageConfig selects the key-value substrate behind the ledger.
// Backend is one of "memory", "dynamodb" or "redis".
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	CacheSize int    `mapstructure:"cache_size"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type EscrowConfig struct {
	OwnerID   string `mapstructure:"owner_id"`
	Name      string `mapstructure:"name"`
	Icon      string `mapstructure:"icon"`
	ListLimit int    `mapstructure:"list_limit"`
}

// PayoutConfig controls transfer dispatch. Gateway is "log" or "jetstream".
type PayoutConfig struct {
	Gateway        string        `mapstructure:"gateway"`
	JournalDSN     string        `mapstructure:"journal_dsn"`
	RetryInterval  time.Duration `mapstructure:"retry_interval"`
	PendingTimeout time.Duration `mapstructure:"pending_timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
}

var defaults = map[string]any{
	"aws.region":                  "eu-central-1",
	"aws.access_key_id":           "",
	"aws.secret_access_key":       "",
	"aws.endpoint":                "",
	"dynamodb.table_name":         "escrow-ledger",
	"dynamodb.max_retries":        3,
	"dynamodb.use_local_endpoint": false,
	"redis.address":               "localhost:6379",
	"redis.password":              "",
	"redis.db":                    0,
	"server.grpc_port":            50051,
	"server.environment":          "development",
	"server.log_level":            "info",
	"server.log_format":           "json",
	"nats.url":                    "",
	"nats.max_reconnect":          10,
	"nats.reconnect_wait_seconds": 2,
	"nats.timeout_seconds":        5,
	"storage.backend":             "memory",
	"storage.cache_size":          1024,
	"storage.key_prefix":          "escrow:",
	"escrow.owner_id":             "",
	"escrow.name":                 "Tournament Escrow",
	"escrow.icon":                 "",
	"escrow.list_limit":           50,
	"payout.gateway":              "log",
	"payout.journal_dsn":          "file:escrow-payouts.db?_journal_mode=WAL",
	"payout.retry_interval":       "30s",
	"payout.pending_timeout":      "5m",
	"payout.max_attempts":         5,
}

// Load reads config.yaml from ./config, the working directory and
// configPath. Environment variables such as ESCROW_SERVER_GRPC_PORT
// override file values. A missing file leaves the defaults in place.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
