package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Digital-Creators-Team/lottery-engine-module/logging"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Environment      string                 `mapstructure:"environment"`
	Server           ServerConfig           `mapstructure:"server"`
	Redis            RedisConfig            `mapstructure:"redis"`
	Kafka            KafkaConfig            `mapstructure:"kafka"`
	JWT              JWTConfig              `mapstructure:"jwt"`
	Logging          logging.Config         `mapstructure:"logging"`
	Lottery          LotteryConfig          `mapstructure:"lottery"`
	ExternalServices ExternalServicesConfig `mapstructure:"external_services"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	EnableCORS   bool          `mapstructure:"enable_cors"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers       []string          `mapstructure:"brokers"`
	ConsumerGroup string            `mapstructure:"consumer_group"`
	Topics        map[string]string `mapstructure:"topics"`
}

// EntriesTopic returns the topic carrying qualifying-purchase entry events.
func (c *KafkaConfig) EntriesTopic() string {
	if t, ok := c.Topics["entries"]; ok {
		return t
	}
	return "lottery.entries"
}

// EventsTopic returns the topic engine events are published to.
func (c *KafkaConfig) EventsTopic() string {
	if t, ok := c.Topics["events"]; ok {
		return t
	}
	return "lottery.events"
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// LotteryConfig holds engine parameters
type LotteryConfig struct {
	// AdminWallet is the only identity allowed to run snapshots and payouts.
	AdminWallet string `mapstructure:"admin_wallet"`

	// InitialJackpot seeds jackpot_amount (lamports) when the state record
	// does not exist yet.
	InitialJackpot uint64 `mapstructure:"initial_jackpot"`

	BaseSnapshotInterval time.Duration `mapstructure:"base_snapshot_interval"`
	FastSnapshotInterval time.Duration `mapstructure:"fast_snapshot_interval"`

	// FastModeThreshold is the jackpot balance (lamports) at which the fast
	// snapshot interval kicks in.
	FastModeThreshold uint64 `mapstructure:"fast_mode_threshold"`

	// AutoSnapshot enables the background scheduler loop.
	AutoSnapshot         bool          `mapstructure:"auto_snapshot"`
	AutoSnapshotInterval time.Duration `mapstructure:"auto_snapshot_interval"`

	// AdminFeeFloor is the minimum admin balance (lamports) required to cover
	// transaction fees before a payout is attempted.
	AdminFeeFloor uint64 `mapstructure:"admin_fee_floor"`
}

// ExternalServicesConfig holds external service configurations
type ExternalServicesConfig struct {
	TreasuryService ServiceConfig `mapstructure:"treasury_service"`
	ChainRPC        ServiceConfig `mapstructure:"chain_rpc"`
	HistoryService  ServiceConfig `mapstructure:"history_service"`
}

// ServiceConfig holds external service configuration
type ServiceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load loads configuration from YAML file using Viper
func Load(filename string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(filename)
	v.SetConfigType("yaml")

	// Enable environment variable substitution
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.setDefaults()

	return &config, nil
}

// LoadByEnv loads configuration based on environment using Viper
func LoadByEnv(configDir string) (*Config, error) {
	v := viper.New()

	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	env := viper.GetString("ENV")
	if env == "" {
		env = viper.GetString("APP_ENV")
	}
	if env == "" {
		env = "development"
	}

	v.SetConfigName(fmt.Sprintf("config-%s", env))
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.setDefaults()

	return &config, nil
}

// setDefaults sets default values for missing configuration
func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 5
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	// Engine defaults mirror the production deployment: 72h base window,
	// 48h once the jackpot crosses 200 SOL.
	if c.Lottery.BaseSnapshotInterval == 0 {
		c.Lottery.BaseSnapshotInterval = 72 * time.Hour
	}
	if c.Lottery.FastSnapshotInterval == 0 {
		c.Lottery.FastSnapshotInterval = 48 * time.Hour
	}
	if c.Lottery.FastModeThreshold == 0 {
		c.Lottery.FastModeThreshold = 200 * 1_000_000_000
	}
	if c.Lottery.AutoSnapshotInterval == 0 {
		c.Lottery.AutoSnapshotInterval = time.Minute
	}
	if c.Lottery.AdminFeeFloor == 0 {
		c.Lottery.AdminFeeFloor = 10_000_000 // 0.01 SOL
	}
	if c.ExternalServices.TreasuryService.Timeout == 0 {
		c.ExternalServices.TreasuryService.Timeout = 10 * time.Second
	}
	if c.ExternalServices.ChainRPC.Timeout == 0 {
		c.ExternalServices.ChainRPC.Timeout = 10 * time.Second
	}
	if c.ExternalServices.HistoryService.Timeout == 0 {
		c.ExternalServices.HistoryService.Timeout = 10 * time.Second
	}
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return c.Addr
}

// IsDevelopment returns true if environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsProduction returns true if environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
