package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the budget middleware configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// ProviderConfig contains banking aggregator client settings
type ProviderConfig struct {
	Environment    string        `mapstructure:"environment"`
	ClientID       string        `mapstructure:"client_id"`
	Secret         string        `mapstructure:"secret"`
	ClientName     string        `mapstructure:"client_name"`
	CountryCodes   []string      `mapstructure:"country_codes"`
	Language       string        `mapstructure:"language"`
	WebhookURL     string        `mapstructure:"webhook_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// AssistantConfig contains reasoning service client settings
type AssistantConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Temperature    float64       `mapstructure:"temperature"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// AuthConfig contains token verification settings.
// Tokens are issued by the identity service; this process only verifies them.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// SyncConfig contains synchronization engine settings
type SyncConfig struct {
	TransactionWindowDays int    `mapstructure:"transaction_window_days"`
	MasterKeyEnv          string `mapstructure:"master_key_env"`
}

// ChatConfig contains conversation room settings
type ChatConfig struct {
	ContextTransactionLimit int `mapstructure:"context_transaction_limit"`
	SubscriberQueueSize     int `mapstructure:"subscriber_queue_size"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "balai")

	// Provider defaults
	viper.SetDefault("provider.environment", "sandbox")
	viper.SetDefault("provider.client_name", "Balai Budget App")
	viper.SetDefault("provider.country_codes", []string{"US"})
	viper.SetDefault("provider.language", "en")
	viper.SetDefault("provider.request_timeout", "30s")

	// Assistant defaults
	viper.SetDefault("assistant.model", "claude-3-5-haiku-20241022")
	viper.SetDefault("assistant.max_tokens", 600)
	viper.SetDefault("assistant.temperature", 0.7)
	viper.SetDefault("assistant.request_timeout", "60s")

	// Sync defaults
	viper.SetDefault("sync.transaction_window_days", 30)
	viper.SetDefault("sync.master_key_env", "BALAI_MASTER_KEY")

	// Chat defaults
	viper.SetDefault("chat.context_transaction_limit", 50)
	viper.SetDefault("chat.subscriber_queue_size", 32)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")
}

func validate(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Provider.ClientID == "" {
		return fmt.Errorf("provider.client_id is required")
	}
	if config.Provider.Secret == "" {
		return fmt.Errorf("provider.secret is required")
	}
	if config.Assistant.APIKey == "" {
		return fmt.Errorf("assistant.api_key is required")
	}
	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	return nil
}

// GetConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
