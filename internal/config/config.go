package config

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store modes
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Draw     DrawConfig
	Telegram TelegramConfig
	Client   ClientConfig
	Admin    AdminConfig
	LogLevel string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
	Mode         string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int
	Issuer    string
}

// DrawConfig holds the reward draw settings
type DrawConfig struct {
	EligibilityDays   int
	LockTTLSeconds    int
	CatalogTTLSeconds int
	StoreMode         string
}

// TelegramConfig holds the staff notification bot settings
type TelegramConfig struct {
	BotToken    string
	AdminChatID int64
}

// ClientConfig holds the settings padelctl uses to reach the API
type ClientConfig struct {
	BaseURL               string
	Token                 string
	RequestTimeoutSeconds int
}

// AdminConfig seeds the first admin account at startup when both are set
type AdminConfig struct {
	Email    string
	Password string
}

// LoadConfig reads .env, then config.yaml under path, then the environment.
// Environment variables use upper case with underscores, e.g. DRAW_STOREMODE.
func LoadConfig(path string) (*Config, error) {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load(filepath.Join(path, ".env"))

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AddConfigPath(filepath.Join(path, "config"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "8080")
	v.SetDefault("Server.AllowedHosts", []string{"http://localhost:5173"})
	v.SetDefault("Server.Mode", "release")
	v.SetDefault("MongoDB.URI", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("MongoDB.Database", "padel_arena")
	v.SetDefault("Redis.Enabled", false)
	v.SetDefault("Redis.Addr", "localhost:6379")
	v.SetDefault("Redis.Password", "")
	v.SetDefault("Redis.DB", 0)
	v.SetDefault("JWT.Secret", "")
	v.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	v.SetDefault("JWT.Issuer", "padel-arena")
	v.SetDefault("Draw.EligibilityDays", 7)
	v.SetDefault("Draw.LockTTLSeconds", 30)
	v.SetDefault("Draw.CatalogTTLSeconds", 60)
	v.SetDefault("Draw.StoreMode", StoreMongo)
	v.SetDefault("Telegram.BotToken", "")
	v.SetDefault("Telegram.AdminChatID", 0)
	v.SetDefault("Client.BaseURL", "http://localhost:8080/api/v1")
	v.SetDefault("Client.Token", "")
	v.SetDefault("Client.RequestTimeoutSeconds", 15)
	v.SetDefault("Admin.Email", "")
	v.SetDefault("Admin.Password", "")
	v.SetDefault("LogLevel", "info")
}

// Validate checks the settings the API server cannot start without
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Draw.EligibilityDays < 1 {
		return errors.New("DRAW_ELIGIBILITYDAYS must be at least 1")
	}
	switch c.Draw.StoreMode {
	case StoreMongo, StoreMemory:
	default:
		return errors.New("DRAW_STOREMODE must be mongo or memory")
	}
	return nil
}

// EligibilityPeriod is the rolling window between two draws of one type
func (c *Config) EligibilityPeriod() time.Duration {
	return time.Duration(c.Draw.EligibilityDays) * 24 * time.Hour
}

// LockTTL bounds how long a draw latch can outlive a crashed request
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.Draw.LockTTLSeconds) * time.Second
}

// CatalogTTL is how long the active prize list stays cached
func (c *Config) CatalogTTL() time.Duration {
	return time.Duration(c.Draw.CatalogTTLSeconds) * time.Second
}

// TokenTTL is the lifetime of issued admin tokens
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.ExpiresIn) * time.Second
}

// RequestTimeout bounds a single draw request made by padelctl
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Client.RequestTimeoutSeconds) * time.Second
}
