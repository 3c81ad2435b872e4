package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Env      string `toml:"env"`
	Port     string `toml:"port"`
	LogLevel string `toml:"log_level"`

	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	AMQP     AMQPConfig     `toml:"amqp"`
	Ledger   LedgerConfig   `toml:"ledger"`
}

// DatabaseConfig selects and addresses the relational store.
type DatabaseConfig struct {
	Driver     string `toml:"driver"` // postgres or sqlite
	Host       string `toml:"host"`
	Port       string `toml:"port"`
	User       string `toml:"user"`
	Password   string `toml:"password"`
	Name       string `toml:"name"`
	SSLMode    string `toml:"sslmode"`
	SQLitePath string `toml:"sqlite_path"`
}

// AuthConfig holds token settings.
type AuthConfig struct {
	JWTSecret      string        `toml:"jwt_secret"`
	JWTExpiration  time.Duration `toml:"-"`
	JWTExpiresIn   string        `toml:"jwt_expires_in"`
	InternalAPIKey string        `toml:"internal_api_key"`
}

// AMQPConfig configures ledger event publication. An empty URL disables it.
type AMQPConfig struct {
	URL      string `toml:"url"`
	Exchange string `toml:"exchange"`
}

// LedgerConfig holds ledger engine settings.
type LedgerConfig struct {
	DefaultCurrency      string `toml:"default_currency"`
	ReconcileConcurrency int    `toml:"reconcile_concurrency"`
}

var appConfig *Config

// Default returns the built-in configuration used before any file or
// environment overrides are applied.
func Default() *Config {
	return &Config{
		Env:      "development",
		Port:     "8080",
		LogLevel: "info",
		Database: DatabaseConfig{
			Driver:     "postgres",
			Host:       "localhost",
			Port:       "5432",
			User:       "financehub",
			Password:   "financehub",
			Name:       "financehub",
			SSLMode:    "disable",
			SQLitePath: "financehub.db",
		},
		Auth: AuthConfig{
			JWTSecret:    "fallback-secret-key-for-dev-only",
			JWTExpiresIn: "24h",
		},
		AMQP: AMQPConfig{
			Exchange: "financehub.ledger",
		},
		Ledger: LedgerConfig{
			DefaultCurrency:      "USD",
			ReconcileConcurrency: 4,
		},
	}
}

// Load builds the configuration from defaults, an optional TOML file named
// by LEDGER_CONFIG, the .env file, and finally environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := Default()

	if path := os.Getenv("LEDGER_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, config); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	applyEnv(config)

	expDur, err := time.ParseDuration(config.Auth.JWTExpiresIn)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", config.Auth.JWTExpiresIn)
		expDur = 24 * time.Hour
	}
	config.Auth.JWTExpiration = expDur

	if config.Ledger.ReconcileConcurrency < 1 {
		config.Ledger.ReconcileConcurrency = 1
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Set replaces the global configuration. Used by tests and tools that
// construct a Config directly.
func Set(c *Config) {
	appConfig = c
}

func applyEnv(c *Config) {
	c.Env = getEnv("ENV", c.Env)
	c.Port = getEnv("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.SQLitePath = getEnv("SQLITE_PATH", c.Database.SQLitePath)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.JWTExpiresIn = getEnv("JWT_EXPIRES_IN", c.Auth.JWTExpiresIn)
	c.Auth.InternalAPIKey = getEnv("INTERNAL_API_KEY", c.Auth.InternalAPIKey)

	c.AMQP.URL = getEnv("AMQP_URL", c.AMQP.URL)
	c.AMQP.Exchange = getEnv("AMQP_EXCHANGE", c.AMQP.Exchange)

	c.Ledger.DefaultCurrency = getEnv("DEFAULT_CURRENCY", c.Ledger.DefaultCurrency)
	if v := os.Getenv("RECONCILE_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Ledger.ReconcileConcurrency = n
		} else {
			log.Printf("Warning: invalid RECONCILE_CONCURRENCY value '%s', keeping %d\n", v, c.Ledger.ReconcileConcurrency)
		}
	}
}

// PostgresURL returns the URL form of the PostgreSQL DSN used by golang-migrate.
func (d DatabaseConfig) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// PostgresDSN returns the keyword/value DSN used by the gorm postgres driver.
func (d DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
