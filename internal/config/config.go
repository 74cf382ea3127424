package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
		Seed            bool   `yaml:"seed" env:"DB_SEED"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Redis struct {
		Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED"`
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
		Channel  string `yaml:"channel" env:"REDIS_EVENTS_CHANNEL"`
	} `yaml:"redis"`

	Chat struct {
		EditWindow     string  `yaml:"edit_window" env:"CHAT_EDIT_WINDOW"`
		TypingTTL      string  `yaml:"typing_ttl" env:"CHAT_TYPING_TTL"`
		TypingDebounce string  `yaml:"typing_debounce" env:"CHAT_TYPING_DEBOUNCE"`
		TypingRate     float64 `yaml:"typing_rate" env:"CHAT_TYPING_RATE"`
		TypingBurst    int     `yaml:"typing_burst" env:"CHAT_TYPING_BURST"`
		PollInterval   string  `yaml:"poll_interval" env:"CHAT_POLL_INTERVAL"`
		SnapshotLimit  int     `yaml:"snapshot_limit" env:"CHAT_SNAPSHOT_LIMIT"`
	} `yaml:"chat"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED"`
		Path    string `yaml:"path" env:"METRICS_PATH"`
	} `yaml:"metrics"`
}

// LoadConfig loads configuration from defaults, an optional YAML file, an
// optional .env file and finally the process environment.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// .env only fills variables that are not already set in the environment
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "hubtc"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	config.JWT.AccessTokenExpiration = "12h"
	config.JWT.Issuer = "hubtc.intranet"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Redis.Addr = "localhost:6379"
	config.Redis.Channel = "hubtc:conversation-events"

	config.Chat.EditWindow = "15m"
	config.Chat.TypingTTL = "5s"
	config.Chat.TypingDebounce = "2s"
	config.Chat.TypingRate = 1
	config.Chat.TypingBurst = 3
	config.Chat.PollInterval = "3s"
	config.Chat.SnapshotLimit = 200

	config.Metrics.Enabled = true
	config.Metrics.Path = "/metrics"
}

func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	durations := map[string]string{
		"jwt.access_token_expiration": config.JWT.AccessTokenExpiration,
		"chat.edit_window":            config.Chat.EditWindow,
		"chat.typing_ttl":             config.Chat.TypingTTL,
		"chat.typing_debounce":        config.Chat.TypingDebounce,
		"chat.poll_interval":          config.Chat.PollInterval,
	}
	for key, value := range durations {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}

	if config.Chat.TypingRate <= 0 || config.Chat.TypingBurst <= 0 {
		return fmt.Errorf("chat.typing_rate and chat.typing_burst must be positive")
	}

	if config.Chat.SnapshotLimit <= 0 {
		return fmt.Errorf("chat.snapshot_limit must be positive")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// ChatTimings holds the parsed chat durations.
type ChatTimings struct {
	EditWindow     time.Duration
	TypingTTL      time.Duration
	TypingDebounce time.Duration
	PollInterval   time.Duration
}

// Timings parses the chat durations. LoadConfig has already validated them.
func (c *Config) Timings() ChatTimings {
	parse := func(s string) time.Duration {
		d, _ := time.ParseDuration(s)
		return d
	}
	return ChatTimings{
		EditWindow:     parse(c.Chat.EditWindow),
		TypingTTL:      parse(c.Chat.TypingTTL),
		TypingDebounce: parse(c.Chat.TypingDebounce),
		PollInterval:   parse(c.Chat.PollInterval),
	}
}
