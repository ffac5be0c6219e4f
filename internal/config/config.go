package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport modes
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Session backends
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BPBOT"

// Config represents the bot configuration
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Session  SessionConfig  `yaml:"session"`
	Backup   BackupConfig   `yaml:"backup"`
	History  HistoryConfig  `yaml:"history"`

	// AdminIDs is the static allow-list for administrative commands.
	AdminIDs []int64 `yaml:"admin_ids"`

	// Workers bounds how many identities are served in parallel.
	Workers int `yaml:"workers"`
}

// TelegramConfig configures the Bot API transport.
type TelegramConfig struct {
	Token         string        `yaml:"token"`
	APIURL        string        `yaml:"api_url"`
	Mode          string        `yaml:"mode"` // polling or webhook
	PollTimeout   time.Duration `yaml:"poll_timeout"`
	HTTPTimeout   time.Duration `yaml:"http_timeout"`
	RetryCount    int           `yaml:"retry_count"`
	WebhookListen string        `yaml:"webhook_listen"`
	WebhookPath   string        `yaml:"webhook_path"`
	WebhookURL    string        `yaml:"webhook_url"` // public URL registered with setWebhook
	WebhookSecret string        `yaml:"webhook_secret"`
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
	File   string `yaml:"file"`   // optional extra output path
}

// SessionConfig selects where in-flight forms live.
type SessionConfig struct {
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`
}

// RedisConfig configures the redis session backend.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// BackupConfig configures database snapshots.
type BackupConfig struct {
	Dir    string        `yaml:"dir"`
	MaxAge time.Duration `yaml:"max_age"`
}

// HistoryConfig configures read paths.
type HistoryConfig struct {
	RecentLimit int `yaml:"recent_limit"`
}

// Default returns a config with every field populated.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{
			APIURL:        "https://api.telegram.org",
			Mode:          ModePolling,
			PollTimeout:   30 * time.Second,
			HTTPTimeout:   45 * time.Second,
			RetryCount:    3,
			WebhookListen: ":8080",
			WebhookPath:   "/telegram/webhook",
		},
		Database: DatabaseConfig{Path: "data/bpbot.db"},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
		Session: SessionConfig{
			Backend: SessionMemory,
			TTL:     24 * time.Hour,
			Redis:   RedisConfig{Addr: "localhost:6379", KeyPrefix: "bpbot:form:"},
		},
		Backup:  BackupConfig{Dir: "backups", MaxAge: 7 * 24 * time.Hour},
		History: HistoryConfig{RecentLimit: 10},
		Workers: 4,
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. A missing file is not an error when path is empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.LoadFromEnv(EnvPrefix); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv overrides fields from PREFIX_* environment variables.
func (c *Config) LoadFromEnv(prefix string) error {
	if v := os.Getenv(prefix + "_TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv(prefix + "_TELEGRAM_MODE"); v != "" {
		c.Telegram.Mode = v
	}
	if v := os.Getenv(prefix + "_WEBHOOK_LISTEN"); v != "" {
		c.Telegram.WebhookListen = v
	}
	if v := os.Getenv(prefix + "_WEBHOOK_URL"); v != "" {
		c.Telegram.WebhookURL = v
	}
	if v := os.Getenv(prefix + "_WEBHOOK_SECRET"); v != "" {
		c.Telegram.WebhookSecret = v
	}
	if v := os.Getenv(prefix + "_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(prefix + "_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(prefix + "_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(prefix + "_SESSION_BACKEND"); v != "" {
		c.Session.Backend = v
	}
	if v := os.Getenv(prefix + "_REDIS_ADDR"); v != "" {
		c.Session.Redis.Addr = v
	}
	if v := os.Getenv(prefix + "_REDIS_PASSWORD"); v != "" {
		c.Session.Redis.Password = v
	}
	if v := os.Getenv(prefix + "_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s_REDIS_DB %q: %w", prefix, v, err)
		}
		c.Session.Redis.DB = n
	}
	if v := os.Getenv(prefix + "_ADMIN_IDS"); v != "" {
		ids, err := ParseIDList(v)
		if err != nil {
			return fmt.Errorf("invalid %s_ADMIN_IDS: %w", prefix, err)
		}
		c.AdminIDs = ids
	}
	return nil
}

// ParseIDList parses a comma separated list of integer identity IDs.
func ParseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Validate checks settings needed to serve traffic.
func (c *Config) Validate() error {
	var errs []error

	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram.token is required"))
	}
	switch c.Telegram.Mode {
	case ModePolling:
		if c.Telegram.HTTPTimeout <= c.Telegram.PollTimeout {
			errs = append(errs, fmt.Errorf("telegram.http_timeout (%s) must exceed telegram.poll_timeout (%s)",
				c.Telegram.HTTPTimeout, c.Telegram.PollTimeout))
		}
	case ModeWebhook:
		if c.Telegram.WebhookPath == "" || !strings.HasPrefix(c.Telegram.WebhookPath, "/") {
			errs = append(errs, fmt.Errorf("telegram.webhook_path must start with /, got %q", c.Telegram.WebhookPath))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown telegram.mode %q", c.Telegram.Mode))
	}
	switch c.Session.Backend {
	case SessionMemory, SessionRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown session.backend %q", c.Session.Backend))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.History.RecentLimit <= 0 {
		errs = append(errs, fmt.Errorf("history.recent_limit must be positive, got %d", c.History.RecentLimit))
	}

	return errors.Join(errs...)
}
