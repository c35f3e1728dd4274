package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "DAILYBRIEF_CONFIG"
	telegramAPIURL  = "https://api.telegram.org"
)

// Config holds high-level settings required across the application.
type Config struct {
	Profile       ProfileConfig      `yaml:"profile"`
	Logging       LoggingConfig      `yaml:"logging"`
	Generation    GenerationConfig   `yaml:"generation"`
	Schedule      ScheduleConfig     `yaml:"schedule"`
	Redis         RedisConfig        `yaml:"redis"`
	Database      DatabaseConfig     `yaml:"database"`
	Notifications NotificationConfig `yaml:"notifications"`
	Metrics       MetricsConfig      `yaml:"metrics"`
	Sources       []SourceConfig     `yaml:"sources"`

	location *time.Location
}

// ProfileConfig identifies the single user the engine curates for.
type ProfileConfig struct {
	UserID   string `yaml:"user" env:"DAILYBRIEF_USER"`
	Timezone string `yaml:"timezone" env:"DAILYBRIEF_TIMEZONE"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// GenerationConfig tunes candidate gathering and exploration.
type GenerationConfig struct {
	Lookback         time.Duration `yaml:"lookback" env:"DAILYBRIEF_LOOKBACK"`
	FetchTimeout     time.Duration `yaml:"fetchTimeout" env:"DAILYBRIEF_FETCH_TIMEOUT"`
	FetchConcurrency int           `yaml:"fetchConcurrency" env:"DAILYBRIEF_FETCH_CONCURRENCY"`
	// ExplorationSeed makes exploration noise reproducible; zero seeds randomly.
	ExplorationSeed uint64 `yaml:"explorationSeed" env:"DAILYBRIEF_SEED"`
}

// ScheduleConfig defines when briefs are generated unattended.
type ScheduleConfig struct {
	Enabled        bool   `yaml:"enabled" env:"DAILYBRIEF_SCHEDULE_ENABLED"`
	CronExpression string `yaml:"cronExpression" env:"DAILYBRIEF_CRON"`
}

// RedisConfig describes the profile store; an empty address keeps profiles in memory.
type RedisConfig struct {
	Address   string `yaml:"address" env:"REDIS_ADDR"`
	Password  string `yaml:"password" env:"REDIS_PASSWORD"`
	DB        int    `yaml:"db" env:"REDIS_DB"`
	KeyPrefix string `yaml:"keyPrefix" env:"REDIS_KEY_PREFIX"`
}

// DatabaseConfig describes the brief history store; an empty DSN keeps history in memory.
type DatabaseConfig struct {
	DSN         string `yaml:"dsn" env:"DATABASE_DSN"`
	AutoMigrate bool   `yaml:"autoMigrate" env:"DATABASE_AUTO_MIGRATE"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken   string `yaml:"botToken" env:"TELEGRAM_BOT_TOKEN"`
	ChatID     string `yaml:"chatId" env:"TELEGRAM_CHAT_ID"`
	APIBaseURL string `yaml:"apiBaseUrl" env:"TELEGRAM_API_URL"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// MetricsConfig exposes Prometheus metrics when Address is set.
type MetricsConfig struct {
	Address string `yaml:"address" env:"METRICS_ADDR"`
}

// SourceConfig describes a single site with its scanner strategy.
type SourceConfig struct {
	Name              string            `yaml:"name"`
	Scanner           string            `yaml:"scanner"`
	ContentType       string            `yaml:"contentType"`
	URL               string            `yaml:"url"`
	Categories        []CategoryConfig  `yaml:"categories"`
	Options           map[string]string `yaml:"options"`
	RequestsPerSecond float64           `yaml:"requestsPerSecond"`
}

// CategoryConfig holds the concrete endpoints to crawl (e.g., arXiv category URLs).
type CategoryConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Location resolves the profile timezone to a time.Location.
func (c Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	return time.UTC
}

// Load reads .env, then the YAML file at path (or $DAILYBRIEF_CONFIG), then
// environment overrides, all on top of defaults.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := cfg.decode(raw); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}

	if err := cfg.bindTimezone(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) decode(raw []byte) error {
	defaults := c.Sources
	c.Sources = nil
	if err := yaml.Unmarshal(raw, c); err != nil {
		return err
	}
	if len(c.Sources) == 0 {
		c.Sources = defaults
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	sections := []any{
		&c.Profile,
		&c.Logging,
		&c.Generation,
		&c.Schedule,
		&c.Redis,
		&c.Database,
		&c.Notifications.Telegram,
		&c.Metrics,
	}
	for _, section := range sections {
		if err := env.Parse(section); err != nil {
			return fmt.Errorf("parse environment: %w", err)
		}
	}
	return nil
}

func (c *Config) bindTimezone() error {
	tz := c.Profile.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("unknown timezone %s: %w", tz, err)
	}
	c.location = loc
	return nil
}

// Persistent reports whether profiles and brief history outlive the process.
func (c Config) Persistent() bool {
	return c.Redis.Address != "" && c.Database.DSN != ""
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Profile.UserID) == "" {
		return errors.New("profile.user is required")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}

	if c.Generation.Lookback <= 0 {
		return errors.New("generation.lookback must be positive")
	}
	if c.Generation.FetchTimeout <= 0 {
		return errors.New("generation.fetchTimeout must be positive")
	}
	if c.Generation.FetchConcurrency < 0 {
		return errors.New("generation.fetchConcurrency must not be negative")
	}

	if c.Schedule.Enabled && strings.TrimSpace(c.Schedule.CronExpression) == "" {
		return errors.New("schedule.cronExpression is required when the schedule is enabled")
	}

	if len(c.Sources) == 0 {
		return errors.New("at least one source is required")
	}

	names := make(map[string]struct{}, len(c.Sources))
	for i, source := range c.Sources {
		if source.Name == "" {
			return fmt.Errorf("sources[%d].name is required", i)
		}
		if _, dup := names[source.Name]; dup {
			return fmt.Errorf("source %s is defined twice", source.Name)
		}
		names[source.Name] = struct{}{}

		if source.Scanner == "" {
			return fmt.Errorf("source %s: scanner is required", source.Name)
		}
		if source.URL == "" && len(source.Categories) == 0 {
			return fmt.Errorf("source %s: url or categories are required", source.Name)
		}
		if source.RequestsPerSecond < 0 {
			return fmt.Errorf("source %s: requestsPerSecond must not be negative", source.Name)
		}
	}

	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Profile: ProfileConfig{UserID: "default", Timezone: defaultTimezone},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Generation: GenerationConfig{
			Lookback:         24 * time.Hour,
			FetchTimeout:     15 * time.Second,
			FetchConcurrency: 4,
		},
		Schedule: ScheduleConfig{Enabled: false, CronExpression: "0 7 * * *"},
		Redis:    RedisConfig{KeyPrefix: "dailybrief:profile:"},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{APIBaseURL: telegramAPIURL},
		},
		Sources: []SourceConfig{
			{
				Name:        "arxiv-ai",
				Scanner:     "arxiv",
				ContentType: "article",
				Categories: []CategoryConfig{
					{Name: "cs.AI", URL: "https://export.arxiv.org/list/cs.AI/pastweek"},
				},
				RequestsPerSecond: 0.5,
			},
			{
				Name:        "hacker-news",
				Scanner:     "feed",
				ContentType: "forum_post",
				URL:         "https://hnrss.org/frontpage",
			},
			{
				Name:        "go-blog",
				Scanner:     "feed",
				ContentType: "article",
				URL:         "https://go.dev/blog/feed.atom",
			},
		},
		location: time.UTC,
	}
}
