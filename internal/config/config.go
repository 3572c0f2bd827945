package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/t77yq/floorwatch/internal/model"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// FLOORWATCH_NOTIFICATIONS_SOUND_ENABLED=false
const EnvPrefix = "FLOORWATCH"

// Config holds all floorwatch configuration
type Config struct {
	Monitor       MonitorConfig       `mapstructure:"monitor"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Audio         AudioConfig         `mapstructure:"audio"`
	Snapshot      SnapshotConfig      `mapstructure:"snapshot"`
	NATS          NATSConfig          `mapstructure:"nats"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// MonitorConfig defines the evaluation loop
type MonitorConfig struct {
	EvaluationInterval time.Duration `mapstructure:"evaluation_interval"`
	// Timezone names the location calendar days are counted in; empty means local time
	Timezone string `mapstructure:"timezone"`
}

// NotificationsConfig seeds the notification settings
type NotificationsConfig struct {
	Enabled      bool             `mapstructure:"enabled"`
	SoundEnabled bool             `mapstructure:"sound_enabled"`
	ShowBadge    bool             `mapstructure:"show_badge"`
	AutoHide     time.Duration    `mapstructure:"auto_hide"`
	Categories   CategoriesConfig `mapstructure:"categories"`
}

// CategoriesConfig toggles the rule families
type CategoriesConfig struct {
	Mesa    bool `mapstructure:"mesa"`
	Tiempo  bool `mapstructure:"tiempo"`
	Balance bool `mapstructure:"balance"`
}

// AudioConfig defines how cues are played. An empty command disables audio.
type AudioConfig struct {
	Command       []string `mapstructure:"command"`
	SampleRate    int      `mapstructure:"sample_rate"`
	RatePerSecond float64  `mapstructure:"rate_per_second"`
	Burst         int      `mapstructure:"burst"`
}

// SnapshotConfig defines the database the business state is read from
type SnapshotConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// NATSConfig defines the inbound floor event bridge
type NATSConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	URL            string        `mapstructure:"url"`
	Subject        string        `mapstructure:"subject"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`

	StatsSubject string `mapstructure:"stats_subject"`
	// StatsInterval is the stats heartbeat period; zero turns heartbeats off
	StatsInterval time.Duration `mapstructure:"stats_interval"`
}

// LoggingConfig defines logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NewViper creates a viper instance with defaults and environment overrides.
// When path is empty the config file is looked up as ./config/floorwatch.yaml
// or ./floorwatch.yaml.
func NewViper(path string) *viper.Viper {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("floorwatch")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetDefault("monitor.evaluation_interval", "30s")
	v.SetDefault("monitor.timezone", "")

	defaults := model.DefaultSettings()
	v.SetDefault("notifications.enabled", defaults.Enabled)
	v.SetDefault("notifications.sound_enabled", defaults.SoundEnabled)
	v.SetDefault("notifications.show_badge", defaults.ShowBadge)
	v.SetDefault("notifications.auto_hide", defaults.AutoHide.String())
	v.SetDefault("notifications.categories.mesa", defaults.Categories.Mesa)
	v.SetDefault("notifications.categories.tiempo", defaults.Categories.Tiempo)
	v.SetDefault("notifications.categories.balance", defaults.Categories.Balance)

	v.SetDefault("audio.command", []string{})
	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.rate_per_second", 2.0)
	v.SetDefault("audio.burst", 3)

	v.SetDefault("snapshot.driver", "sqlite3")
	v.SetDefault("snapshot.dsn", "floorwatch.db")

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.subject", "floor.events")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connect_timeout", "5s")
	v.SetDefault("nats.stats_subject", "floor.stats")
	v.SetDefault("nats.stats_interval", "15s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Read creates a viper instance and reads the config file. A missing file
// is not an error when no explicit path was given.
func Read(path string) (*viper.Viper, error) {
	v := NewViper(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Load reads and decodes the configuration
func Load(path string) (*Config, error) {
	v, err := Read(path)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}

// Decode unmarshals and validates the configuration held by v
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values viper cannot check by type
func (c *Config) Validate() error {
	if c.Monitor.EvaluationInterval < time.Second {
		return fmt.Errorf("invalid monitor.evaluation_interval %s: must be at least 1s", c.Monitor.EvaluationInterval)
	}
	if _, err := c.Monitor.Location(); err != nil {
		return err
	}
	if c.Notifications.AutoHide < 0 {
		return fmt.Errorf("invalid notifications.auto_hide %s: must not be negative", c.Notifications.AutoHide)
	}
	switch c.Snapshot.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported snapshot.driver %q", c.Snapshot.Driver)
	}
	if c.Audio.Burst < 0 || c.Audio.RatePerSecond < 0 {
		return fmt.Errorf("invalid audio rate limit %v/%d", c.Audio.RatePerSecond, c.Audio.Burst)
	}
	return nil
}

// Location resolves the configured timezone
func (c MonitorConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Settings converts the configured values to notification settings
func (c NotificationsConfig) Settings() model.Settings {
	return model.Settings{
		Enabled:      c.Enabled,
		SoundEnabled: c.SoundEnabled,
		ShowBadge:    c.ShowBadge,
		AutoHide:     c.AutoHide,
		Categories: model.CategoryToggles{
			Mesa:    c.Categories.Mesa,
			Tiempo:  c.Categories.Tiempo,
			Balance: c.Categories.Balance,
		},
	}
}

// Patch returns every configured value as a settings patch
func (c NotificationsConfig) Patch() model.SettingsPatch {
	s := c.Settings()
	return model.SettingsPatch{
		Enabled:      &s.Enabled,
		SoundEnabled: &s.SoundEnabled,
		ShowBadge:    &s.ShowBadge,
		AutoHide:     &s.AutoHide,
		Mesa:         &s.Categories.Mesa,
		Tiempo:       &s.Categories.Tiempo,
		Balance:      &s.Categories.Balance,
	}
}

// Watch calls onChange with the new configuration every time the config
// file changes. Invalid edits are logged and skipped.
func Watch(v *viper.Viper, logger *zap.Logger, onChange func(*Config)) {
	logger = logger.Named("config")

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := Decode(v)
		if err != nil {
			logger.Error("Failed to reload config",
				zap.String("file", e.Name),
				zap.Error(err))
			return
		}
		logger.Info("Config reloaded",
			zap.String("file", e.Name),
			zap.String("op", e.Op.String()))
		onChange(cfg)
	})
	v.WatchConfig()
}
