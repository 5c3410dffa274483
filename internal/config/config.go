// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned by Validate for out-of-range values.
var ErrInvalidConfig = errors.New("invalid configuration")

// Store drivers accepted by StoreConfig.Driver.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds all application configuration.
type Config struct {
	Game     GameConfig     `mapstructure:"game"`
	Layout   LayoutConfig   `mapstructure:"layout"`
	Driver   DriverConfig   `mapstructure:"driver"`
	Input    InputConfig    `mapstructure:"input"`
	Audio    AudioConfig    `mapstructure:"audio"`
	Assets   AssetsConfig   `mapstructure:"assets"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Bot      BotConfig      `mapstructure:"bot"`
	Log      LogConfig      `mapstructure:"log"`
}

// GameConfig holds the wager economy settings.
type GameConfig struct {
	InitialCoins  int64         `mapstructure:"initial_coins"`
	BetAmount     int64         `mapstructure:"bet_amount"`
	ClearCoins    int64         `mapstructure:"clear_coins"`
	FeverTurns    int           `mapstructure:"fever_turns"`
	FlashDuration time.Duration `mapstructure:"flash_duration"`
	StripLength   int           `mapstructure:"strip_length"`
	Seed          uint64        `mapstructure:"seed"`
	Preload       bool          `mapstructure:"preload"`
}

// LayoutConfig holds the cabinet geometry exposed to renderers.
type LayoutConfig struct {
	CanvasWidth  float64 `mapstructure:"canvas_width"`
	CanvasHeight float64 `mapstructure:"canvas_height"`
	ReelWidth    float64 `mapstructure:"reel_width"`
	ReelHeight   float64 `mapstructure:"reel_height"`
	ReelGap      float64 `mapstructure:"reel_gap"`
	SymbolSize   float64 `mapstructure:"symbol_size"`
}

// DriverConfig holds frame driver settings.
type DriverConfig struct {
	TickRate    int `mapstructure:"tick_rate"`
	InputBuffer int `mapstructure:"input_buffer"`
}

// InputConfig holds terminal input settings.
type InputConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// AudioConfig holds cue player settings.
type AudioConfig struct {
	Workers int  `mapstructure:"workers"`
	Bell    bool `mapstructure:"bell"`
}

// AssetsConfig holds the text-art asset location.
type AssetsConfig struct {
	Dir string `mapstructure:"dir"`
}

// StoreConfig selects the high score backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Key    string `mapstructure:"key"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// HTTPConfig holds the optional status server configuration.
type HTTPConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// BotConfig holds Telegram bot configuration.
// An empty token disables the bot.
type BotConfig struct {
	Token string  `mapstructure:"token"`
	Chats []int64 `mapstructure:"chats"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. GAME_BET_AMOUNT, STORE_DRIVER, BOT_TOKEN
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Economy
	v.SetDefault("game.initial_coins", 100)
	v.SetDefault("game.bet_amount", 10)
	v.SetDefault("game.clear_coins", 1000)
	v.SetDefault("game.fever_turns", 5)
	v.SetDefault("game.flash_duration", "500ms")
	v.SetDefault("game.strip_length", 20)
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.preload", true)

	// Cabinet geometry
	v.SetDefault("layout.canvas_width", 800)
	v.SetDefault("layout.canvas_height", 600)
	v.SetDefault("layout.reel_width", 120)
	v.SetDefault("layout.reel_height", 300)
	v.SetDefault("layout.reel_gap", 20)
	v.SetDefault("layout.symbol_size", 100)

	v.SetDefault("driver.tick_rate", 60)
	v.SetDefault("driver.input_buffer", 8)

	v.SetDefault("input.enabled", true)
	v.SetDefault("input.debounce", "150ms")

	v.SetDefault("audio.workers", 4)
	v.SetDefault("audio.bell", false)

	v.SetDefault("assets.dir", "assets")

	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.key", "highScore")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "slot")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "slot")
	v.SetDefault("database.pool_size", 4)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	v.SetDefault("http.enabled", false)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.cors_origins", []string{"*"})

	// Unset keys must still have defaults for AutomaticEnv to reach them on Unmarshal
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.chats", []int64{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
}

// Validate checks value ranges that would break the game economy or the driver.
func (c *Config) Validate() error {
	switch {
	case c.Game.InitialCoins <= 0:
		return fmt.Errorf("%w: game.initial_coins must be positive", ErrInvalidConfig)
	case c.Game.BetAmount <= 0:
		return fmt.Errorf("%w: game.bet_amount must be positive", ErrInvalidConfig)
	case c.Game.ClearCoins <= c.Game.InitialCoins:
		return fmt.Errorf("%w: game.clear_coins must exceed game.initial_coins", ErrInvalidConfig)
	case c.Game.FeverTurns < 0:
		return fmt.Errorf("%w: game.fever_turns must not be negative", ErrInvalidConfig)
	case c.Game.StripLength <= 0:
		return fmt.Errorf("%w: game.strip_length must be positive", ErrInvalidConfig)
	case c.Layout.SymbolSize <= 0:
		return fmt.Errorf("%w: layout.symbol_size must be positive", ErrInvalidConfig)
	case c.Driver.TickRate <= 0:
		return fmt.Errorf("%w: driver.tick_rate must be positive", ErrInvalidConfig)
	}

	switch c.Store.Driver {
	case StoreMemory, StorePostgres, StoreRedis:
	default:
		return fmt.Errorf("%w: unknown store.driver %q", ErrInvalidConfig, c.Store.Driver)
	}
	return nil
}

// FrameInterval returns the wall-clock duration of one frame.
func (d DriverConfig) FrameInterval() time.Duration {
	return time.Second / time.Duration(d.TickRate)
}

// IsChatAllowed checks if a chat ID is in the bot whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Bot.Chats) == 0 {
		return true
	}
	for _, id := range c.Bot.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
