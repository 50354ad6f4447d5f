// Package config provides configuration management for the strategy analyzer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"options-strategist/internal/errors"
	"options-strategist/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Model  models.ModelParameters `mapstructure:"model"`
	Market MarketConfig           `mapstructure:"market"`
	Store  StoreConfig            `mapstructure:"store"`
	Server ServerConfig           `mapstructure:"server"`
	Log    LogConfig              `mapstructure:"log"`
	UI     UIConfig               `mapstructure:"ui"`

	Dir string `mapstructure:"-"`
}

// MarketConfig holds the market inputs of a fresh strategy.
type MarketConfig struct {
	UnderlyingPrice float64 `mapstructure:"underlying_price"`
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"` // relative paths resolve against the config dir
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
	Path    string `mapstructure:"path"`
}

// UIConfig holds terminal output configuration.
type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled"`
	Decimals     int  `mapstructure:"decimals"`
	ChartWidth   int  `mapstructure:"chart_width"`
	ChartHeight  int  `mapstructure:"chart_height"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-strategist"
	}
	return filepath.Join(home, ".config", "options-strategist")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if configDir == "" {
		configDir = os.Getenv("STRATEGIST_CONFIG_DIR")
	}
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{Dir: configDir}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration without touching the filesystem.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{Dir: DefaultConfigDir()}
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model.time_to_expiry_days", 30.0)
	v.SetDefault("model.risk_free_rate_percent", 5.0)
	v.SetDefault("model.volatility_percent", 20.0)

	v.SetDefault("market.underlying_price", 100.0)

	v.SetDefault("store.path", "strategies.db")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.file", false)
	v.SetDefault("log.path", "")

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.decimals", 2)
	v.SetDefault("ui.chart_width", 72)
	v.SetDefault("ui.chart_height", 20)
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		// Config file not found, create template and run on defaults
		if err := createTemplateConfig(configDir, name); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STRATEGIST_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("STRATEGIST_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("STRATEGIST_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v, err := strconv.Atoi(os.Getenv("STRATEGIST_PORT")); err == nil {
		cfg.Server.Port = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("STRATEGIST_VOLATILITY"), 64); err == nil {
		cfg.Model.VolatilityPercent = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("STRATEGIST_RISK_FREE_RATE"), 64); err == nil {
		cfg.Model.RiskFreeRatePercent = v
	}
	if os.Getenv("NO_COLOR") != "" {
		cfg.UI.ColorEnabled = false
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Model.TimeToExpiryDays < 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "model.time_to_expiry_days must be non-negative")
	}
	if c.Model.VolatilityPercent < 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "model.volatility_percent must be non-negative")
	}
	if c.Market.UnderlyingPrice < 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "market.underlying_price must be non-negative")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.Wrapf(errors.ErrConfigInvalid, "server.port %d out of range", c.Server.Port)
	}
	if c.UI.Decimals < 0 || c.UI.Decimals > 8 {
		return errors.Wrap(errors.ErrConfigInvalid, "ui.decimals must be between 0 and 8")
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.Wrapf(errors.ErrConfigInvalid, "log.level %q (must be debug, info, warn or error)", c.Log.Level)
	}
	return nil
}

// DBPath returns the absolute database path.
func (c *Config) DBPath() string {
	if filepath.IsAbs(c.Store.Path) || c.Dir == "" {
		return c.Store.Path
	}
	return filepath.Join(c.Dir, c.Store.Path)
}

// LogPath returns the log file path.
func (c *Config) LogPath() string {
	if c.Log.Path != "" {
		return c.Log.Path
	}
	return filepath.Join(c.Dir, "logs", "strategist.log")
}

// Addr returns the listen address of the HTTP API.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
