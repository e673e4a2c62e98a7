package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Twitch   TwitchConfig   `mapstructure:"twitch"`
	Follows  FollowsConfig  `mapstructure:"follows"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Player   PlayerConfig   `mapstructure:"player"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// TwitchConfig holds API endpoints and credentials
type TwitchConfig struct {
	APIURL   string        `mapstructure:"api_url" validate:"required,url"`
	WebURL   string        `mapstructure:"web_url" validate:"required,url"` // Base for channel pages
	ClientID string        `mapstructure:"client_id"`
	Token    string        `mapstructure:"token"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// FollowsConfig selects whose follows are listed and how they are paged
type FollowsConfig struct {
	Username        string        `mapstructure:"username"`
	PageSize        int           `mapstructure:"page_size" validate:"gte=1,lte=100"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"gte=0"` // 0 disables periodic refresh
}

// DispatchConfig bounds background work
type DispatchConfig struct {
	MaxWorkers int `mapstructure:"max_workers" validate:"gte=1,lte=64"`
}

// PlayerConfig holds the stream player configuration
type PlayerConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// CacheConfig holds offline cache configuration
type CacheConfig struct {
	Dir      string `mapstructure:"dir"`
	Disabled bool   `mapstructure:"disabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level" validate:"omitempty,oneof=DEBUG INFO WARN WARNING ERROR debug info warn warning error"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Twitch: TwitchConfig{
			APIURL:  "https://api.twitch.tv/kraken",
			WebURL:  "https://www.twitch.tv",
			Timeout: 15 * time.Second,
		},
		Follows: FollowsConfig{
			PageSize:        25,
			RefreshInterval: 2 * time.Minute,
		},
		Dispatch: DispatchConfig{
			MaxWorkers: 8,
		},
		Player: PlayerConfig{
			Args: []string{},
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "favlive", "favlive.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "favlive", "favlive.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "favlive")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "favlive")
	}
}

// defaultCachePath returns the default cache directory for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "favlive", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "favlive", "cache")
	}
}

// setDefaults registers every key so environment overrides reach Unmarshal
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("twitch.api_url", cfg.Twitch.APIURL)
	v.SetDefault("twitch.web_url", cfg.Twitch.WebURL)
	v.SetDefault("twitch.client_id", cfg.Twitch.ClientID)
	v.SetDefault("twitch.token", cfg.Twitch.Token)
	v.SetDefault("twitch.timeout", cfg.Twitch.Timeout)

	v.SetDefault("follows.username", cfg.Follows.Username)
	v.SetDefault("follows.page_size", cfg.Follows.PageSize)
	v.SetDefault("follows.refresh_interval", cfg.Follows.RefreshInterval)

	v.SetDefault("dispatch.max_workers", cfg.Dispatch.MaxWorkers)

	v.SetDefault("player.command", cfg.Player.Command)
	v.SetDefault("player.args", cfg.Player.Args)

	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("cache.disabled", cfg.Cache.Disabled)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// Loader reads and writes configuration through one viper instance
type Loader struct {
	v   *viper.Viper
	dir string // Directory config.yaml is written to
}

// NewLoader creates a loader searching dirs, in order, for config.yaml.
// With no dirs it searches the OS config directory and the working
// directory, and writes to the former.
func NewLoader(dirs ...string) *Loader {
	if len(dirs) == 0 {
		dirs = []string{defaultConfigPath(), "."}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	// Environment variable overrides: FAVLIVE_TWITCH_CLIENT_ID -> twitch.client_id
	v.SetEnvPrefix("FAVLIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v, dir: dirs[0]}
}

// LoadConfig loads configuration from the default locations
func LoadConfig() (*Config, *Loader, error) {
	l := NewLoader()
	cfg, err := l.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, l, nil
}

// Load reads .env, the config file, and the environment, then validates
func (l *Loader) Load() (*Config, error) {
	// A .env file is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	cfg := DefaultConfig()
	setDefaults(l.v, cfg)

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints on cfg
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SaveUsername persists a new follows username. The previous value stays
// in effect when the file cannot be written.
func (l *Loader) SaveUsername(name string) error {
	prev := l.v.GetString("follows.username")
	l.v.Set("follows.username", strings.TrimSpace(name))
	if err := l.write(); err != nil {
		l.v.Set("follows.username", prev)
		return err
	}
	return nil
}

func (l *Loader) write() error {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(l.dir, "config.yaml")
	if err := l.v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetCachePath returns the default cache directory path
func GetCachePath() string {
	return defaultCachePath()
}
