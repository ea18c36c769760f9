package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix for environment overrides, e.g. DEVLOG_CALENDAR_TIMEZONE.
const EnvPrefix = "DEVLOG"

// Defaults for the challenge shown when no admin window is active.
const (
	DefaultRequiredDays = 7
	DefaultTotalDays    = 14
)

// Config holds the top-level devlog configuration.
type Config struct {
	User      UserConfig      `toml:"user"`
	Calendar  CalendarConfig  `toml:"calendar"`
	Streak    StreakConfig    `toml:"streak"`
	Challenge ChallengeConfig `toml:"challenge"`
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
}

// UserConfig identifies the local user for CLI commands that act "as me".
type UserConfig struct {
	ID   string `toml:"id" envconfig:"ID"`
	Name string `toml:"name" envconfig:"NAME"`
}

// CalendarConfig fixes the reference zone for every calendar-day comparison.
type CalendarConfig struct {
	Timezone string `toml:"timezone" envconfig:"TIMEZONE"`
}

type StreakConfig struct {
	// Policy is "strict" (a day without a post ends the streak at midnight)
	// or "grace" (the streak survives until the end of the following day).
	Policy string `toml:"policy" envconfig:"POLICY"`
	// NightlySweep recomputes every streak shortly after midnight when serving.
	NightlySweep *bool `toml:"nightly_sweep,omitempty" envconfig:"NIGHTLY_SWEEP"`
}

// SweepEnabled treats a missing value as enabled.
func (s StreakConfig) SweepEnabled() bool {
	if s.NightlySweep == nil {
		return true
	}
	return *s.NightlySweep
}

type ChallengeConfig struct {
	DefaultRequiredDays int `toml:"default_required_days" envconfig:"DEFAULT_REQUIRED_DAYS"`
	DefaultTotalDays    int `toml:"default_total_days" envconfig:"DEFAULT_TOTAL_DAYS"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver" envconfig:"DRIVER"` // sqlite, postgres
	URL    string `toml:"url" envconfig:"URL"`       // postgres connection string
}

type ServerConfig struct {
	Addr         string   `toml:"addr" envconfig:"ADDR"`
	ReadTimeout  Duration `toml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout Duration `toml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
}

type LogConfig struct {
	Level  string `toml:"level" envconfig:"LEVEL"`
	Format string `toml:"format" envconfig:"FORMAT"` // text, json
}

// Duration is a time.Duration that reads and writes as "5s" in TOML and env.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	d.Duration = v
	return nil
}

// Paths returns standard XDG-compliant paths.
type Paths struct {
	ConfigDir  string
	DataDir    string
	CacheDir   string
	StateDir   string
	ConfigFile string
	DBFile     string
}

// GetPaths returns the resolved paths, respecting XDG env vars.
func GetPaths() Paths {
	home, _ := os.UserHomeDir()

	configDir := envOr("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	dataDir := envOr("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	cacheDir := envOr("XDG_CACHE_HOME", filepath.Join(home, ".cache"))
	stateDir := envOr("XDG_STATE_HOME", filepath.Join(home, ".local", "state"))

	appConfig := filepath.Join(configDir, "devlog")
	appData := filepath.Join(dataDir, "devlog")

	return Paths{
		ConfigDir:  appConfig,
		DataDir:    appData,
		CacheDir:   filepath.Join(cacheDir, "devlog"),
		StateDir:   filepath.Join(stateDir, "devlog"),
		ConfigFile: filepath.Join(appConfig, "config.toml"),
		DBFile:     filepath.Join(appData, "devlog.db"),
	}
}

// EnsureDirs creates all required directories.
func (p Paths) EnsureDirs() error {
	dirs := []string{p.ConfigDir, p.DataDir, p.CacheDir, p.StateDir}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// Load reads config from disk on top of the defaults, then applies a local
// .env file (if any) and DEVLOG_* environment overrides.
func Load() (*Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("reading %s_* environment: %w", EnvPrefix, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads only the TOML file, without environment overrides. Used by
// `devlog config set` so env values are never written back to disk.
func LoadFile() (*Config, error) {
	paths := GetPaths()
	cfg := defaultConfig()

	data, err := os.ReadFile(paths.ConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", paths.ConfigFile, err)
	}
	return cfg, nil
}

// Save writes config to disk.
func Save(cfg *Config) error {
	paths := GetPaths()
	if err := paths.EnsureDirs(); err != nil {
		return err
	}

	f, err := os.Create(paths.ConfigFile)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Initialized returns true if a config file exists.
func Initialized() bool {
	paths := GetPaths()
	_, err := os.Stat(paths.ConfigFile)
	return err == nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
		return fmt.Errorf("calendar.timezone: unknown zone %q", c.Calendar.Timezone)
	}
	switch c.Streak.Policy {
	case "strict", "grace":
	default:
		return fmt.Errorf("streak.policy: %q is not one of strict, grace", c.Streak.Policy)
	}
	if c.Challenge.DefaultTotalDays < 1 {
		return fmt.Errorf("challenge.default_total_days must be at least 1, got %d", c.Challenge.DefaultTotalDays)
	}
	if c.Challenge.DefaultRequiredDays < 1 || c.Challenge.DefaultRequiredDays > c.Challenge.DefaultTotalDays {
		return fmt.Errorf("challenge.default_required_days must be between 1 and %d, got %d",
			c.Challenge.DefaultTotalDays, c.Challenge.DefaultRequiredDays)
	}
	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required when database.driver is postgres")
		}
	default:
		return fmt.Errorf("database.driver: %q is not one of sqlite, postgres", c.Database.Driver)
	}
	return nil
}

// BoolPtr returns a pointer to a bool value.
func BoolPtr(v bool) *bool {
	return &v
}

func defaultConfig() *Config {
	return &Config{
		User: UserConfig{
			Name: envOr("USER", ""),
		},
		Calendar: CalendarConfig{
			Timezone: "UTC",
		},
		Streak: StreakConfig{
			Policy:       "strict",
			NightlySweep: BoolPtr(true),
		},
		Challenge: ChallengeConfig{
			DefaultRequiredDays: DefaultRequiredDays,
			DefaultTotalDays:    DefaultTotalDays,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration{5 * time.Second},
			WriteTimeout: Duration{10 * time.Second},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
