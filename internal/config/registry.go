package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// KeyType represents the data type of a config key.
type KeyType string

const (
	KeyTypeString KeyType = "string"
	KeyTypeInt    KeyType = "int"
	KeyTypeBool   KeyType = "bool"
)

// KeyEntry describes a known, settable config key.
type KeyEntry struct {
	// Type is the value's data type (string, int, bool).
	Type KeyType
	// Desc is a human-readable description shown in `devlog config list`.
	Desc string
	// DefaultStr is the string representation of the default/zero value.
	DefaultStr string

	// get returns the current value as a string.
	get func(*Config) string
	// set validates and applies the value to cfg, returning an error on type mismatch.
	set func(cfg *Config, value string) error
	// unset resets the key to its schema default.
	unset func(cfg *Config)
}

// Get returns the current value of the key as a string.
func (e *KeyEntry) Get(cfg *Config) string { return e.get(cfg) }

// Set validates and sets the value, returning a descriptive error on type mismatch.
func (e *KeyEntry) Set(cfg *Config, value string) error { return e.set(cfg, value) }

// Unset resets the key to its schema default.
func (e *KeyEntry) Unset(cfg *Config) { e.unset(cfg) }

// SchemaKeys is the authoritative registry of all settable config keys.
// Keys use dot-notation matching the TOML section structure.
var SchemaKeys = map[string]*KeyEntry{
	"user.id": {
		Type:       KeyTypeString,
		Desc:       "User ID that CLI commands act as (overridable with --user)",
		DefaultStr: "",
		get:        func(cfg *Config) string { return cfg.User.ID },
		set:        func(cfg *Config, v string) error { cfg.User.ID = v; return nil },
		unset:      func(cfg *Config) { cfg.User.ID = "" },
	},
	"user.name": {
		Type:       KeyTypeString,
		Desc:       "Display name",
		DefaultStr: "",
		get:        func(cfg *Config) string { return cfg.User.Name },
		set:        func(cfg *Config, v string) error { cfg.User.Name = v; return nil },
		unset:      func(cfg *Config) { cfg.User.Name = "" },
	},
	"calendar.timezone": {
		Type:       KeyTypeString,
		Desc:       "Reference time zone for calendar days (IANA name, e.g. Asia/Seoul)",
		DefaultStr: "UTC",
		get:        func(cfg *Config) string { return cfg.Calendar.Timezone },
		set: func(cfg *Config, v string) error {
			if _, err := time.LoadLocation(v); err != nil {
				return fmt.Errorf("unknown time zone %q", v)
			}
			cfg.Calendar.Timezone = v
			return nil
		},
		unset: func(cfg *Config) { cfg.Calendar.Timezone = "UTC" },
	},
	"streak.policy": {
		Type:       KeyTypeString,
		Desc:       "Streak policy: strict (reset at midnight) or grace (one-day grace)",
		DefaultStr: "strict",
		get:        func(cfg *Config) string { return cfg.Streak.Policy },
		set: func(cfg *Config, v string) error {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != "strict" && v != "grace" {
				return fmt.Errorf("invalid value %q for streak.policy (use strict or grace)", v)
			}
			cfg.Streak.Policy = v
			return nil
		},
		unset: func(cfg *Config) { cfg.Streak.Policy = "strict" },
	},
	"streak.nightly_sweep": {
		Type:       KeyTypeBool,
		Desc:       "Recompute all streaks after midnight while serving",
		DefaultStr: "true",
		get:        func(cfg *Config) string { return fmt.Sprintf("%t", cfg.Streak.SweepEnabled()) },
		set: func(cfg *Config, v string) error {
			b, err := ParseBoolValue(v)
			if err != nil {
				return fmt.Errorf("invalid value %q for streak.nightly_sweep: %w", v, err)
			}
			cfg.Streak.NightlySweep = BoolPtr(b)
			return nil
		},
		unset: func(cfg *Config) { cfg.Streak.NightlySweep = BoolPtr(true) },
	},
	"challenge.default_required_days": {
		Type:       KeyTypeInt,
		Desc:       "Required days shown when no challenge is active",
		DefaultStr: strconv.Itoa(DefaultRequiredDays),
		get:        func(cfg *Config) string { return strconv.Itoa(cfg.Challenge.DefaultRequiredDays) },
		set: func(cfg *Config, v string) error {
			n, err := parsePositiveInt(v)
			if err != nil {
				return fmt.Errorf("invalid value %q for challenge.default_required_days: %w", v, err)
			}
			cfg.Challenge.DefaultRequiredDays = n
			return nil
		},
		unset: func(cfg *Config) { cfg.Challenge.DefaultRequiredDays = DefaultRequiredDays },
	},
	"challenge.default_total_days": {
		Type:       KeyTypeInt,
		Desc:       "Total days shown when no challenge is active",
		DefaultStr: strconv.Itoa(DefaultTotalDays),
		get:        func(cfg *Config) string { return strconv.Itoa(cfg.Challenge.DefaultTotalDays) },
		set: func(cfg *Config, v string) error {
			n, err := parsePositiveInt(v)
			if err != nil {
				return fmt.Errorf("invalid value %q for challenge.default_total_days: %w", v, err)
			}
			cfg.Challenge.DefaultTotalDays = n
			return nil
		},
		unset: func(cfg *Config) { cfg.Challenge.DefaultTotalDays = DefaultTotalDays },
	},
	"database.driver": {
		Type:       KeyTypeString,
		Desc:       "Storage backend: sqlite or postgres",
		DefaultStr: "sqlite",
		get:        func(cfg *Config) string { return cfg.Database.Driver },
		set: func(cfg *Config, v string) error {
			if v != "sqlite" && v != "postgres" {
				return fmt.Errorf("invalid value %q for database.driver (use sqlite or postgres)", v)
			}
			cfg.Database.Driver = v
			return nil
		},
		unset: func(cfg *Config) { cfg.Database.Driver = "sqlite" },
	},
	"database.url": {
		Type:       KeyTypeString,
		Desc:       "Postgres connection string",
		DefaultStr: "",
		get:        func(cfg *Config) string { return cfg.Database.URL },
		set:        func(cfg *Config, v string) error { cfg.Database.URL = v; return nil },
		unset:      func(cfg *Config) { cfg.Database.URL = "" },
	},
	"server.addr": {
		Type:       KeyTypeString,
		Desc:       "Listen address for `devlog serve`",
		DefaultStr: ":8080",
		get:        func(cfg *Config) string { return cfg.Server.Addr },
		set:        func(cfg *Config, v string) error { cfg.Server.Addr = v; return nil },
		unset:      func(cfg *Config) { cfg.Server.Addr = ":8080" },
	},
	"log.level": {
		Type:       KeyTypeString,
		Desc:       "Log level (debug, info, warn, error)",
		DefaultStr: "info",
		get:        func(cfg *Config) string { return cfg.Log.Level },
		set:        func(cfg *Config, v string) error { cfg.Log.Level = v; return nil },
		unset:      func(cfg *Config) { cfg.Log.Level = "info" },
	},
	"log.format": {
		Type:       KeyTypeString,
		Desc:       "Log format (text, json)",
		DefaultStr: "text",
		get:        func(cfg *Config) string { return cfg.Log.Format },
		set: func(cfg *Config, v string) error {
			if v != "text" && v != "json" {
				return fmt.Errorf("invalid value %q for log.format (use text or json)", v)
			}
			cfg.Log.Format = v
			return nil
		},
		unset: func(cfg *Config) { cfg.Log.Format = "text" },
	},
}

// ValidKeyNames returns the sorted list of all known config key names.
func ValidKeyNames() []string {
	names := make([]string, 0, len(SchemaKeys))
	for k := range SchemaKeys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LookupKey returns the KeyEntry for a known config key.
func LookupKey(key string) (*KeyEntry, bool) {
	entry, ok := SchemaKeys[key]
	return entry, ok
}

// ParseBoolValue accepts common boolean string representations.
// Valid truthy values: true, 1, yes, on.
// Valid falsy values: false, 0, no, off.
func ParseBoolValue(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean: %q (use one of: true/false, 1/0, yes/no, on/off)", s)
	}
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if n < 1 {
		return 0, fmt.Errorf("must be at least 1")
	}
	return n, nil
}
