// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
	Database   DatabaseConfig   `toml:"database"`
	Library    LibraryConfig    `toml:"library"`
	Thumbnails ThumbnailsConfig `toml:"thumbnails"`
	Auth       AuthConfig       `toml:"auth"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

// LogConfig controls log format and optional rotated file output.
type LogConfig struct {
	File       string `toml:"file"`
	Format     string `toml:"format"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LibraryConfig struct {
	Root string `toml:"root"`
	// Series enables the parent/episode columns. Nil means enabled.
	Series *bool `toml:"series"`
}

// SeriesEnabled reports whether the episode schema should be applied.
func (l LibraryConfig) SeriesEnabled() bool {
	return l.Series == nil || *l.Series
}

type ThumbnailsConfig struct {
	Dir            string   `toml:"dir"`
	URLPrefix      string   `toml:"url_prefix"`
	Placeholder    string   `toml:"placeholder"`
	FFmpeg         string   `toml:"ffmpeg"`
	Seek           string   `toml:"seek"`
	Timeout        Duration `toml:"timeout"`
	PrewarmWorkers int      `toml:"prewarm_workers"`
}

type AuthConfig struct {
	// RootPassword seeds the root account on first boot. Empty generates one.
	RootPassword string `toml:"root_password"`
}

// Duration is a time.Duration that decodes from strings like "15s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Defaults returns a Config populated with default values.
func Defaults() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8585
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/mediacat.db"
	}
	if c.Library.Root == "" {
		c.Library.Root = "./media"
	}
	if c.Thumbnails.Dir == "" {
		c.Thumbnails.Dir = "./static/thumbs/videos"
	}
	if c.Thumbnails.URLPrefix == "" {
		c.Thumbnails.URLPrefix = "/static/thumbs/videos"
	}
	c.Thumbnails.URLPrefix = strings.TrimRight(c.Thumbnails.URLPrefix, "/")
	if c.Thumbnails.Placeholder == "" {
		c.Thumbnails.Placeholder = "/static/thumbs/file.png"
	}
	if c.Thumbnails.FFmpeg == "" {
		c.Thumbnails.FFmpeg = "ffmpeg"
	}
	if c.Thumbnails.Seek == "" {
		c.Thumbnails.Seek = "00:00:05"
	}
	if c.Thumbnails.Timeout.Duration == 0 {
		c.Thumbnails.Timeout.Duration = 15 * time.Second
	}
	if c.Thumbnails.PrewarmWorkers == 0 {
		c.Thumbnails.PrewarmWorkers = 2
	}
}

// Load reads, substitutes, parses, defaults and validates the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()

	cerr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cerr.HasErrors() {
		return nil, cerr
	}
	return &cfg, nil
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::([-?])([^}]*))?\}`)

// substituteEnvVars expands environment references and returns the names
// (or messages) of the ones that could not be resolved. Unresolved
// references are left in place.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		name, op, arg := parts[1], parts[2], parts[3]
		value, ok := os.LookupEnv(name)

		switch op {
		case "-":
			if !ok || value == "" {
				return arg
			}
			return value
		case "?":
			if !ok || value == "" {
				missing = append(missing, fmt.Sprintf("%s: %s", name, arg))
				return match
			}
			return value
		default:
			if !ok {
				missing = append(missing, name)
				return match
			}
			return value
		}
	})
	return out, missing
}
