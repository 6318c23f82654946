// Package config loads the dltctl YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/common"
	"github.com/huangweiliang/dlt-viewer-simplified/internal/dlt"
)

type LogConfig struct {
	Directory  string `yaml:"directory"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
}

type DecodeConfig struct {
	ResyncChunkSize int    `yaml:"resyncChunkSize"`
	BlockSize       int    `yaml:"blockSize"`
	StringEncoding  string `yaml:"stringEncoding"`
	// Timezone is an IANA zone name, "Local" or "UTC".
	Timezone string `yaml:"timezone"`
}

type CacheConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Directory string `yaml:"directory"`
}

type OutputConfig struct {
	Format string `yaml:"format"`
	Color  string `yaml:"color"`
}

type Config struct {
	Logs   LogConfig    `yaml:"logs"`
	Decode DecodeConfig `yaml:"decode"`
	Cache  CacheConfig  `yaml:"cache"`
	Output OutputConfig `yaml:"output"`
}

var (
	validFormats = map[string]bool{"table": true, "text": true, "ndjson": true, "json": true}
	validColors  = map[string]bool{"auto": true, "always": true, "never": true}
)

// Default is the configuration used when no file is given.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "dltctl")
	}
	return filepath.Join(".", ".dltctl-cache")
}

func (c *Config) applyDefaults() {
	if c.Logs.MaxSizeMB <= 0 {
		c.Logs.MaxSizeMB = 50
	}
	if c.Logs.MaxAgeDays <= 0 {
		c.Logs.MaxAgeDays = 14
	}
	if c.Logs.MaxBackups <= 0 {
		c.Logs.MaxBackups = 5
	}
	if c.Decode.ResyncChunkSize <= 0 {
		c.Decode.ResyncChunkSize = 4096
	}
	if c.Decode.StringEncoding == "" {
		c.Decode.StringEncoding = string(dlt.EncodingASCII)
	}
	if c.Decode.Timezone == "" {
		c.Decode.Timezone = "Local"
	}
	if c.Cache.Directory == "" {
		c.Cache.Directory = defaultCacheDir()
	}
	if c.Output.Format == "" {
		c.Output.Format = "table"
	}
	if c.Output.Color == "" {
		c.Output.Color = "auto"
	}
}

// Load reads the YAML file at path. Missing values take their defaults and
// relative directories are resolved against the file's directory.
func Load(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	baseDir := filepath.Dir(path)
	resolvePath := func(p string) string {
		p = strings.TrimSpace(p)
		if p == "" || filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Clean(filepath.Join(baseDir, p))
	}
	if cfg.Logs.Directory != "" {
		cfg.Logs.Directory = resolvePath(cfg.Logs.Directory)
	}
	if cfg.Cache.Directory != "" {
		cfg.Cache.Directory = resolvePath(cfg.Cache.Directory)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := dlt.ParseTextEncoding(c.Decode.StringEncoding); err != nil {
		return err
	}
	if _, err := c.location(); err != nil {
		return err
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("unsupported output format %q", c.Output.Format)
	}
	if !validColors[c.Output.Color] {
		return fmt.Errorf("unsupported color mode %q", c.Output.Color)
	}
	return nil
}

func (c Config) location() (*time.Location, error) {
	switch c.Decode.Timezone {
	case "", "Local", "local":
		return time.Local, nil
	default:
		loc, err := time.LoadLocation(c.Decode.Timezone)
		if err != nil {
			return nil, fmt.Errorf("timezone %q: %w", c.Decode.Timezone, err)
		}
		return loc, nil
	}
}

// DecodeOptions converts the decode section into decoder options.
func (c Config) DecodeOptions() (dlt.Options, error) {
	enc, err := dlt.ParseTextEncoding(c.Decode.StringEncoding)
	if err != nil {
		return dlt.Options{}, err
	}
	loc, err := c.location()
	if err != nil {
		return dlt.Options{}, err
	}
	return dlt.Options{
		Location:        loc,
		StringEncoding:  enc,
		ResyncChunkSize: c.Decode.ResyncChunkSize,
		BlockSize:       c.Decode.BlockSize,
	}, nil
}

func (c Config) Logging() common.LogConfig {
	return common.LogConfig{
		Directory:  c.Logs.Directory,
		MaxSizeMB:  c.Logs.MaxSizeMB,
		MaxAgeDays: c.Logs.MaxAgeDays,
		MaxBackups: c.Logs.MaxBackups,
		Compress:   c.Logs.Compress,
	}
}
