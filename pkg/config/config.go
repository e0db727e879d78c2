// Package config loads settings for a native messaging host from defaults,
// an optional TOML file and NMHOST_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"tarun-kavipurapu/native-messaging/pkg/logger"
	"tarun-kavipurapu/native-messaging/pkg/nativemsg"
)

type Config struct {
	LogLevel        string
	LogFile         string
	MaxIncoming     uint32
	MaxOutgoing     uint32
	MetricsInterval time.Duration
}

type fileConfig struct {
	LogLevel        string `toml:"log_level"`
	LogFile         string `toml:"log_file"`
	MaxIncoming     string `toml:"max_incoming"`
	MaxOutgoing     string `toml:"max_outgoing"`
	MetricsInterval string `toml:"metrics_interval"`
}

// Default uses Chrome's message size limits and logs to stderr at info.
func Default() Config {
	limits := nativemsg.ChromeLimits()
	return Config{
		LogLevel:    "info",
		MaxIncoming: limits.MaxIncoming,
		MaxOutgoing: limits.MaxOutgoing,
	}
}

// Limits returns the codec limits described by c.
func (c Config) Limits() nativemsg.Limits {
	return nativemsg.Limits{MaxIncoming: c.MaxIncoming, MaxOutgoing: c.MaxOutgoing}
}

// Load builds a Config. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_file") {
		cfg.LogFile = strings.TrimSpace(raw.LogFile)
	}
	if meta.IsDefined("max_incoming") {
		n, err := ParseSize(raw.MaxIncoming)
		if err != nil {
			return fmt.Errorf("parse max_incoming: %w", err)
		}
		cfg.MaxIncoming = n
	}
	if meta.IsDefined("max_outgoing") {
		n, err := ParseSize(raw.MaxOutgoing)
		if err != nil {
			return fmt.Errorf("parse max_outgoing: %w", err)
		}
		cfg.MaxOutgoing = n
	}
	if meta.IsDefined("metrics_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.MetricsInterval))
		if err != nil {
			return fmt.Errorf("parse metrics_interval: %w", err)
		}
		cfg.MetricsInterval = d
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := logger.LevelFromEnv(); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("NMHOST_LOG_FILE")); v != "" {
		cfg.LogFile = v
	}
	if v, ok := os.LookupEnv("NMHOST_MAX_INCOMING"); ok {
		n, err := ParseSize(v)
		if err != nil {
			return fmt.Errorf("parse NMHOST_MAX_INCOMING: %w", err)
		}
		cfg.MaxIncoming = n
	}
	if v, ok := os.LookupEnv("NMHOST_MAX_OUTGOING"); ok {
		n, err := ParseSize(v)
		if err != nil {
			return fmt.Errorf("parse NMHOST_MAX_OUTGOING: %w", err)
		}
		cfg.MaxOutgoing = n
	}
	return nil
}

// ParseSize parses a byte count such as "1048576", "1MiB" or "512KiB".
// Zero means unlimited.
func ParseSize(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	mult := uint64(1)
	switch {
	case strings.HasSuffix(s, "MiB"):
		mult, s = 1024*1024, strings.TrimSuffix(s, "MiB")
	case strings.HasSuffix(s, "KiB"):
		mult, s = 1024, strings.TrimSuffix(s, "KiB")
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, err
	}
	if n*mult > nativemsg.MaxFrameLen {
		return 0, fmt.Errorf("size %d exceeds %d", n*mult, uint64(nativemsg.MaxFrameLen))
	}
	return uint32(n * mult), nil
}
