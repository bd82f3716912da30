// Runtime configuration for the library and the command line tool
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lingtianyulong/img-proc/internal/core"
)

// Environment variables read by FromEnv
const (
	EnvDebug        = "IMGPROC_DEBUG"
	EnvWorkers      = "IMGPROC_WORKERS"
	EnvMaxDimension = "IMGPROC_MAX_DIMENSION"
	EnvLogFormat    = "IMGPROC_LOG_FORMAT"
)

// Log formats
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config holds settings shared by the C library and the CLI
type Config struct {
	Debug        bool
	Workers      int    // 0 means GOMAXPROCS
	MaxDimension int    // largest accepted width or height
	LogFormat    string // "json" or "text"; empty picks text in debug mode
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		MaxDimension: core.DefaultMaxDimension,
	}
}

// FromEnv overlays environment variables on the defaults
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup(EnvDebug); ok {
		debug, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvDebug, err)
		}
		cfg.Debug = debug
	}
	if v, ok := lookup(EnvWorkers); ok {
		workers, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		cfg.Workers = workers
	}
	if v, ok := lookup(EnvMaxDimension); ok {
		maxDim, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvMaxDimension, err)
		}
		cfg.MaxDimension = maxDim
	}
	if v, ok := lookup(EnvLogFormat); ok {
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(v))
	}

	return cfg, cfg.Validate()
}

// RegisterFlags binds the fields to command line flags, using the current values as defaults
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Enable debug mode with verbose logging")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Worker goroutines for pixel-parallel algorithms (0 = GOMAXPROCS)")
	fs.IntVar(&c.MaxDimension, "max-dimension", c.MaxDimension, "Largest accepted image width or height")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: json or text")
}

// Validate checks value ranges
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MaxDimension <= 0 {
		return fmt.Errorf("max dimension must be positive, got %d", c.MaxDimension)
	}
	switch c.LogFormat {
	case "", FormatJSON, FormatText:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}
