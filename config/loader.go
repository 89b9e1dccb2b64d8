package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. Config file (explicit path, SYMDIFF_CONFIG env, ./symdiff.yaml, ./symdiff.toml)
//  3. SYMDIFF_* environment variable overrides
//  4. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile returns the first config file found, or "".
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv("SYMDIFF_CONFIG"); envPath != "" {
		return envPath
	}
	for _, path := range []string{"symdiff.yaml", "symdiff.toml"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadFile decodes a YAML or TOML file on top of cfg, chosen by extension.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parsing TOML: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return nil
}

// applyEnvOverrides maps SYMDIFF_* variables onto config fields.
func applyEnvOverrides(cfg *Config) error {
	ints := map[string]*int{
		"SYMDIFF_DEPTH":          &cfg.Generator.Depth,
		"SYMDIFF_MAX_CONSTANT":   &cfg.Generator.MaxConstant,
		"SYMDIFF_MAX_EXPONENT":   &cfg.Generator.MaxExponent,
		"SYMDIFF_MAX_ITERATIONS": &cfg.Simplify.MaxIterations,
		"SYMDIFF_CACHE_SIZE":     &cfg.Simplify.CacheSize,
		"SYMDIFF_COUNT":          &cfg.Pipeline.Count,
		"SYMDIFF_WORKERS":        &cfg.Pipeline.Workers,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", key, v)
		}
		*dst = n
	}

	if v := os.Getenv("SYMDIFF_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SYMDIFF_SEED: invalid seed %q", v)
		}
		cfg.Generator.Seed = n
	}
	if v := os.Getenv("SYMDIFF_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SYMDIFF_TIMEOUT: %w", err)
		}
		cfg.Pipeline.Timeout = d
	}
	if v := os.Getenv("SYMDIFF_VARIABLE"); v != "" {
		cfg.Generator.Variable = v
	}
	if v := os.Getenv("SYMDIFF_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("SYMDIFF_LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	return nil
}
