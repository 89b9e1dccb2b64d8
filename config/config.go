// Package config holds the runtime configuration of the symdiff pipeline
// and command-line tool.
package config

import (
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Config is the top-level configuration.
type Config struct {
	Generator GeneratorConfig `yaml:"generator" toml:"generator"`
	Simplify  SimplifyConfig  `yaml:"simplify" toml:"simplify"`
	Pipeline  PipelineConfig  `yaml:"pipeline" toml:"pipeline"`
	Log       LogConfig       `yaml:"log" toml:"log"`
}

// GeneratorConfig controls random expression generation.
type GeneratorConfig struct {
	Depth          int     `yaml:"depth" toml:"depth" validate:"gte=0,lte=12"`
	Variable       string  `yaml:"variable" toml:"variable" validate:"symbol"`
	VariableWeight float64 `yaml:"variable_weight" toml:"variable_weight" validate:"gte=0,lte=1"`
	MaxConstant    int     `yaml:"max_constant" toml:"max_constant" validate:"gte=0"`
	MaxExponent    int     `yaml:"max_exponent" toml:"max_exponent" validate:"gte=1,lte=16"`
	// Seed makes runs reproducible; 0 picks a random seed.
	Seed uint64 `yaml:"seed" toml:"seed"`
}

// SimplifyConfig controls the fixed-point simplifier.
type SimplifyConfig struct {
	MaxIterations int `yaml:"max_iterations" toml:"max_iterations" validate:"gte=1"`
	// CacheSize is the number of simplified trees kept; 0 disables the cache.
	CacheSize int `yaml:"cache_size" toml:"cache_size" validate:"gte=0"`
}

// PipelineConfig controls batch runs.
type PipelineConfig struct {
	Count   int           `yaml:"count" toml:"count" validate:"gte=1,lte=10000"`
	Workers int           `yaml:"workers" toml:"workers" validate:"gte=1"`
	Timeout time.Duration `yaml:"timeout" toml:"timeout" validate:"gte=0"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" toml:"format" validate:"oneof=text json"`
}

// Defaults returns a Config with all defaults applied.
func Defaults() Config {
	return Config{
		Generator: GeneratorConfig{
			Depth:          3,
			Variable:       "x",
			VariableWeight: 0.5,
			MaxConstant:    9,
			MaxExponent:    3,
		},
		Simplify: SimplifyConfig{
			MaxIterations: 1000,
			CacheSize:     256,
		},
		Pipeline: PipelineConfig{
			Count:   10,
			Workers: 4,
			Timeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("symbol", validateSymbol); err != nil {
		panic("config: registering symbol validation: " + err.Error())
	}
}

// validateSymbol accepts exactly one rune.
func validateSymbol(fl validator.FieldLevel) bool {
	return utf8.RuneCountInString(fl.Field().String()) == 1
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	return validate.Struct(c)
}
