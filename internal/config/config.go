// Package config loads hubscan's runtime configuration from viper and
// validates it.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrInvalid is wrapped by every validation failure returned from Load.
var ErrInvalid = errors.New("invalid configuration")

// ColumnsConfig names the header columns of the interaction table.
type ColumnsConfig struct {
	Source string `mapstructure:"source" validate:"required"`
	Target string `mapstructure:"target" validate:"required,nefield=Source"`
	Score  string `mapstructure:"score"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=console json"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAge     int    `mapstructure:"max_age" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

// Config holds all runtime configuration for a hubscan run.
// Values are populated from .hubscan.toml, HUBSCAN_* env vars, and CLI flags.
type Config struct {
	Input       string        `mapstructure:"input"`
	Delimiter   string        `mapstructure:"delimiter" validate:"required"`
	Columns     ColumnsConfig `mapstructure:"columns"`
	MinScore    float64       `mapstructure:"min_score" validate:"gte=0"`
	RejectEmpty bool          `mapstructure:"reject_empty_ids"`
	Percentile  float64       `mapstructure:"percentile" validate:"gt=0,lt=1"`
	Workers     int           `mapstructure:"workers" validate:"gte=0"`
	Partitions  int           `mapstructure:"partitions" validate:"gte=0"`
	OutputDir   string        `mapstructure:"output_dir" validate:"required"`
	Bins        int           `mapstructure:"bins" validate:"gt=0,lte=1000"`
	DOT         bool          `mapstructure:"dot"`
	DBPath      string        `mapstructure:"db_path"`
	Telemetry   bool          `mapstructure:"telemetry"`
	MetricsFile string        `mapstructure:"metrics_file"`
	Log         LogConfig     `mapstructure:"log"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags, and validates the
// result.
func Load() (Config, error) {
	viper.SetDefault("input", "")
	viper.SetDefault("delimiter", "space")
	viper.SetDefault("columns.source", "protein1")
	viper.SetDefault("columns.target", "protein2")
	viper.SetDefault("columns.score", "combined_score")
	viper.SetDefault("min_score", 700)
	viper.SetDefault("reject_empty_ids", false)
	viper.SetDefault("percentile", 0.8)
	viper.SetDefault("workers", 0)
	viper.SetDefault("partitions", 0)
	viper.SetDefault("output_dir", "hubscan-out")
	viper.SetDefault("bins", 30)
	viper.SetDefault("dot", true)
	viper.SetDefault("db_path", "")
	viper.SetDefault("telemetry", false)
	viper.SetDefault("metrics_file", "")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.file", "")
	viper.SetDefault("log.max_size", 50)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age", 28)
	viper.SetDefault("log.compress", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and the delimiter spelling.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		return name
	})
	if err := v.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if _, err := c.DelimiterRune(); err != nil {
		return err
	}
	return nil
}

// DelimiterRune resolves the configured delimiter. The names "space", "tab",
// "comma", and "semicolon" are accepted alongside any single character.
func (c Config) DelimiterRune() (rune, error) {
	switch strings.ToLower(c.Delimiter) {
	case "space", " ":
		return ' ', nil
	case "tab", `\t`, "\t":
		return '\t', nil
	case "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	}
	if utf8.RuneCountInString(c.Delimiter) == 1 {
		r, _ := utf8.DecodeRuneInString(c.Delimiter)
		if r != '"' && r != '\r' && r != '\n' && r != utf8.RuneError {
			return r, nil
		}
	}
	return 0, fmt.Errorf("config: %w: delimiter %q", ErrInvalid, c.Delimiter)
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: validate: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return fmt.Errorf("config: %w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	// Namespace is "Config.log.level"; drop the root type name.
	_, key, _ := strings.Cut(e.Namespace(), ".")
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", key)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s (got %v)", key, e.Param(), e.Value())
	case "gt", "gte", "lt", "lte":
		return fmt.Sprintf("%s must be %s %s (got %v)", key, e.Tag(), e.Param(), e.Value())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", key, strings.ToLower(e.Param()))
	default:
		return fmt.Sprintf("%s is invalid", key)
	}
}
