// Package config loads and validates host bridge configuration.
package config

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/wireformat"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// validate is a package-level singleton; validators cache struct metadata.
var validate = validator.New()

// Config configures the bridge host.
type Config struct {
	// ModuleName is the WASM host module guests import bridge functions from.
	ModuleName string `yaml:"module_name" json:"module_name" validate:"required,excludesall=/" jsonschema:"default=bridge_host"`

	// LogLevel is the minimum zap level.
	LogLevel string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`

	// Allow lists path.Match patterns of boundaries guests may call.
	// Empty allows every boundary.
	Allow []string `yaml:"allow" json:"allow,omitempty" validate:"dive,required"`

	// MaxRequestSize limits a single guest request in bytes.
	MaxRequestSize uint32 `yaml:"max_request_size" json:"max_request_size" validate:"min=64" jsonschema:"default=1048576"`

	// InlineThreshold is the number of boundary calls a script call site
	// makes before switching to inlined calls. Zero disables inlining.
	InlineThreshold int `yaml:"inline_threshold" json:"inline_threshold" validate:"min=0" jsonschema:"default=8"`

	// Development enables human-readable logs and stack traces on warnings.
	Development bool `yaml:"development" json:"development,omitempty"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		ModuleName:      "bridge_host",
		LogLevel:        "info",
		MaxRequestSize:  1 << 20,
		InlineThreshold: 8,
	}
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !stdErrors.Is(err, io.EOF) {
		return Config{}, &errors.ConfigError{Err: fmt.Errorf("failed to parse yaml: %w", err)}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Validate checks the configuration against its validation tags.
// The first failing field is reported as a ConfigError.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if stdErrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &errors.ConfigError{
			Field: fe.Namespace(),
			Err:   fmt.Errorf("failed on %q rule", fe.Tag()),
		}
	}
	return &errors.ConfigError{Err: err}
}

// Level returns the parsed log level.
func (c Config) Level() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// NewLogger builds a zap logger for the configuration.
func (c Config) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(c.Level())
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// Schema returns the JSON schema of the configuration file.
func Schema() ([]byte, error) {
	return wireformat.Schema(&Config{})
}
