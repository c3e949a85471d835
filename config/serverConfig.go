// Package config reads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"fortio.org/struct2env"
	"github.com/go-playground/validator/v10"
)

const (
	// DefaultPort is used when PORT is absent or unusable.
	DefaultPort = 5000

	// envPrefix is empty: the variables are plain PORT and METRICS_PORT.
	envPrefix = ""
)

var (
	// ErrEmptyRoot is returned when the document root can't be determined.
	ErrEmptyRoot = errors.New("document root cannot be empty")
	// ErrBadRoot is returned when the document root is not a directory.
	ErrBadRoot = errors.New("document root must be an existing directory")
)

// ServerConfig is the immutable configuration of the server.
type ServerConfig struct {
	Port        int    `validate:"min=1,max=65535"`
	MetricsPort int    `validate:"omitempty,min=1,max=65535"`
	Root        string `validate:"required,dir"`
}

// envNames are the variables read into envConfig.
var envNames = []string{"PORT", "METRICS_PORT"}

// envConfig holds the fields that may be overridden from the environment.
// Field names map to PORT and METRICS_PORT.
type envConfig struct {
	Port        int
	MetricsPort int
}

// EnvReader reads ServerConfig from environment variables.
type EnvReader struct {
	validator *validator.Validate
	warn      func(msg interface{}, keyvals ...interface{})
}

// NewEnvReader is a constructor for EnvReader. warn receives every
// recoverable problem (bad PORT value etc.), it may be nil.
func NewEnvReader(warn func(msg interface{}, keyvals ...interface{})) *EnvReader {
	if warn == nil {
		warn = func(interface{}, ...interface{}) {}
	}
	return &EnvReader{
		validator: validator.New(),
		warn:      warn,
	}
}

// ReadServerConfig builds the configuration. Port problems are never fatal,
// they fall back to DefaultPort. Only an unusable document root is an error.
func (r *EnvReader) ReadServerConfig() (ServerConfig, error) {
	if err := trimEnv(); err != nil {
		return ServerConfig{}, err
	}
	env := envConfig{Port: DefaultPort}
	for _, err := range struct2env.SetFromEnv(envPrefix, &env) {
		r.warn("Ignoring environment value", "err", err)
	}

	root, err := os.Getwd()
	if err != nil {
		return ServerConfig{}, fmt.Errorf("working directory: %w", err)
	}

	cfg := ServerConfig{
		Port:        env.Port,
		MetricsPort: env.MetricsPort,
		Root:        root,
	}
	if err := r.validate(&cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// trimEnv strips surrounding whitespace from the variables so that
// PORT=" 8080" still means 8080.
func trimEnv() error {
	for _, name := range envNames {
		val, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		if trimmed := strings.TrimSpace(val); trimmed != val {
			if err := os.Setenv(name, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", name, err)
			}
		}
	}
	return nil
}

// validate resets invalid ports to their defaults and rejects a bad root.
func (r *EnvReader) validate(cfg *ServerConfig) error {
	err := r.validator.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	for _, e := range verrs {
		switch e.StructField() {
		case "Port":
			r.warn("Invalid PORT, using default", "value", cfg.Port, "default", DefaultPort)
			cfg.Port = DefaultPort
		case "MetricsPort":
			r.warn("Invalid METRICS_PORT, metrics disabled", "value", cfg.MetricsPort)
			cfg.MetricsPort = 0
		case "Root":
			if cfg.Root == "" {
				return ErrEmptyRoot
			}
			return fmt.Errorf("%w: %s", ErrBadRoot, cfg.Root)
		}
	}
	return nil
}

// EnvHelp writes the supported environment variables with their defaults
// as shell export lines.
func EnvHelp(w io.Writer) {
	res, _ := struct2env.StructToEnvVars(envConfig{Port: DefaultPort})
	str := struct2env.ToShellWithPrefix(envPrefix, res, true)
	fmt.Fprintln(w, "# Server environment variables:")
	fmt.Fprint(w, str)
}
