// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config loads the picoserve command configuration from
// files, environment variables and command line flags.
package config

import (
	"encoding"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by [Load].
const EnvPrefix = "PICOSERVE"

// Config is the picoserve command configuration.
type Config struct {
	Server ServerConfig `config:"server" yaml:"server"`
	Log    LogConfig    `config:"log" yaml:"log"`
	OTel   OTelConfig   `config:"otel" yaml:"otel"`
	Routes []Route      `config:"routes" yaml:"routes,omitempty"`
}

// ServerConfig configures the server socket and request execution.
type ServerConfig struct {
	Address      string        `config:"address" yaml:"address"`
	Backlog      int           `config:"backlog" yaml:"backlog"`
	Executor     string        `config:"executor" yaml:"executor"`
	Workers      int           `config:"workers" yaml:"workers"`
	ReadTimeout  time.Duration `config:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `config:"write_timeout" yaml:"write_timeout"`
	DrainTimeout time.Duration `config:"drain_timeout" yaml:"drain_timeout"`

	// HealthAddress serves /health on a separate listener when set.
	HealthAddress string `config:"health_address" yaml:"health_address,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level       slog.Level `config:"level" yaml:"level"`
	Development bool       `config:"development" yaml:"development"`
}

// OTelConfig selects where request spans are exported.
type OTelConfig struct {
	Exporter    string `config:"exporter" yaml:"exporter"`
	ServiceName string `config:"service_name" yaml:"service_name"`
	Target      string `config:"target" yaml:"target,omitempty"`
	ProjectID   string `config:"project_id" yaml:"project_id,omitempty"`
}

// Route is a static response served at a path.
type Route struct {
	Path        string   `config:"path" yaml:"path"`
	Methods     []string `config:"methods" yaml:"methods,omitempty"`
	Status      int      `config:"status" yaml:"status,omitempty"`
	Body        string   `config:"body" yaml:"body,omitempty"`
	ContentType string   `config:"content_type" yaml:"content_type,omitempty"`
	Breaker     bool     `config:"breaker" yaml:"breaker,omitempty"`
}

// Executor names.
const (
	ExecutorInline    = "inline"
	ExecutorPool      = "pool"
	ExecutorUnbounded = "unbounded"
)

// Exporter names.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
	ExporterGCP    = "gcp"
)

var defaults = map[string]any{
	"server.address":        ":9000",
	"server.backlog":        5,
	"server.executor":       ExecutorPool,
	"server.workers":        64,
	"server.read_timeout":   5 * time.Second,
	"server.write_timeout":  10 * time.Second,
	"server.drain_timeout":  5 * time.Second,
	"server.health_address": "",
	"log.level":             "info",
	"log.development":       false,
	"otel.exporter":         ExporterNone,
	"otel.service_name":     "picoserve",
	"otel.target":           "",
	"otel.project_id":       "",
}

// flagKeys maps command line flag names to config keys.
var flagKeys = map[string]string{
	"address":  "server.address",
	"backlog":  "server.backlog",
	"executor": "server.executor",
	"workers":  "server.workers",
}

// Load reads the configuration. Flags override environment variables,
// which override the file at path, which overrides the defaults.
// An empty path skips reading a file and flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if len(path) > 0 {
		v.SetConfigFile(path)
		err := v.ReadInConfig()
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			err := v.BindPFlag(key, f)
			if err != nil {
				return Config{}, err
			}
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "config"
		dc.DecodeHook = composeDecodeHooks(
			textUnmarshalerHookFunc(),
			timeDurationHookFunc(),
		)
	})
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadEnvFile sets environment variables from .env files without
// overriding variables which are already set.
func LoadEnvFile(paths ...string) error {
	return godotenv.Load(paths...)
}

// InvalidValueError is returned by [Config.Validate].
type InvalidValueError struct {
	Key    string
	Value  any
	Reason string
}

// Error implements the error interface.
func (e InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for %s: %v: %s", e.Key, e.Value, e.Reason)
}

// Validate checks the values the server cannot be built without.
func (c Config) Validate() error {
	executors := []string{ExecutorInline, ExecutorPool, ExecutorUnbounded}
	if !slices.Contains(executors, c.Server.Executor) {
		return InvalidValueError{
			Key:    "server.executor",
			Value:  c.Server.Executor,
			Reason: "must be one of " + strings.Join(executors, ", "),
		}
	}
	if c.Server.Executor == ExecutorPool && c.Server.Workers < 1 {
		return InvalidValueError{
			Key:    "server.workers",
			Value:  c.Server.Workers,
			Reason: "pool executor needs at least one worker",
		}
	}

	exporters := []string{ExporterNone, ExporterStdout, ExporterOTLP, ExporterGCP}
	if !slices.Contains(exporters, c.OTel.Exporter) {
		return InvalidValueError{
			Key:    "otel.exporter",
			Value:  c.OTel.Exporter,
			Reason: "must be one of " + strings.Join(exporters, ", "),
		}
	}
	if c.OTel.Exporter == ExporterOTLP && len(c.OTel.Target) == 0 {
		return InvalidValueError{
			Key:    "otel.target",
			Value:  c.OTel.Target,
			Reason: "otlp exporter needs a target",
		}
	}

	for i, r := range c.Routes {
		if !strings.HasPrefix(r.Path, "/") {
			return InvalidValueError{
				Key:    fmt.Sprintf("routes[%d].path", i),
				Value:  r.Path,
				Reason: "must start with '/'",
			}
		}
	}
	return nil
}

// Write encodes cfg as YAML.
func Write(w io.Writer, cfg Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	err := enc.Encode(cfg)
	if err != nil {
		return err
	}
	return enc.Close()
}

var errInvalidDecodeCondition = errors.New("invalid decode condition")

// TypeCoercionError occurs when a config value cannot be
// coerced into the type of the field it is decoded into.
type TypeCoercionError struct {
	From  reflect.Type
	To    reflect.Type
	Cause error
}

// Error implements the error interface.
func (e TypeCoercionError) Error() string {
	return fmt.Sprintf("failed to coerce value from %s to %s: %s", e.From, e.To, e.Cause)
}

// Unwrap implements the implicit interface for usage with errors.Is and errors.As.
func (e TypeCoercionError) Unwrap() error {
	return e.Cause
}

func composeDecodeHooks(hs ...mapstructure.DecodeHookFunc) mapstructure.DecodeHookFuncValue {
	return func(f, t reflect.Value) (any, error) {
		for _, h := range hs {
			v, err := mapstructure.DecodeHookExec(h, f, t)
			if err == nil {
				return v, nil
			}
			if err == errInvalidDecodeCondition {
				continue
			}
			return nil, TypeCoercionError{
				From:  f.Type(),
				To:    t.Type(),
				Cause: err,
			}
		}
		return f.Interface(), nil
	}
}

func textUnmarshalerHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return nil, errInvalidDecodeCondition
		}
		result := reflect.New(t)
		u, ok := result.Interface().(encoding.TextUnmarshaler)
		if !ok {
			return nil, errInvalidDecodeCondition
		}
		err := u.UnmarshalText([]byte(data.(string)))
		if err != nil {
			return nil, err
		}
		return result.Elem().Interface(), nil
	}
}

func timeDurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(time.Duration(0)) {
			return nil, errInvalidDecodeCondition
		}

		switch f.Kind() {
		case reflect.String:
			return time.ParseDuration(data.(string))
		case reflect.Int, reflect.Int64:
			return time.Duration(reflect.ValueOf(data).Int()), nil
		default:
			return nil, errInvalidDecodeCondition
		}
	}
}
