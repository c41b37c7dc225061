// Package config loads the NDR engine's static configuration: logging,
// transport limits, transfer-syntax preference, endpoint-mapper
// behaviour, and metrics settings.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (NDRCTL_*), for keys the configuration file
//     sets
//  2. Configuration file (YAML)
//  3. Default values
//
// When no configuration file is found, Load returns DefaultConfig()
// and environment variables are not consulted.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/marmos91/ndrctl/internal/bytesize"
)

// Config is the NDR engine's static configuration.
type Config struct {
	// Logging controls log output behaviour.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`

	// Transport configures port-connection timeouts and payload limits.
	Transport TransportConfig `mapstructure:"transport" yaml:"transport" json:"transport"`

	// Binding controls transfer-syntax negotiation.
	Binding BindingConfig `mapstructure:"binding" yaml:"binding" json:"binding"`

	// Epmapper configures the endpoint-mapper side-call used when a
	// port name is not statically known.
	Epmapper EpmapperConfig `mapstructure:"epmapper" yaml:"epmapper" json:"epmapper"`

	// Metrics contains Prometheus metrics server configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// LoggingConfig controls log output behaviour.
type LoggingConfig struct {
	// Level is one of: debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level" json:"level"`
	// Format is one of: text, json.
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// TransportConfig configures the port transport layer.
type TransportConfig struct {
	// CallTimeout is loaded and shown by `ndrctl config`; the port
	// transport does not read it, so SendReceive exchanges are not
	// bounded by it.
	CallTimeout time.Duration `mapstructure:"call_timeout" validate:"required,gt=0" yaml:"call_timeout" json:"call_timeout"`
	// MaxMessagePayload bounds the inline payload size, mirroring the
	// port transport's connect-time attribute ceiling. Accepts
	// human-readable sizes in the config file ("4Ki", "1Mi") as well as
	// plain byte counts.
	MaxMessagePayload bytesize.ByteSize `mapstructure:"max_message_payload" validate:"required,gt=0" yaml:"max_message_payload" json:"max_message_payload"`
}

// BindingConfig controls transfer-syntax negotiation.
type BindingConfig struct {
	// PreferNDR64, when true, makes BindNegotiated attempt NDR64 before
	// falling back to DCE. Default is false (pin DCE) since a bool zero
	// value can't be distinguished from an explicit false after
	// unmarshal; set prefer_ndr64: true to opt into NDR64-first.
	PreferNDR64 bool `mapstructure:"prefer_ndr64" yaml:"prefer_ndr64" json:"prefer_ndr64"`
}

// EpmapperConfig configures the endpoint-mapper side call.
type EpmapperConfig struct {
	// PortName overrides the well-known epmapper port name, for testing
	// against a non-default endpoint-mapper instance.
	PortName string `mapstructure:"port_name" yaml:"port_name" json:"port_name"`
	// LookupTimeout is loaded and shown by `ndrctl config`;
	// rpc.LookupAndBind does not read it, so the ept_map side call is
	// not bounded by it.
	LookupTimeout time.Duration `mapstructure:"lookup_timeout" validate:"required,gt=0" yaml:"lookup_timeout" json:"lookup_timeout"`
}

// MetricsConfig configures the Prometheus metrics exporter.
type MetricsConfig struct {
	// Enabled is loaded and shown by `ndrctl config`; no code reads it,
	// and no /metrics HTTP endpoint is served.
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	// Address is a metrics listen address, loaded and shown by
	// `ndrctl config`; no server listens on it.
	Address string `mapstructure:"address" yaml:"address" json:"address"`
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// DefaultConfig returns a Config populated entirely with defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills any zero-valued field of cfg with its default.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Transport.CallTimeout == 0 {
		cfg.Transport.CallTimeout = 30 * time.Second
	}
	if cfg.Transport.MaxMessagePayload == 0 {
		cfg.Transport.MaxMessagePayload = 4 * bytesize.KiB
	}
	if cfg.Epmapper.PortName == "" {
		cfg.Epmapper.PortName = `\RPC Control\epmapper`
	}
	if cfg.Epmapper.LookupTimeout == 0 {
		cfg.Epmapper.LookupTimeout = 10 * time.Second
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = "127.0.0.1:9464"
	}
	// PreferNDR64 has no default to apply here: zero value (false) is
	// already the documented default, so an unset field and an explicit
	// prefer_ndr64: false are indistinguishable and that's fine.
}

// setupViper wires environment-variable and config-file discovery.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("NDRCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ndrctl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "ndrctl")
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}

// configDecodeHooks returns the combined decode hook for all custom
// config field types: ByteSize and time.Duration.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings and numbers to bytesize.ByteSize so
// config files can use human-readable sizes like "4Ki" or "1Mi" alongside
// plain byte counts.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings and numbers to time.Duration so
// config files can use human-readable durations like "30s" or "5m".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}
