// Package config resolves vordr's runtime settings from defaults, an
// optional YAML file, VORDR_* environment variables and command-line flags.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cuemby/vordr/pkg/log"
	"github.com/cuemby/vordr/pkg/storage"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. VORDR_ROOT
	EnvPrefix = "VORDR"

	DefaultRoot = "/var/lib/vordr"
)

// Keys double as flag names
const (
	KeyRoot            = "root"
	KeyDBPath          = "db-path"
	KeyLogLevel        = "log-level"
	KeyLogJSON         = "log-json"
	KeyMetricsTextfile = "metrics-textfile"
)

// Config is the resolved runtime configuration
type Config struct {
	Root            string `mapstructure:"root"`
	DBPath          string `mapstructure:"db-path"`
	LogLevel        string `mapstructure:"log-level"`
	LogJSON         bool   `mapstructure:"log-json"`
	MetricsTextfile string `mapstructure:"metrics-textfile"`
}

// New returns a viper instance with defaults and environment lookup set up
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyRoot, DefaultRoot)
	v.SetDefault(KeyDBPath, "")
	v.SetDefault(KeyLogLevel, string(log.WarnLevel))
	v.SetDefault(KeyLogJSON, false)
	v.SetDefault(KeyMetricsTextfile, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags lets explicitly set flags override file and environment values
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range []string{KeyRoot, KeyDBPath, KeyLogLevel, KeyLogJSON, KeyMetricsTextfile} {
		flag := flags.Lookup(key)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", key, err)
		}
	}
	return nil
}

// Load reads the optional config file and resolves the final Config.
// Precedence: flags, environment, config file, defaults.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Root == "" {
		return nil, fmt.Errorf("%s must not be empty", KeyRoot)
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", KeyRoot, err)
	}
	cfg.Root = root

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.Root, storage.DefaultDBFile)
	}

	switch log.Level(cfg.LogLevel) {
	case log.DebugLevel, log.InfoLevel, log.WarnLevel, log.ErrorLevel:
	default:
		return nil, fmt.Errorf("invalid %s %q: expected debug, info, warn or error", KeyLogLevel, cfg.LogLevel)
	}

	return &cfg, nil
}
