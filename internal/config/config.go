// Package config loads fwbump settings from .fwbump.yaml, FWBUMP_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Configuration keys, shared by the config file, env vars and flag bindings.
const (
	KeyFile           = "file"
	KeyMajor          = "major"
	KeyMinor          = "minor"
	KeyVerbose        = "verbose"
	KeyAnchor         = "anchor"
	KeyDryRun         = "dry_run"
	KeyJSON           = "json"
	KeyLegacyRevision = "legacy_revision"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
)

// ConfigName is the base name of the config file, looked up without
// extension in each search path.
const ConfigName = ".fwbump"

// EnvPrefix prefixes every environment variable, e.g. FWBUMP_MAJOR.
const EnvPrefix = "FWBUMP"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the settings of one fwbump run.
type Config struct {
	File                   string `mapstructure:"file" json:"file,omitempty"`
	Major                  *int   `mapstructure:"major" json:"major,omitempty"`
	Minor                  *int   `mapstructure:"minor" json:"minor,omitempty"`
	Verbose                bool   `mapstructure:"verbose" json:"verbose"`
	Anchor                 string `mapstructure:"anchor" json:"anchor,omitempty"`
	DryRun                 bool   `mapstructure:"dry_run" json:"dry_run"`
	JSON                   bool   `mapstructure:"json" json:"json"`
	LegacyRevisionFallback bool   `mapstructure:"legacy_revision" json:"legacy_revision"`
	LogLevel               string `mapstructure:"log_level" json:"log_level"`
	LogFormat              string `mapstructure:"log_format" json:"log_format"`

	// Source is the config file that was read, empty when none was found.
	Source string `mapstructure:"-" json:"source,omitempty"`
}

// New returns a viper instance that looks for .fwbump.yaml in searchPaths
// (the working directory when none are given) and reads FWBUMP_* variables.
func New(searchPaths ...string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	if len(searchPaths) == 0 {
		searchPaths = []string{"."}
	}
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, "text")

	return v
}

// BindFlags binds config keys to flags. bindings maps a config key to a flag
// name; flags missing from the set are skipped.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, bindings map[string]string) error {
	var merr error
	for key, name := range bindings {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("bind %s: %w", name, err))
		}
	}
	return merr
}

// Load reads the config file, if any, and returns the merged settings.
// configFile overrides the search paths; unlike a searched file it must
// exist.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		File:                   v.GetString(KeyFile),
		Verbose:                v.GetBool(KeyVerbose),
		Anchor:                 v.GetString(KeyAnchor),
		DryRun:                 v.GetBool(KeyDryRun),
		JSON:                   v.GetBool(KeyJSON),
		LegacyRevisionFallback: v.GetBool(KeyLegacyRevision),
		LogLevel:               v.GetString(KeyLogLevel),
		LogFormat:              v.GetString(KeyLogFormat),
		Source:                 v.ConfigFileUsed(),
	}
	if v.IsSet(KeyMajor) {
		n := v.GetInt(KeyMajor)
		cfg.Major = &n
	}
	if v.IsSet(KeyMinor) {
		n := v.GetInt(KeyMinor)
		cfg.Minor = &n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var merr error
	if c.Major != nil && *c.Major < 0 {
		merr = multierror.Append(merr, fmt.Errorf("major must not be negative, got %d", *c.Major))
	}
	if c.Minor != nil && *c.Minor < 0 {
		merr = multierror.Append(merr, fmt.Errorf("minor must not be negative, got %d", *c.Minor))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json", "":
	default:
		merr = multierror.Append(merr, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}

	if merr != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, merr)
	}
	return nil
}
