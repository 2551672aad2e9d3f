package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the config file searched for in the project root.
const FileName = ".change-analyzer"

// EnvPrefix prefixes every environment override, e.g. CHANGE_ANALYZER_ANALYSIS_STRATEGY.
const EnvPrefix = "CHANGE_ANALYZER"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file, environment variables and flags.
	// Priority: defaults → config file → environment variables → changed flags
	Load() (*Config, error)
}

// Option customises a loader.
type Option func(*loader)

// WithConfigFile reads path instead of searching the project root. A
// missing explicit file is an error.
func WithConfigFile(path string) Option {
	return func(l *loader) {
		l.configFile = path
	}
}

// WithFlag binds a command-line flag to a config key. The flag only wins
// when the user set it.
func WithFlag(key string, flag *pflag.Flag) Option {
	return func(l *loader) {
		if flag != nil {
			l.flags[key] = flag
		}
	}
}

type loader struct {
	rootDir    string
	configFile string
	flags      map[string]*pflag.Flag
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string, opts ...Option) Loader {
	l := &loader{
		rootDir: rootDir,
		flags:   make(map[string]*pflag.Flag),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Flags set on the command line
// 2. Environment variables (CHANGE_ANALYZER_*)
// 3. Config file (.change-analyzer.yaml or --config)
// 4. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(l.rootDir)
	}

	// Replace . with _ in env var names (e.g., CHANGE_ANALYZER_CACHE_SIZE)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	setDefaults(v)

	for key, flag := range l.flags {
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("failed to bind flag --%s: %w", flag.Name, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		logger.Debugf("[config] using config file %s", v.ConfigFileUsed())
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// keys lists every scalar and list key that may come from the environment.
var keys = []string{
	"analysis.strategy",
	"analysis.fallback",
	"analysis.workers",
	"analysis.extensions",
	"analysis.backend",
	"ignore.file",
	"cache.size",
	"output.path",
	"upload.endpoint",
	"upload.token",
	"upload.timeout",
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("analysis.strategy", defaults.Analysis.Strategy)
	v.SetDefault("analysis.fallback", defaults.Analysis.Fallback)
	v.SetDefault("analysis.workers", defaults.Analysis.Workers)
	v.SetDefault("analysis.extensions", defaults.Analysis.Extensions)
	v.SetDefault("analysis.backend", defaults.Analysis.Backend)

	v.SetDefault("ignore.file", defaults.Ignore.File)
	v.SetDefault("cache.size", defaults.Cache.Size)
	v.SetDefault("output.path", defaults.Output.Path)

	v.SetDefault("upload.endpoint", defaults.Upload.Endpoint)
	v.SetDefault("upload.token", defaults.Upload.Token)
	v.SetDefault("upload.timeout", defaults.Upload.Timeout)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}
