package config

import (
	"runtime"
	"strings"
	"time"
)

// Strategy names accepted by analysis.strategy.
const (
	StrategyContent = "content"
	StrategyLines   = "lines"
)

// Backend names accepted by analysis.backend.
const (
	BackendExec  = "exec"
	BackendGoGit = "gogit"
)

// Config represents the complete change-analyzer configuration.
// It can be loaded from .change-analyzer.yaml with environment variable overrides.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Ignore   IgnoreConfig   `yaml:"ignore" mapstructure:"ignore"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Upload   UploadConfig   `yaml:"upload" mapstructure:"upload"`
}

// AnalysisConfig controls how changed files are compared.
type AnalysisConfig struct {
	Strategy   string   `yaml:"strategy" mapstructure:"strategy"`     // "content" or "lines"
	Fallback   bool     `yaml:"fallback" mapstructure:"fallback"`     // line strategy when base content is missing
	Workers    int      `yaml:"workers" mapstructure:"workers"`       // files analysed concurrently
	Extensions []string `yaml:"extensions" mapstructure:"extensions"` // e.g. [".sol"]
	Backend    string   `yaml:"backend" mapstructure:"backend"`       // "exec" or "gogit"
}

// IgnoreConfig names the ignore file looked up in the project root.
type IgnoreConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// CacheConfig bounds the in-memory catalog cache. Size 0 disables it.
type CacheConfig struct {
	Size int `yaml:"size" mapstructure:"size"`
}

// OutputConfig defines where the report is written.
type OutputConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// UploadConfig configures the remote scope service.
type UploadConfig struct {
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Token    string        `yaml:"token" mapstructure:"token"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Strategy:   StrategyContent,
			Fallback:   true,
			Workers:    runtime.NumCPU(),
			Extensions: []string{".sol"},
			Backend:    BackendExec,
		},
		Ignore: IgnoreConfig{
			File: ".scopeignore",
		},
		Cache: CacheConfig{
			Size: 1024,
		},
		Output: OutputConfig{
			Path: "changed_declarations.json",
		},
		Upload: UploadConfig{
			Timeout: 60 * time.Second,
		},
	}
}

// HasSourceExtension reports whether path ends with one of the configured
// extensions. Comparison is case-insensitive.
func (c *Config) HasSourceExtension(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range c.Analysis.Extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
