package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrInvalidStrategy indicates an unsupported analysis strategy
	ErrInvalidStrategy = errors.New("invalid analysis strategy")

	// ErrInvalidBackend indicates an unsupported version-control backend
	ErrInvalidBackend = errors.New("invalid analysis backend")

	// ErrInvalidWorkers indicates a non-positive worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidExtension indicates a missing or malformed source extension
	ErrInvalidExtension = errors.New("invalid source extension")

	// ErrInvalidCacheSize indicates a negative cache size
	ErrInvalidCacheSize = errors.New("invalid cache size")

	// ErrEmptyOutput indicates a missing report path
	ErrEmptyOutput = errors.New("empty output path")

	// ErrInvalidTimeout indicates a non-positive upload timeout
	ErrInvalidTimeout = errors.New("invalid upload timeout")

	// ErrEmptyEndpoint indicates a missing upload endpoint
	ErrEmptyEndpoint = errors.New("empty upload endpoint")

	// ErrInvalidEndpoint indicates an upload endpoint that is not an http(s) URL
	ErrInvalidEndpoint = errors.New("invalid upload endpoint")
)

// Validate checks that the configuration is valid and complete. Upload
// settings are only checked for their timeout; see ValidateUpload.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateAnalysis(&cfg.Analysis); err != nil {
		errs = append(errs, err)
	}

	if cfg.Cache.Size < 0 {
		errs = append(errs, fmt.Errorf("%w: size cannot be negative, got %d", ErrInvalidCacheSize, cfg.Cache.Size))
	}

	if strings.TrimSpace(cfg.Output.Path) == "" {
		errs = append(errs, fmt.Errorf("%w: output.path is required", ErrEmptyOutput))
	}

	if cfg.Upload.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidTimeout, cfg.Upload.Timeout))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// ValidateUpload checks the settings the upload command needs on top of Validate.
func ValidateUpload(cfg *Config) error {
	endpoint := strings.TrimSpace(cfg.Upload.Endpoint)
	if endpoint == "" {
		return fmt.Errorf("%w: upload.endpoint is required", ErrEmptyEndpoint)
	}

	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: must be an http(s) URL, got '%s'", ErrInvalidEndpoint, endpoint)
	}
	return nil
}

func validateAnalysis(cfg *AnalysisConfig) error {
	var errs []error

	strategy := strings.ToLower(cfg.Strategy)
	if strategy != StrategyContent && strategy != StrategyLines {
		errs = append(errs, fmt.Errorf("%w: must be '%s' or '%s', got '%s'", ErrInvalidStrategy, StrategyContent, StrategyLines, cfg.Strategy))
	}

	backend := strings.ToLower(cfg.Backend)
	if backend != BackendExec && backend != BackendGoGit {
		errs = append(errs, fmt.Errorf("%w: must be '%s' or '%s', got '%s'", ErrInvalidBackend, BackendExec, BackendGoGit, cfg.Backend))
	}

	if cfg.Workers <= 0 {
		errs = append(errs, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidWorkers, cfg.Workers))
	}

	if len(cfg.Extensions) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one extension required", ErrInvalidExtension))
	}
	for _, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fmt.Errorf("%w: '%s' must start with a dot", ErrInvalidExtension, ext))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
