package watcher

import "context"

// FileWatcher reports debounced batches of changed source files.
type FileWatcher interface {
	// Start begins watching, calling callback with project-relative paths.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the watcher and releases its resources.
	Stop() error

	// Pause holds batches back while still collecting events.
	Pause()

	// Resume delivers anything collected while paused.
	Resume()
}

// RunFunc performs one analysis pass. changed is nil for the initial pass
// and the batch that triggered it afterwards.
type RunFunc func(ctx context.Context, changed []string) error
