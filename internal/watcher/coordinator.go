package watcher

import (
	"context"

	logger "github.com/sirupsen/logrus"
)

// Coordinator runs an analysis pass up front and again for every batch the
// FileWatcher delivers. Batches arriving while a pass is running are held
// back and merged into the next one.
type Coordinator struct {
	files FileWatcher
	run   RunFunc
	ctx   context.Context
}

// NewCoordinator creates a coordinator that owns files.
func NewCoordinator(files FileWatcher, run RunFunc) *Coordinator {
	return &Coordinator{files: files, run: run}
}

// Start blocks until ctx is cancelled. The initial pass failing is returned
// as is; failures of later passes are logged so the session keeps going.
func (c *Coordinator) Start(ctx context.Context) error {
	c.ctx = ctx

	if err := c.run(ctx, nil); err != nil {
		c.cleanup()
		return err
	}

	if err := c.files.Start(ctx, c.handleFileChange); err != nil {
		c.cleanup()
		return err
	}

	logger.Info("[watch] waiting for changes (Ctrl+C to stop)")
	<-ctx.Done()
	c.cleanup()
	return ctx.Err()
}

func (c *Coordinator) cleanup() {
	if err := c.files.Stop(); err != nil {
		logger.Warnf("[watch] stopping file watcher: %v", err)
	}
}

func (c *Coordinator) handleFileChange(files []string) {
	if len(files) == 0 {
		return
	}
	if c.ctx.Err() != nil {
		return
	}

	logger.Infof("[watch] %d file(s) changed, re-analysing", len(files))

	c.files.Pause()
	defer c.files.Resume()

	if err := c.run(c.ctx, files); err != nil {
		logger.Errorf("[watch] analysis failed: %v", err)
	}
}
