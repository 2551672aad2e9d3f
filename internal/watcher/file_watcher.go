package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samartsevigor/change-analyzer/internal/config"
	"github.com/samartsevigor/change-analyzer/internal/ignore"
	logger "github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiet period after the last source write before a
// batch is delivered.
const DefaultDebounce = 500 * time.Millisecond

// fileWatcher implements FileWatcher over a single project tree.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	root     string
	accept   func(path string) bool
	matcher  *ignore.Matcher
	debounce time.Duration
	callback func(files []string)
	ctx      context.Context
	cancel   context.CancelFunc

	paused   bool
	pausedMu sync.RWMutex

	// pending holds project-relative slash paths changed since the last batch.
	pending   map[string]struct{}
	pendingMu sync.Mutex

	timer   *time.Timer
	timerMu sync.Mutex

	stopOnce sync.Once
	doneCh   chan struct{}
}

// NewFileWatcher watches every directory below root that the matcher does
// not exclude. Only files whose extension is listed are reported; an empty
// list means the default source extensions.
func NewFileWatcher(root string, extensions []string, matcher *ignore.Matcher) (FileWatcher, error) {
	sources := config.Default()
	if len(extensions) > 0 {
		sources.Analysis.Extensions = extensions
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		w.Close()
		return nil, err
	}

	fw := &fileWatcher{
		watcher:  w,
		root:     abs,
		accept:   sources.HasSourceExtension,
		matcher:  matcher,
		debounce: DefaultDebounce,
		pending:  make(map[string]struct{}),
		doneCh:   make(chan struct{}),
	}

	if err := fw.addTree(abs); err != nil {
		w.Close()
		return nil, err
	}
	return fw, nil
}

// Start delivers debounced batches to callback until ctx is cancelled or
// Stop is called. Batches are sorted and free of duplicates.
func (fw *fileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}

	fw.callback = callback
	fw.ctx, fw.cancel = context.WithCancel(ctx)

	go fw.loop()
	return nil
}

// Stop is safe to call more than once and before Start.
func (fw *fileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
			<-fw.doneCh
		} else {
			close(fw.doneCh)
		}
		err = fw.watcher.Close()
	})
	return err
}

func (fw *fileWatcher) Pause() {
	fw.pausedMu.Lock()
	defer fw.pausedMu.Unlock()
	fw.paused = true
}

// Resume delivers anything collected while paused right away.
func (fw *fileWatcher) Resume() {
	fw.pausedMu.Lock()
	wasPaused := fw.paused
	fw.paused = false
	fw.pausedMu.Unlock()

	if wasPaused {
		fw.flush()
	}
}

func (fw *fileWatcher) loop() {
	defer close(fw.doneCh)

	fire := make(chan struct{}, 1)

	for {
		select {
		case <-fw.ctx.Done():
			fw.stopTimer()
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addTree(event.Name); err != nil {
						logger.Warnf("[watch] cannot watch new directory %s: %v", event.Name, err)
					}
					continue
				}
			}

			rel, ok := fw.relevant(event)
			if !ok {
				continue
			}
			logger.Debugf("[watch] %s %s", event.Op, rel)

			fw.pendingMu.Lock()
			fw.pending[rel] = struct{}{}
			fw.pendingMu.Unlock()

			fw.resetTimer(fire)

		case <-fire:
			fw.pausedMu.RLock()
			paused := fw.paused
			fw.pausedMu.RUnlock()
			if !paused {
				fw.flush()
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("[watch] watcher error: %v", err)
		}
	}
}

// flush hands the pending batch to the callback and starts a new one.
func (fw *fileWatcher) flush() {
	fw.pendingMu.Lock()
	if len(fw.pending) == 0 {
		fw.pendingMu.Unlock()
		return
	}
	files := make([]string, 0, len(fw.pending))
	for f := range fw.pending {
		files = append(files, f)
	}
	fw.pending = make(map[string]struct{})
	fw.pendingMu.Unlock()

	sort.Strings(files)
	if fw.callback != nil {
		fw.callback(files)
	}
}

func (fw *fileWatcher) resetTimer(fire chan struct{}) {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (fw *fileWatcher) stopTimer() {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.timer != nil {
		fw.timer.Stop()
		fw.timer = nil
	}
}

// relevant maps an event to its project-relative path when it is a write,
// create, remove or rename of a monitored, non-ignored source file.
func (fw *fileWatcher) relevant(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", false
	}
	if !fw.accept(event.Name) {
		return "", false
	}
	rel, ok := fw.rel(event.Name)
	if !ok || fw.matcher.Match(rel) {
		return "", false
	}
	return rel, true
}

func (fw *fileWatcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(fw.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// addTree watches dir and its subdirectories, skipping .git and directories
// the matcher excludes. An unreadable root is an error; anything below it is
// logged and skipped.
func (fw *fileWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			logger.Warnf("[watch] cannot access %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		if path != fw.root {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if rel, ok := fw.rel(path); ok && fw.matcher.MatchDir(rel) {
				logger.Debugf("[watch] skipping ignored directory %s", rel)
				return filepath.SkipDir
			}
		}

		if err := fw.watcher.Add(path); err != nil {
			logger.Warnf("[watch] cannot watch %s: %v", path, err)
		}
		return nil
	})
}
