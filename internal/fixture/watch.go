package fixture

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jackzampolin/cardfix/internal/home"
)

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before regenerating.
const DefaultDebounce = 300 * time.Millisecond

// WatchOptions configures WatchSecond.
type WatchOptions struct {
	Debounce time.Duration
	// Trigger forces a regeneration, e.g. after a config reload.
	Trigger <-chan struct{}
	// OnGenerate is called after every regeneration attempt.
	OnGenerate func(*SecondResult, error)
}

// WatchSecond regenerates scan_second.json once up front and again whenever
// images/ or scan.json change, until ctx is cancelled. The request is read
// through fn on every run so callers can swap in reloaded settings.
func WatchSecond(ctx context.Context, dir *home.Dir, fn func() SecondRequest, opts WatchOptions) error {
	req := fn()
	log := loggerOr(req.Logger)
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	report := opts.OnGenerate
	if report == nil {
		report = func(*SecondResult, error) {}
	}

	if err := checkExamID(req.ExamID); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := dir.EnsureCardDir(req.ExamID); err != nil {
		return err
	}
	// The card dir covers scan.json; images/ is watched separately.
	for _, d := range []string{dir.CardDir(req.ExamID), dir.ImagesDir(req.ExamID)} {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("failed to watch %s: %w", d, err)
		}
	}

	generate := func() {
		res, err := GenerateSecond(ctx, dir, fn())
		if err != nil && ctx.Err() == nil {
			log.Error("regenerate failed", "exam_id", req.ExamID, "error", err)
		}
		report(res, err)
	}
	generate()

	imagesDir := dir.ImagesDir(req.ExamID)
	scanPath := dir.ScanPath(req.ExamID)
	relevant := func(e fsnotify.Event) bool {
		if strings.HasPrefix(filepath.Base(e.Name), ".") {
			return false
		}
		return filepath.Dir(e.Name) == imagesDir || e.Name == scanPath
	}

	timer := time.NewTimer(opts.Debounce)
	timer.Stop()
	log.Info("watching for changes", "dir", dir.CardDir(req.ExamID))

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case e, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(e) {
				continue
			}
			log.Debug("file changed", "path", e.Name, "op", e.Op.String())
			timer.Reset(opts.Debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		case <-opts.Trigger:
			timer.Reset(opts.Debounce)
		case <-timer.C:
			generate()
		}
	}
}
