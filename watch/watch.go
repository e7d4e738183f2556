// Package watch reruns generation when Go sources change.
package watch

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/teranos/portrait/am"
	"github.com/teranos/portrait/capture"
	"github.com/teranos/portrait/errors"
	"github.com/teranos/portrait/logger"
)

// RunFunc regenerates dirs. It is called with every watched directory,
// since an interface change in one package affects fills in others.
type RunFunc func(ctx context.Context, dirs []string) error

// Watcher watches package directories and calls a RunFunc after changes
// settle. Runs are spaced at least MinInterval apart.
type Watcher struct {
	dirs     []string
	suffix   string
	run      RunFunc
	debounce time.Duration
	limiter  *rate.Limiter
	fs       *fsnotify.Watcher
}

// New creates a watcher over dirs
func New(dirs []string, cfg *am.Config, run RunFunc) (*Watcher, error) {
	if cfg == nil {
		cfg = am.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "failed to watch %s", dir)
		}
	}

	interval := time.Duration(cfg.Watch.MinIntervalMS) * time.Millisecond
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Watcher{
		dirs:     dirs,
		suffix:   cfg.Fill.FileSuffix,
		run:      run,
		debounce: time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
		limiter:  rate.NewLimiter(limit, 1),
		fs:       fw,
	}, nil
}

// Run blocks until ctx is done. It runs once at start, then once per
// settled burst of changes. Run errors are logged, not returned.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	w.trigger(ctx, nil)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var fire <-chan time.Time
	changed := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			logger.Debugw("Watcher detected change",
				logger.FieldFile, ev.Name,
				"op", ev.Op.String())
			changed[ev.Name] = true
			timer.Reset(w.debounce)
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("Watcher error", logger.FieldError, err)

		case <-fire:
			fire = nil
			files := make([]string, 0, len(changed))
			for f := range changed {
				files = append(files, f)
			}
			sort.Strings(files)
			changed = map[string]bool{}

			if err := w.limiter.Wait(ctx); err != nil {
				return nil
			}
			w.trigger(ctx, files)
		}
	}
}

func (w *Watcher) trigger(ctx context.Context, files []string) {
	start := time.Now()
	logger.Infow("Regenerating", logger.FieldCount, len(w.dirs), "changed", files)
	if err := w.run(ctx, w.dirs); err != nil {
		logger.Errorw("Regeneration failed", logger.FieldError, err)
		return
	}
	logger.Debugw("Regenerated", logger.FieldDuration, time.Since(start).Milliseconds())
}

// relevant reports whether an event touches a hand-written Go source.
// Generated files change as a result of runs and would loop.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(ev.Name)
	switch {
	case !strings.HasSuffix(name, ".go"),
		strings.HasSuffix(name, "_test.go"),
		strings.HasPrefix(name, "."), strings.HasPrefix(name, "_"),
		strings.HasSuffix(name, capture.CompanionSuffix),
		w.suffix != "" && strings.HasSuffix(name, w.suffix):
		return false
	}
	return true
}

// Close stops watching without waiting for Run
func (w *Watcher) Close() error {
	return w.fs.Close()
}
