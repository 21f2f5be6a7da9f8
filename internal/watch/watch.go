// Package watch reports changes to the files behind file-backed settings
// groups so callers can capture them again.
//
// The watcher observes the directories holding the files rather than the
// files themselves: settings files are usually replaced by rename, which
// would silently end a watch on the old file.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"setbridge/internal/logger"
	"setbridge/internal/resolver"
	"setbridge/internal/settings"
)

// DefaultDebounce is how long a file must stay quiet before its groups are
// reported.
const DefaultDebounce = 200 * time.Millisecond

// ErrNotFileBacked is returned by Add for groups that are not stored in a
// file.
var ErrNotFileBacked = errors.New("group is not file-backed")

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.log = logger.Or(l) }
}

// Watcher maps file changes to the names of the groups stored in them.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	log      *slog.Logger

	mu    sync.Mutex
	files map[string][]string // absolute file path -> group names
	dirs  map[string]bool
}

// New returns a Watcher. Close releases it.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		debounce: DefaultDebounce,
		log:      logger.L(),
		files:    make(map[string][]string),
		dirs:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// FileOf returns the resolved file path of a file-backed group.
func FileOf(g *settings.Group, reg *resolver.Registry) (string, error) {
	var raw resolver.String
	switch b := g.Backend.(type) {
	case *settings.IniBackend:
		raw = b.Path
	case *settings.XMLBackend:
		raw = b.Path
	case *settings.JSONBackend:
		raw = b.Path
	default:
		return "", ErrNotFileBacked
	}
	return raw.Resolve(reg)
}

// AddGroup watches the file of g.
func (w *Watcher) AddGroup(g *settings.Group, reg *resolver.Registry) error {
	path, err := FileOf(g, reg)
	if err != nil {
		return err
	}
	return w.Add(g.Name, path)
}

// Add reports group whenever path changes. The file need not exist yet, but
// its directory must.
func (w *Watcher) Add(group, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirs[dir] {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = true
	}
	for _, g := range w.files[abs] {
		if g == group {
			return nil
		}
	}
	w.files[abs] = append(w.files[abs], group)
	w.log.Debug("watch.add", "group", group, "path", abs)
	return nil
}

// Files returns the watched file paths in sorted order.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	files := make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

func (w *Watcher) groupsFor(name string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[filepath.Clean(name)]
}

// Run delivers changes until ctx is done or the watcher is closed. Changes
// arriving within the debounce period of each other are reported together;
// onChange receives the affected group names sorted and without duplicates.
// onChange runs on the Run goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(groups []string)) error {
	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			groups := w.groupsFor(ev.Name)
			if len(groups) == 0 {
				continue
			}
			w.log.Debug("watch.event", "path", ev.Name, "op", ev.Op.String())
			for _, g := range groups {
				pending[g] = true
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch.error", "error", err)

		case <-fire:
			fire = nil
			groups := make([]string, 0, len(pending))
			for g := range pending {
				groups = append(groups, g)
			}
			sort.Strings(groups)
			clear(pending)
			onChange(groups)
		}
	}
}

// Close stops watching. A running Run returns nil.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
