package banner

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// AllBanners is passed to the change callback when default.yaml changes.
const AllBanners = ""

// ChangeFunc is called with the banner whose files changed, or AllBanners.
type ChangeFunc func(banner string)

// Watcher watches the banner directory (and each banner's catalog directory)
// and calls onChange once per burst of writes to a banner's files.
type Watcher struct {
	watcher  *fsnotify.Watcher
	paths    Paths
	onChange ChangeFunc
	debounce time.Duration
	log      *logrus.Entry

	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for the loader's banner directory.
func NewWatcher(paths Paths, debounce time.Duration, onChange ChangeFunc, log *logrus.Entry) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		watcher:  w,
		paths:    paths,
		onChange: onChange,
		debounce: debounce,
		log:      log.WithField("component", "banner-watcher"),
		pending:  make(map[string]*time.Timer),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. Catalog directories that exist now are watched too;
// new ones are picked up when they are created.
func (w *Watcher) Start() error {
	dir := w.paths.BannerDir()
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := w.watcher.Add(filepath.Join(dir, e.Name())); err != nil {
				w.log.WithError(err).WithField("dir", e.Name()).Warn("cannot watch catalog directory")
			}
		}
	}
	w.log.WithField("dir", dir).Info("watching banner directory")

	w.wg.Add(1)
	go w.run()
	return nil
}

// Stop terminates the watcher and drops pending callbacks.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	w.wg.Wait()

	w.mu.Lock()
	w.stopped = true
	for _, t := range w.pending {
		t.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Error("watch error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.log.WithError(err).WithField("dir", event.Name).Warn("cannot watch catalog directory")
			}
			return
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	name, ok := w.bannerFor(event.Name)
	if !ok {
		return
	}
	w.schedule(name)
}

// bannerFor maps a changed file to the banner it belongs to.
func (w *Watcher) bannerFor(path string) (string, bool) {
	if filepath.Ext(path) != ".yaml" {
		return "", false
	}
	dir := w.paths.BannerDir()
	parent := filepath.Dir(path)
	switch {
	case parent == dir:
		base := strings.TrimSuffix(filepath.Base(path), ".yaml")
		if base == "default" {
			return AllBanners, true
		}
		return base, true
	case filepath.Dir(parent) == dir:
		return filepath.Base(parent), true
	}
	return "", false
}

// schedule debounces bursts: editors often write a file several times.
func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.pending[name]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[name] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, name)
		stopped := w.stopped
		w.mu.Unlock()
		if stopped {
			return
		}
		w.log.WithField("banner", name).Info("banner files changed")
		w.onChange(name)
	})
}
