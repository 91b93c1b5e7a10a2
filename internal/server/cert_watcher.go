package server

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"resumescore/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// CertWatcher watches certificate files and calls back after a debounce
// once any of them changed. Parent directories are watched as well so
// atomic replaces (write temp + rename) are noticed.
type CertWatcher struct {
	mu sync.Mutex

	paths       []string
	lastModTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	reloadCallback func()
	logger         *errors.Logger

	running bool
}

// NewCertWatcher creates a watcher for the non-empty paths among certFile,
// keyFile and caFile
func NewCertWatcher(certFile, keyFile, caFile string, debounceDelay time.Duration, reloadCallback func(), logger *errors.Logger) (*CertWatcher, error) {
	if reloadCallback == nil {
		return nil, fmt.Errorf("reload callback is required")
	}
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}

	var paths []string
	for _, p := range []string{certFile, keyFile, caFile} {
		if p != "" && !slices.Contains(paths, p) {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no certificate files to watch")
	}

	return &CertWatcher{
		paths:          paths,
		lastModTime:    make(map[string]time.Time),
		debounceDelay:  debounceDelay,
		stopChan:       make(chan struct{}),
		reloadChan:     make(chan struct{}, 1),
		reloadCallback: reloadCallback,
		logger:         logger,
	}, nil
}

// Start begins watching
func (cw *CertWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.running {
		return fmt.Errorf("certificate watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	cw.fsWatcher = watcher

	for _, path := range cw.paths {
		if stat, err := os.Stat(path); err == nil {
			cw.lastModTime[path] = stat.ModTime()
		}
		if err := cw.watch(path); err != nil {
			cw.warn("Failed to watch certificate file", "file", path, "error", err)
		}
	}

	cw.running = true
	go cw.watchLoop()

	if cw.logger != nil {
		cw.logger.Info("Certificate file watcher started",
			"files", cw.paths,
			"debounce_delay", cw.debounceDelay)
	}
	return nil
}

// watch adds the file and its directory
func (cw *CertWatcher) watch(path string) error {
	dir := filepath.Dir(path)
	if err := cw.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	if err := cw.fsWatcher.Add(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to watch file %s: %w", path, err)
	}
	return nil
}

// Stop stops the watcher
func (cw *CertWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		return nil
	}

	close(cw.stopChan)
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.running = false

	if err := cw.fsWatcher.Close(); err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}

	if cw.logger != nil {
		cw.logger.Info("Certificate file watcher stopped")
	}
	return nil
}

func (cw *CertWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.fsWatcher.Events:
			if !ok {
				return
			}
			if cw.isRelevant(event) {
				cw.scheduleReload()
			}

		case err, ok := <-cw.fsWatcher.Errors:
			if !ok {
				return
			}
			if cw.logger != nil {
				cw.logger.LogError(err, "File watcher error")
			}

		case <-cw.reloadChan:
			if cw.hasAnyFileChanged() {
				if cw.logger != nil {
					cw.logger.Info("Certificate files changed, triggering reload")
				}
				cw.reloadCallback()
			}

		case <-cw.stopChan:
			return
		}
	}
}

// isRelevant reports whether event touches one of the watched files
func (cw *CertWatcher) isRelevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	return slices.ContainsFunc(cw.paths, func(p string) bool {
		return filepath.Clean(p) == name || filepath.Base(p) == filepath.Base(name)
	})
}

// hasAnyFileChanged compares modification times with the last seen ones.
// Every path is checked so all stored times stay current.
func (cw *CertWatcher) hasAnyFileChanged() bool {
	changed := false
	for _, path := range cw.paths {
		if cw.hasFileChanged(path) {
			changed = true
		}
	}
	return changed
}

func (cw *CertWatcher) hasFileChanged(path string) bool {
	stat, err := os.Stat(path)
	if err != nil {
		if _, seen := cw.lastModTime[path]; seen && os.IsNotExist(err) {
			delete(cw.lastModTime, path)
			return true
		}
		return false
	}

	lastMod, seen := cw.lastModTime[path]
	if !seen || !stat.ModTime().Equal(lastMod) {
		cw.lastModTime[path] = stat.ModTime()
		return true
	}
	return false
}

// scheduleReload restarts the debounce timer
func (cw *CertWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.debounceTimer = time.AfterFunc(cw.debounceDelay, func() {
		select {
		case cw.reloadChan <- struct{}{}:
		default:
		}
	})
}

// IsRunning returns whether the watcher is currently running
func (cw *CertWatcher) IsRunning() bool {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.running
}

// GetWatchedFiles returns the list of files being watched
func (cw *CertWatcher) GetWatchedFiles() []string {
	return slices.Clone(cw.paths)
}

func (cw *CertWatcher) warn(msg string, args ...any) {
	if cw.logger != nil {
		cw.logger.Warn(msg, args...)
	}
}
