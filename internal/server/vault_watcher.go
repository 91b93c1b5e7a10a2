package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"resumescore/internal/errors"
	"resumescore/internal/observability"
)

const defaultKeyPollInterval = 5 * time.Minute

// APIKeySource reads the server API keys and the secret version
type APIKeySource interface {
	GetAPIKeys() ([]string, int64, error)
}

// KeyWatcher polls Vault for the API keys secret and swaps the key set
// when the secret version increases
type KeyWatcher struct {
	mu sync.RWMutex

	source       APIKeySource
	store        *APIKeyStore
	pollInterval time.Duration
	metrics      *observability.Metrics
	logger       *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
	lastCheck   time.Time
	lastError   string
}

// NewKeyWatcher creates a watcher that updates store
func NewKeyWatcher(source APIKeySource, store *APIKeyStore, pollInterval time.Duration, metrics *observability.Metrics, logger *errors.Logger) *KeyWatcher {
	if pollInterval <= 0 {
		pollInterval = defaultKeyPollInterval
	}
	return &KeyWatcher{
		source:       source,
		store:        store,
		pollInterval: pollInterval,
		metrics:      metrics,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start performs an initial check and begins polling
func (kw *KeyWatcher) Start() error {
	kw.mu.Lock()
	if kw.running {
		kw.mu.Unlock()
		return fmt.Errorf("key watcher is already running")
	}
	kw.running = true
	kw.mu.Unlock()

	if _, err := kw.checkForUpdates(); err != nil && kw.logger != nil {
		kw.logger.LogError(err, "Initial API key check against Vault failed")
	}

	go kw.pollLoop()

	if kw.logger != nil {
		kw.logger.Info("API key watcher started", "poll_interval", kw.pollInterval)
	}
	return nil
}

// Stop stops polling
func (kw *KeyWatcher) Stop() error {
	kw.mu.Lock()
	defer kw.mu.Unlock()
	if !kw.running {
		return nil
	}
	close(kw.stopChan)
	kw.running = false
	if kw.logger != nil {
		kw.logger.Info("API key watcher stopped")
	}
	return nil
}

func (kw *KeyWatcher) pollLoop() {
	ticker := time.NewTicker(kw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := kw.checkForUpdates(); err != nil && kw.logger != nil {
				kw.logger.LogError(err, "Failed to check Vault for API key updates")
			}
		case <-kw.stopChan:
			return
		}
	}
}

// checkForUpdates reads the secret and applies it when its version is
// newer than the last applied one. An empty key list is never applied:
// that would silently turn authentication off.
func (kw *KeyWatcher) checkForUpdates() (bool, error) {
	keys, version, err := kw.source.GetAPIKeys()

	kw.mu.Lock()
	defer kw.mu.Unlock()
	kw.lastCheck = time.Now()

	if err != nil {
		kw.lastError = err.Error()
		kw.metrics.RecordKeyRotation(context.Background(), version, false)
		return false, fmt.Errorf("failed to read API keys: %w", err)
	}
	if version <= kw.lastVersion {
		kw.lastError = ""
		return false, nil
	}
	if len(keys) == 0 {
		kw.lastError = fmt.Sprintf("secret version %d has no API keys", version)
		kw.metrics.RecordKeyRotation(context.Background(), version, false)
		return false, fmt.Errorf("refusing to apply empty API key set (version %d)", version)
	}

	kw.store.Replace(keys)
	kw.lastVersion = version
	kw.lastError = ""
	kw.metrics.RecordKeyRotation(context.Background(), version, true)

	if kw.logger != nil {
		kw.logger.Info("API keys rotated from Vault", "version", version, "count", len(keys))
	}
	return true, nil
}

// Status returns the current status for the stats endpoint
func (kw *KeyWatcher) Status() map[string]any {
	kw.mu.RLock()
	defer kw.mu.RUnlock()
	status := map[string]any{
		"running":       kw.running,
		"poll_interval": kw.pollInterval.String(),
		"last_version":  kw.lastVersion,
	}
	if !kw.lastCheck.IsZero() {
		status["last_check"] = kw.lastCheck
	}
	if kw.lastError != "" {
		status["last_error"] = kw.lastError
	}
	return status
}
