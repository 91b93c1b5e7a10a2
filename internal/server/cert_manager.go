package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/observability"
)

// CertificateManager holds the serving certificate and client CA pool and
// swaps them in place when the files on disk change.
type CertificateManager struct {
	mu sync.RWMutex

	tlsConfig config.TLSConfig

	serverCert *tls.Certificate
	caPool     *x509.CertPool
	notAfter   time.Time

	fileWatcher *CertWatcher
	metrics     *observability.Metrics
	logger      *errors.Logger

	reloadCount   int64
	failureCount  int64
	lastReload    time.Time
	lastReloadErr string
}

// NewCertificateManager creates a manager for the configured files
func NewCertificateManager(tlsConfig config.TLSConfig, metrics *observability.Metrics, logger *errors.Logger) *CertificateManager {
	return &CertificateManager{
		tlsConfig: tlsConfig,
		metrics:   metrics,
		logger:    logger,
	}
}

// Start loads the certificates and, when auto-reload is enabled, begins
// watching the files
func (cm *CertificateManager) Start() error {
	if err := cm.loadCertificates(); err != nil {
		return err
	}

	if !cm.tlsConfig.AutoReload.Enabled {
		return nil
	}

	watcher, err := NewCertWatcher(
		cm.tlsConfig.CertFile,
		cm.tlsConfig.KeyFile,
		cm.tlsConfig.CAFile,
		cm.tlsConfig.AutoReload.DebounceDelay,
		cm.triggerReload,
		cm.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create certificate watcher: %w", err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start certificate watcher: %w", err)
	}

	cm.mu.Lock()
	cm.fileWatcher = watcher
	cm.mu.Unlock()
	return nil
}

// Stop stops the file watcher
func (cm *CertificateManager) Stop() error {
	cm.mu.Lock()
	watcher := cm.fileWatcher
	cm.fileWatcher = nil
	cm.mu.Unlock()

	if watcher != nil {
		return watcher.Stop()
	}
	return nil
}

// GetServerCertificate is used as tls.Config.GetCertificate
func (cm *CertificateManager) GetServerCertificate(_ *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.serverCert == nil {
		return nil, fmt.Errorf("no server certificate loaded")
	}
	return cm.serverCert, nil
}

// GetCACertPool returns the current client CA pool (nil outside mutual mode)
func (cm *CertificateManager) GetCACertPool() *x509.CertPool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.caPool
}

// ReloadCertificates reloads the certificates from disk
func (cm *CertificateManager) ReloadCertificates() error {
	err := cm.loadCertificates()
	cm.recordReload(err)
	return err
}

// CheckExpiry returns the time left before the serving certificate expires
func (cm *CertificateManager) CheckExpiry() (time.Duration, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.notAfter.IsZero() {
		return 0, fmt.Errorf("no certificate loaded")
	}
	return time.Until(cm.notAfter), nil
}

// Status reports reload state for the health endpoint
func (cm *CertificateManager) Status() map[string]any {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	status := map[string]any{
		"enabled":              cm.tlsConfig.AutoReload.Enabled,
		"reload_count":         cm.reloadCount,
		"reload_failure_count": cm.failureCount,
	}
	if !cm.lastReload.IsZero() {
		status["last_reload_time"] = cm.lastReload
	}
	if cm.lastReloadErr != "" {
		status["last_reload_error"] = cm.lastReloadErr
	}
	if cm.fileWatcher != nil {
		status["watcher_running"] = cm.fileWatcher.IsRunning()
		status["watched_files"] = cm.fileWatcher.GetWatchedFiles()
	}
	return status
}

// loadCertificates loads and swaps in the certificate and CA pool. On
// error the previous material stays in use.
func (cm *CertificateManager) loadCertificates() error {
	cert, err := tls.LoadX509KeyPair(cm.tlsConfig.CertFile, cm.tlsConfig.KeyFile)
	if err != nil {
		return fmt.Errorf("failed to load server cert/key: %w", err)
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse server certificate: %w", err)
	}
	cert.Leaf = leaf

	var caPool *x509.CertPool
	if cm.tlsConfig.Mode == "mutual" {
		caPool, err = loadCACertPool(cm.tlsConfig.CAFile)
		if err != nil {
			return err
		}
	}

	cm.mu.Lock()
	cm.serverCert = &cert
	cm.caPool = caPool
	cm.notAfter = leaf.NotAfter
	cm.mu.Unlock()

	if cm.logger != nil {
		cm.logger.Info("TLS certificates loaded",
			"cert_file", cm.tlsConfig.CertFile,
			"subject", leaf.Subject.CommonName,
			"not_after", leaf.NotAfter)
	}
	return nil
}

func loadCACertPool(caFile string) (*x509.CertPool, error) {
	if caFile == "" {
		return nil, fmt.Errorf("CA certificate is required for mutual TLS mode")
	}
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}

	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(caCert); !ok {
		return nil, fmt.Errorf("failed to append CA cert from %s", caFile)
	}
	return pool, nil
}

// triggerReload is the watcher callback
func (cm *CertificateManager) triggerReload() {
	if err := cm.ReloadCertificates(); err != nil {
		if cm.logger != nil {
			cm.logger.LogError(err, "Failed to reload TLS certificates, keeping the previous ones")
		}
		return
	}
	if cm.logger != nil {
		cm.logger.Info("TLS certificates reloaded successfully")
	}
}

func (cm *CertificateManager) recordReload(err error) {
	cm.mu.Lock()
	cm.reloadCount++
	cm.lastReload = time.Now()
	if err != nil {
		cm.failureCount++
		cm.lastReloadErr = err.Error()
	} else {
		cm.lastReloadErr = ""
	}
	cm.mu.Unlock()

	cm.metrics.RecordCertReload(context.Background(), err == nil)
}
