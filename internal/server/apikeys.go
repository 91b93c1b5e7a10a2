package server

import (
	"crypto/subtle"
	"sync"
)

// APIKeyStore holds the accepted API keys. Keys can be replaced while the
// server is running.
type APIKeyStore struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

// NewAPIKeyStore creates a store; blank keys are ignored
func NewAPIKeyStore(keys []string) *APIKeyStore {
	s := &APIKeyStore{}
	s.Replace(keys)
	return s
}

// Replace swaps the full key set
func (s *APIKeyStore) Replace(keys []string) {
	next := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key != "" {
			next[key] = struct{}{}
		}
	}

	s.mu.Lock()
	s.keys = next
	s.mu.Unlock()
}

// Enabled reports whether authentication is required
func (s *APIKeyStore) Enabled() bool {
	return s.Len() > 0
}

// Len returns the number of configured keys
func (s *APIKeyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Valid reports whether key is accepted
func (s *APIKeyStore) Valid(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	valid := false
	for k := range s.keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			valid = true
		}
	}
	return valid
}
