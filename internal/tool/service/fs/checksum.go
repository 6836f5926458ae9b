package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// ChecksumStore remembers the SHA-256 of each file as last seen by a tool, so
// edits can detect files changed behind the agent's back.
type ChecksumStore struct {
	mu    sync.RWMutex
	store map[string]string
}

func NewChecksumStore() *ChecksumStore {
	return &ChecksumStore{store: make(map[string]string)}
}

// Compute computes the SHA-256 checksum of data and returns it as a hex string.
func (m *ChecksumStore) Compute(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Get retrieves the cached checksum for a file path.
func (m *ChecksumStore) Get(path string) (checksum string, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	checksum, ok = m.store[path]
	return checksum, ok
}

// Update stores or updates the checksum for a file path.
func (m *ChecksumStore) Update(path string, checksum string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[path] = checksum
}

// Forget drops the checksum for a path, e.g. after deletion.
func (m *ChecksumStore) Forget(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, path)
}
