package vault

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"

	"hsdesk/internal/desk"
)

// MemoryVault keeps snapshots in memory. It is safe for concurrent use.
type MemoryVault struct {
	name      string
	snapshots map[string]map[string][]byte // hostID -> name -> data
	mu        sync.RWMutex
}

func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:      name,
		snapshots: make(map[string]map[string][]byte),
	}
}

func (m *MemoryVault) PutSnapshot(hostID string, name string, r io.Reader, size int64) error {
	if err := checkHostAndName(hostID, name); err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	host, ok := m.snapshots[hostID]
	if !ok {
		host = make(map[string][]byte)
		m.snapshots[hostID] = host
	}
	host[name] = data
	return nil
}

func (m *MemoryVault) GetSnapshot(hostID string, name string, w io.Writer) error {
	m.mu.RLock()
	data, ok := m.snapshots[hostID][name]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("snapshot %q not found for host: %s", name, hostID)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func (m *MemoryVault) ListSnapshots(hostID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.snapshots[hostID]))
	for name := range m.snapshots[hostID] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ValidateSetup always succeeds for the in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

var _ desk.Vault = (*MemoryVault)(nil)
