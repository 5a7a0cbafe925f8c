package desk

import "io"

// Vault stores encrypted settings snapshots.
// All operations stream through io.Reader/io.Writer so backends never need
// the whole snapshot in memory.
type Vault interface {
	// PutSnapshot stores a named snapshot for a host, replacing any previous
	// snapshot with the same name. size is the number of bytes that will be read from r.
	PutSnapshot(hostID string, name string, r io.Reader, size int64) error

	// GetSnapshot retrieves a named snapshot for a host and writes it to w.
	GetSnapshot(hostID string, name string, w io.Writer) error

	// ListSnapshots returns the snapshot names stored for a host, sorted ascending.
	ListSnapshots(hostID string) ([]string, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
