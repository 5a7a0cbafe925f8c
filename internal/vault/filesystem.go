package vault

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hsdesk/internal/desk"
)

// FileSystemVault stores snapshots as files:
//
//	<root>/
//	  snapshots/
//	    <hostID>/
//	      <name>
type FileSystemVault struct {
	name         string
	root         string
	snapshotsDir string
}

// NewFileSystemVault creates a vault rooted at root, creating the layout if needed.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	snapshotsDir := filepath.Join(root, "snapshots")
	if err := os.MkdirAll(snapshotsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshots directory: %w", err)
	}

	return &FileSystemVault{
		name:         name,
		root:         root,
		snapshotsDir: snapshotsDir,
	}, nil
}

// PutSnapshot writes the snapshot atomically (temp file + rename) so a
// concurrent reader never sees a partial file.
func (v *FileSystemVault) PutSnapshot(hostID string, name string, r io.Reader, size int64) error {
	if err := checkHostAndName(hostID, name); err != nil {
		return err
	}

	hostDir := filepath.Join(v.snapshotsDir, hostID)
	if err := os.MkdirAll(hostDir, 0755); err != nil {
		return fmt.Errorf("failed to create host directory: %w", err)
	}

	tmp, err := os.CreateTemp(hostDir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, filepath.Join(hostDir, name)); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	committed = true
	return nil
}

func (v *FileSystemVault) GetSnapshot(hostID string, name string, w io.Writer) error {
	if err := checkHostAndName(hostID, name); err != nil {
		return err
	}

	f, err := os.Open(filepath.Join(v.snapshotsDir, hostID, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("snapshot %q not found for host: %s", name, hostID)
		}
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns stored snapshot names; temp files from interrupted writes are skipped.
func (v *FileSystemVault) ListSnapshots(hostID string) ([]string, error) {
	if err := checkKey("host id", hostID); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(v.snapshotsDir, hostID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".tmp-") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	for _, dir := range []string{v.root, v.snapshotsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}
	return nil
}

var _ desk.Vault = (*FileSystemVault)(nil)
