package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"hsdesk/internal/desk"
)

// ErrWrongPassphrase is returned by TestEncryptor.Unlock for a passphrase
// other than the one given to Setup.
var ErrWrongPassphrase = errors.New("wrong passphrase")

var testMarker = []byte("HSDESK-TEST\n")

// TestEncryptor frames data with a fixed marker instead of encrypting it.
// It is deterministic and needs no key files, which keeps snapshot tests fast.
type TestEncryptor struct {
	passphrase string
	configured bool
}

var _ desk.Encryptor = (*TestEncryptor)(nil)

func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{configured: true}
}

// Setup remembers passphrase; later Unlock calls must present the same one.
func (e *TestEncryptor) Setup(passphrase string) error {
	e.passphrase = passphrase
	e.configured = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testMarker); err != nil {
		return fmt.Errorf("writing test marker: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (desk.DecryptionContext, error) {
	if e.passphrase != "" && passphrase != e.passphrase {
		return nil, ErrWrongPassphrase
	}
	return TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return e.configured
}

// TestDecryptionContext removes the marker written by TestEncryptor.
type TestDecryptionContext struct{}

var _ desk.DecryptionContext = TestDecryptionContext{}

func (TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	marker := make([]byte, len(testMarker))
	if _, err := io.ReadFull(r, marker); err != nil {
		return fmt.Errorf("reading test marker: %w", err)
	}
	if !bytes.Equal(marker, testMarker) {
		return fmt.Errorf("not a test-encrypted snapshot")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
