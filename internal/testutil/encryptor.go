package testutil

import (
	"testing"

	"hsdesk/internal/encryption"
)

// TestPassphrase is the passphrase NewTestEncryptor is set up with.
const TestPassphrase = "correct horse"

// NewTestEncryptor returns a test encryptor that is already set up.
func NewTestEncryptor(t *testing.T) *encryption.TestEncryptor {
	t.Helper()

	enc := encryption.NewTestEncryptor()
	if err := enc.Setup(TestPassphrase); err != nil {
		t.Fatalf("failed to set up encryptor: %v", err)
	}
	return enc
}
