package api

import (
	"bytes"
	"crypto/sha256"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

// ErrNoPublicKey is returned by Verify when the QR payload carries no public key.
var ErrNoPublicKey = errors.New("pairing payload has no public key")

// PairingCode is the body of GET /api/v1/appairage/generer-code.
// QRData is opaque to the client; it is only re-encoded for display.
type PairingCode struct {
	QRData      json.RawMessage `json:"donnees_pour_qr"`
	Fingerprint string          `json:"empreinte_securite"`
}

// QRContent returns the payload as compact JSON, the exact text to encode in the QR code.
func (p PairingCode) QRContent() (string, error) {
	if len(p.QRData) == 0 || bytes.Equal(p.QRData, []byte("null")) {
		return "", fmt.Errorf("pairing payload is empty")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, p.QRData); err != nil {
		return "", fmt.Errorf("compacting pairing payload: %w", err)
	}
	return buf.String(), nil
}

type qrFields struct {
	HostName     string `json:"nom_hote"`
	PublicKeyPEM string `json:"cle_publique_pem"`
}

func (p PairingCode) fields() qrFields {
	var f qrFields
	_ = json.Unmarshal(p.QRData, &f) // the payload is opaque; missing fields stay empty
	return f
}

// HostName returns the advertising host name, if the payload has one.
func (p PairingCode) HostName() string { return p.fields().HostName }

// Verify recomputes the fingerprint from the public key in the payload and
// compares it with the one the backend displayed.
func (p PairingCode) Verify() (bool, error) {
	key := p.fields().PublicKeyPEM
	if key == "" {
		return false, ErrNoPublicKey
	}
	fp, err := Fingerprint(key)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(fp, strings.TrimSpace(p.Fingerprint)), nil
}

// Fingerprint returns the first 16 bytes of SHA-256 over the DER-encoded
// SubjectPublicKeyInfo, as colon-separated upper-case hex (AB:CD:...).
func Fingerprint(publicKeyPEM string) (string, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return "", fmt.Errorf("public key is not PEM encoded")
	}
	if _, err := x509.ParsePKIXPublicKey(block.Bytes); err != nil {
		return "", fmt.Errorf("parsing public key: %w", err)
	}

	sum := sha256.Sum256(block.Bytes)
	parts := make([]string, 16)
	for i := range parts {
		parts[i] = fmt.Sprintf("%02X", sum[i])
	}
	return strings.Join(parts, ":"), nil
}
