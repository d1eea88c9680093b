package keys

import (
	"encoding/base64"
	"fmt"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
)

// ValidateMLKEMPrivateKey checks that the supplementary key material
// returned by the CA decodes to a well-formed ML-KEM-768 private key.
// The material itself stays opaque; it is validated before being placed
// in a credential bundle so that a corrupt CA response fails the
// recipient instead of shipping unusable key material.
func ValidateMLKEMPrivateKey(encoded string) error {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("ML-KEM private key is not valid base64: %w", err)
	}

	scheme := mlkem768.Scheme()
	if len(raw) != scheme.PrivateKeySize() {
		return fmt.Errorf("ML-KEM private key has %d bytes, want %d", len(raw), scheme.PrivateKeySize())
	}

	if _, err := scheme.UnmarshalBinaryPrivateKey(raw); err != nil {
		return fmt.Errorf("failed to parse ML-KEM private key: %w", err)
	}
	return nil
}
