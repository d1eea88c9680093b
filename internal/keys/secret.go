package keys

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// deviceSecretBytes is the entropy drawn for each device-binding secret.
const deviceSecretBytes = 32

// ErrEntropyUnavailable indicates that no cryptographically secure random
// source is available. Issuance must refuse to proceed rather than fall
// back to a clock- or counter-seeded generator.
var ErrEntropyUnavailable = errors.New("secure random source unavailable")

// GenerateDeviceSecret draws 32 bytes from the OS CSPRNG and returns them
// base64-encoded.
func GenerateDeviceSecret() (string, error) {
	return GenerateDeviceSecretWithRand(rand.Reader)
}

// GenerateDeviceSecretWithRand generates a device secret from the provided
// random source.
func GenerateDeviceSecretWithRand(random io.Reader) (string, error) {
	buf := make([]byte, deviceSecretBytes)
	if _, err := io.ReadFull(random, buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
