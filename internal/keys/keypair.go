// Package keys generates the local key material used during privileged
// credential issuance: the per-operator RSA signing key pair and the
// device-binding secret.
//
// Private key material produced here lives only in memory and leaves the
// process exclusively inside an assembled credential bundle. Nothing in
// this package performs network or disk I/O.
package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
)

// rsaKeyBits is the modulus size for operator signing keys. The public
// exponent is 65537 (the crypto/rsa default).
const rsaKeyBits = 3072

// ErrCryptoUnavailable indicates that no secure key-generation primitive
// is available. Issuance must abort; there is no weaker fallback.
var ErrCryptoUnavailable = errors.New("secure key generation unavailable")

// KeyPair holds the exported forms of a freshly generated signing key pair.
type KeyPair struct {
	// PublicKeySPKI is the DER SubjectPublicKeyInfo encoding of the
	// public key, base64-encoded for transport to the CA.
	PublicKeySPKI string

	// PrivateKeyPEM is the PKCS#8 DER encoding of the private key
	// wrapped in standard PEM armor ("PRIVATE KEY" blocks, 64-character
	// body lines). The exact armor is a compatibility contract with
	// downstream tooling and must not be altered.
	PrivateKeyPEM string
}

// GenerateKeyPair generates a new RSA-3072 signing key pair and exports
// both halves in their transport encodings.
func GenerateKeyPair() (*KeyPair, error) {
	return GenerateKeyPairWithRand(rand.Reader)
}

// GenerateKeyPairWithRand generates a key pair using the provided random
// source. This is useful for testing with deterministic randomness.
func GenerateKeyPairWithRand(random io.Reader) (*KeyPair, error) {
	priv, err := rsa.GenerateKey(random, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoUnavailable, err)
	}

	spki, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encode public key: %w", err)
	}

	pkcs8, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to encode private key: %w", err)
	}

	block := &pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: pkcs8,
	}

	return &KeyPair{
		PublicKeySPKI: base64.StdEncoding.EncodeToString(spki),
		PrivateKeyPEM: string(pem.EncodeToMemory(block)),
	}, nil
}
