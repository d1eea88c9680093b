package bundle

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

// Artifacts holds the credential material eligible for bundling. Empty
// fields are simply omitted from the archive.
type Artifacts struct {
	// CertificatePEM is the certificate issued by the CA.
	CertificatePEM string

	// PrivateKeyPEM is the locally generated RSA private key.
	PrivateKeyPEM string

	// MLKEMPrivateKey is the supplementary key-encapsulation material
	// returned by the CA (opaque base64 text).
	MLKEMPrivateKey string

	// DeviceSecret is the base64-encoded device-binding secret.
	DeviceSecret string
}

// Entry is a single named file inside a credential bundle.
type Entry struct {
	Name string
	Data []byte
}

// Bundle is an immutable in-memory ZIP archive holding one recipient's
// credential material. It is built once by Assemble and its lifetime
// ends when the archive has been emitted.
type Bundle struct {
	label   string
	entries []Entry
	archive []byte
}

// Assemble packages the available artifacts into a ZIP archive. Each
// non-empty artifact becomes one entry named <kind>_<label>.<ext>; the
// archive has no fixed entry count.
func Assemble(recipientLabel string, artifacts Artifacts) (*Bundle, error) {
	label := SanitizeLabel(recipientLabel)

	var entries []Entry
	add := func(kind, ext, content string) {
		if content == "" {
			return
		}
		entries = append(entries, Entry{
			Name: fmt.Sprintf("%s_%s.%s", kind, label, ext),
			Data: []byte(content),
		})
	}
	add("certificate", "pem", artifacts.CertificatePEM)
	add("rsa_private", "pem", artifacts.PrivateKeyPEM)
	add("ml_kem_private", "txt", artifacts.MLKEMPrivateKey)
	add("device_secret", "txt", artifacts.DeviceSecret)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create archive entry %s: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("failed to write archive entry %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return &Bundle{
		label:   label,
		entries: entries,
		archive: buf.Bytes(),
	}, nil
}

// Label returns the sanitized recipient label.
func (b *Bundle) Label() string {
	return b.label
}

// Filename returns the suggested download filename for the archive.
func (b *Bundle) Filename() string {
	return "credential_" + b.label + ".zip"
}

// Len returns the number of entries in the archive.
func (b *Bundle) Len() int {
	return len(b.entries)
}

// EntryNames returns the archive entry names in assembly order.
func (b *Bundle) EntryNames() []string {
	names := make([]string, len(b.entries))
	for i, e := range b.entries {
		names[i] = e.Name
	}
	return names
}

// Bytes returns the serialized ZIP archive.
func (b *Bundle) Bytes() []byte {
	return b.archive
}

// WriteTo writes the serialized archive to w.
func (b *Bundle) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.archive)
	return int64(n), err
}

// ReadEntry extracts a single entry from the serialized archive by name.
// It is primarily useful for verifying archive contents.
func (b *Bundle) ReadEntry(name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(b.archive), int64(len(b.archive)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open entry %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("entry %s not found in archive", name)
}
