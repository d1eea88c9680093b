package issuance

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/opencorebank/pki-console/internal/bundle"
)

// DirSink writes each bundle as a ZIP file into a directory. The
// directory is created on first emission.
type DirSink struct {
	dir string
}

var _ Sink = (*DirSink)(nil)

// NewDirSink creates a sink writing to dir.
func NewDirSink(dir string) *DirSink {
	return &DirSink{dir: dir}
}

// Emit writes the bundle archive to <dir>/<filename> with owner-only
// permissions.
func (s *DirSink) Emit(b *bundle.Bundle) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(s.dir, b.Filename())
	if err := os.WriteFile(path, b.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Dir returns the output directory.
func (s *DirSink) Dir() string {
	return s.dir
}

// MemorySink collects bundles in memory. It backs the API surface, which
// returns archives inline, and tests.
type MemorySink struct {
	bundles []*bundle.Bundle
}

var _ Sink = (*MemorySink)(nil)

// Emit appends the bundle.
func (s *MemorySink) Emit(b *bundle.Bundle) error {
	s.bundles = append(s.bundles, b)
	return nil
}

// Bundles returns the collected bundles in emission order.
func (s *MemorySink) Bundles() []*bundle.Bundle {
	return s.bundles
}
