package ember

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// sidecarState classifies a derived file against the mtime of its source.
// A sidecar is fresh iff its mtime is not earlier than the source's; equal
// timestamps favor the sidecar.
func sidecarState(sidecarPath string, sourceMtime time.Time) (exists, fresh bool) {
	info, err := os.Stat(sidecarPath)
	if err != nil {
		return false, false
	}
	return true, !info.ModTime().Before(sourceMtime)
}

// dropStaleSidecar removes a sidecar that is older than its source so the
// caller can regenerate it. Removal racing a concurrent reader is tolerated:
// the reader either got the old bytes or sees absence and regenerates.
func dropStaleSidecar(path string) {
	os.Remove(path)
}

// writeSidecarLocked creates or replaces the sidecar at path under an
// exclusive advisory lock. Two requests racing to create the same sidecar
// both compute and write it; the lock serializes the writes so readers never
// observe a torn file, and the last writer wins. A failed write removes the
// partial file so it cannot be mistaken for a fresh sidecar.
func writeSidecarLocked(path string, write func(f *os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	lock := flock.New(path)
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}

	return nil
}

// readSidecarLocked returns the full contents of the sidecar at path, read
// under a shared advisory lock.
func readSidecarLocked(path string) ([]byte, error) {
	lock := flock.New(path)
	if err := lock.RLock(); err != nil {
		return nil, err
	}
	defer lock.Unlock()

	return os.ReadFile(path)
}
