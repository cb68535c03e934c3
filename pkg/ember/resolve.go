package ember

import (
	"os"
	"path/filepath"
	"strings"
)

// resolve validates the raw request path and maps it to a filesystem path
// under the root. It never returns a path outside the root.
//
// Resolution Process:
//  1. Reject paths containing a NUL byte (400)
//  2. Split on "/" regardless of host OS so traversal can't hide behind
//     backslashes; reject any literal ".." segment (403)
//  3. Join the segments beneath the root with the native separator
//  4. Regular files must be readable (403 otherwise)
//  5. Directories are retried with each configured index file (403 when
//     none resolves)
//  6. Absent entries are 404
//
// Returns the absolute filesystem path and the sanitized logical path
// ("/"-rooted, forward slashes) of the entry to serve.
func (h *Handler) resolve(rawPath string) (fsPath, logicalPath string, serr *StatusError) {
	if strings.ContainsRune(rawPath, 0) {
		return "", "", ErrBadRequest
	}

	var segments []string
	for _, seg := range strings.Split(rawPath, "/") {
		if seg == "" {
			continue
		}
		if seg == ".." {
			return "", "", ErrForbidden
		}
		segments = append(segments, seg)
	}

	fsPath = filepath.Join(append([]string{h.root}, segments...)...)
	logicalPath = "/" + strings.Join(segments, "/")

	// Security check: ensure path is within the root directory
	if fsPath != h.root && !strings.HasPrefix(fsPath, h.root+string(filepath.Separator)) {
		return "", "", ErrForbidden
	}

	if h.isExcluded(fsPath) {
		return "", "", ErrNotFound
	}

	info, err := os.Stat(fsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", ErrNotFound
		}
		return "", "", ErrForbidden
	}

	if info.Mode().IsRegular() {
		if !isReadable(fsPath) {
			return "", "", ErrForbidden
		}
		return fsPath, logicalPath, nil
	}

	if info.IsDir() {
		for _, name := range h.cfg.IndexFiles {
			candidate := filepath.Join(fsPath, name)
			ci, err := os.Stat(candidate)
			if err != nil || !ci.Mode().IsRegular() {
				continue
			}
			if !isReadable(candidate) {
				return "", "", ErrForbidden
			}
			if logicalPath == "/" {
				return candidate, "/" + name, nil
			}
			return candidate, logicalPath + "/" + name, nil
		}
		return "", "", ErrForbidden
	}

	// Sockets, devices and other specials are never served.
	return "", "", ErrForbidden
}

// isExcluded reports whether the basename of path matches any configured
// exclusion pattern (substring match, same as the ignore file semantics).
func (h *Handler) isExcluded(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range h.cfg.Exclude {
		if strings.Contains(base, pattern) {
			return true
		}
	}
	return false
}

// isReadable reports whether the current process can open path for reading.
func isReadable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
