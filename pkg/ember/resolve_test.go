package ember

import (
	"os"
	"path/filepath"
	"testing"
)

// newTestHandler builds a handler over a temp root populated from files,
// a map of relative path -> contents.
func newTestHandler(t *testing.T, files map[string]string, mutate func(*Config)) (*Handler, string) {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", full, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", full, err)
		}
	}

	cfg := DefaultConfig(root)
	cfg.Logger = NewLogger(LoggerConfig{Level: LogLevelError, Output: os.Stderr})
	if mutate != nil {
		mutate(&cfg)
	}

	h, err := NewHandler(cfg)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return h, root
}

// =============================================================================
// NUL Byte Rejection
// =============================================================================

func TestResolve_NulByteIsBadRequest(t *testing.T) {
	h, _ := newTestHandler(t, map[string]string{"a.txt": "a"}, nil)

	_, _, serr := h.resolve("/a\x00.txt")
	if serr != ErrBadRequest {
		t.Fatalf("expected ErrBadRequest, got %v", serr)
	}
}

// =============================================================================
// Traversal Rejection
// =============================================================================

func TestResolve_DotDotIsForbidden(t *testing.T) {
	h, _ := newTestHandler(t, map[string]string{"a.txt": "a"}, nil)

	for _, p := range []string{"/../secret", "/../../secret", "/dir/../../x", "/.."} {
		if _, _, serr := h.resolve(p); serr != ErrForbidden {
			t.Errorf("resolve(%q): expected ErrForbidden, got %v", p, serr)
		}
	}
}

// =============================================================================
// Regular Files
// =============================================================================

func TestResolve_RegularFile(t *testing.T) {
	h, root := newTestHandler(t, map[string]string{"dir/subdir/song.txt": "x"}, nil)

	fsPath, logical, serr := h.resolve("/dir/subdir/song.txt")
	if serr != nil {
		t.Fatalf("unexpected error: %v", serr)
	}
	want := filepath.Join(root, "dir", "subdir", "song.txt")
	if fsPath != want {
		t.Errorf("fsPath = %q, want %q", fsPath, want)
	}
	if logical != "/dir/subdir/song.txt" {
		t.Errorf("logical = %q", logical)
	}
}

func TestResolve_EmptySegmentsCollapse(t *testing.T) {
	h, _ := newTestHandler(t, map[string]string{"a/b.txt": "x"}, nil)

	_, logical, serr := h.resolve("//a///b.txt")
	if serr != nil {
		t.Fatalf("unexpected error: %v", serr)
	}
	if logical != "/a/b.txt" {
		t.Errorf("logical = %q, want /a/b.txt", logical)
	}
}

func TestResolve_AbsentIsNotFound(t *testing.T) {
	h, _ := newTestHandler(t, map[string]string{"a.txt": "a"}, nil)

	if _, _, serr := h.resolve("/i_dont_exist.txt"); serr != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", serr)
	}
}

// =============================================================================
// Directories And Index Files
// =============================================================================

func TestResolve_DirectoryServesIndex(t *testing.T) {
	h, root := newTestHandler(t, map[string]string{"docs/index.html": "<html/>"}, nil)

	fsPath, logical, serr := h.resolve("/docs")
	if serr != nil {
		t.Fatalf("unexpected error: %v", serr)
	}
	if fsPath != filepath.Join(root, "docs", "index.html") {
		t.Errorf("fsPath = %q", fsPath)
	}
	if logical != "/docs/index.html" {
		t.Errorf("logical = %q", logical)
	}
}

func TestResolve_RootDirectoryServesIndex(t *testing.T) {
	h, _ := newTestHandler(t, map[string]string{"index.html": "<html/>"}, nil)

	_, logical, serr := h.resolve("/")
	if serr != nil {
		t.Fatalf("unexpected error: %v", serr)
	}
	if logical != "/index.html" {
		t.Errorf("logical = %q", logical)
	}
}

func TestResolve_IndexFilesTriedInOrder(t *testing.T) {
	h, root := newTestHandler(t,
		map[string]string{"d/default.htm": "x", "d/home.html": "y"},
		func(c *Config) { c.IndexFiles = []string{"home.html", "default.htm"} })

	fsPath, _, serr := h.resolve("/d")
	if serr != nil {
		t.Fatalf("unexpected error: %v", serr)
	}
	if fsPath != filepath.Join(root, "d", "home.html") {
		t.Errorf("fsPath = %q, want home.html first", fsPath)
	}
}

func TestResolve_DirectoryWithoutIndexIsForbidden(t *testing.T) {
	h, _ := newTestHandler(t, map[string]string{"dir/other.txt": "x"}, nil)

	if _, _, serr := h.resolve("/dir"); serr != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", serr)
	}
}

// =============================================================================
// Exclusion Patterns
// =============================================================================

func TestResolve_ExcludedPatternIsNotFound(t *testing.T) {
	h, _ := newTestHandler(t,
		map[string]string{".env": "SECRET=1", "app.js": "x"},
		func(c *Config) { c.Exclude = []string{".env"} })

	if _, _, serr := h.resolve("/.env"); serr != ErrNotFound {
		t.Fatalf("expected ErrNotFound for excluded file, got %v", serr)
	}
	if _, _, serr := h.resolve("/app.js"); serr != nil {
		t.Fatalf("non-excluded file should resolve, got %v", serr)
	}
}
