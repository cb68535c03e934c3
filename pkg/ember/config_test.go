package ember

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// =============================================================================
// Defaults
// =============================================================================

func TestConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig("./public")

	if cfg.Encoding != "UTF-8" {
		t.Errorf("Encoding = %q", cfg.Encoding)
	}
	if cfg.Defaults.ValidFor != 86400 {
		t.Errorf("ValidFor = %d", cfg.Defaults.ValidFor)
	}
	if !slices.Equal(cfg.Defaults.CacheControl, []string{"public"}) {
		t.Errorf("CacheControl = %v", cfg.Defaults.CacheControl)
	}
	if !cfg.Defaults.Minify || !cfg.Defaults.Compress || !cfg.Defaults.ETag {
		t.Error("feature flags must default to on")
	}
	if !slices.Equal(cfg.IndexFiles, []string{"index.html"}) {
		t.Errorf("IndexFiles = %v", cfg.IndexFiles)
	}
}

func TestConfig_MissingRootRejected(t *testing.T) {
	if _, err := NewHandler(Config{}); err == nil {
		t.Fatal("expected validation error for empty root")
	}
}

func TestConfig_NonexistentRootRejected(t *testing.T) {
	if _, err := NewHandler(DefaultConfig("/no/such/dir/ever")); err == nil {
		t.Fatal("expected error for nonexistent root")
	}
}

func TestConfig_RootMustBeDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewHandler(DefaultConfig(file)); err == nil {
		t.Fatal("expected error for file root")
	}
}

// =============================================================================
// File Loading
// =============================================================================

func TestConfig_LoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ember.yaml")
	data := `
encoding: ISO-8859-1
min_cache_dir: mincache
defaults:
  valid_for: 3600
  cache_control: [public, immutable]
  minify: true
  compress: true
  etag: true
types:
  ".less":
    content_type: text/stylesheet-less
    valid_for: 60
index_files: [home.html, index.html]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(DefaultConfig(dir), path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Encoding != "ISO-8859-1" {
		t.Errorf("Encoding = %q", cfg.Encoding)
	}
	if cfg.MinCacheDir != "mincache" {
		t.Errorf("MinCacheDir = %q", cfg.MinCacheDir)
	}
	if cfg.Defaults.ValidFor != 3600 {
		t.Errorf("ValidFor = %d", cfg.Defaults.ValidFor)
	}
	rule, ok := cfg.Types[".less"]
	if !ok || rule.ContentType != "text/stylesheet-less" {
		t.Errorf("Types = %v", cfg.Types)
	}
	if rule.ValidFor == nil || *rule.ValidFor != 60 {
		t.Errorf("per-type ValidFor = %v", rule.ValidFor)
	}
	if !slices.Equal(cfg.IndexFiles, []string{"home.html", "index.html"}) {
		t.Errorf("IndexFiles = %v", cfg.IndexFiles)
	}
	// Root came from the base config, not the file.
	if cfg.Root != dir {
		t.Errorf("Root = %q", cfg.Root)
	}
}

func TestConfig_LoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ember.json")
	data := `{"defaults": {"valid_for": 120, "cache_control": ["private"], "minify": true, "compress": true, "etag": false}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(DefaultConfig(dir), path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Defaults.ValidFor != 120 {
		t.Errorf("ValidFor = %d", cfg.Defaults.ValidFor)
	}
	if !slices.Equal(cfg.Defaults.CacheControl, []string{"private"}) {
		t.Errorf("CacheControl = %v", cfg.Defaults.CacheControl)
	}
	if cfg.Defaults.ETag {
		t.Error("ETag should be disabled by the file")
	}
}

func TestConfig_LoadUnknownFormatRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ember.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(DefaultConfig(dir), path); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

// =============================================================================
// Ignore File
// =============================================================================

func TestConfig_LoadIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".serveignore")
	data := "# secrets\n.env\n\n.git\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadIgnoreFile(DefaultConfig(dir), path)
	if err != nil {
		t.Fatalf("LoadIgnoreFile: %v", err)
	}

	if !slices.Equal(cfg.Exclude, []string{".env", ".git"}) {
		t.Errorf("Exclude = %v", cfg.Exclude)
	}
}
