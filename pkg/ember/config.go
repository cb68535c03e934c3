package ember

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

// json is the codec used for JSON configuration files.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Defaults holds the cache-policy and feature defaults applied to every
// served file unless a per-extension TypeRule overrides them.
//
// Policy Assembly:
//   - ValidFor and CacheControl seed the cache policy for every response
//   - Minify, Compress and ETag switch whole pipeline stages on or off
//   - A type whose effective Cache-Control contains "no-store" never gets
//     a max-age directive, an ETag header, or an .etag sidecar
type Defaults struct {
	// ValidFor is the validity window in seconds used for max-age and the
	// Expires header. Negative values produce an already-expired Expires.
	// Default: 86400 (one day)
	ValidFor int `yaml:"valid_for" json:"valid_for"`

	// CacheControl lists the Cache-Control directives emitted with every
	// response. max-age=<ValidFor> is prepended automatically unless the
	// list contains "no-store".
	// Default: ["public"]
	CacheControl []string `yaml:"cache_control" json:"cache_control"`

	// Minify enables the CSS/JS minification stage.
	// Default: true
	Minify bool `yaml:"minify" json:"minify"`

	// Compress enables the content-encoding negotiation stage.
	// Default: true
	Compress bool `yaml:"compress" json:"compress"`

	// ETag enables ETag materialization and If-None-Match validation.
	// Default: true
	ETag bool `yaml:"etag" json:"etag"`
}

// TypeRule overrides content type and cache policy for one file extension.
// Extensions are keyed dot-prefixed (".less", ".woff2"); unset fields fall
// back to the configured defaults.
type TypeRule struct {
	// ContentType replaces the MIME table lookup for this extension.
	// Example: "text/stylesheet-less"
	ContentType string `yaml:"content_type" json:"content_type"`

	// ValidFor overrides Defaults.ValidFor when non-nil.
	ValidFor *int `yaml:"valid_for" json:"valid_for"`

	// CacheControl replaces Defaults.CacheControl when non-nil.
	CacheControl []string `yaml:"cache_control" json:"cache_control"`
}

// Config holds the immutable configuration for a Handler.
// Construct with DefaultConfig, optionally layer a YAML or JSON file on top
// with LoadConfig, then pass to NewHandler. A Config must not be modified
// after the Handler is built.
type Config struct {
	// Root is the directory under which all served files must reside.
	// Required. Relative paths are resolved to absolute at construction.
	Root string `yaml:"root" json:"root" validate:"required"`

	// Encoding is the character set appended to text/, JSON, XML and
	// JavaScript media types.
	// Default: "UTF-8"
	Encoding string `yaml:"encoding" json:"encoding"`

	// Defaults are the cache-policy and feature defaults.
	Defaults Defaults `yaml:"defaults" json:"defaults"`

	// Types maps dot-prefixed extensions to per-type overrides.
	// Example: {".less": {ContentType: "text/stylesheet-less"}}
	Types map[string]TypeRule `yaml:"types" json:"types"`

	// MinCacheDir, when set, is a directory relative to Root into which
	// minified outputs are written and from which they are read
	// exclusively. Nested source paths are flattened into it by encoding
	// "/" as "%2F".
	MinCacheDir string `yaml:"min_cache_dir" json:"min_cache_dir"`

	// IndexFiles are tried in order when a resolved path is a directory.
	// Default: ["index.html"]
	IndexFiles []string `yaml:"index_files" json:"index_files"`

	// Exclude lists substring patterns matched against the basename of
	// resolved paths; matches are treated as absent (404). Typically
	// populated from an ignore file.
	// Example: [".git", ".env"]
	Exclude []string `yaml:"exclude" json:"exclude"`

	// MIMETypes is the extension -> media-type table consulted after
	// per-type overrides. When nil, a built-in table is used.
	MIMETypes map[string]string `yaml:"mime_types" json:"mime_types"`

	// Logger receives pipeline warnings and server diagnostics.
	// When nil, the package default logger is used.
	Logger *Logger `yaml:"-" json:"-"`
}

// DefaultConfig returns the configuration the original server ships with:
// one-day public caching, minification, compression and ETags all enabled,
// index.html directory indexes, UTF-8 text encoding.
//
// Parameters:
//   - root: Root directory path (required)
//
// Returns:
//   - Config: Default configuration for the given root
//
// Example:
//
//	cfg := ember.DefaultConfig("./public")
//	cfg.Types = map[string]ember.TypeRule{
//	    ".less": {ContentType: "text/stylesheet-less"},
//	}
func DefaultConfig(root string) Config {
	return Config{
		Root:     root,
		Encoding: "UTF-8",
		Defaults: Defaults{
			ValidFor:     86400,
			CacheControl: []string{"public"},
			Minify:       true,
			Compress:     true,
			ETag:         true,
		},
		Types:      make(map[string]TypeRule),
		IndexFiles: []string{"index.html"},
	}
}

// LoadConfig layers a configuration file over cfg and returns the result.
// The format is chosen by extension: .yaml/.yml use YAML, .json uses JSON.
// Keys absent from the file keep their current values, so layering a partial
// file over DefaultConfig yields a complete configuration.
//
// Parameters:
//   - cfg: Base configuration (usually DefaultConfig(root))
//   - path: Path to the configuration file
//
// Returns:
//   - Config: Merged configuration
//   - error: Read or decode error
func LoadConfig(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config format: %s", path)
	}

	return cfg, nil
}

// LoadIgnoreFile reads a newline-separated pattern list and appends the
// patterns to cfg.Exclude. Blank lines and lines starting with "#" are
// skipped.
func LoadIgnoreFile(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading ignore file %s: %w", path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cfg.Exclude = append(cfg.Exclude, line)
	}

	return cfg, nil
}

// validate is the shared validator instance for Config structs.
var validate = validator.New()

// normalize validates cfg, resolves Root to an absolute path and fills in
// zero-valued fields with their defaults. Returns the normalized copy.
func (c Config) normalize() (Config, error) {
	if err := validate.Struct(c); err != nil {
		return c, fmt.Errorf("invalid config: %w", err)
	}

	absRoot, err := filepath.Abs(c.Root)
	if err != nil {
		return c, fmt.Errorf("invalid root directory: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return c, fmt.Errorf("root directory %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return c, fmt.Errorf("root %s is not a directory", absRoot)
	}

	c.Root = absRoot

	if c.Encoding == "" {
		c.Encoding = "UTF-8"
	}
	if len(c.IndexFiles) == 0 {
		c.IndexFiles = []string{"index.html"}
	}
	if c.Defaults.ValidFor == 0 && c.Defaults.CacheControl == nil {
		c.Defaults.ValidFor = 86400
		c.Defaults.CacheControl = []string{"public"}
	}
	if c.Logger == nil {
		c.Logger = GetDefaultLogger()
	}

	return c, nil
}
