package ember

import (
	"fmt"
	"path"
	"slices"
	"strings"
)

// defaultMIMETypes is the built-in extension -> media-type table, used when
// the configuration does not inject its own.
var defaultMIMETypes = map[string]string{
	// Text
	".txt":  "text/plain",
	".csv":  "text/csv",
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".mjs":  "application/javascript",
	".json": "application/json",
	".xml":  "application/xml",
	".md":   "text/markdown",

	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",

	// Fonts
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".otf":   "font/otf",

	// Documents
	".pdf": "application/pdf",

	// Audio
	".mp3": "audio/mpeg",
	".wav": "audio/wav",
	".ogg": "audio/ogg",
	".m4a": "audio/mp4",

	// Video
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",

	// Archives
	".zip": "application/zip",
	".tar": "application/x-tar",
	".gz":  "application/gzip",
	".7z":  "application/x-7z-compressed",

	// Binary
	".wasm": "application/wasm",
}

// selectPolicy picks the media type and cache policy for the resolved file
// and records them on the representation.
//
// Content-type precedence:
//  1. Types[ext].ContentType from the configuration
//  2. The injected MIME table
//  3. "text/plain"
//
// Cache policy assembly (later steps override earlier):
//  1. Configured defaults (one-day public caching out of the box)
//  2. Per-extension overrides from Types[ext]
//  3. shouldETag = ETag default AND no "no-store" directive
//  4. max-age=<validFor> prepended unless "no-store" is present
func (h *Handler) selectPolicy(rep *representation) {
	ext := strings.ToLower(path.Ext(rep.logicalPath))
	rep.extension = ext

	rule, hasRule := h.cfg.Types[ext]

	rep.contentType = "text/plain"
	if mt, ok := h.mimeTypes[ext]; ok {
		rep.contentType = mt
	}
	if hasRule && rule.ContentType != "" {
		rep.contentType = rule.ContentType
	}

	rep.validFor = h.cfg.Defaults.ValidFor
	rep.cacheControl = slices.Clone(h.cfg.Defaults.CacheControl)
	if hasRule {
		if rule.ValidFor != nil {
			rep.validFor = *rule.ValidFor
		}
		if rule.CacheControl != nil {
			rep.cacheControl = slices.Clone(rule.CacheControl)
		}
	}

	noStore := slices.Contains(rep.cacheControl, "no-store")
	rep.shouldETag = h.cfg.Defaults.ETag && !noStore
	if !noStore {
		rep.cacheControl = append(
			[]string{fmt.Sprintf("max-age=%d", rep.validFor)},
			rep.cacheControl...,
		)
	}
}

// charsetTypes are the non-text/ media types that still carry a charset
// parameter in Content-Type.
var charsetTypes = map[string]bool{
	"application/json":       true,
	"application/xml":        true,
	"application/javascript": true,
}

// fullContentType appends "; charset=<encoding>" to textual media types.
func (h *Handler) fullContentType(contentType string) string {
	if strings.HasPrefix(contentType, "text/") || charsetTypes[contentType] {
		return contentType + "; charset=" + h.cfg.Encoding
	}
	return contentType
}
