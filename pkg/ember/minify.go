package ember

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
)

// Media types the minification stage acts on.
const (
	mimeCSS = "text/css"
	mimeJS  = "application/javascript"
)

// newMinifier builds the process-wide minifier and reports which media types
// it can handle. Capabilities are detected once at startup and stored in the
// handler; the request pipeline only consults the set.
func newMinifier() (*minify.M, map[string]bool) {
	m := minify.New()
	m.AddFunc(mimeCSS, css.Minify)
	m.AddFunc(mimeJS, js.Minify)

	return m, map[string]bool{
		mimeCSS: true,
		mimeJS:  true,
	}
}

// minifyStage locates or produces a minified sibling of the current file and
// substitutes it into the representation. Engaged only for CSS and JavaScript
// sources that are not already minified; any failure leaves the original in
// place.
//
// Freshness: an existing candidate is reused unless the source mtime is
// strictly newer, in which case it is deleted and regenerated. Concurrent
// writers to the same candidate are serialized by an exclusive advisory lock;
// last writer wins, and both produce equivalent output.
func (h *Handler) minifyStage(rep *representation) {
	if !h.cfg.Defaults.Minify {
		return
	}
	if rep.contentType != mimeCSS && rep.contentType != mimeJS {
		return
	}

	lower := strings.ToLower(rep.currentFile)
	if strings.HasSuffix(lower, ".min.css") || strings.HasSuffix(lower, ".min.js") {
		return
	}

	candidate := h.minifiedPath(rep)
	if candidate == "" {
		return
	}

	srcInfo, err := os.Stat(rep.currentFile)
	if err != nil {
		return
	}

	exists, fresh := sidecarState(candidate, srcInfo.ModTime())
	if exists && fresh {
		rep.currentFile = candidate
		return
	}
	if exists {
		dropStaleSidecar(candidate)
	}

	if !h.minifiers[rep.contentType] {
		return
	}

	source, err := os.ReadFile(rep.currentFile)
	if err != nil {
		h.log.Warn("Failed minifying " + rep.currentFile + ": " + err.Error())
		return
	}

	minified, err := h.minifier.Bytes(rep.contentType, source)
	if err != nil {
		h.log.Warn("Failed minifying " + rep.currentFile + ": " + err.Error())
		return
	}
	if len(minified) == 0 {
		return
	}

	err = writeSidecarLocked(candidate, func(f *os.File) error {
		_, werr := f.Write(minified)
		return werr
	})
	if err != nil {
		h.log.Warn("Failed minifying " + rep.currentFile + ": " + err.Error())
		return
	}

	rep.currentFile = candidate
}

// minifiedPath computes the candidate path for the minified sibling: the
// trailing extension becomes ".min.<ext>". With MinCacheDir set, the
// candidate relocates into <root>/<MinCacheDir>/ with "/" in the relative
// path encoded as "%2F", flattening nested paths into one directory.
func (h *Handler) minifiedPath(rep *representation) string {
	ext := path.Ext(rep.logicalPath)
	if ext == "" {
		return ""
	}

	if h.cfg.MinCacheDir == "" {
		base := strings.TrimSuffix(rep.currentFile, filepath.Ext(rep.currentFile))
		return base + ".min" + filepath.Ext(rep.currentFile)
	}

	rel := strings.TrimPrefix(rep.logicalPath, "/")
	rel = strings.TrimSuffix(rel, ext) + ".min" + ext
	encoded := strings.ReplaceAll(rel, "/", "%2F")
	return filepath.Join(h.root, h.cfg.MinCacheDir, encoded)
}
