package ember

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tdewolff/minify/v2"
)

// Handler is the request pipeline: path resolution, content-type and
// cache-policy selection, minification, compressed-variant negotiation,
// conditional-request evaluation, ETag materialization and response assembly.
//
// A Handler is state-free across requests apart from the on-disk sidecar
// files and the capability tables detected at construction, so a single
// instance is safe for concurrent use from any number of transport workers.
type Handler struct {
	cfg  Config
	root string
	log  *Logger

	mimeTypes   map[string]string
	minifier    *minify.M
	minifiers   map[string]bool
	compressors map[string]compressor
}

// NewHandler validates cfg and builds a Handler for it.
//
// Construction Process:
//  1. Validate the configuration and resolve Root to an absolute path
//  2. Install the MIME table (configured or built-in)
//  3. Detect available minifiers and compression codecs
//
// Parameters:
//   - cfg: Handler configuration (see DefaultConfig)
//
// Returns:
//   - *Handler: Ready-to-serve handler
//   - error: Configuration error
//
// Example:
//
//	handler, err := ember.NewHandler(ember.DefaultConfig("./public"))
func NewHandler(cfg Config) (*Handler, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	mimeTypes := cfg.MIMETypes
	if mimeTypes == nil {
		mimeTypes = defaultMIMETypes
	}

	minifier, minifiers := newMinifier()

	return &Handler{
		cfg:         cfg,
		root:        cfg.Root,
		log:         cfg.Logger,
		mimeTypes:   mimeTypes,
		minifier:    minifier,
		minifiers:   minifiers,
		compressors: newCompressors(),
	}, nil
}

// Config returns a copy of the handler's normalized configuration.
func (h *Handler) Config() Config {
	return h.cfg
}

// Handle runs the pipeline for one request envelope and returns the response
// envelope. Stages run in fixed order; resolver failures short-circuit with
// their status, every later failure degrades to the best representation
// available:
//
//	Resolve → TypePolicy → Minify → Compress → ConditionalCheck → ETag → Build
//
// The returned response owns an open body stream for 200s; the caller must
// consume and close it.
func (h *Handler) Handle(req *Request) *Response {
	fsPath, logicalPath, serr := h.resolve(req.Path)
	if serr != nil {
		return errorResponse(serr)
	}

	rep := &representation{
		logicalPath: logicalPath,
		currentFile: fsPath,
	}

	h.selectPolicy(rep)
	h.minifyStage(rep)
	h.compressStage(rep, req.AcceptEncoding)

	if resp := h.conditionalStage(req, rep); resp != nil {
		return resp
	}

	h.etagStage(rep)

	return h.buildResponse(rep)
}

// buildResponse assembles the 200 response for the selected representation:
// an open body stream plus the cache metadata headers in their fixed order.
// A file that cannot be opened at this point is reported as 403, consistent
// with permission errors during resolution.
func (h *Handler) buildResponse(rep *representation) *Response {
	f, err := os.Open(rep.currentFile)
	if err != nil {
		return errorResponse(ErrForbidden)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return errorResponse(ErrForbidden)
	}

	resp := &Response{
		Status:        200,
		ContentLength: info.Size(),
		Body:          f,
	}

	if rep.contentEncoding != "" {
		resp.addHeader("Content-Encoding", rep.contentEncoding)
	}
	resp.addHeader("Content-Length", strconv.FormatInt(info.Size(), 10))
	resp.addHeader("Content-Type", h.fullContentType(rep.contentType))
	resp.addHeader("Last-Modified", info.ModTime().UTC().Format(http.TimeFormat))

	// Expires is computed from the file mtime, not from now; clients that
	// honor Cache-Control: max-age recompute freshness correctly.
	expires := time.Unix(0, 0)
	if rep.validFor >= 0 {
		expires = info.ModTime().Add(time.Duration(rep.validFor) * time.Second)
	}
	resp.addHeader("Expires", expires.UTC().Format(http.TimeFormat))

	resp.addHeader("Cache-Control", strings.Join(rep.cacheControl, ", "))
	if rep.etag != "" {
		resp.addHeader("ETag", rep.etag)
	}
	resp.addHeader("Vary", "Accept-Encoding")

	return resp
}
