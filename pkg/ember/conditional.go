package ember

import (
	"net/http"
	"os"
	"strings"
	"time"
)

// conditionalStage evaluates If-Modified-Since and If-None-Match against the
// selected representation. It runs after compression selection so the
// validators refer to the exact bytes about to be served. Returns a 304
// response when validation succeeds, nil when the pipeline should continue.
//
// A 304 carries an empty body and no headers.
func (h *Handler) conditionalStage(req *Request, rep *representation) *Response {
	if since, ok := parseModifiedSince(req.IfModifiedSince); ok {
		info, err := os.Stat(rep.currentFile)
		if err == nil && !info.ModTime().Truncate(time.Second).After(since) {
			return &Response{Status: 304}
		}
	}

	if rep.shouldETag {
		if etag, ok := h.readETag(rep.currentFile); ok {
			rep.etag = etag
			if req.IfNoneMatch == etag {
				return &Response{Status: 304}
			}
		}
	}

	return nil
}

// parseModifiedSince parses an If-Modified-Since value as an HTTP-date.
// Anything after a ";" is stripped first; some agents append parameters the
// grammar does not allow.
func parseModifiedSince(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if i := strings.IndexByte(value, ';'); i >= 0 {
		value = value[:i]
	}
	value = strings.TrimSpace(value)

	t, err := http.ParseTime(value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
