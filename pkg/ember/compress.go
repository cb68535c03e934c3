package ember

import (
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// compressor is one content-coding the process can produce: its coding name
// as it appears in Accept-Encoding, the sidecar suffix, and a constructor for
// the encoding writer.
//
// The deflate suffix is ".zip" rather than a conventional deflate extension;
// the on-disk naming is part of the operational contract and is kept verbatim.
type compressor struct {
	name      string
	suffix    string
	newWriter func(w io.Writer) (io.WriteCloser, error)
}

// newCompressors builds the codec table. gzip and deflate are always
// available; zstd and brotli are included whenever their codecs are compiled
// in. Detected once at startup and stored in the handler.
func newCompressors() map[string]compressor {
	return map[string]compressor{
		"gzip": {
			name:   "gzip",
			suffix: ".gz",
			newWriter: func(w io.Writer) (io.WriteCloser, error) {
				return gzip.NewWriter(w), nil
			},
		},
		"deflate": {
			name:   "deflate",
			suffix: ".zip",
			newWriter: func(w io.Writer) (io.WriteCloser, error) {
				return zlib.NewWriter(w), nil
			},
		},
		"zstd": {
			name:   "zstd",
			suffix: ".zstd",
			newWriter: func(w io.Writer) (io.WriteCloser, error) {
				return zstd.NewWriter(w)
			},
		},
		"br": {
			name:   "br",
			suffix: ".br",
			newWriter: func(w io.Writer) (io.WriteCloser, error) {
				return brotli.NewWriter(w), nil
			},
		},
	}
}

// encodingPreference pairs a coding name with its q-factor.
type encodingPreference struct {
	encoding string
	q        float64
}

// acceptedEncodings parses an Accept-Encoding header value into coding names
// in descending order of preference.
//
// Parsing rules:
//   - Tokens are split on "," and trimmed
//   - Each token is "name" or "name;q=weight"; a missing weight is 1.0
//   - Weight-zero tokens are discarded
//   - Descending weight order, with input order preserved on ties
func acceptedEncodings(header string) []string {
	var prefs []encodingPreference

	for _, accepted := range strings.Split(header, ",") {
		parts := strings.Split(accepted, ";")
		name := strings.ToLower(strings.TrimSpace(parts[0]))
		if name == "" {
			continue
		}

		q := 1.0
		if len(parts) > 1 {
			qstr := strings.ToLower(strings.TrimSpace(parts[1]))
			if strings.HasPrefix(qstr, "q=") {
				if qv, err := strconv.ParseFloat(qstr[2:], 32); err == nil && qv >= 0 && qv <= 1 {
					q = qv
				}
			}
		}

		// q=0 means "not acceptable"; allow for float imprecision
		if q < 0.00001 {
			continue
		}

		prefs = append(prefs, encodingPreference{encoding: name, q: q})
	}

	sort.SliceStable(prefs, func(i, j int) bool { return prefs[i].q > prefs[j].q })

	names := make([]string, len(prefs))
	for i := range prefs {
		names[i] = prefs[i].encoding
	}
	return names
}

// compressStage negotiates a content coding and substitutes a compressed
// sidecar of the current file into the representation. Engaged whenever the
// request carries Accept-Encoding and compression is enabled.
//
// For each acceptable coding in preference order: a fresh sidecar is reused,
// a stale one is deleted and regenerated, and a generation failure logs a
// warning and falls through to the next coding. "identity", "*" and codings
// the process cannot produce are skipped. When no coding succeeds the
// representation stays uncompressed.
func (h *Handler) compressStage(rep *representation, acceptEncoding string) {
	if !h.cfg.Defaults.Compress || acceptEncoding == "" {
		return
	}

	srcInfo, err := os.Stat(rep.currentFile)
	if err != nil {
		return
	}

	for _, name := range acceptedEncodings(acceptEncoding) {
		comp, ok := h.compressors[name]
		if !ok {
			continue
		}

		candidate := rep.currentFile + comp.suffix
		exists, fresh := sidecarState(candidate, srcInfo.ModTime())
		if exists && fresh {
			rep.currentFile = candidate
			rep.contentEncoding = comp.name
			return
		}
		if exists {
			dropStaleSidecar(candidate)
		}

		if err := produceCompressed(comp, rep.currentFile, candidate); err != nil {
			h.log.Warn("Failed compressing " + rep.currentFile + " with " + comp.name + ": " + err.Error())
			continue
		}

		rep.currentFile = candidate
		rep.contentEncoding = comp.name
		return
	}
}

// produceCompressed streams the source file through the coding's writer into
// the sidecar, under an exclusive advisory lock on the output.
func produceCompressed(comp compressor, source, candidate string) error {
	src, err := os.Open(source)
	if err != nil {
		return err
	}
	defer src.Close()

	return writeSidecarLocked(candidate, func(f *os.File) error {
		w, err := comp.newWriter(f)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, src); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	})
}
