package ember

import (
	"fmt"
	"os"
	"strings"
)

// ETags are keyed by the exact representation being served, so the sidecar
// sits next to the current file (minified or compressed variant included),
// not next to the logical path.
func etagSidecarPath(currentFile string) string {
	return currentFile + ".etag"
}

// readETag returns the ETag stored in the sidecar of currentFile, if the
// sidecar exists and is fresh. A stale sidecar is deleted; an unreadable one
// logs a warning and is skipped for this response.
func (h *Handler) readETag(currentFile string) (string, bool) {
	sidecar := etagSidecarPath(currentFile)

	info, err := os.Stat(currentFile)
	if err != nil {
		return "", false
	}

	exists, fresh := sidecarState(sidecar, info.ModTime())
	if !exists {
		return "", false
	}
	if !fresh {
		dropStaleSidecar(sidecar)
		return "", false
	}

	data, err := readSidecarLocked(sidecar)
	if err != nil {
		h.log.Warn("Can't open " + sidecar + " for reading")
		return "", false
	}

	line, _, _ := strings.Cut(string(data), "\n")
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return "", false
	}
	return line, true
}

// etagStage materializes the ETag sidecar for the representation when ETags
// are enabled and no fresh value was read during conditional evaluation. The
// tag is the hex triple <inode>-<mtime>-<size> of the current file — a strong
// tag: the server controls both the source and the derived artifact
// lifecycle. A write failure logs a warning and omits the header.
func (h *Handler) etagStage(rep *representation) {
	if !rep.shouldETag || rep.etag != "" {
		return
	}

	info, err := os.Stat(rep.currentFile)
	if err != nil {
		return
	}

	etag := fmt.Sprintf("%x-%x-%x", fileInode(info), info.ModTime().Unix(), info.Size())

	sidecar := etagSidecarPath(rep.currentFile)
	err = writeSidecarLocked(sidecar, func(f *os.File) error {
		_, werr := f.WriteString(etag + "\n")
		return werr
	})
	if err != nil {
		h.log.Warn("Can't open " + sidecar + " for writing")
		return
	}

	rep.etag = etag
}
