// Package detect classifies input files by content.
package detect

import (
	"encoding/binary"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MIME types registered for the spectrometer formats.
const (
	MIMERiDat   = "application/x-ridat"
	MIMERiImage = "application/x-riimage"
)

const (
	magic        = 190955
	versionData  = 0
	versionImage = 1
)

// Kind is the result of classifying an input.
type Kind int

const (
	KindUnknown Kind = iota
	KindRiDat
	KindRiImage
)

func (k Kind) String() string {
	switch k {
	case KindRiDat:
		return "RiDat"
	case KindRiImage:
		return "RiImage"
	default:
		return "unknown"
	}
}

func init() {
	root := mimetype.Lookup("application/octet-stream")
	root.Extend(isRiDat, MIMERiDat, ".ridat")
	root.Extend(isRiImage, MIMERiImage, ".riimage")
}

func isRiDat(raw []byte, _ uint32) bool {
	return Classify(raw) == KindRiDat
}

func isRiImage(raw []byte, _ uint32) bool {
	return Classify(raw) == KindRiImage
}

// Classify inspects the first eight bytes of a file.
func Classify(head []byte) Kind {
	if len(head) < 8 {
		return KindUnknown
	}
	le := binary.LittleEndian
	if int32(le.Uint32(head)) != magic {
		return KindUnknown
	}
	switch int32(le.Uint32(head[4:])) {
	case versionData:
		return KindRiDat
	case versionImage:
		return KindRiImage
	default:
		return KindUnknown
	}
}

// MIME returns the detected MIME type of head, e.g. "application/x-ridat"
// or "audio/wav".
func MIME(head []byte) string {
	mtype := mimetype.Detect(head)

	slog.Debug("content type detected",
		"mime", mtype.String(),
		"extension", mtype.Extension(),
		"bytes_analyzed", len(head))

	return mtype.String()
}

// HasRiDatExtension reports whether path looks like a RiDat file by name,
// optionally zstd-compressed.
func HasRiDatExtension(path string) bool {
	lower := strings.ToLower(path)
	lower = strings.TrimSuffix(lower, ".zst")
	return filepath.Ext(lower) == ".ridat"
}
