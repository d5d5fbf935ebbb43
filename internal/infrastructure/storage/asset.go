// Package storage holds the project image stores. Both backends share the
// MIME allow-list and the unique naming scheme.
package storage

import (
	"path/filepath"
	"strings"
	"time"
)

var allowedImageTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpg":  {},
	"image/jpeg": {},
}

// allowedImage reports whether mimeType is one of the accepted image types.
// Parameters such as "; charset=" are ignored.
func allowedImage(mimeType string) bool {
	mt, _, _ := strings.Cut(mimeType, ";")
	_, ok := allowedImageTypes[strings.ToLower(strings.TrimSpace(mt))]
	return ok
}

const nameTimeLayout = "2006-01-02T15-04-05.000000000Z"

// uniqueName derives the stored name from the upload time and the original
// file name, e.g. 2024-05-01T10-00-00.000000000Z-cat.png.
func uniqueName(now time.Time, original string) string {
	return now.UTC().Format(nameTimeLayout) + "-" + sanitizeName(original)
}

func sanitizeName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == ':' || r == '?' || r == '#' || r == '%':
			return '_'
		case r == ' ' || r == '\t':
			return '-'
		case r < 0x20:
			return -1
		}
		return r
	}, base)
	if base == "" || base == "." || base == ".." {
		return "upload"
	}
	return base
}
