package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/n42-extract/constants"
)

// AllowedPath reports whether the file name carries the measurement document suffix.
func AllowedPath(path string) bool {
	return constants.IsMeasurementFile(filepath.Base(path))
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
