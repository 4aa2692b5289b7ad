package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/idextract/constants"
)

// ParseExts builds an extension set from user input such as ".PDF" or "jpg".
// An empty list yields constants.AllowedExtensions.
func ParseExts(list []string) map[string]struct{} {
	out := make(map[string]struct{}, len(list))
	for _, e := range list {
		if e = constants.NormalizeExt(strings.TrimSpace(e)); e != "" {
			out[e] = struct{}{}
		}
	}
	if len(out) == 0 {
		return constants.AllowedExtensions
	}
	return out
}

func allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
