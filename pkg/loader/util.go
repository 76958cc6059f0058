package loader

import (
	"path/filepath"
	"strings"
)

// CacheKey identifies a file in the byte caches of the loaders.
func CacheKey(file PaperFile) string {
	return string(file.Source) + ":" + file.ID + ":" + file.FilePath
}

// PaperNameFromPath derives the logical paper name from a path or URL.
func PaperNameFromPath(p string) string {
	if IsURL(p) {
		if i := strings.IndexAny(p, "?#"); i >= 0 {
			p = p[:i]
		}
		p = strings.TrimRight(p, "/")
	}
	base := filepath.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsURL reports whether p is an http or https URL.
func IsURL(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
