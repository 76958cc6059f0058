package store

import (
	"strings"
)

const maxDatabaseName = 63

// SanitizeDatabaseName maps an arbitrary dataset name onto a legal namespace
// name: every character outside [A-Za-z0-9_] becomes "_", a name not
// starting with a letter gets the prefix "db_", and the result is cut to 63
// characters. The empty string maps to itself. Distinct names may collide.
func SanitizeDatabaseName(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 3)
	for _, r := range name {
		if isASCIIAlnum(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}

	sanitized := b.String()
	if sanitized == "" {
		return ""
	}
	if !isASCIILetter(rune(sanitized[0])) {
		sanitized = "db_" + sanitized
	}
	if len(sanitized) > maxDatabaseName {
		sanitized = sanitized[:maxDatabaseName]
	}
	return sanitized
}

// SanitizeLabel turns a node or relationship type into a label: spaces become
// underscores and backticks are escaped for use inside a quoted identifier.
func SanitizeLabel(t string) string {
	t = strings.ReplaceAll(strings.TrimSpace(t), " ", "_")
	return strings.ReplaceAll(t, "`", "``")
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isASCIIAlnum(r rune) bool {
	return isASCIILetter(r) || (r >= '0' && r <= '9')
}

// ChunkRange calls fn for consecutive [start, end) windows of at most
// chunkSize items.
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

// DedupeStrings removes empty and repeated values, keeping first-seen order.
func DedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
