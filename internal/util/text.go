package util

import "strings"

// CleanText drops NUL bytes and invalid UTF-8 sequences that PDF text
// extraction tends to produce, and normalises line endings to "\n".
func CleanText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	sanitized = strings.ReplaceAll(sanitized, "\x00", "")
	sanitized = strings.ReplaceAll(sanitized, "\r\n", "\n")
	return strings.ReplaceAll(sanitized, "\r", "\n")
}
