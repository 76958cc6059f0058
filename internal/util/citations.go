package util

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reBoldCitation = regexp.MustCompile(`\*\*\s*(\[[^][]*\])\s*\*\*`)
	reCitation     = regexp.MustCompile(`(?i)\[\s*sources?\s*:\s*([^][]*?)\s*\]`)
	reCanonical    = regexp.MustCompile(`\[Source: ([^][]+)\]`)
)

// NormalizeCitations rewrites the citation markers an LLM produces into the
// canonical "[Source: PaperName]" form. Bold markers are unwrapped, markers
// listing several papers separated by ";" are split, and identical markers
// that directly follow each other on the same line are collapsed.
func NormalizeCitations(s string) string {
	s = reBoldCitation.ReplaceAllStringFunc(s, func(m string) string {
		inner := reBoldCitation.FindStringSubmatch(m)[1]
		if !reCitation.MatchString(inner) {
			return m
		}
		return inner
	})

	s = reCitation.ReplaceAllStringFunc(s, func(m string) string {
		names := splitCitationNames(reCitation.FindStringSubmatch(m)[1])
		if len(names) == 0 {
			return m
		}
		parts := make([]string, len(names))
		for i, n := range names {
			parts[i] = "[Source: " + n + "]"
		}
		return strings.Join(parts, " ")
	})

	return dedupeAdjacentCitations(s)
}

// ExtractCitations returns the distinct paper names cited in s, in order of
// first appearance.
func ExtractCitations(s string) []string {
	matches := reCanonical.FindAllStringSubmatch(NormalizeCitations(s), -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func splitCitationNames(raw string) []string {
	fields := strings.Split(raw, ";")
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func dedupeAdjacentCitations(s string) string {
	matches := reCanonical.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	cursor := 0

	for mi := 0; mi < len(matches); mi++ {
		m := matches[mi]
		start, end := m[0], m[1]
		name := s[m[2]:m[3]]

		b.WriteString(s[cursor:start])

		dupEnd := end
		next := mi + 1
		for next < len(matches) {
			sep := s[dupEnd:matches[next][0]]
			if !onlyWhitespace(sep) || containsLineBreak(sep) {
				break
			}
			if s[matches[next][2]:matches[next][3]] != name {
				break
			}
			dupEnd = matches[next][1]
			next++
		}

		b.WriteString(s[start:end])
		cursor = dupEnd
		mi = next - 1
	}

	if cursor < len(s) {
		b.WriteString(s[cursor:])
	}
	return b.String()
}

func onlyWhitespace(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func containsLineBreak(s string) bool {
	return strings.ContainsAny(s, "\n\r")
}
