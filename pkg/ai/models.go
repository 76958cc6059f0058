package ai

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoModel is returned when neither the configured model nor any fallback
// is installed on the backend.
var ErrNoModel = errors.New("no usable model available")

const defaultTag = ":latest"

func canonicalModel(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if !strings.Contains(name, ":") {
		return name + defaultTag
	}
	return name
}

// SameModel reports whether a and b name the same model, treating a missing
// tag as the implicit ":latest".
func SameModel(a, b string) bool {
	ca := canonicalModel(a)
	return ca != "" && ca == canonicalModel(b)
}

func findModel(name string, available []string) (string, bool) {
	for _, m := range available {
		if SameModel(name, m) {
			return m, true
		}
	}
	return "", false
}

// ResolveModel picks the model to use from what the backend reports as
// installed. The configured model wins when present, otherwise the first
// installed fallback in order. The returned name is spelled the way the
// backend lists it.
func ResolveModel(configured string, available []string, fallbacks []string) (string, error) {
	if m, ok := findModel(configured, available); ok {
		return m, nil
	}
	for _, f := range fallbacks {
		if m, ok := findModel(f, available); ok {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not installed, run: ollama pull %s", ErrNoModel, configured, configured)
}
