package util

import (
	"path/filepath"
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`\s+`)

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// CourseFromFilename derives the course code from a source filename: the
// first underscore-separated token of the base name, e.g.
// "ENGG_CUTOFF_2024_r1_gen.csv" -> "ENGG".
func CourseFromFilename(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if idx := strings.Index(base, "_"); idx > 0 {
		base = base[:idx]
	}
	return strings.TrimSpace(base)
}

func SanitizeFilename(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
