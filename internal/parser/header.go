package parser

import "strings"

// FindHeader locates the first candidate column name present in the row,
// comparing case-insensitively. Candidates are tried in the caller's
// priority order. The returned name is the column's spelling as it appears
// in the row, so it can be used to index the row directly.
func FindHeader(row map[string]string, candidates []string) (string, bool) {
	folded := make(map[string]string, len(row))
	for name := range row {
		folded[strings.ToLower(name)] = name
	}

	for _, candidate := range candidates {
		if actual, ok := folded[strings.ToLower(candidate)]; ok {
			return actual, true
		}
	}

	return "", false
}
