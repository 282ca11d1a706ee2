// Package strings holds list normalization shared by config parsing and
// request validation.
package strings

import "strings"

// Normalize trims each value, drops blanks and duplicates, and keeps the
// first-seen order. fold, when non-nil, is applied before comparison.
func Normalize(values []string, fold func(string) string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if fold != nil {
			v = fold(v)
		}
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// SplitList splits a comma separated setting and normalizes the parts.
// An empty input yields nil.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return Normalize(strings.Split(raw, ","), nil)
}
