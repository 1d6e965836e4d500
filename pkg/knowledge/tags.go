package knowledge

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeTag canonicalizes a single tag: trimmed, lowercased, punctuation
// stripped. Returns the empty string when nothing usable remains or the
// result is a single rune.
func NormalizeTag(tag string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(tag)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		// Keep inner separators as dashes so multi-word tags stay readable.
		if r == ' ' || r == '-' || r == '_' {
			b.WriteRune('-')
		}
	}

	out := strings.Trim(b.String(), "-")
	if utf8.RuneCountInString(out) <= 1 {
		return ""
	}
	return out
}

// NormalizeTags canonicalizes and deduplicates a tag list. The result is
// sorted so that equal tag sets compare equal regardless of input order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		n := NormalizeTag(t)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}

	sort.Strings(out)
	return out
}

// UnionTags merges two normalized tag sets into one normalized set.
func UnionTags(a, b []string) []string {
	merged := make([]string, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return NormalizeTags(merged)
}
