package search

import (
	"regexp"
	"strings"

	"github.com/recallhq/recall/pkg/knowledge"
)

var wordPattern = regexp.MustCompile(`[A-Za-z0-9_\-]+`)

// stopWords are articles, prepositions, and generic connectives that would
// pollute tag matching if extracted as query tokens.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "any": {}, "can": {}, "her": {}, "was": {},
	"one": {}, "our": {}, "out": {}, "has": {}, "had": {}, "his": {},
	"how": {}, "its": {}, "may": {}, "new": {}, "now": {}, "old": {},
	"see": {}, "two": {}, "way": {}, "who": {}, "did": {}, "get": {},
	"him": {}, "this": {}, "that": {}, "with": {}, "from": {}, "they": {},
	"will": {}, "have": {}, "been": {}, "were": {}, "when": {}, "what": {},
	"your": {}, "them": {}, "then": {}, "than": {}, "into": {}, "over": {},
	"also": {}, "just": {}, "some": {}, "about": {}, "would": {},
	"could": {}, "should": {}, "there": {}, "their": {}, "which": {},
	"where": {}, "while": {}, "after": {}, "before": {}, "under": {},
	"between": {}, "because": {}, "during": {}, "through": {},
}

// QueryTokens extracts candidate tag tokens from a free-form query: words
// longer than two characters, stop-words removed, normalized the same way
// stored tags are so overlap comparisons line up.
func QueryTokens(query string) []string {
	words := wordPattern.FindAllString(strings.ToLower(query), -1)

	seen := make(map[string]struct{}, len(words))
	var tokens []string
	for _, w := range words {
		if len(w) <= 2 {
			continue
		}
		if _, ok := stopWords[w]; ok {
			continue
		}

		t := knowledge.NormalizeTag(w)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tokens = append(tokens, t)
	}

	return tokens
}
