package search

import (
	"strings"
	"unicode"
)

// Stop words to filter out when checking for verbatim matches
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "be": {}, "is": {}, "are": {}, "was": {},
	"were": {}, "to": {}, "of": {}, "and": {}, "or": {}, "in": {}, "that": {},
	"have": {}, "has": {}, "it": {}, "for": {}, "not": {}, "on": {}, "with": {},
	"as": {}, "at": {}, "this": {}, "but": {}, "by": {}, "from": {}, "about": {},
	"which": {}, "what": {}, "any": {}, "all": {},
}

// tokenize lower-cases text and splits it on anything that is not a letter
// or digit, dropping stop words.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	filtered := words[:0]
	for _, w := range words {
		if _, stop := stopWords[w]; !stop {
			filtered = append(filtered, w)
		}
	}
	return filtered
}

// containsAllQueryWords reports whether every non-stop word of query occurs
// in document. A query of only stop words never matches.
func containsAllQueryWords(document, query string) bool {
	queryWords := tokenize(query)
	if len(queryWords) == 0 {
		return false
	}

	docWords := make(map[string]struct{})
	for _, w := range tokenize(document) {
		docWords[w] = struct{}{}
	}
	for _, w := range queryWords {
		if _, ok := docWords[w]; !ok {
			return false
		}
	}
	return true
}
