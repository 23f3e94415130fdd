package matcher

import (
	"strings"

	"golang.org/x/text/cases"
)

// Keywords is the compiled-in watch list. Match results keep this order.
var Keywords = []string{"earl", "karma", "list", "crabman", "good bot", "20th", "twentieth", "anniversary"}

// Flagship keywords have hand-written reply templates.
var Flagship = []string{"earl", "karma", "list", "crabman"}

// Anniversary keywords switch the generic reply to the anniversary announcement.
var Anniversary = []string{"20th", "twentieth", "anniversary"}

type KeywordSet struct {
	keywords []string
}

func NewKeywordSet(keywords []string) *KeywordSet {
	folded := make([]string, len(keywords))
	caser := cases.Fold()
	for i, k := range keywords {
		folded[i] = caser.String(k)
	}
	return &KeywordSet{keywords: folded}
}

// Match returns every keyword contained in at least one of the texts.
// Substrings inside longer words count ("earlier" matches "earl").
func (s *KeywordSet) Match(texts ...string) []string {
	folded := make([]string, 0, len(texts))
	caser := cases.Fold()
	for _, text := range texts {
		if text != "" {
			folded = append(folded, caser.String(text))
		}
	}
	if len(folded) == 0 {
		return nil
	}

	var matched []string
	for _, keyword := range s.keywords {
		for _, text := range folded {
			if strings.Contains(text, keyword) {
				matched = append(matched, keyword)
				break
			}
		}
	}
	return matched
}
