package matcher

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

const (
	inflectedKnock = `knock(?:s|ed|ing)`
	optArticle     = `(?:(?:the|a|that|)\W*)?`
)

var (
	// "turtle ... knocked over the candle"
	knockOverCandle = regexp.MustCompile(`(?s)turtle.*?` + inflectedKnock + `\W*over\W*` + optArticle + `candle\b`)
	// "turtle ... knocks the candle over"
	knockCandleOver = regexp.MustCompile(`(?s)turtle.*?` + inflectedKnock + `\W*` + optArticle + `candle\W*over\b`)

	crabmansTurtle = regexp.MustCompile(`^hey,?\s*crabman[‘’']?s turtle[.!?]?$`)

	whitespace = regexp.MustCompile(`\s+`)
)

// normalize folds case and collapses whitespace runs so patterns match
// across line breaks.
func normalize(text string) string {
	return whitespace.ReplaceAllString(cases.Fold().String(strings.TrimSpace(text)), " ")
}

// KnocksOverCandle reports whether the text tells of the turtle knocking over a candle.
func KnocksOverCandle(text string) bool {
	if text == "" {
		return false
	}
	n := normalize(text)
	return knockOverCandle.MatchString(n) || knockCandleOver.MatchString(n)
}

// CrabmansTurtleGreeting reports whether the whole text is the greeting
// "Hey, Crabman's turtle!" in one of its punctuation and quote variants.
func CrabmansTurtleGreeting(text string) bool {
	if text == "" {
		return false
	}
	return crabmansTurtle.MatchString(normalize(text))
}
