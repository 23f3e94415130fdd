package matcher

import "github.com/BigLoafin/mr-turtle-bot-reddit/app/forum"

type Rule int

const (
	RuleNone Rule = iota
	RuleGreeting
	RuleCandle
	RuleKeywords
)

func (r Rule) String() string {
	switch r {
	case RuleGreeting:
		return "greeting"
	case RuleCandle:
		return "candle"
	case RuleKeywords:
		return "keywords"
	default:
		return "none"
	}
}

// Special rules carry a fixed reply and end the tick that sends it.
func (r Rule) Special() bool {
	return r == RuleGreeting || r == RuleCandle
}

type Result struct {
	Rule     Rule
	Keywords []string
}

type Matcher struct {
	keywords *KeywordSet
}

func NewMatcher(keywords []string) *Matcher {
	return &Matcher{keywords: NewKeywordSet(keywords)}
}

// Match applies the rules in precedence order: greeting (comments only),
// then the candle pattern, then keywords. At most one rule wins.
func (m *Matcher) Match(item forum.Item) Result {
	texts := item.Texts()

	if item.Kind == forum.KindComment && CrabmansTurtleGreeting(item.Body) {
		return Result{Rule: RuleGreeting}
	}

	for _, text := range texts {
		if KnocksOverCandle(text) {
			return Result{Rule: RuleCandle}
		}
	}

	if matched := m.keywords.Match(texts...); len(matched) > 0 {
		return Result{Rule: RuleKeywords, Keywords: matched}
	}
	return Result{Rule: RuleNone}
}
