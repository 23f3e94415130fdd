package reply

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/forum"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/matcher"
)

const (
	CandleReply   = "Dodge definitely knocked over that candle."
	GreetingReply = "Hey Earl."
	GoodBotReply  = "Thanks! Got any arugula?"
)

var postTemplates = map[string]string{
	"earl":    "Earl is a great character!",
	"karma":   "Karma is a central theme in the show!",
	"list":    "The list is iconic!",
	"crabman": "Crabman is a fan-favorite!",
}

var commentTemplates = map[string]string{
	"earl":    "Earl is a great character! Do you have a favorite episode?",
	"karma":   "Karma is a central theme in the show! What are your thoughts on it?",
	"list":    "The list is iconic! What’s your favorite item on it?",
	"crabman": "Crabman is a fan-favorite! Do you have a favorite moment with him?",
}

// Fixed returns the reply for a special rule.
func Fixed(rule matcher.Rule) (string, bool) {
	switch rule {
	case matcher.RuleCandle:
		return CandleReply, true
	case matcher.RuleGreeting:
		return GreetingReply, true
	default:
		return "", false
	}
}

// Compose builds the reply for a keyword match.
//
// The last keyword is popped off the working set while the mention is
// built, so when the last matched keyword is the only anniversary keyword
// the anniversary announcement is not used. The caller's slice is left
// untouched.
func Compose(matched []string, kind forum.Kind) string {
	if len(matched) == 0 {
		return ""
	}

	if kind == forum.KindComment && slices.Contains(matched, "good bot") {
		return GoodBotReply
	}

	if len(matched) == 1 {
		templates := postTemplates
		if kind == forum.KindComment {
			templates = commentTemplates
		}
		if reply, ok := templates[matched[0]]; ok {
			return reply
		}
	}

	working := slices.Clone(matched)
	var mention string
	if len(working) == 1 {
		mention = fmt.Sprintf("you mentioned \"%s\"", working[0])
	} else {
		last := working[len(working)-1]
		working = working[:len(working)-1]
		mention = fmt.Sprintf("you mentioned %s and %s", strings.Join(working, ", "), last)
	}

	for _, keyword := range matcher.Anniversary {
		if slices.Contains(working, keyword) {
			return fmt.Sprintf("Hello! I noticed %s! I'm Mr. Turtle, a bot that helps with our My Name Is Earl 20th anniversary discussion series!", mention)
		}
	}
	return fmt.Sprintf("Hello! I noticed %s! Nice!", mention)
}
