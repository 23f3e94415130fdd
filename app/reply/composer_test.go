package reply

import (
	"reflect"
	"testing"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/forum"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/matcher"
)

func TestCompose_Flagship(t *testing.T) {
	for _, keyword := range matcher.Flagship {
		post := Compose([]string{keyword}, forum.KindPost)
		if post != postTemplates[keyword] {
			t.Errorf("%s: expected post template %q, got %q", keyword, postTemplates[keyword], post)
		}
		comment := Compose([]string{keyword}, forum.KindComment)
		if comment != commentTemplates[keyword] {
			t.Errorf("%s: expected comment template %q, got %q", keyword, commentTemplates[keyword], comment)
		}
		if post == comment {
			t.Errorf("%s: post and comment templates should differ", keyword)
		}
	}
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name    string
		matched []string
		kind    forum.Kind
		want    string
	}{
		{
			name:    "empty",
			matched: nil,
			kind:    forum.KindPost,
			want:    "",
		},
		{
			name:    "single non-flagship",
			matched: []string{"good bot"},
			kind:    forum.KindPost,
			want:    `Hello! I noticed you mentioned "good bot"! Nice!`,
		},
		{
			name:    "single keyword is quoted verbatim",
			matched: []string{`crab "man"\`},
			kind:    forum.KindPost,
			want:    `Hello! I noticed you mentioned "crab "man"\"! Nice!`,
		},
		{
			name:    "two keywords",
			matched: []string{"earl", "karma"},
			kind:    forum.KindPost,
			want:    "Hello! I noticed you mentioned earl and karma! Nice!",
		},
		{
			name:    "three keywords",
			matched: []string{"earl", "karma", "list"},
			kind:    forum.KindComment,
			want:    "Hello! I noticed you mentioned earl, karma and list! Nice!",
		},
		{
			name:    "single anniversary keyword",
			matched: []string{"anniversary"},
			kind:    forum.KindPost,
			want:    `Hello! I noticed you mentioned "anniversary"! I'm Mr. Turtle, a bot that helps with our My Name Is Earl 20th anniversary discussion series!`,
		},
		{
			name:    "anniversary keyword not last",
			matched: []string{"earl", "20th", "anniversary"},
			kind:    forum.KindPost,
			want:    "Hello! I noticed you mentioned earl, 20th and anniversary! I'm Mr. Turtle, a bot that helps with our My Name Is Earl 20th anniversary discussion series!",
		},
		{
			name:    "anniversary keyword last is suppressed",
			matched: []string{"earl", "anniversary"},
			kind:    forum.KindPost,
			want:    "Hello! I noticed you mentioned earl and anniversary! Nice!",
		},
		{
			name:    "good bot on comment",
			matched: []string{"earl", "good bot"},
			kind:    forum.KindComment,
			want:    GoodBotReply,
		},
		{
			name:    "good bot beats flagship",
			matched: []string{"good bot"},
			kind:    forum.KindComment,
			want:    GoodBotReply,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compose(tt.matched, tt.kind); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCompose_DoesNotMutateInput(t *testing.T) {
	matched := []string{"earl", "karma", "anniversary"}
	Compose(matched, forum.KindPost)

	if !reflect.DeepEqual(matched, []string{"earl", "karma", "anniversary"}) {
		t.Errorf("Compose modified its input: %v", matched)
	}
}

func TestFixed(t *testing.T) {
	if reply, ok := Fixed(matcher.RuleCandle); !ok || reply != CandleReply {
		t.Errorf("Expected candle reply, got %q", reply)
	}
	if reply, ok := Fixed(matcher.RuleGreeting); !ok || reply != GreetingReply {
		t.Errorf("Expected greeting reply, got %q", reply)
	}
	if _, ok := Fixed(matcher.RuleKeywords); ok {
		t.Error("Keyword rule should not have a fixed reply")
	}
}
