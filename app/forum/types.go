package forum

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Watched and publishing subreddits are fixed for this bot.
var WatchSubreddits = []string{"MyNameIsEarlFans"}

const PublishSubreddit = "MyNameIsEarlFans"

var ErrUnauthorized = errors.New("forum: unauthorized")

type Kind string

const (
	KindPost    Kind = "post"
	KindComment Kind = "comment"
)

type Item struct {
	Kind      Kind
	ID        string
	Subreddit string
	Author    string
	Title     string // posts only
	SelfText  string // posts only
	Body      string // comments only
	Permalink string
	CreatedAt time.Time
}

// Fullname is the "t3_"/"t1_" prefixed identifier the reply API expects.
func (i Item) Fullname() string {
	if i.Kind == KindComment {
		return "t1_" + i.ID
	}
	return "t3_" + i.ID
}

// Texts returns the fields the matcher inspects, in the order they are checked.
func (i Item) Texts() []string {
	if i.Kind == KindComment {
		return []string{i.Body}
	}
	return []string{i.Title, i.SelfText}
}

// LooksRemoved reports whether the item carries a literal removal marker.
// Posts are judged by their title, comments by their body.
func (i Item) LooksRemoved() bool {
	text := i.Body
	if i.Kind == KindPost {
		text = i.Title
	}
	return strings.Contains(text, "removed") || strings.Contains(text, "deleted")
}

type Submission struct {
	ID       string
	Fullname string
	URL      string
}

type Credentials struct {
	UserAgent    string `yaml:"userAgent"`
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
}

// Client is the subset of the remote forum API the bot relies on.
type Client interface {
	Authenticate(ctx context.Context) error
	Newest(ctx context.Context, kind Kind, subreddits []string, limit int) ([]Item, error)
	Reply(ctx context.Context, item Item, text string) error
	Submit(ctx context.Context, subreddit, title, body string) (Submission, error)
	Pin(ctx context.Context, submission Submission) error
}
