package cfg

import "github.com/BigLoafin/mr-turtle-bot-reddit/app/forum"

type Cfg struct {
	// State
	StateDir     string
	SeenFile     string
	ProgressFile string
	StateBackend string
	SQLitePath   string
	RedisAddr    string
	RedisPrefix  string

	// Forum
	Source      string
	Credentials forum.Credentials
	AuthURL     string
	APIURL      string
	Subreddits  []string

	// Polling
	PostInterval    int
	CommentInterval int
	CommentDelay    int
	FlushInterval   int
	PostLimit       int
	CommentLimit    int

	// Blackout window
	BlackoutEnabled     bool
	BlackoutWeekday     int
	BlackoutHour        int
	BlackoutStartMinute int
	BlackoutEndMinute   int

	// Publishing
	PublishSchedule  bool
	PublishWeekday   int
	PublishHour      int
	PublishMinute    int
	PublishSubreddit string
	ShowID           string

	// Server
	Port           string
	APIAccessKey   string
	RequestTimeout int

	// Application metadata
	Timezone string
	Debug    bool
	DryRun   bool
	Version  string
}
