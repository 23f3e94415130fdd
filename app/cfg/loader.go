package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// State
	StateDir     string `long:"state-dir" env:"STATE_DIR" default:"." description:"Directory for state files"`
	SeenFile     string `long:"seen-file" env:"SEEN_FILE" default:"seenContent.json" description:"Seen set file name, relative to the state directory"`
	ProgressFile string `long:"progress-file" env:"PROGRESS_FILE" default:"episodeState.json" description:"Publish progress file name, relative to the state directory"`
	StateBackend string `long:"state-backend" env:"STATE_BACKEND" default:"json" choice:"json" choice:"sqlite" choice:"redis" description:"Where seen ids and progress are stored"`
	SQLitePath   string `long:"sqlite-path" env:"SQLITE_PATH" default:"mrturtle.db" description:"SQLite database file, relative to the state directory"`
	RedisAddr    string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address for the redis backend"`
	RedisPrefix  string `long:"redis-prefix" env:"REDIS_PREFIX" default:"mrturtle:" description:"Key prefix for the redis backend"`

	// Forum
	Source          string   `long:"source" env:"SOURCE" default:"oauth" choice:"oauth" choice:"atom" description:"How new items are read: OAuth API or public Atom feeds"`
	CredentialsFile string   `long:"credentials-file" env:"CREDENTIALS_FILE" description:"YAML file with userAgent, clientId, clientSecret, username, password"`
	UserAgent       string   `long:"user-agent" env:"USER_AGENT" description:"User agent for forum requests"`
	ClientID        string   `long:"client-id" env:"CLIENT_ID" description:"OAuth client id"`
	ClientSecret    string   `long:"client-secret" env:"CLIENT_SECRET" description:"OAuth client secret"`
	Username        string   `long:"username" env:"REDDIT_USERNAME" description:"Bot account username"`
	Password        string   `long:"password" env:"REDDIT_PASSWORD" description:"Bot account password"`
	AuthURL         string   `long:"auth-url" env:"AUTH_URL" default:"https://www.reddit.com/api/v1/access_token" description:"OAuth token endpoint"`
	APIURL          string   `long:"api-url" env:"API_URL" default:"https://oauth.reddit.com" description:"OAuth API base URL"`
	Subreddits      []string `long:"subreddit" env:"SUBREDDITS" env-delim:"," default:"MyNameIsEarlFans" description:"Subreddit to watch (repeatable)"`

	// Polling
	PostInterval    int `long:"post-interval" env:"POST_INTERVAL" default:"59" description:"Seconds between post polls"`
	CommentInterval int `long:"comment-interval" env:"COMMENT_INTERVAL" default:"61" description:"Seconds between comment polls"`
	CommentDelay    int `long:"comment-delay" env:"COMMENT_DELAY" default:"10" description:"Seconds before the comment loop starts"`
	FlushInterval   int `long:"flush-interval" env:"FLUSH_INTERVAL" default:"300" description:"Seconds between seen set flushes"`
	PostLimit       int `long:"post-limit" env:"POST_LIMIT" default:"10" description:"Posts fetched per poll"`
	CommentLimit    int `long:"comment-limit" env:"COMMENT_LIMIT" default:"25" description:"Comments fetched per poll"`

	// Blackout window
	NoBlackout          bool `long:"no-blackout" env:"NO_BLACKOUT" description:"Disable the weekly polling blackout"`
	BlackoutWeekday     int  `long:"blackout-weekday" env:"BLACKOUT_WEEKDAY" default:"6" description:"Blackout weekday (0 = Sunday)"`
	BlackoutHour        int  `long:"blackout-hour" env:"BLACKOUT_HOUR" default:"18" description:"Blackout hour"`
	BlackoutStartMinute int  `long:"blackout-start-minute" env:"BLACKOUT_START_MINUTE" default:"58" description:"First blackout minute"`
	BlackoutEndMinute   int  `long:"blackout-end-minute" env:"BLACKOUT_END_MINUTE" default:"59" description:"Last blackout minute"`

	// Publishing
	PublishSchedule  bool   `long:"publish-schedule" env:"PUBLISH_SCHEDULE" description:"Post the next episode discussion every week"`
	PublishWeekday   int    `long:"publish-weekday" env:"PUBLISH_WEEKDAY" default:"6" description:"Publish weekday (0 = Sunday)"`
	PublishHour      int    `long:"publish-hour" env:"PUBLISH_HOUR" default:"18" description:"Publish hour"`
	PublishMinute    int    `long:"publish-minute" env:"PUBLISH_MINUTE" default:"59" description:"Publish minute"`
	PublishSubreddit string `long:"publish-subreddit" env:"PUBLISH_SUBREDDIT" default:"MyNameIsEarlFans" description:"Subreddit for episode discussions"`
	ShowID           string `long:"show-id" env:"SHOW_ID" default:"678" description:"TVmaze show id"`

	// Server
	Port           string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey   string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	RequestTimeout int    `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"30" description:"Timeout in seconds for outbound requests"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" description:"Timezone for schedules, system default when empty (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	DryRun   bool   `long:"dry-run" env:"DRY_RUN" description:"Log replies and posts instead of sending them"`
}

// Load parses os.Args. It returns nil without error when help was shown.
func Load() (*Cfg, error) {
	cfg, _, err := LoadArgs(os.Args[1:])
	return cfg, err
}

// LoadArgs reads .env, then parses args and the environment, then merges
// the credentials file. Positional arguments are returned unparsed.
func LoadArgs(args []string) (*Cfg, []string, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	rest, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil, nil
			}
		}
		return nil, nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		StateDir:            raw.StateDir,
		SeenFile:            inDir(raw.StateDir, raw.SeenFile),
		ProgressFile:        inDir(raw.StateDir, raw.ProgressFile),
		StateBackend:        raw.StateBackend,
		SQLitePath:          inDir(raw.StateDir, raw.SQLitePath),
		RedisAddr:           raw.RedisAddr,
		RedisPrefix:         raw.RedisPrefix,
		Source:              raw.Source,
		AuthURL:             raw.AuthURL,
		APIURL:              raw.APIURL,
		Subreddits:          splitList(raw.Subreddits),
		PostInterval:        raw.PostInterval,
		CommentInterval:     raw.CommentInterval,
		CommentDelay:        raw.CommentDelay,
		FlushInterval:       raw.FlushInterval,
		PostLimit:           raw.PostLimit,
		CommentLimit:        raw.CommentLimit,
		BlackoutEnabled:     !raw.NoBlackout,
		BlackoutWeekday:     raw.BlackoutWeekday,
		BlackoutHour:        raw.BlackoutHour,
		BlackoutStartMinute: raw.BlackoutStartMinute,
		BlackoutEndMinute:   raw.BlackoutEndMinute,
		PublishSchedule:     raw.PublishSchedule,
		PublishWeekday:      raw.PublishWeekday,
		PublishHour:         raw.PublishHour,
		PublishMinute:       raw.PublishMinute,
		PublishSubreddit:    raw.PublishSubreddit,
		ShowID:              raw.ShowID,
		Port:                raw.Port,
		APIAccessKey:        raw.APIAccessKey,
		RequestTimeout:      raw.RequestTimeout,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		DryRun:              raw.DryRun,
		Version:             GetVersion(),
	}

	if raw.CredentialsFile != "" {
		creds, err := LoadCredentials(raw.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		cfg.Credentials = creds
	}
	cfg.Credentials.UserAgent = cmp.Or(raw.UserAgent, cfg.Credentials.UserAgent, "MrTurtleBot/"+cfg.Version)
	cfg.Credentials.ClientID = cmp.Or(raw.ClientID, cfg.Credentials.ClientID)
	cfg.Credentials.ClientSecret = cmp.Or(raw.ClientSecret, cfg.Credentials.ClientSecret)
	cfg.Credentials.Username = cmp.Or(raw.Username, cfg.Credentials.Username)
	cfg.Credentials.Password = cmp.Or(raw.Password, cfg.Credentials.Password)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, rest, nil
}

func (c *Cfg) Validate() error {
	if c.PostInterval <= 0 || c.CommentInterval <= 0 || c.FlushInterval <= 0 {
		return fmt.Errorf("poll and flush intervals must be positive")
	}
	if c.PostLimit <= 0 || c.CommentLimit <= 0 {
		return fmt.Errorf("poll limits must be positive")
	}
	if c.BlackoutWeekday < 0 || c.BlackoutWeekday > 6 || c.PublishWeekday < 0 || c.PublishWeekday > 6 {
		return fmt.Errorf("weekdays must be between 0 and 6")
	}
	if len(c.Subreddits) == 0 {
		return fmt.Errorf("at least one subreddit is required")
	}
	// the Atom source can run read-only when nothing is sent
	if c.Source == "atom" && c.DryRun {
		return nil
	}
	if c.Credentials.ClientID == "" || c.Credentials.ClientSecret == "" || c.Credentials.Username == "" || c.Credentials.Password == "" {
		return fmt.Errorf("forum credentials are required (client id, client secret, username, password)")
	}
	return nil
}

func inDir(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
