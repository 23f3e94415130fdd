package bot

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/catalog"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/cfg"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/forum"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/matcher"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/reply"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/state"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/tasks"
)

// Bot holds the long-lived pieces shared by the scheduler and the API.
type Bot struct {
	cfg    *cfg.Cfg
	stores *Stores
	client forum.Client

	Tracker       *state.Tracker
	Publisher     *tasks.Publisher
	PostPoller    *tasks.PollTask
	CommentPoller *tasks.PollTask
}

// NewForumClient returns the forum client for the configured source.
func NewForumClient(c *cfg.Cfg) forum.Client {
	httpClient := &http.Client{Timeout: time.Duration(c.RequestTimeout) * time.Second}
	oauth := forum.NewRedditClient(c.Credentials, httpClient)
	if c.AuthURL != "" {
		oauth.AuthURL = c.AuthURL
	}
	if c.APIURL != "" {
		oauth.APIURL = c.APIURL
	}
	if c.Source == "atom" {
		return forum.NewAtomReader(oauth, c.Credentials.UserAgent, httpClient)
	}
	return oauth
}

// NewPublisher wires the episode publisher for c.
func NewPublisher(c *cfg.Cfg, client forum.Client, progress state.ProgressStore) *tasks.Publisher {
	httpClient := &http.Client{Timeout: time.Duration(c.RequestTimeout) * time.Second}
	return tasks.NewPublisher(tasks.PublisherConfig{
		ShowID:         c.ShowID,
		Subreddit:      c.PublishSubreddit,
		RequestTimeout: time.Duration(c.RequestTimeout) * time.Second,
		DryRun:         c.DryRun,
	}, client, catalog.NewTVMaze(c.Credentials.UserAgent, httpClient), progress)
}

// New wires the bot. Startup failures are logged and the bot runs degraded:
// a failed login is retried by the client on every request, and an
// unreachable state backend falls back to the JSON files.
func New(ctx context.Context, c *cfg.Cfg) *Bot {
	stores, err := OpenStores(ctx, c)
	if err != nil {
		slog.Error("Failed to open state backend, falling back to json files", "backend", c.StateBackend, "error", err)
		stores = jsonStores(c)
	}

	client := NewForumClient(c)
	if !c.DryRun {
		if err := client.Authenticate(ctx); err != nil {
			slog.Error("Failed to authenticate, will retry on the next request", "error", err)
		}
	}

	tracker := state.NewTracker(ctx, stores.Seen)
	m := matcher.NewMatcher(matcher.Keywords)
	throttle := reply.NewThrottle(nil)

	blackout := tasks.Blackout{
		Enabled:     c.BlackoutEnabled,
		Weekday:     time.Weekday(c.BlackoutWeekday),
		Hour:        c.BlackoutHour,
		StartMinute: c.BlackoutStartMinute,
		EndMinute:   c.BlackoutEndMinute,
	}
	timeout := time.Duration(c.RequestTimeout) * time.Second

	pollConfig := func(kind forum.Kind, limit int) tasks.PollConfig {
		return tasks.PollConfig{
			Kind:           kind,
			Subreddits:     c.Subreddits,
			Limit:          limit,
			Blackout:       blackout,
			RequestTimeout: timeout,
			DryRun:         c.DryRun,
		}
	}

	return &Bot{
		cfg:           c,
		stores:        stores,
		client:        client,
		Tracker:       tracker,
		Publisher:     NewPublisher(c, client, stores.Progress),
		PostPoller:    tasks.NewPollTask(pollConfig(forum.KindPost, c.PostLimit), client, m, tracker, throttle),
		CommentPoller: tasks.NewPollTask(pollConfig(forum.KindComment, c.CommentLimit), client, m, tracker, throttle),
	}
}

// Jobs lists the background jobs for the scheduler.
func (b *Bot) Jobs() []tasks.Job {
	jobs := []tasks.Job{
		{Task: b.PostPoller, Interval: seconds(b.cfg.PostInterval)},
		{Task: b.CommentPoller, Interval: seconds(b.cfg.CommentInterval), Delay: seconds(b.cfg.CommentDelay)},
		{Task: tasks.NewFlushSeenTask(b.Tracker, true), Interval: seconds(b.cfg.FlushInterval)},
	}

	if b.cfg.PublishSchedule {
		jobs = append(jobs, tasks.Job{
			Task: tasks.NewPublishTask(b.Publisher),
			Weekly: &tasks.WeeklyTime{
				Weekday: time.Weekday(b.cfg.PublishWeekday),
				Hour:    b.cfg.PublishHour,
				Minute:  b.cfg.PublishMinute,
			},
		})
		slog.Info("Weekly episode publishing enabled",
			"weekday", time.Weekday(b.cfg.PublishWeekday).String(),
			"hour", b.cfg.PublishHour,
			"minute", b.cfg.PublishMinute)
	}
	return jobs
}

// Close writes the seen set one last time and releases the stores.
func (b *Bot) Close(ctx context.Context) error {
	flushErr := tasks.NewFlushSeenTask(b.Tracker, true).Execute(ctx)
	return errors.Join(flushErr, b.stores.Close())
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
