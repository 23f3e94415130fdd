package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/forum"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/matcher"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/metrics"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/reply"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/state"
)

// IgnoredAuthors are never answered: the bot itself and the automod.
var IgnoredAuthors = []string{"MrTurtleBot", "AutoModerator"}

type Outcome string

const (
	OutcomeSent       Outcome = "sent"
	OutcomeSuppressed Outcome = "suppressed"
	OutcomeDryRun     Outcome = "dry_run"
	OutcomeFailed     Outcome = "failed"
)

// Action records one reply decision made during a tick.
type Action struct {
	Kind     forum.Kind
	ItemID   string
	Author   string
	Rule     matcher.Rule
	Keywords []string
	Reply    string
	Outcome  Outcome
}

type TickResult struct {
	Fetched int
	Actions []Action
	// Stopped is set when a special reply ended the tick early.
	Stopped bool
	// Skipped is set when the tick fell inside the blackout window.
	Skipped bool
}

type PollStats struct {
	Kind      forum.Kind `json:"kind"`
	LastCheck time.Time  `json:"last_check"`
	Ticks     int        `json:"ticks"`
	Skipped   int        `json:"skipped"`
	Errors    int        `json:"errors"`
	Replies   int        `json:"replies"`
	LastError string     `json:"last_error,omitempty"`
}

type PollConfig struct {
	Kind           forum.Kind
	Subreddits     []string
	Limit          int
	Blackout       Blackout
	IgnoredAuthors []string
	RequestTimeout time.Duration
	DryRun         bool
}

type PollTask struct {
	Task
	config   PollConfig
	client   forum.Client
	matcher  *matcher.Matcher
	tracker  *state.Tracker
	throttle *reply.Throttle
	now      func() time.Time

	tickMu sync.Mutex

	mu        sync.Mutex
	lastCheck time.Time
	stats     PollStats
}

func NewPollTask(config PollConfig, client forum.Client, m *matcher.Matcher, tracker *state.Tracker, throttle *reply.Throttle) *PollTask {
	taskType := TaskTypePollPosts
	if config.Kind == forum.KindComment {
		taskType = TaskTypePollComments
	}
	if config.IgnoredAuthors == nil {
		config.IgnoredAuthors = IgnoredAuthors
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}

	t := &PollTask{
		Task:     NewTask(taskType),
		config:   config,
		client:   client,
		matcher:  m,
		tracker:  tracker,
		throttle: throttle,
		now:      time.Now,
	}
	t.lastCheck = t.now()
	t.stats = PollStats{Kind: config.Kind, LastCheck: t.lastCheck}
	return t
}

func (t *PollTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.Tick(ctx)
	kind := string(t.config.Kind)

	switch {
	case err != nil:
		metrics.PollTicks.WithLabelValues(kind, "error").Inc()
	case result.Skipped:
		metrics.PollTicks.WithLabelValues(kind, "skipped").Inc()
	case result.Stopped:
		metrics.PollTicks.WithLabelValues(kind, "stopped").Inc()
	default:
		metrics.PollTicks.WithLabelValues(kind, "ok").Inc()
	}
	if err != nil {
		return err
	}

	slog.Debug("Task completed",
		"type", string(t.Type),
		"duration", t.GetDuration(),
		"fetched", result.Fetched,
		"actions", len(result.Actions),
		"stopped", result.Stopped,
		"skipped", result.Skipped)

	return nil
}

// Tick runs one poll cycle. On error or early stop the last-check time is
// left unchanged so the remaining items are seen again next tick.
func (t *PollTask) Tick(ctx context.Context) (TickResult, error) {
	t.tickMu.Lock()
	defer t.tickMu.Unlock()

	result, err := t.tick(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.Ticks++
	t.stats.LastCheck = t.lastCheck
	if result.Skipped {
		t.stats.Skipped++
	}
	for _, action := range result.Actions {
		if action.Outcome == OutcomeSent || action.Outcome == OutcomeDryRun {
			t.stats.Replies++
		}
	}
	if err != nil {
		t.stats.Errors++
		t.stats.LastError = err.Error()
	}
	return result, err
}

func (t *PollTask) tick(ctx context.Context) (TickResult, error) {
	var result TickResult
	kind := t.config.Kind

	now := t.now()
	if t.config.Blackout.Contains(now) {
		slog.Debug("Polling paused for blackout window", "kind", kind)
		result.Skipped = true
		return result, nil
	}
	checkStart := now

	fetchCtx, cancel := context.WithTimeout(ctx, t.config.RequestTimeout)
	items, err := t.client.Newest(fetchCtx, kind, t.config.Subreddits, t.config.Limit)
	cancel()
	if err != nil {
		return result, fmt.Errorf("failed to fetch %ss: %w", kind, err)
	}
	result.Fetched = len(items)
	metrics.ItemsFetched.WithLabelValues(string(kind)).Add(float64(len(items)))

	for _, item := range items {
		if slices.Contains(t.config.IgnoredAuthors, item.Author) || item.LooksRemoved() {
			continue
		}
		if !item.CreatedAt.After(t.lastCheck) {
			continue
		}

		match := t.matcher.Match(item)
		if match.Rule == matcher.RuleNone {
			continue
		}

		if match.Rule.Special() {
			if !t.tracker.MarkIfUnseen(ctx, kind, item.ID) {
				continue
			}
			metrics.Matches.WithLabelValues(string(kind), match.Rule.String()).Inc()

			text, _ := reply.Fixed(match.Rule)
			action, err := t.send(ctx, item, match, text)
			result.Actions = append(result.Actions, action)
			result.Stopped = true
			return result, err
		}

		slog.Info("Found matching item",
			"kind", kind,
			"id", item.ID,
			"author", item.Author,
			"keywords", match.Keywords)
		if t.tracker.Has(kind, item.ID) {
			slog.Debug("Ignoring already handled item", "kind", kind, "id", item.ID)
			continue
		}
		metrics.Matches.WithLabelValues(string(kind), match.Rule.String()).Inc()

		text := reply.Compose(match.Keywords, kind)

		var action Action
		var sendErr error
		if t.throttle.ShouldSuppress() {
			action = newAction(item, match, text, OutcomeSuppressed)
			metrics.Replies.WithLabelValues(string(kind), string(OutcomeSuppressed)).Inc()
			slog.Debug("Reply suppressed by throttle", "kind", kind, "id", item.ID)
		} else {
			action, sendErr = t.send(ctx, item, match, text)
		}

		t.tracker.Mark(ctx, kind, item.ID)
		result.Actions = append(result.Actions, action)
		if sendErr != nil {
			return result, sendErr
		}
	}

	t.mu.Lock()
	t.lastCheck = checkStart
	t.mu.Unlock()
	return result, nil
}

func (t *PollTask) send(ctx context.Context, item forum.Item, match matcher.Result, text string) (Action, error) {
	kind := string(item.Kind)

	if t.config.DryRun {
		slog.Info("Dry run, reply not sent", "kind", kind, "id", item.ID, "author", item.Author, "rule", match.Rule.String(), "reply", text)
		metrics.Replies.WithLabelValues(kind, string(OutcomeDryRun)).Inc()
		return newAction(item, match, text, OutcomeDryRun), nil
	}

	replyCtx, cancel := context.WithTimeout(ctx, t.config.RequestTimeout)
	defer cancel()

	if err := t.client.Reply(replyCtx, item, text); err != nil {
		metrics.Replies.WithLabelValues(kind, string(OutcomeFailed)).Inc()
		return newAction(item, match, text, OutcomeFailed), fmt.Errorf("failed to reply to %s %s: %w", kind, item.ID, err)
	}

	slog.Info("Replied", "kind", kind, "id", item.ID, "author", item.Author, "rule", match.Rule.String(), "reply", text)
	metrics.Replies.WithLabelValues(kind, string(OutcomeSent)).Inc()
	return newAction(item, match, text, OutcomeSent), nil
}

func newAction(item forum.Item, match matcher.Result, text string, outcome Outcome) Action {
	return Action{
		Kind:     item.Kind,
		ItemID:   item.ID,
		Author:   item.Author,
		Rule:     match.Rule,
		Keywords: match.Keywords,
		Reply:    text,
		Outcome:  outcome,
	}
}

// Begin anchors the creation-time cutoff to the start of the polling loop.
func (t *PollTask) Begin(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastCheck = now
	t.stats.LastCheck = now
}

// LastCheck returns the creation-time cutoff for the next tick.
func (t *PollTask) LastCheck() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastCheck
}

func (t *PollTask) Stats() PollStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}
