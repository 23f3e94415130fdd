package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/catalog"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/forum"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/metrics"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/state"
)

type PublishResult struct {
	Episode     catalog.Episode  `json:"episode"`
	Submission  forum.Submission `json:"submission"`
	Pinned      bool             `json:"pinned"`
	EndOfSeries bool             `json:"end_of_series"`
	DryRun      bool             `json:"dry_run"`
	Progress    state.Progress   `json:"progress"`
}

type PublisherConfig struct {
	ShowID         string
	Subreddit      string
	RequestTimeout time.Duration
	DryRun         bool
}

// Publisher posts the next catalog episode as a discussion thread and
// advances the stored progress. Calls are serialized.
type Publisher struct {
	config   PublisherConfig
	client   forum.Client
	catalog  catalog.Client
	progress state.ProgressStore

	mu sync.Mutex
}

func NewPublisher(config PublisherConfig, client forum.Client, catalogClient catalog.Client, progress state.ProgressStore) *Publisher {
	if config.ShowID == "" {
		config.ShowID = catalog.DefaultShowID
	}
	if config.Subreddit == "" {
		config.Subreddit = forum.PublishSubreddit
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}
	return &Publisher{
		config:   config,
		client:   client,
		catalog:  catalogClient,
		progress: progress,
	}
}

// PublishNext submits the episode after the stored progress. Reaching the
// end of the catalog is not an error. A failed pin is logged and the
// progress is still saved.
func (p *Publisher) PublishNext(ctx context.Context) (PublishResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, err := p.progress.LoadProgress(ctx)
	if err != nil {
		slog.Error("Failed to load progress, using fallback", "progress", current.String(), "error", err)
	}
	result := PublishResult{Progress: current, DryRun: p.config.DryRun}

	fetchCtx, cancel := context.WithTimeout(ctx, p.config.RequestTimeout)
	episodes, err := p.catalog.Episodes(fetchCtx, p.config.ShowID)
	cancel()
	if err != nil {
		metrics.PublishErrors.Inc()
		return result, fmt.Errorf("failed to fetch episodes: %w", err)
	}
	catalog.Sort(episodes)

	next, ok := catalog.NextAfter(episodes, current.Season, current.Episode)
	if !ok {
		slog.Info("No more episodes to post, end of series reached", "progress", current.String())
		result.EndOfSeries = true
		return result, nil
	}
	result.Episode = next

	title, body := catalog.FormatAnnouncement(next)
	if p.config.DryRun {
		slog.Info("Dry run, episode not posted", "subreddit", p.config.Subreddit, "title", title)
		return result, nil
	}

	submitCtx, cancel := context.WithTimeout(ctx, p.config.RequestTimeout)
	submission, err := p.client.Submit(submitCtx, p.config.Subreddit, title, body)
	cancel()
	if err != nil {
		metrics.PublishErrors.Inc()
		return result, fmt.Errorf("failed to submit episode post: %w", err)
	}
	result.Submission = submission
	slog.Info("Posted episode discussion", "subreddit", p.config.Subreddit, "title", title, "id", submission.ID)

	pinCtx, cancel := context.WithTimeout(ctx, p.config.RequestTimeout)
	if err := p.client.Pin(pinCtx, submission); err != nil {
		slog.Warn("Could not pin post, bot account needs moderator permissions", "id", submission.ID, "error", err)
	} else {
		result.Pinned = true
		slog.Info("Pinned episode discussion", "id", submission.ID)
	}
	cancel()

	published := state.Progress{Season: next.Season, Episode: next.Number}
	if err := p.progress.SaveProgress(ctx, published); err != nil {
		slog.Error("Failed to save progress", "progress", published.String(), "error", err)
	} else {
		result.Progress = published
		slog.Info("Progress updated", "progress", published.String())
	}

	metrics.EpisodesPublished.Inc()
	return result, nil
}

// SetProgress overwrites the stored progress, e.g. to pick a starting point.
func (p *Publisher) SetProgress(ctx context.Context, progress state.Progress) error {
	if err := progress.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.progress.SaveProgress(ctx, progress); err != nil {
		return fmt.Errorf("failed to set progress: %w", err)
	}
	slog.Info("Starting point set", "progress", progress.String())
	return nil
}

func (p *Publisher) Progress(ctx context.Context) (state.Progress, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress.LoadProgress(ctx)
}

type PublishTask struct {
	Task
	publisher *Publisher
}

func NewPublishTask(publisher *Publisher) *PublishTask {
	return &PublishTask{
		Task:      NewTask(TaskTypePublishEpisode),
		publisher: publisher,
	}
}

func (t *PublishTask) Execute(ctx context.Context) error {
	result, err := t.publisher.PublishNext(ctx)
	if err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"duration", t.GetDuration(),
		"episode", fmt.Sprintf("S%dE%d", result.Episode.Season, result.Episode.Number),
		"end_of_series", result.EndOfSeries,
		"pinned", result.Pinned)

	return nil
}
