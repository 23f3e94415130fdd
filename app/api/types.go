package api

import (
	"context"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/state"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/tasks"
)

type PublisherInterface interface {
	PublishNext(ctx context.Context) (tasks.PublishResult, error)
	SetProgress(ctx context.Context, progress state.Progress) error
	Progress(ctx context.Context) (state.Progress, error)
}

var _ PublisherInterface = (*tasks.Publisher)(nil)

type PollStatsSource interface {
	Stats() tasks.PollStats
}

var _ PollStatsSource = (*tasks.PollTask)(nil)

type SeenCounter interface {
	Counts() (posts, comments int)
}

var _ SeenCounter = (*state.Tracker)(nil)

type Handler struct {
	publisher PublisherInterface
	pollers   []PollStatsSource
	seen      SeenCounter
	version   string
	dryRun    bool
}

type progressRequest struct {
	Season  *int `json:"season" binding:"required"`
	Episode *int `json:"episode" binding:"required"`
}
