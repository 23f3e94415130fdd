package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/metrics"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/state"
)

// FlushSeenTask retries a failed seen-set write and refreshes the gauges.
type FlushSeenTask struct {
	Task
	tracker *state.Tracker
	force   bool
}

func NewFlushSeenTask(tracker *state.Tracker, force bool) *FlushSeenTask {
	return &FlushSeenTask{
		Task:    NewTask(TaskTypeFlushSeen),
		tracker: tracker,
		force:   force,
	}
}

func (t *FlushSeenTask) Execute(ctx context.Context) error {
	if err := t.tracker.Flush(ctx, t.force); err != nil {
		return fmt.Errorf("failed to flush seen set: %w", err)
	}

	posts, comments := t.tracker.Counts()
	metrics.SeenItems.WithLabelValues("post").Set(float64(posts))
	metrics.SeenItems.WithLabelValues("comment").Set(float64(comments))

	slog.Debug("Task completed",
		"type", string(t.Type),
		"duration", t.GetDuration(),
		"posts", posts,
		"comments", comments)

	return nil
}
