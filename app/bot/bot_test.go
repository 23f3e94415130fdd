package bot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/cfg"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/forum"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/state"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/tasks"
)

func testCfg(t *testing.T, backend string) *cfg.Cfg {
	t.Helper()
	dir := t.TempDir()
	return &cfg.Cfg{
		StateDir:         dir,
		SeenFile:         filepath.Join(dir, "seenContent.json"),
		ProgressFile:     filepath.Join(dir, "episodeState.json"),
		SQLitePath:       filepath.Join(dir, "mrturtle.db"),
		StateBackend:     backend,
		Source:           "atom",
		Credentials:      forum.Credentials{UserAgent: "test/1.0"},
		Subreddits:       []string{"MyNameIsEarlFans"},
		PostInterval:     59,
		CommentInterval:  61,
		CommentDelay:     10,
		FlushInterval:    300,
		PostLimit:        10,
		CommentLimit:     25,
		PublishWeekday:   6,
		PublishHour:      18,
		PublishMinute:    59,
		PublishSubreddit: forum.PublishSubreddit,
		ShowID:           "678",
		RequestTimeout:   5,
		DryRun:           true,
	}
}

func TestNew_JSONBackend(t *testing.T) {
	c := testCfg(t, "json")
	ctx := context.Background()

	b := New(ctx, c)

	if _, ok := b.client.(*forum.AtomReader); !ok {
		t.Errorf("Expected atom reader, got %T", b.client)
	}

	jobs := b.Jobs()
	if len(jobs) != 3 {
		t.Fatalf("Expected 3 jobs without publish schedule, got %d", len(jobs))
	}
	if jobs[0].Interval != 59*time.Second || jobs[1].Interval != 61*time.Second || jobs[1].Delay != 10*time.Second {
		t.Errorf("Unexpected poll timings: %+v %+v", jobs[0], jobs[1])
	}
	if jobs[0].Task.GetType() != tasks.TaskTypePollPosts || jobs[1].Task.GetType() != tasks.TaskTypePollComments {
		t.Errorf("Unexpected job order")
	}

	b.Tracker.Mark(ctx, forum.KindPost, "abc")
	if err := b.Close(ctx); err != nil {
		t.Fatal(err)
	}

	stores, err := OpenStores(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	seen, err := stores.Seen.LoadSeen(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !seen.Has(forum.KindPost, "abc") {
		t.Error("Expected seen set to survive a restart")
	}
}

func TestNew_SQLiteBackendWithSchedule(t *testing.T) {
	c := testCfg(t, "sqlite")
	c.PublishSchedule = true
	c.Source = "oauth"
	ctx := context.Background()

	b := New(ctx, c)
	defer b.Close(ctx)

	if _, ok := b.client.(*forum.RedditClient); !ok {
		t.Errorf("Expected OAuth client, got %T", b.client)
	}

	jobs := b.Jobs()
	if len(jobs) != 4 || jobs[3].Weekly == nil || jobs[3].Weekly.Weekday != time.Saturday {
		t.Errorf("Expected weekly publish job, got %+v", jobs)
	}

	p, err := b.Publisher.Progress(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if p.Season != 1 || p.Episode != 0 {
		t.Errorf("Expected default progress, got %v", p)
	}
}

func TestNew_UnreachableRedisFallsBackToJSON(t *testing.T) {
	c := testCfg(t, "redis")
	c.RedisAddr = "127.0.0.1:1"
	ctx := context.Background()

	b := New(ctx, c)
	defer b.Close(ctx)

	if _, ok := b.stores.Seen.(*state.JSONSeenStore); !ok {
		t.Errorf("Expected json seen store fallback, got %T", b.stores.Seen)
	}
	if _, ok := b.stores.Progress.(*state.JSONProgressStore); !ok {
		t.Errorf("Expected json progress store fallback, got %T", b.stores.Progress)
	}
}

func TestNew_FailedLoginKeepsRunning(t *testing.T) {
	var tokenRequests atomic.Int32
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenRequests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer auth.Close()

	c := testCfg(t, "json")
	c.Source = "oauth"
	c.DryRun = false
	c.AuthURL = auth.URL
	c.Credentials = forum.Credentials{UserAgent: "test/1.0", ClientID: "id", ClientSecret: "secret", Username: "MrTurtleBot", Password: "wrong"}
	ctx := context.Background()

	b := New(ctx, c)
	defer b.Close(ctx)

	if tokenRequests.Load() != 1 {
		t.Errorf("Expected one login attempt at startup, got %d", tokenRequests.Load())
	}

	// the poller surfaces the login failure as a tick error and retries next tick
	if _, err := b.PostPoller.Tick(ctx); !errors.Is(err, forum.ErrUnauthorized) {
		t.Errorf("Expected unauthorized tick error, got %v", err)
	}
	if tokenRequests.Load() != 2 {
		t.Errorf("Expected the tick to retry the login, got %d attempts", tokenRequests.Load())
	}
}
