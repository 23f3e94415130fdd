package state

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/forum"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "test:"), mr
}

func TestRedisStore_SeenRoundTrip(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	empty, err := store.LoadSeen(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty.Posts) != 0 || len(empty.Comments) != 0 {
		t.Errorf("Expected empty seen set, got %+v", empty)
	}

	seen := NewSeenSet()
	seen.Add(forum.KindPost, "p2")
	seen.Add(forum.KindPost, "p1")
	seen.Add(forum.KindComment, "c1")

	if err := store.SaveSeen(ctx, seen); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.LoadSeen(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded, seen) {
		t.Errorf("Expected %+v, got %+v", seen, loaded)
	}

	members, err := mr.SMembers("test:seen:posts")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(members, []string{"p1", "p2"}) {
		t.Errorf("Unexpected posts set: %v", members)
	}
}

func TestRedisStore_SaveEmptySetReplaces(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	seen := NewSeenSet()
	seen.Add(forum.KindPost, "p1")
	seen.Add(forum.KindComment, "c1")
	if err := store.SaveSeen(ctx, seen); err != nil {
		t.Fatal(err)
	}

	if err := store.SaveSeen(ctx, NewSeenSet()); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("test:seen:posts") || mr.Exists("test:seen:comments") {
		t.Error("Expected both sets to be removed")
	}

	loaded, err := store.LoadSeen(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Posts) != 0 || len(loaded.Comments) != 0 {
		t.Errorf("Expected empty seen set, got %+v", loaded)
	}
}

func TestRedisStore_Progress(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	p, err := store.LoadProgress(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if p != DefaultProgress {
		t.Errorf("Expected default progress, got %v", p)
	}
	raw, err := mr.Get("test:progress")
	if err != nil {
		t.Fatalf("Expected default progress to be written: %v", err)
	}
	if raw != `{"currentSeason":1,"currentEpisode":0}` {
		t.Errorf("Unexpected stored progress: %s", raw)
	}

	if err := store.SaveProgress(ctx, Progress{Season: 3, Episode: 7}); err != nil {
		t.Fatal(err)
	}
	p, err = store.LoadProgress(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if p != (Progress{Season: 3, Episode: 7}) {
		t.Errorf("Expected S3E7, got %v", p)
	}

	if err := store.SaveProgress(ctx, Progress{Season: 0, Episode: 1}); !errors.Is(err, ErrInvalidProgress) {
		t.Errorf("Expected ErrInvalidProgress, got %v", err)
	}
}

func TestRedisStore_CorruptProgress(t *testing.T) {
	store, mr := newTestRedisStore(t)
	if err := mr.Set("test:progress", "not json"); err != nil {
		t.Fatal(err)
	}

	p, err := store.LoadProgress(context.Background())
	if err == nil {
		t.Error("Expected error for corrupt progress")
	}
	if p != DefaultProgress {
		t.Errorf("Expected default progress fallback, got %v", p)
	}
}

func TestRedisStore_ServerErrors(t *testing.T) {
	store, mr := newTestRedisStore(t)
	mr.SetError("LOADING")
	ctx := context.Background()

	if _, err := store.LoadSeen(ctx); err == nil {
		t.Error("Expected LoadSeen error")
	}
	if err := store.SaveSeen(ctx, NewSeenSet()); err == nil {
		t.Error("Expected SaveSeen error")
	}
	if _, err := store.LoadProgress(ctx); err == nil {
		t.Error("Expected LoadProgress error")
	}
}
