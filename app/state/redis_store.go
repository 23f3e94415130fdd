package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "mrturtle:"

var (
	_ SeenStore     = (*RedisStore)(nil)
	_ ProgressStore = (*RedisStore)(nil)
)

// RedisStore keeps seen ids in two Redis sets and progress as a JSON string.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) postsKey() string    { return s.prefix + "seen:posts" }
func (s *RedisStore) commentsKey() string { return s.prefix + "seen:comments" }
func (s *RedisStore) progressKey() string { return s.prefix + "progress" }

func (s *RedisStore) LoadSeen(ctx context.Context) (*SeenSet, error) {
	posts, err := s.client.SMembers(ctx, s.postsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load seen posts: %w", err)
	}
	comments, err := s.client.SMembers(ctx, s.commentsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load seen comments: %w", err)
	}

	seen := NewSeenSet()
	for _, id := range posts {
		seen.Posts[id] = struct{}{}
	}
	for _, id := range comments {
		seen.Comments[id] = struct{}{}
	}
	return seen, nil
}

// SaveSeen replaces both sets in one MULTI/EXEC block.
func (s *RedisStore) SaveSeen(ctx context.Context, seen *SeenSet) error {
	posts, comments := seen.Sorted()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.postsKey(), s.commentsKey())
		if len(posts) > 0 {
			pipe.SAdd(ctx, s.postsKey(), toAny(posts)...)
		}
		if len(comments) > 0 {
			pipe.SAdd(ctx, s.commentsKey(), toAny(comments)...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save seen set: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadProgress(ctx context.Context) (Progress, error) {
	data, err := s.client.Get(ctx, s.progressKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return DefaultProgress, s.SaveProgress(ctx, DefaultProgress)
	}
	if err != nil {
		return DefaultProgress, fmt.Errorf("failed to load progress: %w", err)
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return DefaultProgress, fmt.Errorf("failed to parse progress: %w", err)
	}
	if err := p.Validate(); err != nil {
		return DefaultProgress, err
	}
	return p, nil
}

func (s *RedisStore) SaveProgress(ctx context.Context, p Progress) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	if err := s.client.Set(ctx, s.progressKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
