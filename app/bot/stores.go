package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/cfg"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/database"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/state"
	"github.com/redis/go-redis/v9"
)

type Stores struct {
	Seen     state.SeenStore
	Progress state.ProgressStore
	close    func() error
}

func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStores builds the seen and progress stores for the configured backend.
func OpenStores(ctx context.Context, c *cfg.Cfg) (*Stores, error) {
	switch c.StateBackend {
	case "sqlite":
		db, err := database.NewConnection(c.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite state: %w", err)
		}
		slog.Info("Using sqlite state", "path", c.SQLitePath)
		return &Stores{
			Seen:     database.NewSeenRepository(db),
			Progress: database.NewProgressRepository(db),
			close:    db.Close,
		}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", c.RedisAddr, err)
		}
		slog.Info("Using redis state", "addr", c.RedisAddr, "prefix", c.RedisPrefix)
		store := state.NewRedisStore(client, c.RedisPrefix)
		return &Stores{Seen: store, Progress: store, close: client.Close}, nil

	default:
		return jsonStores(c), nil
	}
}

func jsonStores(c *cfg.Cfg) *Stores {
	slog.Info("Using json state", "seen", c.SeenFile, "progress", c.ProgressFile)
	return &Stores{
		Seen:     state.NewJSONSeenStore(c.SeenFile),
		Progress: state.NewJSONProgressStore(c.ProgressFile),
	}
}
