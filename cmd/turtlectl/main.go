// Command turtlectl inspects and adjusts the episode publisher.
//
//	turtlectl [options] show-progress
//	turtlectl [options] set-progress SEASON EPISODE
//	turtlectl [options] publish
//
// Options are the same as the bot's, including the state backend.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/bot"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/cfg"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/state"
)

const usage = "usage: turtlectl [options] show-progress | set-progress SEASON EPISODE | publish"

func main() {
	appCfg, args, err := cfg.LoadArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, appCfg, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, appCfg *cfg.Cfg, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf(usage)
	}

	stores, err := bot.OpenStores(ctx, appCfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	client := bot.NewForumClient(appCfg)
	publisher := bot.NewPublisher(appCfg, client, stores.Progress)

	switch args[0] {
	case "show-progress":
		progress, err := publisher.Progress(ctx)
		if err != nil {
			return err
		}
		return printJSON(progress)

	case "set-progress":
		if len(args) != 3 {
			return fmt.Errorf(usage)
		}
		season, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid season %q: %w", args[1], err)
		}
		episode, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid episode %q: %w", args[2], err)
		}
		progress := state.Progress{Season: season, Episode: episode}
		if err := publisher.SetProgress(ctx, progress); err != nil {
			return err
		}
		return printJSON(progress)

	case "publish":
		if !appCfg.DryRun {
			if err := client.Authenticate(ctx); err != nil {
				return fmt.Errorf("failed to authenticate: %w", err)
			}
		}
		result, err := publisher.PublishNext(ctx)
		if err != nil {
			return err
		}
		return printJSON(result)

	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
