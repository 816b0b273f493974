package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vrclife/catalogd/trends"
)

var defaultFeeds = []string{
	"https://news.google.com/rss/search?q=VRChat+when:1d&hl=ja&gl=JP&ceid=JP:ja",
	"https://news.google.com/rss/search?q=VRChat+イベント+when:1d&hl=ja&gl=JP&ceid=JP:ja",
	"https://news.google.com/rss/search?q=VRChat+ワールド+when:1d&hl=ja&gl=JP&ceid=JP:ja",
}

func main() {
	output := flag.String("output", "docs/data/trends.json", "Trends output path")
	feeds := flag.String("feeds", "", "Comma-separated feed URLs (default: built-in queries)")
	perFeed := flag.Int("per-feed", 5, "Entries taken from each feed")
	limit := flag.Int("limit", 30, "History size kept in the output file")
	timeout := flag.Duration("timeout", 30*time.Second, "Per-feed fetch timeout")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	feedURLs := defaultFeeds
	if *feeds != "" {
		feedURLs = nil
		for _, u := range strings.Split(*feeds, ",") {
			if u = strings.TrimSpace(u); u != "" {
				feedURLs = append(feedURLs, u)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := trends.NewCollector(&http.Client{Timeout: *timeout}, *perFeed)
	fresh := collector.Collect(ctx, feedURLs)
	slog.Info("feeds collected", slog.Int("entries", len(fresh)))

	if len(fresh) == 0 {
		slog.Info("no new entries, leaving trends file untouched")
		return
	}

	existing, err := trends.Load(*output)
	if err != nil {
		slog.Error("loading trends history", slog.Any("error", err))
		os.Exit(1)
	}

	merged := trends.Merge(existing, fresh, *limit)
	if err := trends.Save(*output, merged); err != nil {
		slog.Error("saving trends", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("trends saved",
		slog.String("path", *output),
		slog.Int("added", len(merged)-len(existing)),
		slog.Int("total", len(merged)),
	)
}
