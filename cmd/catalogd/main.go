package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vrclife/catalogd/classify"
	"github.com/vrclife/catalogd/config"
	"github.com/vrclife/catalogd/extract"
	"github.com/vrclife/catalogd/fetch"
	"github.com/vrclife/catalogd/pipeline"
	"github.com/vrclife/catalogd/scraper"
)

func main() {
	defaultCfg := config.DefaultConfig()

	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("CATALOGD_OUTPUT"); ok {
		outputDefault = value
	}
	sheetDefault := defaultCfg.SheetURL
	if value, ok := config.EnvString("CATALOGD_SHEET_URL"); ok {
		sheetDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("CATALOGD_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	minLikesDefault := defaultCfg.MinLikes
	if value, ok, err := config.EnvInt("CATALOGD_MIN_LIKES"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid CATALOGD_MIN_LIKES: %v\n", err)
		os.Exit(1)
	} else if ok {
		minLikesDefault = value
	}

	source := flag.String("source", defaultCfg.Source, "Item source: search or sheet")
	sheetURL := flag.String("sheet-url", sheetDefault, "Published override table URL (sheet source)")
	sheetFormat := flag.String("sheet-format", defaultCfg.SheetFormat, "Override table format: csv or html")
	baseURL := flag.String("base-url", defaultCfg.BaseURL, "Marketplace base URL")
	outputFile := flag.String("output", outputDefault, "Catalog output path")
	rulesFile := flag.String("rules", "", "Classifier rules YAML (default: built-in rules)")
	minLikes := flag.Int("min-likes", minLikesDefault, "Drop items below this likes count (0 disables)")
	maxPages := flag.Int("max-pages", defaultCfg.MaxPages, "Page cap per search listing")
	fetchDetails := flag.Bool("fetch-details", defaultCfg.FetchDetails, "Fetch detail pages for likes and descriptions")
	delayMs := flag.Int("delay", int(defaultCfg.Delay/time.Millisecond), "Base delay between requests (milliseconds)")
	randomDelayMs := flag.Int("random-delay", int(defaultCfg.RandomDelay/time.Millisecond), "Random jitter added to delay (milliseconds)")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	dryRun := flag.Bool("dry-run", false, "Skip all network I/O and use the canned sample dataset")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.Source = *source
	cfg.SheetURL = *sheetURL
	cfg.SheetFormat = *sheetFormat
	cfg.BaseURL = *baseURL
	cfg.OutputFile = *outputFile
	cfg.RulesFile = *rulesFile
	cfg.MinLikes = *minLikes
	cfg.MaxPages = *maxPages
	cfg.FetchDetails = *fetchDetails
	cfg.Delay = time.Duration(*delayMs) * time.Millisecond
	cfg.RandomDelay = time.Duration(*randomDelayMs) * time.Millisecond
	cfg.MetricsAddr = *metricsAddr
	cfg.DryRun = *dryRun
	cfg.Verbose = *verbose

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	rules := classify.DefaultRules()
	if cfg.RulesFile != "" {
		loaded, err := classify.Load(cfg.RulesFile)
		if err != nil {
			slog.Error("loading rules", slog.Any("error", err))
			os.Exit(1)
		}
		rules = loaded
	}

	metrics := scraper.NewMetrics()
	extractor := extract.New(cfg.DescriptionLimit)
	fetcher := fetch.New(cfg)

	var crawler *scraper.Crawler
	if cfg.Source == "search" && !cfg.DryRun {
		built, err := scraper.New(cfg, extractor, metrics)
		if err != nil {
			slog.Error("initialising crawler", slog.Any("error", err))
			os.Exit(1)
		}
		crawler = built
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing current row")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	slog.Info("starting catalog refresh",
		slog.String("source", cfg.Source),
		slog.Bool("dry_run", cfg.DryRun),
		slog.String("output", cfg.OutputFile),
	)

	runner := pipeline.New(cfg, fetcher, extractor, rules, crawler, metrics)
	startTime := time.Now()
	stats, err := runner.Run(ctx)
	if err != nil {
		slog.Error("pipeline failed", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(stats, time.Since(startTime), cfg.OutputFile)
	if stats.EmptyRun {
		os.Exit(2)
	}
}

func printSummary(stats *pipeline.Stats, duration time.Duration, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Catalog refresh complete")
	if stats.RowsAccepted+stats.RowsDropped+stats.RowsDuplicate > 0 {
		fmt.Printf("  Table rows:     %d accepted / %d dropped / %d duplicate\n",
			stats.RowsAccepted, stats.RowsDropped, stats.RowsDuplicate)
	}
	fmt.Printf("  Fetched:        %d (failures: %d)\n", stats.Fetched, stats.FetchFailures)
	fmt.Printf("  Extracted:      %d (failures: %d)\n", stats.Extracted, stats.ExtractFailed)
	fmt.Printf("  Filtered:       %d adult / %d low-likes / %d duplicate\n",
		stats.AdultFiltered, stats.LowLikes, stats.Duplicates)
	fmt.Printf("  Accepted:       %d\n", stats.Accepted)
	fmt.Printf("  Catalog total:  %d (was %d)\n", stats.CatalogTotal, stats.PreviousTotal)
	if stats.EmptyRun {
		fmt.Println("  WARNING: run produced zero records; previous catalog written through unchanged")
	}
	fmt.Printf("  Duration:       %v\n", duration)
	fmt.Printf("  Output file:    %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
