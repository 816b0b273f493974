// Package pipeline orchestrates one catalog refresh: source rows in, fetch,
// extract, classify, filter, merge, persist. One logical worker; each row is
// processed independently and failures are isolated per row. The catalog is
// written exactly once, at the very end.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vrclife/catalogd/catalog"
	"github.com/vrclife/catalogd/classify"
	"github.com/vrclife/catalogd/config"
	"github.com/vrclife/catalogd/extract"
	"github.com/vrclife/catalogd/fetch"
	"github.com/vrclife/catalogd/models"
	"github.com/vrclife/catalogd/scraper"
	"github.com/vrclife/catalogd/sheet"
)

// Stats are the aggregate counts reported after a run.
type Stats struct {
	RowsAccepted  int
	RowsDropped   int
	RowsDuplicate int
	Fetched       int
	FetchFailures int
	Extracted     int
	ExtractFailed int
	AdultFiltered int
	LowLikes      int
	Duplicates    int
	Accepted      int
	EmptyRun      bool
	CatalogTotal  int
	PreviousTotal int
}

type candidate struct {
	item     *models.Item
	override *models.OverrideRow
}

// Runner drives a full pipeline cycle.
type Runner struct {
	cfg       *config.Config
	fetcher   *fetch.Fetcher
	extractor *extract.Extractor
	rules     *classify.Ruleset
	crawler   *scraper.Crawler
	metrics   *scraper.Metrics
	targets   []scraper.SearchTarget
}

// New builds a runner. crawler may be nil when cfg.Source is "sheet" or a
// dry run.
func New(cfg *config.Config, fetcher *fetch.Fetcher, extractor *extract.Extractor,
	rules *classify.Ruleset, crawler *scraper.Crawler, metrics *scraper.Metrics) *Runner {
	return &Runner{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		rules:     rules,
		crawler:   crawler,
		metrics:   metrics,
		targets:   scraper.DefaultTargets(),
	}
}

// SetTargets overrides the search listings to crawl. Used by tests.
func (r *Runner) SetTargets(targets []scraper.SearchTarget) {
	r.targets = targets
}

// Run executes one refresh cycle and persists the next catalog snapshot.
// Cancellation mid-run returns without writing; the previous catalog is
// untouched.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	prev, err := catalog.Load(r.cfg.OutputFile)
	if err != nil {
		return nil, err
	}
	stats.PreviousTotal = len(prev.Items)
	slog.Info("previous catalog loaded", slog.Int("items", stats.PreviousTotal))

	candidates, err := r.collect(ctx, stats)
	if err != nil {
		return nil, err
	}

	fresh := r.filterAndClassify(candidates, stats)

	if len(fresh) == 0 {
		// Distinguished hazard: merging nothing must never silently erase a
		// healthy catalog. Policy: write through the unchanged previous
		// catalog and report loudly.
		stats.EmptyRun = true
		slog.Error("run produced zero records; writing through previous catalog unchanged",
			slog.Int("previous_items", stats.PreviousTotal))
	}

	next := catalog.Merge(prev, fresh)
	if err := catalog.Save(r.cfg.OutputFile, next); err != nil {
		return nil, err
	}
	if err := catalog.Validate(r.cfg.OutputFile); err != nil {
		return nil, err
	}

	stats.CatalogTotal = next.TotalItems
	r.metrics.SetCatalogSize(next.TotalItems)
	slog.Info("catalog persisted",
		slog.String("path", r.cfg.OutputFile),
		slog.Int("items", next.TotalItems),
		slog.Int("accepted_this_run", stats.Accepted),
	)
	return stats, nil
}

func (r *Runner) collect(ctx context.Context, stats *Stats) ([]candidate, error) {
	switch {
	case r.cfg.DryRun:
		slog.Info("dry run: using canned sample dataset")
		items := SampleItems()
		stats.Extracted = len(items)
		out := make([]candidate, 0, len(items))
		for _, item := range items {
			out = append(out, candidate{item: item})
		}
		return out, nil

	case r.cfg.Source == "sheet":
		return r.collectFromSheet(ctx, stats)

	default:
		return r.collectFromSearch(ctx, stats)
	}
}

func (r *Runner) collectFromSheet(ctx context.Context, stats *Stats) ([]candidate, error) {
	rows, err := r.loadRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load override table: %w", err)
	}
	stats.RowsAccepted = rows.Accepted
	stats.RowsDropped = rows.Dropped
	stats.RowsDuplicate = rows.Duplicates
	slog.Info("override table loaded",
		slog.Int("accepted", rows.Accepted),
		slog.Int("dropped", rows.Dropped),
		slog.Int("duplicates", rows.Duplicates),
	)

	var out []candidate
	for i := range rows.Rows {
		row := rows.Rows[i]
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		doc, err := r.fetcher.Fetch(ctx, row.URL)
		if err != nil {
			stats.FetchFailures++
			r.metrics.IncFetch(fetch.TypeLabel(err))
			slog.Error("row fetch failed",
				slog.String("url", row.URL), slog.Any("error", err))
			continue
		}
		stats.Fetched++
		r.metrics.IncFetch("ok")
		r.metrics.ObserveFetch(time.Since(start))

		item := r.extractor.Detail(doc, row.URL)
		if item == nil {
			stats.ExtractFailed++
			slog.Warn("no record extracted", slog.String("url", row.URL))
			continue
		}
		stats.Extracted++
		r.metrics.IncExtracted()
		out = append(out, candidate{item: item, override: &row})
	}
	return out, nil
}

func (r *Runner) loadRows(ctx context.Context) (*sheet.Result, error) {
	if r.cfg.SheetFormat == "html" {
		doc, err := r.fetcher.Fetch(ctx, r.cfg.SheetURL)
		if err != nil {
			return nil, err
		}
		return sheet.ParseTable(doc)
	}
	data, err := r.fetcher.Get(ctx, r.cfg.SheetURL)
	if err != nil {
		return nil, err
	}
	return sheet.ParseCSV(bytes.NewReader(data))
}

func (r *Runner) collectFromSearch(ctx context.Context, stats *Stats) ([]candidate, error) {
	items, err := r.crawler.Run(ctx, r.targets)
	if err != nil {
		return nil, err
	}
	stats.Extracted = len(items)

	needDetails := r.cfg.FetchDetails || r.cfg.MinLikes > 0
	out := make([]candidate, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if needDetails && item.BoothURL != "" {
			start := time.Now()
			doc, err := r.fetcher.Fetch(ctx, item.BoothURL)
			if err != nil {
				stats.FetchFailures++
				r.metrics.IncFetch(fetch.TypeLabel(err))
				slog.Error("detail fetch failed",
					slog.String("url", item.BoothURL), slog.Any("error", err))
			} else {
				stats.Fetched++
				r.metrics.IncFetch("ok")
				r.metrics.ObserveFetch(time.Since(start))
				r.extractor.Enrich(item, doc)
			}
		}
		out = append(out, candidate{item: item})
	}
	return out, nil
}

// filterAndClassify applies the pre-merge filters (adult, likes threshold,
// identity dedupe) and attaches classifier labels. Excluded records never
// reach the persisted catalog.
func (r *Runner) filterAndClassify(candidates []candidate, stats *Stats) []*models.ClassifiedItem {
	seen := make(map[string]struct{}, len(candidates))
	fresh := make([]*models.ClassifiedItem, 0, len(candidates))

	for _, c := range candidates {
		if c.item.Adult {
			stats.AdultFiltered++
			r.metrics.IncFiltered("adult")
			slog.Debug("excluding adult item", slog.String("id", c.item.ID))
			continue
		}
		if r.cfg.MinLikes > 0 && c.item.Likes < r.cfg.MinLikes {
			stats.LowLikes++
			r.metrics.IncFiltered("low_likes")
			continue
		}
		if _, dup := seen[c.item.ID]; dup {
			stats.Duplicates++
			r.metrics.IncFiltered("duplicate")
			continue
		}
		seen[c.item.ID] = struct{}{}

		fresh = append(fresh, r.rules.Apply(c.item, c.override))
		stats.Accepted++
	}
	return fresh
}
