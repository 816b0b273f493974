// Package scraper crawls the marketplace's popular-sort search listings and
// extracts item cards. Crawling is synchronous and rate-limited; nothing is
// retried.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vrclife/catalogd/config"
	"github.com/vrclife/catalogd/extract"
	"github.com/vrclife/catalogd/fetch"
	"github.com/vrclife/catalogd/models"
)

const cardSelector = "li.item-card, .shop-item-card, [data-tracking-name='items']"

// SearchTarget is one paginated search listing to walk.
type SearchTarget struct {
	URL   string
	Label string
}

// DefaultTargets returns the fixed popular-sort search listings.
func DefaultTargets() []SearchTarget {
	return []SearchTarget{
		{URL: "https://booth.pm/ja/search/VRChat?sort=popular", Label: "VRChat全般"},
		{URL: "https://booth.pm/ja/search/3D%E8%A1%A3%E8%A3%85?sort=popular", Label: "3D衣装"},
		{URL: "https://booth.pm/ja/search/3D%E3%82%AD%E3%83%A3%E3%83%A9%E3%82%AF%E3%82%BF%E3%83%BC?sort=popular", Label: "3Dキャラクター"},
		{URL: "https://booth.pm/ja/search/3D%E5%B0%8F%E7%89%A9?sort=popular", Label: "3D小物"},
	}
}

// Crawler walks search listings page by page and collects extracted cards.
type Crawler struct {
	cfg       *config.Config
	collector *colly.Collector
	extractor *extract.Extractor
	metrics   *Metrics
	seen      *lru.Cache[string, struct{}]

	items    []*models.Item
	pageHits int
}

// New builds a crawler configured from cfg.
func New(cfg *config.Config, extractor *extract.Extractor, metrics *Metrics) (*Crawler, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       cfg.Delay,
		RandomDelay: cfg.RandomDelay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	seen, err := lru.New[string, struct{}](cfg.DedupeMaxSize)
	if err != nil {
		return nil, fmt.Errorf("build dedupe cache: %w", err)
	}

	c := &Crawler{
		cfg:       cfg,
		collector: collector,
		extractor: extractor,
		metrics:   metrics,
		seen:      seen,
	}
	c.configureHandlers()
	return c, nil
}

// WithTransport swaps the collector transport. Used by tests.
func (c *Crawler) WithTransport(rt http.RoundTripper) {
	c.collector.WithTransport(rt)
}

func (c *Crawler) configureHandlers() {
	c.collector.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
	})

	c.collector.OnResponse(func(r *colly.Response) {
		c.metrics.IncFetch("ok")
		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			c.metrics.ObserveFetch(time.Since(start))
		}
	})

	c.collector.OnError(func(r *colly.Response, err error) {
		statusCode := 0
		if r != nil {
			statusCode = r.StatusCode
		}
		label := fetch.TypeLabel(fetch.Classify(err, statusCode))
		c.metrics.IncFetch(label)

		pageURL := ""
		if r != nil && r.Request != nil && r.Request.URL != nil {
			pageURL = r.Request.URL.String()
		}
		slog.Error("listing fetch failed",
			slog.String("url", pageURL),
			slog.String("category", label),
			slog.Any("error", err),
		)
	})

	c.collector.OnHTML(cardSelector, func(e *colly.HTMLElement) {
		item := c.extractor.Card(e.DOM, e.Request.URL)
		if item == nil {
			return
		}
		c.pageHits++
		if _, dup := c.seen.Get(item.ID); dup {
			return
		}
		c.seen.Add(item.ID, struct{}{})
		c.metrics.IncExtracted()
		c.items = append(c.items, item)
	})
}

// Run walks every target until a page yields no cards or the page cap is
// reached. A failed page fetch ends that target only; collected items from
// other targets survive.
func (c *Crawler) Run(ctx context.Context, targets []SearchTarget) ([]*models.Item, error) {
	c.items = nil

	for _, target := range targets {
		slog.Info("crawling search listing", slog.String("label", target.Label))

		for page := 1; page <= c.cfg.MaxPages; page++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			c.pageHits = 0
			pageURL := fmt.Sprintf("%s&page=%d", target.URL, page)
			if err := c.collector.Visit(pageURL); err != nil {
				slog.Warn("aborting listing after failed page",
					slog.String("label", target.Label),
					slog.Int("page", page),
					slog.Any("error", err),
				)
				break
			}
			c.collector.Wait()

			if c.pageHits == 0 {
				slog.Debug("listing exhausted",
					slog.String("label", target.Label), slog.Int("page", page))
				break
			}
			slog.Debug("listing page done",
				slog.String("label", target.Label),
				slog.Int("page", page),
				slog.Int("cards", c.pageHits),
				slog.Int("collected", len(c.items)),
			)
		}
	}

	return c.items, nil
}
