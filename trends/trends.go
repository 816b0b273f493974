// Package trends maintains a rolling headline feed from RSS sources.
package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Entry is one published headline.
type Entry struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	SourceURL string `json:"sourceUrl"`
	Date      string `json:"date"`
}

// Collector fetches and normalizes feed entries.
type Collector struct {
	parser  *gofeed.Parser
	perFeed int
}

// NewCollector builds a collector; client may be nil for the default
// transport. perFeed caps entries taken from each feed.
func NewCollector(client *http.Client, perFeed int) *Collector {
	parser := gofeed.NewParser()
	if client != nil {
		parser.Client = client
	}
	if perFeed <= 0 {
		perFeed = 5
	}
	return &Collector{parser: parser, perFeed: perFeed}
}

// Collect fetches every feed and returns deduplicated entries. A failing
// feed is logged and skipped; the rest of the batch continues.
func (c *Collector) Collect(ctx context.Context, feedURLs []string) []Entry {
	var entries []Entry
	seen := make(map[string]struct{})

	for _, feedURL := range feedURLs {
		feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			slog.Error("feed fetch failed",
				slog.String("url", feedURL), slog.Any("error", err))
			continue
		}

		taken := 0
		for _, item := range feed.Items {
			if taken >= c.perFeed {
				break
			}
			if item.Link == "" {
				continue
			}
			if _, dup := seen[item.Link]; dup {
				continue
			}
			seen[item.Link] = struct{}{}
			entries = append(entries, normalize(item))
			taken++
		}
	}
	return entries
}

func normalize(item *gofeed.Item) Entry {
	// Aggregator titles carry a " - source" suffix.
	title, _, _ := strings.Cut(item.Title, " - ")

	snippet := item.Description
	if snippet == "" {
		snippet = item.Title
	}

	date := time.Now().UTC()
	if item.PublishedParsed != nil {
		date = item.PublishedParsed.UTC()
	}

	return Entry{
		Title:     strings.TrimSpace(title),
		Content:   strings.TrimSpace(html.UnescapeString(snippet)),
		SourceURL: item.Link,
		Date:      date.Format("2006-01-02"),
	}
}

// Merge prepends fresh entries not already present (by source URL) and trims
// history to limit. Existing entries keep their order.
func Merge(existing, fresh []Entry, limit int) []Entry {
	known := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		known[e.SourceURL] = struct{}{}
	}

	var added []Entry
	for _, e := range fresh {
		if _, dup := known[e.SourceURL]; dup {
			continue
		}
		known[e.SourceURL] = struct{}{}
		added = append(added, e)
	}

	merged := append(added, existing...)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// Load reads a persisted trends file; missing file yields an empty history.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read trends: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse trends %s: %w", path, err)
	}
	return entries, nil
}

// Save persists the trends history.
func Save(path string, entries []Entry) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode trends: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write trends: %w", err)
	}
	return nil
}
