package trends

import (
	"context"
	"net/http"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jarcoal/httpmock"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
	<title>News</title>
	<item>
		<title>VRChat新作アバター発表 - VR News</title>
		<link>https://news.test/a</link>
		<description>新作アバター&amp;衣装のまとめ。</description>
		<pubDate>Mon, 25 Aug 2026 09:00:00 GMT</pubDate>
	</item>
	<item>
		<title>BOOTHセール開催</title>
		<link>https://news.test/b</link>
		<pubDate>Tue, 26 Aug 2026 09:00:00 GMT</pubDate>
	</item>
	<item>
		<title>Duplicate link</title>
		<link>https://news.test/a</link>
	</item>
	<item>
		<title>Third item beyond the per-feed cap</title>
		<link>https://news.test/c</link>
	</item>
</channel></rss>`

func TestCollect(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, "https://news.test/rss",
		httpmock.NewStringResponder(200, feedXML))
	transport.RegisterResponder(http.MethodGet, "https://news.test/broken",
		httpmock.NewStringResponder(503, "down"))

	c := NewCollector(&http.Client{Transport: transport}, 2)
	entries := c.Collect(context.Background(), []string{
		"https://news.test/broken", // failing feed is skipped, not fatal
		"https://news.test/rss",
	})

	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (per-feed cap)", len(entries))
	}

	first := entries[0]
	if first.Title != "VRChat新作アバター発表" {
		t.Errorf("title = %q, want aggregator suffix stripped", first.Title)
	}
	if first.Content != "新作アバター&衣装のまとめ。" {
		t.Errorf("content = %q, want entities unescaped", first.Content)
	}
	if first.SourceURL != "https://news.test/a" {
		t.Errorf("source url = %q", first.SourceURL)
	}
	if first.Date != "2026-08-25" {
		t.Errorf("date = %q, want 2026-08-25", first.Date)
	}

	if entries[1].SourceURL != "https://news.test/b" {
		t.Errorf("second entry = %q, duplicate link should have been skipped", entries[1].SourceURL)
	}
	if entries[1].Content != "BOOTHセール開催" {
		t.Errorf("content = %q, want title fallback when description is empty", entries[1].Content)
	}
}

func TestMerge(t *testing.T) {
	existing := []Entry{
		{Title: "old one", SourceURL: "https://news.test/1", Date: "2026-08-20"},
		{Title: "old two", SourceURL: "https://news.test/2", Date: "2026-08-19"},
	}
	fresh := []Entry{
		{Title: "new", SourceURL: "https://news.test/3", Date: "2026-08-26"},
		{Title: "old one refreshed", SourceURL: "https://news.test/1", Date: "2026-08-26"},
	}

	merged := Merge(existing, fresh, 10)

	wantURLs := []string{"https://news.test/3", "https://news.test/1", "https://news.test/2"}
	gotURLs := make([]string, len(merged))
	for i, e := range merged {
		gotURLs[i] = e.SourceURL
	}
	if !reflect.DeepEqual(gotURLs, wantURLs) {
		t.Errorf("urls = %v, want %v", gotURLs, wantURLs)
	}
	// The existing entry wins over the refreshed duplicate.
	if merged[1].Title != "old one" {
		t.Errorf("title = %q, want old one", merged[1].Title)
	}
}

func TestMergeTrimsToLimit(t *testing.T) {
	existing := []Entry{
		{SourceURL: "https://news.test/1"},
		{SourceURL: "https://news.test/2"},
	}
	fresh := []Entry{
		{SourceURL: "https://news.test/3"},
		{SourceURL: "https://news.test/4"},
	}

	merged := Merge(existing, fresh, 3)
	if len(merged) != 3 {
		t.Fatalf("len = %d, want 3", len(merged))
	}
	// Oldest history falls off the end.
	if merged[2].SourceURL != "https://news.test/1" {
		t.Errorf("tail = %q, want https://news.test/1", merged[2].SourceURL)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trends.json")
	entries := []Entry{
		{Title: "one", Content: "body", SourceURL: "https://news.test/1", Date: "2026-08-25"},
	}

	if err := Save(path, entries); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded, entries) {
		t.Errorf("loaded = %+v, want %+v", loaded, entries)
	}
}

func TestLoadMissingFileYieldsEmptyHistory(t *testing.T) {
	entries, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if entries != nil {
		t.Errorf("entries = %v, want nil", entries)
	}
}
