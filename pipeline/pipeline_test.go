package pipeline

import (
	"context"
	"net/http"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jarcoal/httpmock"

	"github.com/vrclife/catalogd/catalog"
	"github.com/vrclife/catalogd/classify"
	"github.com/vrclife/catalogd/config"
	"github.com/vrclife/catalogd/extract"
	"github.com/vrclife/catalogd/fetch"
)

func dryRunConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DryRun = true
	cfg.OutputFile = filepath.Join(t.TempDir(), "items.json")
	cfg.Delay = 0
	cfg.RandomDelay = 0
	return cfg
}

func TestRunDryRun(t *testing.T) {
	cfg := dryRunConfig(t)
	runner := New(cfg, nil, nil, classify.DefaultRules(), nil, nil)

	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if stats.Extracted != 12 {
		t.Errorf("extracted = %d, want 12", stats.Extracted)
	}
	if stats.AdultFiltered != 1 {
		t.Errorf("adult filtered = %d, want 1", stats.AdultFiltered)
	}
	if stats.Accepted != 11 {
		t.Errorf("accepted = %d, want 11", stats.Accepted)
	}
	if stats.EmptyRun {
		t.Error("run should not be empty")
	}

	cat, err := catalog.Load(cfg.OutputFile)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if cat.TotalItems != 11 {
		t.Fatalf("catalog total = %d, want 11", cat.TotalItems)
	}
	for _, item := range cat.Items {
		if item.ID == "booth-8901234" {
			t.Error("adult-flagged item reached the catalog")
		}
		if len(item.Category) == 0 || len(item.Tastes) == 0 || item.Type == "" {
			t.Errorf("item %s missing classification: %+v", item.ID, item)
		}
	}
	if cat.Items[0].ID != "booth-4567890" {
		t.Errorf("top item = %s, want booth-4567890 (500 likes)", cat.Items[0].ID)
	}
}

func TestRunDryRunIsIdempotent(t *testing.T) {
	cfg := dryRunConfig(t)
	runner := New(cfg, nil, nil, classify.DefaultRules(), nil, nil)

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, err := catalog.Load(cfg.OutputFile)
	if err != nil {
		t.Fatal(err)
	}

	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.PreviousTotal != 11 {
		t.Errorf("previous total = %d, want 11", stats.PreviousTotal)
	}
	second, err := catalog.Load(cfg.OutputFile)
	if err != nil {
		t.Fatal(err)
	}

	if second.TotalItems != first.TotalItems {
		t.Errorf("total changed across identical runs: %d -> %d", first.TotalItems, second.TotalItems)
	}
	for i := range first.Items {
		if first.Items[i].ID != second.Items[i].ID {
			t.Errorf("order changed at %d: %s -> %s", i, first.Items[i].ID, second.Items[i].ID)
		}
	}
}

func TestRunDryRunLikesThreshold(t *testing.T) {
	cfg := dryRunConfig(t)
	cfg.MinLikes = 200
	runner := New(cfg, nil, nil, classify.DefaultRules(), nil, nil)

	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.LowLikes != 4 {
		t.Errorf("low likes = %d, want 4", stats.LowLikes)
	}
	if stats.Accepted != 7 {
		t.Errorf("accepted = %d, want 7", stats.Accepted)
	}
}

const sheetCSV = `URL,Type,Category
https://booth.pm/ja/items/42,,
https://booth.pm/ja/items/77,Jacket,ALL
https://booth.pm/ja/items/500,,
`

const adultDetailPage = `<html><head>
	<meta property="og:title" content="Cyberpunk Jacket">
	<meta property="og:image" content="https://img.test/42.jpg">
</head><body>
	<div class="item-description">R-18 指定アイテムです。</div>
</body></html>`

const dressDetailPage = `<html><head>
	<meta property="og:title" content="Elegant Dress">
	<meta property="og:image" content="https://img.test/77.jpg">
</head><body>
	<div class="item-description">上品なドレスです。</div>
	<span class="item-interaction__like-count">1,200</span>
</body></html>`

func TestRunSheetMode(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, "https://sheets.test/export.csv",
		httpmock.NewStringResponder(200, sheetCSV))
	transport.RegisterResponder(http.MethodGet, "https://booth.pm/ja/items/42",
		httpmock.NewStringResponder(200, adultDetailPage))
	transport.RegisterResponder(http.MethodGet, "https://booth.pm/ja/items/77",
		httpmock.NewStringResponder(200, dressDetailPage))
	transport.RegisterResponder(http.MethodGet, "https://booth.pm/ja/items/500",
		httpmock.NewStringResponder(404, "gone"))

	cfg := config.DefaultConfig()
	cfg.Source = "sheet"
	cfg.SheetURL = "https://sheets.test/export.csv"
	cfg.OutputFile = filepath.Join(t.TempDir(), "items.json")
	cfg.Delay = 0
	cfg.RandomDelay = 0

	fetcher := fetch.New(cfg)
	fetcher.WithTransport(transport)
	runner := New(cfg, fetcher, extract.New(cfg.DescriptionLimit), classify.DefaultRules(), nil, nil)

	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if stats.RowsAccepted != 3 {
		t.Errorf("rows accepted = %d, want 3", stats.RowsAccepted)
	}
	if stats.Fetched != 2 || stats.FetchFailures != 1 {
		t.Errorf("fetched/failures = %d/%d, want 2/1", stats.Fetched, stats.FetchFailures)
	}
	// The adult detail page is extracted fine and then excluded by the
	// maturity text marker.
	if stats.Extracted != 2 {
		t.Errorf("extracted = %d, want 2", stats.Extracted)
	}
	if stats.AdultFiltered != 1 {
		t.Errorf("adult filtered = %d, want 1", stats.AdultFiltered)
	}
	if stats.Accepted != 1 {
		t.Errorf("accepted = %d, want 1", stats.Accepted)
	}

	cat, err := catalog.Load(cfg.OutputFile)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if cat.TotalItems != 1 {
		t.Fatalf("catalog total = %d, want 1", cat.TotalItems)
	}

	item := cat.Items[0]
	if item.ID != "booth-77" {
		t.Errorf("id = %q, want booth-77", item.ID)
	}
	if item.Name != "Elegant Dress" {
		t.Errorf("name = %q", item.Name)
	}
	if item.Likes != 1200 {
		t.Errorf("likes = %d, want 1200", item.Likes)
	}
	if !reflect.DeepEqual(item.Category, []string{"mens", "womens", "kids"}) {
		t.Errorf("category = %v, want ALL expansion", item.Category)
	}
	if item.Type != "JACKET" || item.DisplayType != "Jacket" {
		t.Errorf("type = %q/%q, want JACKET/Jacket", item.Type, item.DisplayType)
	}
}

func TestRunEmptySheetWritesThroughPreviousCatalog(t *testing.T) {
	output := filepath.Join(t.TempDir(), "items.json")

	seedCfg := config.DefaultConfig()
	seedCfg.DryRun = true
	seedCfg.OutputFile = output
	seedCfg.Delay = 0
	seedCfg.RandomDelay = 0
	if _, err := New(seedCfg, nil, nil, classify.DefaultRules(), nil, nil).Run(context.Background()); err != nil {
		t.Fatalf("seed run: %v", err)
	}

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, "https://sheets.test/export.csv",
		httpmock.NewStringResponder(200, "nope,,\n"))

	cfg := config.DefaultConfig()
	cfg.Source = "sheet"
	cfg.SheetURL = "https://sheets.test/export.csv"
	cfg.OutputFile = output
	cfg.Delay = 0
	cfg.RandomDelay = 0

	fetcher := fetch.New(cfg)
	fetcher.WithTransport(transport)
	runner := New(cfg, fetcher, extract.New(cfg.DescriptionLimit), classify.DefaultRules(), nil, nil)

	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !stats.EmptyRun {
		t.Error("empty run not flagged")
	}
	if stats.CatalogTotal != 11 {
		t.Errorf("catalog total = %d, want 11 (previous snapshot preserved)", stats.CatalogTotal)
	}

	cat, err := catalog.Load(output)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if cat.TotalItems != 11 {
		t.Errorf("persisted total = %d, want 11", cat.TotalItems)
	}
}

func TestRunCancelledBeforeFetchLeavesCatalogUntouched(t *testing.T) {
	output := filepath.Join(t.TempDir(), "items.json")

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, "https://sheets.test/export.csv",
		httpmock.NewStringResponder(200, sheetCSV))

	cfg := config.DefaultConfig()
	cfg.Source = "sheet"
	cfg.SheetURL = "https://sheets.test/export.csv"
	cfg.OutputFile = output
	cfg.Delay = 0
	cfg.RandomDelay = 0

	fetcher := fetch.New(cfg)
	fetcher.WithTransport(transport)
	runner := New(cfg, fetcher, extract.New(cfg.DescriptionLimit), classify.DefaultRules(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := runner.Run(ctx); err == nil {
		t.Fatal("expected a cancellation error")
	}
	if _, err := catalog.Load(output); err != nil {
		t.Fatalf("load: %v", err)
	}
	cat, _ := catalog.Load(output)
	if len(cat.Items) != 0 {
		t.Error("cancelled run must not write a catalog")
	}
}

func TestSampleItemsCoverEveryFilterBranch(t *testing.T) {
	items := SampleItems()
	if len(items) != 12 {
		t.Fatalf("sample size = %d, want 12", len(items))
	}

	adults := 0
	for _, item := range items {
		if item.Adult {
			adults++
		}
		if item.ID == "" || item.Name == "" || item.BoothURL == "" {
			t.Errorf("incomplete sample item %+v", item)
		}
	}
	if adults != 1 {
		t.Errorf("adult samples = %d, want exactly 1", adults)
	}
}
