package sheet

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const csvFixture = `URL,Type,Category
https://booth.pm/ja/items/42,Jacket,"mens,kids"
not-a-url,foo,bar
https://booth.pm/ja/items/42,dup,dup
ftp://booth.pm/ja/items/43,,
https://booth.pm/ja/items/77,,ALL
/relative/items/44,,
https://booth.pm/ja/items/99
`

func TestParseCSV(t *testing.T) {
	res, err := ParseCSV(strings.NewReader(csvFixture))
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}

	if res.Accepted != 3 {
		t.Errorf("accepted = %d, want 3", res.Accepted)
	}
	// Header, bare word, ftp scheme, and relative path rows all drop.
	if res.Dropped != 4 {
		t.Errorf("dropped = %d, want 4", res.Dropped)
	}
	if res.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", res.Duplicates)
	}
	if len(res.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(res.Rows))
	}

	first := res.Rows[0]
	if first.URL != "https://booth.pm/ja/items/42" {
		t.Errorf("url = %q", first.URL)
	}
	// First occurrence wins over the later duplicate.
	if first.ItemType != "Jacket" || first.Category != "mens,kids" {
		t.Errorf("overrides = %q/%q, want Jacket/mens,kids", first.ItemType, first.Category)
	}

	short := res.Rows[2]
	if short.URL != "https://booth.pm/ja/items/99" {
		t.Errorf("url = %q", short.URL)
	}
	if short.ItemType != "" || short.Category != "" {
		t.Errorf("missing columns must stay empty, got %q/%q", short.ItemType, short.Category)
	}
}

func TestParseCSVUnparseableRowsNeverReachTheFetchSet(t *testing.T) {
	res, err := ParseCSV(strings.NewReader("nope,,\nalso nope,,\n"))
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(res.Rows) != 0 {
		t.Fatalf("rows = %v, want none", res.Rows)
	}
	if res.Dropped != 2 {
		t.Errorf("dropped = %d, want 2", res.Dropped)
	}
}

func TestParseTable(t *testing.T) {
	html := `<html><body><table>
		<tr><td>URL</td><td>Type</td><td>Category</td></tr>
		<tr><td>https://booth.pm/ja/items/1</td><td>Dress</td><td>womens</td></tr>
		<tr><td></td><td></td><td></td></tr>
		<tr><td>https://booth.pm/ja/items/2</td><td></td><td></td></tr>
	</table></body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	res, err := ParseTable(doc)
	if err != nil {
		t.Fatalf("parse table: %v", err)
	}

	if res.Accepted != 2 {
		t.Errorf("accepted = %d, want 2", res.Accepted)
	}
	if res.Rows[0].ItemType != "Dress" || res.Rows[0].Category != "womens" {
		t.Errorf("overrides = %q/%q", res.Rows[0].ItemType, res.Rows[0].Category)
	}
	if res.Rows[1].URL != "https://booth.pm/ja/items/2" {
		t.Errorf("url = %q", res.Rows[1].URL)
	}
}

func TestParseTableWithoutTable(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body><p>oops</p></body></html>"))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	if _, err := ParseTable(doc); err == nil {
		t.Fatal("expected an error for a document without a table")
	}
}
