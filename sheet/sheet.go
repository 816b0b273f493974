// Package sheet parses the externally-published override table into rows.
// Column position is the contract: column 1 is the absolute item URL,
// column 2 an optional manual item-type, column 3 an optional
// comma-separated manual category list (or "ALL").
package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vrclife/catalogd/models"
)

// Result holds accepted rows plus drop accounting for the run summary.
type Result struct {
	Rows       []models.OverrideRow
	Accepted   int
	Dropped    int
	Duplicates int
}

// ParseCSV reads a comma-separated override table. Rows without a parseable
// absolute HTTP URL in the first column are silently dropped, which also
// disposes of header rows. Duplicate URLs: first occurrence wins.
func ParseCSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	res := &Result{}
	seen := make(map[string]struct{})
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		res.add(record, seen)
	}
	return res, nil
}

// ParseTable reads the published-to-web HTML form of the same table. Only
// the first table in the document is consulted.
func ParseTable(doc *goquery.Document) (*Result, error) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no table found in sheet document")
	}

	res := &Result{}
	seen := make(map[string]struct{})
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cols []string
		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			cols = append(cols, strings.TrimSpace(cell.Text()))
		})
		if len(cols) == 0 {
			return
		}
		res.add(cols, seen)
	})
	return res, nil
}

func (r *Result) add(cols []string, seen map[string]struct{}) {
	rawURL := ""
	if len(cols) > 0 {
		rawURL = strings.TrimSpace(cols[0])
	}
	if !validItemURL(rawURL) {
		r.Dropped++
		if rawURL != "" {
			slog.Debug("dropping row without absolute URL", slog.String("value", rawURL))
		}
		return
	}
	if _, ok := seen[rawURL]; ok {
		r.Duplicates++
		return
	}
	seen[rawURL] = struct{}{}

	row := models.OverrideRow{URL: rawURL}
	if len(cols) > 1 {
		row.ItemType = strings.TrimSpace(cols[1])
	}
	if len(cols) > 2 {
		row.Category = strings.TrimSpace(cols[2])
	}
	r.Rows = append(r.Rows, row)
	r.Accepted++
}

func validItemURL(raw string) bool {
	if raw == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}
