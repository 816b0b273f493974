// Package catalog loads, merges, and persists the published item catalog.
package catalog

import (
	"cmp"
	"slices"
	"time"

	"github.com/vrclife/catalogd/models"
)

// Merge combines freshly-produced records with the previous catalog.
// Identity is the record ID: entries refreshed in this run overwrite their
// predecessors (last write within the run wins), entries absent from the run
// are retained unchanged. Nothing is deleted implicitly. The sole output
// ordering guarantee is descending likes; the ID tiebreak keeps the file
// deterministic.
func Merge(prev *models.Catalog, fresh []*models.ClassifiedItem) *models.Catalog {
	byID := make(map[string]*models.ClassifiedItem)
	var order []string
	if prev != nil {
		for _, item := range prev.Items {
			if item == nil {
				continue
			}
			if _, ok := byID[item.ID]; !ok {
				order = append(order, item.ID)
			}
			byID[item.ID] = item
		}
	}
	for _, item := range fresh {
		if item == nil {
			continue
		}
		if _, ok := byID[item.ID]; !ok {
			order = append(order, item.ID)
		}
		byID[item.ID] = item
	}

	items := make([]*models.ClassifiedItem, 0, len(order))
	for _, id := range order {
		items = append(items, byID[id])
	}
	slices.SortFunc(items, func(a, b *models.ClassifiedItem) int {
		if c := cmp.Compare(b.Likes, a.Likes); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return &models.Catalog{
		LastUpdated: time.Now().UTC(),
		TotalItems:  len(items),
		Items:       items,
	}
}
