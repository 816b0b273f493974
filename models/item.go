// Package models defines data structures for the catalog pipeline.
package models

import "time"

// Item is one marketplace listing as extracted from a card or detail page.
// Adult is a pre-merge filter input and is never persisted.
type Item struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Price        int       `json:"price"`
	ShopName     string    `json:"shopName"`
	BoothURL     string    `json:"boothUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Likes        int       `json:"likes"`
	Adult        bool      `json:"-"`
	Description  string    `json:"description"`
	FetchedAt    time.Time `json:"fetchedAt"`
}

// ClassifiedItem is an Item with the classifier's labels attached.
type ClassifiedItem struct {
	Item
	Category    []string `json:"category"`
	Tastes      []string `json:"taste"`
	Type        string   `json:"type"`
	DisplayType string   `json:"displayType"`
}

// Catalog is the persisted output consumed by the front-end.
type Catalog struct {
	LastUpdated time.Time         `json:"lastUpdated"`
	TotalItems  int               `json:"totalItems"`
	Items       []*ClassifiedItem `json:"items"`
}

// OverrideRow is one row of the externally-published source table. Category
// and ItemType, when set, supersede auto-detection; they never supersede
// fields scraped from the live page.
type OverrideRow struct {
	URL      string
	ItemType string
	Category string
}
