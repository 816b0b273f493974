// Package extract recovers structured item records from marketplace markup.
// The target site's selectors change across revisions without notice, so
// every field is tried through an ordered fallback chain, most structured
// source first. Only a missing identifier is fatal to extraction.
package extract

import (
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/vrclife/catalogd/models"
)

const (
	cardLinkSelector  = "a[href*='/items/'], a.item-card__title-anchor--multiline"
	titleSelector     = "a.item-card__title-anchor--multiline, [class*='item-card__title'], .shop-item-card__item-name"
	priceSelector     = ".price, [class*='price'], .shop-item-card__price"
	thumbSelector     = ".item-card__thumbnail-image, .js-thumbnail-image"
	shopSelector      = ".item-card__shop-name, [class*='shop-name']"
	adultSelector     = ".badge-adult, .is-adult, .r18-badge"
	descSelector      = "[class*='description'], .js-market-item-detail-description"
	likeCountSelector = "[class*='like-count'], .item-interaction__count"
)

var (
	itemIDPattern   = regexp.MustCompile(`/items/(\d+)`)
	styleURLPattern = regexp.MustCompile(`url\(['"]?([^'")]+)['"]?\)`)
)

// adultMarkers are checked against visible text in addition to badge
// elements; malformed badges must not let flagged items through.
var adultMarkers = []string{"R-18", "成人向け"}

// Extractor turns parsed markup into Item records.
type Extractor struct {
	descLimit int
}

// New builds an extractor; descLimit caps description length in runes.
func New(descLimit int) *Extractor {
	if descLimit <= 0 {
		descLimit = 500
	}
	return &Extractor{descLimit: descLimit}
}

// Card extracts one listing-card fragment. Returns nil when no identifier
// can be derived or when the fragment panics mid-parse; a single malformed
// card never aborts the batch.
func (x *Extractor) Card(sel *goquery.Selection, base *url.URL) (item *models.Item) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("card extraction panicked", slog.Any("panic", r))
			item = nil
		}
	}()

	pageURL := x.cardURL(sel, base)
	id := x.identifier(sel, pageURL)
	if id == "" {
		return nil
	}

	return &models.Item{
		ID:           id,
		Name:         x.name(sel),
		Price:        x.price(sel),
		ShopName:     x.shopName(sel),
		BoothURL:     pageURL,
		ThumbnailURL: x.cardThumbnail(sel),
		Likes:        0,
		Adult:        x.adultFlag(sel),
		Description:  "",
		FetchedAt:    time.Now().UTC(),
	}
}

// Detail extracts a full record from a detail page. pageURL is the canonical
// source URL and the identifier fallback.
func (x *Extractor) Detail(doc *goquery.Document, pageURL string) (item *models.Item) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("detail extraction panicked",
				slog.String("url", pageURL), slog.Any("panic", r))
			item = nil
		}
	}()

	sel := doc.Selection
	id := x.identifier(sel, pageURL)
	if id == "" {
		return nil
	}

	name := metaContent(doc, "og:title")
	if name == "" {
		name = x.name(sel)
	}

	thumbnail := metaContent(doc, "og:image")
	if thumbnail == "" {
		thumbnail = x.cardThumbnail(sel)
	}

	item = &models.Item{
		ID:           id,
		Name:         name,
		Price:        x.price(sel),
		ShopName:     x.shopName(sel),
		BoothURL:     pageURL,
		ThumbnailURL: thumbnail,
		Adult:        x.adultFlag(sel),
		FetchedAt:    time.Now().UTC(),
	}
	x.Enrich(item, doc)
	return item
}

// Enrich fills the detail-page-only fields (description, likes) on an item
// extracted from a listing card.
func (x *Extractor) Enrich(item *models.Item, doc *goquery.Document) {
	item.Description = x.description(doc)

	likes, source := x.likes(doc)
	if likes <= 0 {
		// Known, tolerated degradation: the counter moves between site
		// revisions. Zero stands in and is diagnosed, not failed.
		slog.Debug("likes not found", slog.String("url", item.BoothURL))
		item.Likes = 0
		return
	}
	slog.Debug("likes extracted",
		slog.String("url", item.BoothURL),
		slog.Int("likes", likes),
		slog.String("source", source),
	)
	item.Likes = likes
}

func (x *Extractor) cardURL(sel *goquery.Selection, base *url.URL) string {
	href, _ := sel.Find(cardLinkSelector).First().Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// identifier prefers the structured data attribute; the numeric id segment
// of the URL path is the fallback.
func (x *Extractor) identifier(sel *goquery.Selection, pageURL string) string {
	raw, ok := sel.Attr("data-product-id")
	if !ok {
		raw, _ = sel.Find("[data-product-id]").First().Attr("data-product-id")
	}
	raw = strings.TrimSpace(raw)
	if raw != "" {
		if _, err := strconv.Atoi(raw); err == nil {
			return "booth-" + raw
		}
	}
	if m := itemIDPattern.FindStringSubmatch(pageURL); m != nil {
		return "booth-" + m[1]
	}
	return ""
}

func (x *Extractor) name(sel *goquery.Selection) string {
	if raw, ok := sel.Attr("data-product-name"); ok && strings.TrimSpace(raw) != "" {
		return strings.TrimSpace(raw)
	}
	if raw, ok := sel.Find("[data-product-name]").First().Attr("data-product-name"); ok && strings.TrimSpace(raw) != "" {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(sel.Find(titleSelector).First().Text())
}

// price truncates the structured attribute when present, otherwise strips
// non-digits from the price node text. Absence is zero, never a failure.
func (x *Extractor) price(sel *goquery.Selection) int {
	raw, ok := sel.Attr("data-product-price")
	if !ok {
		raw, _ = sel.Find("[data-product-price]").First().Attr("data-product-price")
	}
	if raw = strings.TrimSpace(raw); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value >= 0 {
			return int(value)
		}
	}

	text := sel.Find(priceSelector).First().Text()
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return 0
	}
	value, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return value
}

func (x *Extractor) cardThumbnail(sel *goquery.Selection) string {
	thumb := sel.Find(thumbSelector).First()
	if thumb.Length() > 0 {
		for _, attr := range []string{"data-original", "data-src", "src"} {
			if v, ok := thumb.Attr(attr); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		if style, ok := thumb.Attr("style"); ok {
			if m := styleURLPattern.FindStringSubmatch(style); m != nil {
				return m[1]
			}
		}
	}

	img := sel.Find("img").First()
	for _, attr := range []string{"data-src", "src"} {
		if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func (x *Extractor) shopName(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Find(shopSelector).First().Text())
}

// adultFlag ORs two independent heuristics. The text scan runs even when a
// badge matched, so the result does not hinge on one malformed element.
func (x *Extractor) adultFlag(sel *goquery.Selection) bool {
	badge := sel.Find(adultSelector).Length() > 0

	text := sel.Text()
	marker := false
	for _, m := range adultMarkers {
		if strings.Contains(text, m) {
			marker = true
			break
		}
	}
	return badge || marker
}

func (x *Extractor) description(doc *goquery.Document) string {
	text := strings.TrimSpace(doc.Find(descSelector).First().Text())
	runes := []rune(text)
	if len(runes) > x.descLimit {
		return string(runes[:x.descLimit])
	}
	return text
}

func metaContent(doc *goquery.Document, property string) string {
	content, _ := doc.Find("meta[property='" + property + "']").First().Attr("content")
	return strings.TrimSpace(content)
}
