package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const likeAction = "http://schema.org/LikeAction"

var (
	digitsPattern = regexp.MustCompile(`\d+`)
	countPattern  = regexp.MustCompile(`([\d.]+)\s*(k|万)?`)
)

// likes extracts the popularity counter from a detail page, most structured
// source first: JSON-LD interaction statistics, then a visible counter
// element, then accessibility labels on like-looking controls. The returned
// source names the winning strategy for diagnostics.
func (x *Extractor) likes(doc *goquery.Document) (int, string) {
	if n := likesFromJSONLD(doc); n > 0 {
		return n, "ld+json"
	}
	if n := likesFromCounter(doc); n > 0 {
		return n, "counter"
	}
	if n, label := likesFromAriaLabel(doc); n > 0 {
		return n, "aria-label " + label
	}
	return 0, ""
}

type ldInteraction struct {
	InteractionType      string      `json:"interactionType"`
	UserInteractionCount json.Number `json:"userInteractionCount"`
}

func likesFromJSONLD(doc *goquery.Document) int {
	likes := 0
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var payload struct {
			InteractionStatistic json.RawMessage `json:"interactionStatistic"`
		}
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return true
		}
		if len(payload.InteractionStatistic) == 0 {
			return true
		}

		// interactionStatistic is a single object or a list of them.
		var stats []ldInteraction
		if err := json.Unmarshal(payload.InteractionStatistic, &stats); err != nil {
			var single ldInteraction
			if err := json.Unmarshal(payload.InteractionStatistic, &single); err != nil {
				return true
			}
			stats = []ldInteraction{single}
		}
		for _, stat := range stats {
			if stat.InteractionType != likeAction {
				continue
			}
			if n, err := stat.UserInteractionCount.Int64(); err == nil && n > 0 {
				likes = int(n)
				return false
			}
		}
		return true
	})
	return likes
}

func likesFromCounter(doc *goquery.Document) int {
	text := strings.TrimSpace(doc.Find(likeCountSelector).First().Text())
	return ParseCount(text)
}

// likesFromAriaLabel scans only controls whose label or class looks
// like-related; unrelated counters (cart badges, review counts) also carry
// aria-labels with digits.
func likesFromAriaLabel(doc *goquery.Document) (int, string) {
	likes := 0
	matched := ""
	doc.Find("button[aria-label], a[aria-label], .js-like-btn").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		label, _ := s.Attr("aria-label")
		if label == "" {
			return true
		}
		digits := digitsPattern.FindString(label)
		if digits == "" {
			return true
		}

		class, _ := s.Attr("class")
		if !likeLooking(label, class) {
			return true
		}
		if n, err := strconv.Atoi(digits); err == nil {
			likes = n
			matched = label
			return false
		}
		return true
	})
	return likes, matched
}

func likeLooking(label, class string) bool {
	lower := strings.ToLower(class)
	if strings.Contains(lower, "like") || strings.Contains(lower, "wish") {
		return true
	}
	return strings.Contains(label, "Like") ||
		strings.Contains(label, "Loves") ||
		strings.Contains(label, "スキ")
}

// ParseCount permissively parses a visible counter text such as "1,200",
// "1.5k", "10万" or "スキ！50". Unparseable input is zero.
func ParseCount(text string) int {
	if text == "" {
		return 0
	}
	text = strings.ReplaceAll(strings.ToLower(text), ",", "")

	m := countPattern.FindStringSubmatch(text)
	if m == nil || m[1] == "" || m[1] == "." {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	switch m[2] {
	case "k":
		value *= 1000
	case "万":
		value *= 10000
	}
	if value < 0 {
		return 0
	}
	return int(value)
}
