package classify

import (
	"strings"

	"github.com/vrclife/catalogd/models"
)

// Assignment is the classifier output. Category and Tastes are never empty;
// defaults fill absence.
type Assignment struct {
	Category    []string
	Tastes      []string
	Type        string
	DisplayType string
}

// Classify labels one item. The override, when present, supersedes
// auto-detection for category and item-type independently of each other; it
// is input-only and never part of the persisted record.
func (rs *Ruleset) Classify(item *models.Item, override *models.OverrideRow) Assignment {
	text := item.Name + " " + item.Description

	var assignment Assignment

	if override != nil && strings.TrimSpace(override.Category) != "" {
		assignment.Category = rs.normalizeCategories(override.Category)
	}
	if len(assignment.Category) == 0 {
		// The category set is never empty. A degenerate override (separator
		// characters only, or "ALL" over an empty vocabulary) falls back to
		// auto-detection.
		label, ok := firstMatch(rs.Categories, text)
		if !ok {
			label = rs.DefaultCategory
		}
		assignment.Category = []string{label}
	}

	if override != nil && strings.TrimSpace(override.ItemType) != "" {
		manual := strings.TrimSpace(override.ItemType)
		assignment.Type = strings.ToUpper(manual)
		assignment.DisplayType = manual
	} else {
		label, ok := firstMatch(rs.Types, text)
		if !ok {
			label = rs.DefaultType
		}
		assignment.Type = label
		assignment.DisplayType = rs.displayType(label)
	}

	assignment.Tastes = allMatches(rs.Tastes, text)
	if len(assignment.Tastes) == 0 {
		assignment.Tastes = []string{rs.DefaultTaste}
	}

	return assignment
}

// Apply builds the classified record for one item.
func (rs *Ruleset) Apply(item *models.Item, override *models.OverrideRow) *models.ClassifiedItem {
	assignment := rs.Classify(item, override)
	return &models.ClassifiedItem{
		Item:        *item,
		Category:    assignment.Category,
		Tastes:      assignment.Tastes,
		Type:        assignment.Type,
		DisplayType: assignment.DisplayType,
	}
}

// firstMatch returns the first label in declaration order with any matching
// pattern. Used for category and item-type, which are single-winner fields.
func firstMatch(groups []Group, text string) (string, bool) {
	for _, group := range groups {
		if matchGroup(group, text) {
			return group.Label, true
		}
	}
	return "", false
}

// allMatches collects every label with a matching pattern. Used for tastes,
// where matches are additive, not competitive.
func allMatches(groups []Group, text string) []string {
	var matched []string
	for _, group := range groups {
		if matchGroup(group, text) {
			matched = append(matched, group.Label)
		}
	}
	return matched
}

func matchGroup(group Group, text string) bool {
	for _, rule := range group.Rules {
		if !rule.re.MatchString(text) {
			continue
		}
		if rule.unlessRe != nil && rule.unlessRe.MatchString(text) {
			continue
		}
		return true
	}
	return false
}

// normalizeCategories canonicalizes a comma-separated manual category list
// against the controlled vocabulary. Unrecognized tokens pass through
// verbatim so future vocabulary growth does not drop rows; "ALL" expands to
// the whole vocabulary.
func (rs *Ruleset) normalizeCategories(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(label string) {
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}

	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if strings.EqualFold(token, "all") {
			for _, label := range rs.Vocabulary {
				add(label)
			}
			continue
		}
		canonical := token
		for _, label := range rs.Vocabulary {
			if strings.EqualFold(token, label) {
				canonical = label
				break
			}
		}
		add(canonical)
	}
	return out
}

func (rs *Ruleset) displayType(label string) string {
	if display, ok := rs.DisplayTypes[label]; ok {
		return display
	}
	return label
}
