package catalog

import (
	"sort"
	"strings"

	"orderdesk/internal"
)

const MaxSuggestions = 100

// ResolveItem picks the catalog item a typed name refers to: an exact
// case-insensitive name match first, otherwise the first item whose name
// contains the query.
func ResolveItem(query, categoryFilter string, items []internal.CatalogItem) (internal.CatalogItem, bool) {
	candidates := filterCategory(categoryFilter, items)

	for _, it := range candidates {
		if strings.EqualFold(it.ItemName, query) {
			return it, true
		}
	}

	if query == "" {
		return internal.CatalogItem{}, false
	}
	q := strings.ToLower(query)
	for _, it := range candidates {
		if strings.Contains(strings.ToLower(it.ItemName), q) {
			return it, true
		}
	}
	return internal.CatalogItem{}, false
}

// RankItems returns the autocomplete list for a query: exact matches, then
// prefix matches, then the remaining substring matches, each group sorted
// by name.
func RankItems(query, categoryFilter string, items []internal.CatalogItem) []internal.CatalogItem {
	candidates := filterCategory(categoryFilter, items)
	q := strings.ToLower(query)
	if strings.TrimSpace(q) == "" {
		if len(candidates) > MaxSuggestions {
			candidates = candidates[:MaxSuggestions]
		}
		return append([]internal.CatalogItem(nil), candidates...)
	}

	type ranked struct {
		item  internal.CatalogItem
		lower string
		rank  int
	}
	var matches []ranked
	for _, it := range candidates {
		lower := strings.ToLower(it.ItemName)
		if !strings.Contains(lower, q) {
			continue
		}
		rank := 2
		switch {
		case lower == q:
			rank = 0
		case strings.HasPrefix(lower, q):
			rank = 1
		}
		matches = append(matches, ranked{item: it, lower: lower, rank: rank})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].rank != matches[j].rank {
			return matches[i].rank < matches[j].rank
		}
		return matches[i].lower < matches[j].lower
	})

	if len(matches) > MaxSuggestions {
		matches = matches[:MaxSuggestions]
	}
	out := make([]internal.CatalogItem, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.item)
	}
	return out
}

// ApplyDefaults copies category, rate and width from a resolved item into
// the fields the line left empty or zero.
func ApplyDefaults(line internal.LineItem, item internal.CatalogItem) internal.LineItem {
	if strings.TrimSpace(line.Category) == "" {
		line.Category = item.Category
	}
	if line.Rate.IsZero() && item.DefaultRate.IsPositive() {
		line.Rate = item.DefaultRate
	}
	if strings.TrimSpace(line.Width) == "" && item.DefaultWidth != "" {
		line.Width = item.DefaultWidth
	}
	return line
}

func filterCategory(categoryFilter string, items []internal.CatalogItem) []internal.CatalogItem {
	if strings.TrimSpace(categoryFilter) == "" {
		return items
	}
	out := make([]internal.CatalogItem, 0, len(items))
	for _, it := range items {
		if strings.EqualFold(it.Category, categoryFilter) {
			out = append(out, it)
		}
	}
	return out
}
