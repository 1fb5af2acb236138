package catalog

import (
	"sort"
	"strings"

	"orderdesk/internal"
	"orderdesk/internal/util"
)

type Index struct {
	Items        []internal.CatalogItem
	ByCategory   map[string][]internal.CatalogItem
	ByName       map[string][]internal.CatalogItem
	ByNormalized map[string][]internal.CatalogItem
}

func BuildIndex(items []internal.CatalogItem) *Index {
	idx := &Index{
		Items:        items,
		ByCategory:   map[string][]internal.CatalogItem{},
		ByName:       map[string][]internal.CatalogItem{},
		ByNormalized: map[string][]internal.CatalogItem{},
	}

	for _, it := range items {
		cat := strings.ToUpper(it.Category)
		idx.ByCategory[cat] = append(idx.ByCategory[cat], it)
		idx.ByName[strings.ToLower(it.ItemName)] = append(idx.ByName[strings.ToLower(it.ItemName)], it)
		if norm := util.Normalize(it.ItemName); norm != "" {
			idx.ByNormalized[norm] = append(idx.ByNormalized[norm], it)
		}
	}

	return idx
}

func (idx *Index) Categories() []string {
	out := make([]string, 0, len(idx.ByCategory))
	for c := range idx.ByCategory {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (idx *Index) candidates(category string) []internal.CatalogItem {
	if strings.TrimSpace(category) == "" {
		return idx.Items
	}
	return idx.ByCategory[strings.ToUpper(strings.TrimSpace(category))]
}

// Resolve behaves like ResolveItem over the whole catalog.
func (idx *Index) Resolve(query, category string) (internal.CatalogItem, bool) {
	for _, it := range idx.ByName[strings.ToLower(query)] {
		if category == "" || strings.EqualFold(it.Category, category) {
			return it, true
		}
	}
	return ResolveItem(query, "", idx.candidates(category))
}

func (idx *Index) Suggest(query, category string) []internal.CatalogItem {
	return RankItems(query, "", idx.candidates(category))
}

// Match grades a free-text name from an extracted order line: EXACT for a
// name or punctuation-insensitive equality, PARTIAL for a substring hit.
func (idx *Index) Match(name, category string) (internal.CatalogItem, internal.MatchStatus) {
	name = strings.TrimSpace(name)
	if name == "" {
		return internal.CatalogItem{}, internal.MatchNotFound
	}
	for _, it := range idx.ByName[strings.ToLower(name)] {
		if category == "" || strings.EqualFold(it.Category, category) {
			return it, internal.MatchExact
		}
	}
	for _, it := range idx.ByNormalized[util.Normalize(name)] {
		if category == "" || strings.EqualFold(it.Category, category) {
			return it, internal.MatchExact
		}
	}
	if it, ok := ResolveItem(name, "", idx.candidates(category)); ok {
		return it, internal.MatchPartial
	}
	return internal.CatalogItem{}, internal.MatchNotFound
}
