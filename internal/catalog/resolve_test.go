package catalog

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"orderdesk/internal"
)

func sampleItems() []internal.CatalogItem {
	return []internal.CatalogItem{
		{ID: "1", Category: "WARP", ItemName: "Cotton 40s", DefaultRate: decimal.NewFromInt(120), DefaultWidth: "44"},
		{ID: "2", Category: "WARP", ItemName: "Cotton", DefaultRate: decimal.NewFromInt(100)},
		{ID: "3", Category: "ELASTIC", ItemName: "Cotton Elastic 25mm", DefaultWidth: "25mm"},
		{ID: "4", Category: "CKU", ItemName: "Plain Tape"},
		{ID: "5", Category: "WARP", ItemName: "Blended Cotton"},
	}
}

func TestResolveItemPrefersExactMatch(t *testing.T) {
	got, ok := ResolveItem("cotton", "", sampleItems())
	if !ok || got.ID != "2" {
		t.Fatalf("expected exact match id=2, got %+v ok=%v", got, ok)
	}
}

func TestResolveItemFallsBackToFirstSubstring(t *testing.T) {
	got, ok := ResolveItem("COTTON 4", "", sampleItems())
	if !ok || got.ID != "1" {
		t.Fatalf("expected id=1, got %+v ok=%v", got, ok)
	}
}

func TestResolveItemRespectsCategoryFilter(t *testing.T) {
	got, ok := ResolveItem("cotton", "elastic", sampleItems())
	if !ok || got.ID != "3" {
		t.Fatalf("expected id=3, got %+v ok=%v", got, ok)
	}
	if _, ok := ResolveItem("tape", "WARP", sampleItems()); ok {
		t.Fatalf("expected no match outside category")
	}
}

func TestResolveItemEmptyQuery(t *testing.T) {
	if _, ok := ResolveItem("", "", sampleItems()); ok {
		t.Fatalf("empty query must not match")
	}
	withBlank := append(sampleItems(), internal.CatalogItem{ID: "9", Category: "CUP", ItemName: ""})
	got, ok := ResolveItem("", "", withBlank)
	if !ok || got.ID != "9" {
		t.Fatalf("empty query matches an empty item name exactly, got %+v ok=%v", got, ok)
	}
}

func TestRankItemsOrder(t *testing.T) {
	got := RankItems("cotton", "", sampleItems())
	want := []string{"2", "1", "3", "5"}
	if len(got) != len(want) {
		t.Fatalf("len=%d want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %s want %s", i, got[i].ID, id)
		}
	}
}

func TestRankItemsKeepsQuerySpaces(t *testing.T) {
	items := []internal.CatalogItem{
		{ID: "1", Category: "WARP", ItemName: "Cotton Warp"},
		{ID: "2", Category: "WARP", ItemName: "Poly Cotton"},
	}
	got := RankItems("cotton ", "", items)
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("trailing space must narrow the match, got %+v", got)
	}
	if got := RankItems("   ", "", items); len(got) != 2 {
		t.Fatalf("blank query must list the catalog, got %+v", got)
	}
}

func TestRankItemsCap(t *testing.T) {
	var items []internal.CatalogItem
	for i := 0; i < 150; i++ {
		items = append(items, internal.CatalogItem{ID: fmt.Sprint(i), Category: "CUP", ItemName: fmt.Sprintf("Cup %03d", i)})
	}
	if got := RankItems("cup", "", items); len(got) != MaxSuggestions {
		t.Fatalf("len=%d", len(got))
	}
	got := RankItems("", "cup", items)
	if len(got) != MaxSuggestions || got[0].ID != "0" || got[99].ID != "99" {
		t.Fatalf("empty query must keep catalog order, got len=%d", len(got))
	}
}

func TestApplyDefaultsKeepsTypedValues(t *testing.T) {
	item := sampleItems()[0]

	filled := ApplyDefaults(internal.LineItem{ItemName: "Cotton 40s"}, item)
	if filled.Category != "WARP" || !filled.Rate.Equal(decimal.NewFromInt(120)) || filled.Width != "44" {
		t.Fatalf("defaults not applied: %+v", filled)
	}

	kept := ApplyDefaults(internal.LineItem{Category: "CKU", Rate: decimal.NewFromInt(90), Width: "40"}, item)
	if kept.Category != "CKU" || !kept.Rate.Equal(decimal.NewFromInt(90)) || kept.Width != "40" {
		t.Fatalf("typed values overwritten: %+v", kept)
	}
}

func TestIndexMatch(t *testing.T) {
	idx := BuildIndex(append(sampleItems(), internal.CatalogItem{ID: "6", Category: "EYE-N-HOOK", ItemName: "Eye-N-Hook 3x2"}))

	if it, status := idx.Match("eye n hook 3x2", ""); status != internal.MatchExact || it.ID != "6" {
		t.Fatalf("expected normalized exact, got %s %+v", status, it)
	}
	if it, status := idx.Match("plain", ""); status != internal.MatchPartial || it.ID != "4" {
		t.Fatalf("expected partial, got %s %+v", status, it)
	}
	if _, status := idx.Match("velvet", ""); status != internal.MatchNotFound {
		t.Fatalf("expected not found, got %s", status)
	}
	if it, ok := idx.Resolve("cotton", "elastic"); !ok || it.ID != "3" {
		t.Fatalf("index resolve mismatch: %+v", it)
	}
	if cats := idx.Categories(); len(cats) != 4 || cats[0] != "CKU" {
		t.Fatalf("categories=%v", cats)
	}
}
