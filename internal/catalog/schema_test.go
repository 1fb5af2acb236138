package catalog

import (
	"testing"

	"github.com/shopspring/decimal"

	"orderdesk/internal"
)

func TestFlattenRows(t *testing.T) {
	rows := []map[string]any{
		{
			"id":               int64(11),
			"warp":             " Cotton 40s ",
			"width_warp":       "44",
			"rate_warp":        "0",
			"rate":             float64(135.5),
			"embroidery":       "Floral",
			"width_embroidery": "12",
			"cup":              "",
		},
		{
			"id":          int64(12),
			"eye_n_hooks": "Hook 3x2",
			"hook_rate":   "9",
		},
	}

	items := FlattenRows(rows)
	if len(items) != 3 {
		t.Fatalf("len=%d: %+v", len(items), items)
	}

	warp := items[0]
	if warp.ID != "11_WARP_0" || warp.ItemName != "Cotton 40s" || warp.DefaultWidth != "44" {
		t.Fatalf("unexpected warp %+v", warp)
	}
	if !warp.DefaultRate.Equal(decimal.RequireFromString("135.5")) {
		t.Fatalf("rate=%s", warp.DefaultRate)
	}

	emb := items[1]
	if emb.Category != "EMBROIDARY" || emb.ItemName != "Floral" || emb.DefaultWidth != "12" {
		t.Fatalf("unexpected embroidery %+v", emb)
	}

	hook := items[2]
	if hook.ID != "12_EYE-N-HOOK_1" || !hook.DefaultRate.IsZero() {
		t.Fatalf("unexpected hook %+v", hook)
	}
}

func TestWideRowRoundTrip(t *testing.T) {
	for _, c := range Schema {
		in := internal.ItemUpsert{Category: c.Name, ItemName: "Item " + c.Token, DefaultWidth: "30"}
		row := WideRow(in)
		row["id"] = int64(1)

		items := FlattenRows([]map[string]any{row})
		if len(items) != 1 {
			t.Fatalf("%s: len=%d", c.Name, len(items))
		}
		got := items[0]
		if got.Category != in.Category || got.ItemName != in.ItemName || got.DefaultWidth != in.DefaultWidth {
			t.Fatalf("%s: round trip mismatch %+v", c.Name, got)
		}
	}
}

func TestWideColumnsCoverSchema(t *testing.T) {
	cols := map[string]bool{}
	for _, c := range WideColumns() {
		if cols[c] {
			t.Fatalf("duplicate column %s", c)
		}
		cols[c] = true
	}
	for key := range WideRow(internal.ItemUpsert{Category: "CUP", ItemName: "x"}) {
		if !cols[key] {
			t.Fatalf("wide row column %s missing from table", key)
		}
	}
}
