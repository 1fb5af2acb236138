package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"orderdesk/internal"
	"orderdesk/internal/util"
)

// Category describes how one product category is laid out in the wide
// items table. The first entry of ItemCols and WidthCols is the canonical
// column written on upsert; the rest are spellings found in older rows.
type Category struct {
	Name      string
	Token     string
	ItemCols  []string
	WidthCols []string
}

var Schema = []Category{
	{Name: "WARP", Token: "warp", ItemCols: []string{"warp"}, WidthCols: []string{"width_warp"}},
	{Name: "CKU", Token: "cku", ItemCols: []string{"cku"}, WidthCols: []string{"width_cku"}},
	{Name: "EMBROIDARY", Token: "embroidary", ItemCols: []string{"embroidary", "embroidery"}, WidthCols: []string{"width_embroidary", "width_embroidery"}},
	{Name: "CRO", Token: "cro", ItemCols: []string{"cro"}, WidthCols: []string{"width_cro"}},
	{Name: "ELASTIC", Token: "elastic", ItemCols: []string{"elastic"}, WidthCols: []string{"width_elastic"}},
	{Name: "EYE-N-HOOK", Token: "eye-n-hook", ItemCols: []string{"eye_n_hook", "eye_hook", "eye_n_hooks"}, WidthCols: []string{"width_eye_n_hook", "width_eye_hook"}},
	{Name: "CUP", Token: "cup", ItemCols: []string{"cup"}, WidthCols: []string{"width_cup"}},
	{Name: "TLU", Token: "tlu", ItemCols: []string{"tlu"}, WidthCols: []string{"width_tlu"}},
	{Name: "VAU", Token: "vau", ItemCols: []string{"vau"}, WidthCols: []string{"width_vau"}},
	{Name: "PRINTING", Token: "printing", ItemCols: []string{"printing"}, WidthCols: []string{"width_printing"}},
}

var Units = []string{"Kg", "Mtr", "Pkt", "Yard", "Pcs", "Roll", "Inch"}

// RateCols lists the rate column spellings tried for a row whose item name
// was found in itemCol, in lookup order.
func (c Category) RateCols(itemCol string) []string {
	lower := strings.ToLower(c.Name)
	return []string{
		"rate_" + itemCol,
		"rate_" + lower,
		"rate",
		itemCol + "_rate",
		lower + "_rate",
	}
}

// WideColumns is the column set of the items table besides id: the
// shared columns followed by the canonical item, width and rate column of
// every category.
func WideColumns() []string {
	cols := []string{"item_name", "category", "default_width", "rate"}
	for _, c := range Schema {
		cols = append(cols, c.ItemCols[0], c.WidthCols[0], "rate_"+c.ItemCols[0])
	}
	return cols
}

// FlattenRows turns wide item rows into one CatalogItem per (row, category)
// pair that carries an item name.
func FlattenRows(rows []map[string]any) []internal.CatalogItem {
	var out []internal.CatalogItem
	for rowIndex, row := range rows {
		rowID := cellString(row["id"])
		for _, c := range Schema {
			itemCol := ""
			name := ""
			for _, col := range c.ItemCols {
				if v := cellString(row[col]); v != "" {
					itemCol = col
					name = v
					break
				}
			}
			if itemCol == "" {
				continue
			}

			width := ""
			for _, col := range c.WidthCols {
				if v := cellString(row[col]); v != "" {
					width = v
					break
				}
			}

			rate := decimal.Zero
			for _, col := range c.RateCols(itemCol) {
				v := cellString(row[col])
				if v == "" {
					continue
				}
				if parsed := util.ParseAmount(v); parsed.IsPositive() {
					rate = parsed
					break
				}
			}

			out = append(out, internal.CatalogItem{
				ID:           fmt.Sprintf("%s_%s_%d", rowID, c.Name, rowIndex),
				Category:     c.Name,
				ItemName:     name,
				DefaultRate:  rate,
				DefaultWidth: width,
			})
		}
	}
	return out
}

// WideRow is the write shape of an ItemUpsert. Item and width columns of
// every other category are set to nil so a re-read yields only this item.
func WideRow(item internal.ItemUpsert) map[string]any {
	row := map[string]any{
		"item_name":     item.ItemName,
		"category":      item.Category,
		"default_width": item.DefaultWidth,
	}
	for _, c := range Schema {
		row[c.ItemCols[0]] = nil
		row[c.WidthCols[0]] = nil
		if !strings.EqualFold(c.Name, item.Category) {
			continue
		}
		row[c.ItemCols[0]] = item.ItemName
		if item.DefaultWidth != "" {
			row[c.WidthCols[0]] = item.DefaultWidth
		}
	}
	return row
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		if t == 0 {
			return ""
		}
		return strconv.FormatInt(t, 10)
	case int:
		if t == 0 {
			return ""
		}
		return strconv.Itoa(t)
	case json.Number:
		return t.String()
	case bool:
		if !t {
			return ""
		}
		return "true"
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
