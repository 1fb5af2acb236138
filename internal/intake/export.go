package intake

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"orderdesk/internal"
)

var draftHeaders = []string{
	"input_line_no", "source", "raw_line", "parsed_name", "parsed_qty", "parsed_unit",
	"match_status", "category", "item_name", "manual_item_name", "quantity", "uom", "rate", "width",
	"customer_name", "customer_contact", "branch",
}

// ExportDraftXLSX writes one row per draft line for review.
func ExportDraftXLSX(draft internal.InboxDraft, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range draftHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, dl := range draft.Lines {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		ex := dl.Extracted
		set(1, ex.LineNo)
		set(2, string(ex.Source))
		set(3, ex.RawLine)
		set(4, ex.Name)
		set(5, derefFloat(ex.Qty))
		set(6, derefString(ex.Unit))
		set(7, string(dl.Status))
		set(8, dl.Line.Category)
		set(9, dl.Line.ItemName)
		set(10, dl.Line.ManualItemName)
		set(11, dl.Line.QuantityText)
		set(12, dl.Line.UOM)
		set(13, dl.Line.Rate.InexactFloat64())
		set(14, dl.Line.Width)
		set(15, draft.Header.CustomerName)
		set(16, draft.Header.CustomerContactNo)
		set(17, draft.Header.Branch)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
