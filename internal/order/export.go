package order

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"orderdesk/internal"
)

var historyHeaders = []string{
	"order_id", "submission_id", "submitted_at", "branch", "sales_person", "customer_name", "order_date",
	"category", "item_name", "color", "width", "quantity", "uom", "rate", "discount",
	"amount", "net_amount", "delivery_date", "remark", "store_saved", "sheet_saved",
}

// ExportHistoryXLSX writes one row per line item of the given orders.
func ExportHistoryXLSX(entries []internal.HistoryEntry, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range historyHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	r := 1
	for _, e := range entries {
		o := e.Order
		for _, l := range o.Lines {
			r++
			row := r
			set := func(col int, value any) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(sheet, cell, value)
			}

			set(1, e.ID)
			set(2, o.SubmissionID)
			set(3, o.SubmittedAt.Format("2006-01-02 15:04:05"))
			set(4, o.Header.Branch)
			set(5, o.Header.SalesPerson)
			set(6, o.Header.CustomerName)
			set(7, o.Header.OrderDate)
			set(8, l.Category)
			set(9, l.DisplayName())
			set(10, l.Color)
			set(11, l.Width)
			set(12, l.Quantity.InexactFloat64())
			set(13, l.UOM)
			set(14, l.Rate.InexactFloat64())
			set(15, l.DiscountPercent.InexactFloat64())
			set(16, l.Amount().InexactFloat64())
			set(17, l.NetAmount().InexactFloat64())
			set(18, l.DeliveryDate)
			set(19, l.Remark)
			set(20, e.StoreSaved)
			set(21, e.SheetSaved)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
