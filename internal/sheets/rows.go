package sheets

import (
	"strings"

	"orderdesk/internal"
)

// Headers is the column layout of an order tab. Every submitter writes one
// row per line item in this order.
var Headers = []string{
	"Submission ID", "Submission Date", "Order Date",
	"Branch", "Sales Person", "Sales Contact", "Customer Name", "Customer Email", "Customer Contact",
	"Billing Address", "Delivery Address",
	"Category", "Item Name", "Color", "Width", "Quantity", "UOM", "Rate", "Discount",
	"Delivery Date", "Remark", "Total Amount",
}

const defaultTab = "Orders"

func Rows(p internal.SheetPayload) [][]any {
	out := make([][]any, 0, len(p.Items))
	for _, it := range p.Items {
		out = append(out, []any{
			p.SubmissionID, p.SubmissionDate, p.OrderDate,
			p.Branch, p.SalesPerson, p.SalesContactNo, p.CustomerName, p.CustomerEmail, p.CustomerContactNo,
			p.BillingAddress, p.DeliveryAddress,
			it.Category, it.ItemName, it.Color, it.Width, it.Quantity, it.UOM,
			it.Rate.InexactFloat64(), it.Discount.InexactFloat64(),
			it.DeliveryDate, it.Remark, it.TotalAmount.InexactFloat64(),
		})
	}
	return out
}

// TabName is the tab an order is filed under: its branch, or a shared
// tab when the branch is blank.
func TabName(p internal.SheetPayload) string {
	name := strings.TrimSpace(p.Branch)
	if name == "" {
		return defaultTab
	}
	repl := strings.NewReplacer("[", "", "]", "", "*", "", "?", "", "/", "-", "\\", "-", ":", "-")
	name = repl.Replace(name)
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
