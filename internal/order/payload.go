package order

import (
	"strconv"
	"time"

	"orderdesk/internal"
)

// BuildPayload renders the spreadsheet submission for an order. Each item
// is named by its catalog name, or the manual name when it has none, and
// carries quantity times rate as its total.
func BuildPayload(header internal.OrderHeader, lines []internal.LineItem, now time.Time) internal.SheetPayload {
	items := make([]internal.SheetItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, internal.SheetItem{
			Category:     l.Category,
			ItemName:     l.DisplayName(),
			Color:        l.Color,
			Width:        l.Width,
			Quantity:     l.QuantityText,
			UOM:          l.UOM,
			Rate:         l.Rate,
			Discount:     l.DiscountPercent,
			DeliveryDate: l.DeliveryDate,
			Remark:       l.Remark,
			TotalAmount:  l.Amount(),
		})
	}
	return internal.SheetPayload{
		SubmissionID:   strconv.FormatInt(now.UnixMilli(), 10),
		SubmissionDate: now.UTC().Format(time.RFC3339Nano),
		OrderHeader:    header,
		Items:          items,
	}
}
