package extract

import (
	"strings"

	"orderdesk/internal/util"
)

type Detection struct {
	IsOrder bool   `json:"isOrder"`
	Score   int    `json:"score"`
	Reason  string `json:"reason"`
}

var detectKeywords = []string{"order", "purchase order", "p.o", "po no", "requirement", "qty", "quantity", "please send", "kindly send", "please supply", "rate"}

// DetectOrderRequest scores a message on order keywords, quantity lines,
// tables and spreadsheet attachments. A score of at least minScore counts
// as an order.
func DetectOrderRequest(subject, text, html string, attachmentNames []string, minScore int) Detection {
	subject = strings.ToLower(subject)
	text = strings.ToLower(text)
	html = strings.ToLower(html)

	score := 0
	for _, kw := range detectKeywords {
		if strings.Contains(subject, kw) {
			score += 2
		}
		if strings.Contains(text, kw) || strings.Contains(html, kw) {
			score++
		}
	}

	switch qtyLines := countQtyLines(text); {
	case qtyLines >= 2:
		score += 3
	case qtyLines == 1:
		score++
	}

	for _, name := range attachmentNames {
		ln := strings.ToLower(name)
		if strings.HasSuffix(ln, ".xlsx") || strings.HasSuffix(ln, ".pdf") {
			score += 2
			break
		}
	}
	if strings.Contains(html, "<table") {
		score += 2
	}

	d := Detection{Score: score, IsOrder: score >= minScore, Reason: "rules_negative"}
	if d.IsOrder {
		d.Reason = "rules_positive"
	}
	return d
}

// countQtyLines counts lines carrying a number followed by a unit.
func countQtyLines(text string) int {
	count := 0
	for _, line := range splitLines(text) {
		if p := util.ParseQty(line); p.Qty != nil && p.Unit != nil {
			count++
		}
	}
	return count
}
