package util

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	unitWords       = `kgs?|kilo|mtrs?|meters?|metres?|pkts?|packets?|yards?|yds?|pcs|pieces?|rolls?|inch(?:es)?`
	unitAlternation = unitWords + `|m|pc|in`
)

var (
	unitPattern     = regexp.MustCompile(`(?i)\b(` + unitWords + `)\b\.?`)
	withUnitPattern = regexp.MustCompile(`(?i)(?:^|[^0-9.,])(\d{1,3}(?:[\s.,]\d{3})+|\d+(?:[.,]\d+)?)\s*(` + unitAlternation + `)\b\.?`)
	numberPattern   = regexp.MustCompile(`(?i)(?:^|[^0-9.,])(\d{1,3}(?:[\s.,]\d{3})+|\d+(?:[.,]\d+)?)`)
	leadingNumber   = regexp.MustCompile(`^\s*([+-]?\d[\d\s.,]*)`)
	thousandsDot    = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	thousandsComma  = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
)

type ParsedQty struct {
	Qty    *float64
	Unit   *string
	QtyRaw *string
}

// ParseQty finds the last quantity in a free-text line, preferring a number
// followed by a unit of measure.
func ParseQty(input string) ParsedQty {
	line := strings.ReplaceAll(input, " ", " ")

	qtyRaw := ""
	qtyToken := ""

	wm := withUnitPattern.FindAllStringSubmatch(line, -1)
	if len(wm) > 0 {
		last := wm[len(wm)-1]
		qtyRaw = strings.TrimSpace(strings.TrimLeft(last[0], " \t,;:|-"))
		qtyToken = strings.TrimSpace(last[1])
	} else {
		nm := numberPattern.FindAllStringSubmatch(line, -1)
		if len(nm) > 0 {
			last := nm[len(nm)-1]
			qtyRaw = strings.TrimSpace(last[1])
			qtyToken = strings.TrimSpace(last[1])
		}
	}

	var qtyPtr *float64
	if qtyToken != "" {
		norm := normalizeNumericToken(qtyToken)
		if parsed, err := strconv.ParseFloat(norm, 64); err == nil {
			qtyPtr = FloatPtr(parsed)
		}
	}

	var unitPtr *string
	if len(wm) > 0 {
		u := NormalizeUnit(wm[len(wm)-1][2])
		unitPtr = &u
	} else if um := unitPattern.FindStringSubmatch(line); len(um) > 1 {
		u := NormalizeUnit(um[1])
		unitPtr = &u
	}

	var qtyRawPtr *string
	if qtyRaw != "" {
		qtyRawPtr = &qtyRaw
	}

	return ParsedQty{Qty: qtyPtr, Unit: unitPtr, QtyRaw: qtyRawPtr}
}

// ParseQuantity reads the leading number of an operator-typed quantity
// ("10", "2.5 kg", "1,5"). Anything unparseable is zero.
func ParseQuantity(text string) decimal.Decimal {
	m := leadingNumber.FindStringSubmatch(strings.ReplaceAll(text, " ", " "))
	if len(m) < 2 {
		return decimal.Zero
	}
	token := strings.TrimRight(strings.TrimSpace(m[1]), ".,")
	token = strings.Fields(token + " ")[0]
	d, err := decimal.NewFromString(normalizeNumericToken(token))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseAmount is ParseQuantity for rate and discount cells, which may carry
// a currency symbol or a percent sign.
func ParseAmount(text string) decimal.Decimal {
	clean := strings.NewReplacer("₹", "", "Rs.", "", "Rs", "", "INR", "", "%", "").Replace(text)
	return ParseQuantity(clean)
}

// NormalizeUnit maps spelling variants onto the units an order line offers:
// Kg, Mtr, Pkt, Yard, Pcs, Roll, Inch.
func NormalizeUnit(unit string) string {
	u := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(unit)), ".")
	switch u {
	case "kg", "kgs", "kilo":
		return "Kg"
	case "m", "mtr", "mtrs", "meter", "meters", "metre", "metres":
		return "Mtr"
	case "pkt", "pkts", "packet", "packets":
		return "Pkt"
	case "yard", "yards", "yd", "yds":
		return "Yard"
	case "pc", "pcs", "piece", "pieces":
		return "Pcs"
	case "roll", "rolls":
		return "Roll"
	case "in", "inch", "inches":
		return "Inch"
	default:
		return u
	}
}

func normalizeNumericToken(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	if thousandsDot.MatchString(compact) {
		return strings.ReplaceAll(compact, ".", "")
	}
	if thousandsComma.MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	if strings.Contains(compact, ",") && !strings.Contains(compact, ".") {
		return strings.ReplaceAll(compact, ",", ".")
	}
	return compact
}
