// Package extract recovers order lines and customer details from pasted
// text, e-mails and their attachments.
package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"orderdesk/internal"
	"orderdesk/internal/util"
)

var (
	ignorePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^--+$`),
		regexp.MustCompile(`^>`),
		regexp.MustCompile(`(?i)^(thanks|thank you|regards|best regards|warm regards|kind regards)\b`),
		regexp.MustCompile(`(?i)^(hi|hello|dear)\b`),
		regexp.MustCompile(`(?i)^(sent from|on .* wrote:)`),
		regexp.MustCompile(`(?i)^(tel|phone|mob|mobile|contact|e-?mail|gst|gstin)[:.\s]`),
		regexp.MustCompile(`(?i)^(customer|party|buyer|address|billing address|delivery address|branch|order date|date)\s*:`),
		regexp.MustCompile(`(?i)^http`),
		regexp.MustCompile(`:$`),
	}
	hasLetter    = regexp.MustCompile(`[A-Za-z]`)
	hasDigit     = regexp.MustCompile(`\d`)
	unitWordRe   = regexp.MustCompile(`(?i)\b(kgs?|kilo|mtrs?|meters?|metres?|pkts?|packets?|yards?|yds?|pcs|pc|pieces?|rolls?|nos?)\b\.?`)
	separatorsRe = regexp.MustCompile(`[;|]+|\s[-–]\s`)

	nameKeys = []string{"item", "particular", "description", "product", "quality", "name"}
	qtyKeys  = []string{"qty", "quantity", "qnty", "pcs"}
	unitKeys = []string{"uom", "unit"}
)

// Result is everything recovered from one message.
type Result struct {
	Lines       []internal.ExtractedLine
	Subject     string
	Text        string
	HTML        string
	Attachments []string
	Hints       CustomerHints
}

// FromEmail parses a raw RFC 822 message: the text body, tables in the
// HTML body, and xlsx or pdf attachments.
func FromEmail(raw []byte) (Result, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return Result{}, err
	}

	res := Result{Subject: env.GetHeader("Subject"), Text: env.Text, HTML: env.HTML}
	if env.Text != "" {
		res.Lines = append(res.Lines, FromText(env.Text, internal.SourceEmailText)...)
	}
	if env.HTML != "" {
		res.Lines = append(res.Lines, FromHTML(env.HTML)...)
	}

	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		if filename == "" {
			filename = "attachment"
		}
		res.Attachments = append(res.Attachments, filename)
		lower := strings.ToLower(filename)

		var extra []internal.ExtractedLine
		switch {
		case strings.HasSuffix(lower, ".xlsx"):
			extra, err = FromXLSX(att.Content)
		case strings.HasSuffix(lower, ".pdf"):
			extra, err = FromPDF(att.Content)
		default:
			continue
		}
		if err != nil {
			continue
		}
		for i := range extra {
			extra[i].Meta["attachment"] = filename
		}
		res.Lines = append(res.Lines, extra...)
	}

	res.Lines = dedupe(res.Lines)
	for i := range res.Lines {
		res.Lines[i].LineNo = i + 1
	}

	body := env.Text
	if body == "" && env.HTML != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(env.HTML)); err == nil {
			body = doc.Text()
		}
	}
	res.Hints = ParseHints(body)
	if res.Hints.Email == "" {
		res.Hints.Email = senderAddress(env.GetHeader("From"))
	}
	return res, nil
}

// FromText reads one order line per text line. Lines need letters, and
// either a quantity or enough text to be an item name.
func FromText(text string, source internal.ItemSource) []internal.ExtractedLine {
	lines := splitLines(text)
	out := make([]internal.ExtractedLine, 0, len(lines))
	lineNo := 0
	for _, line := range lines {
		lineNo++
		item := lineToExtracted(source, lineNo, line)
		if item == nil {
			continue
		}
		if !hasLetter.MatchString(item.RawLine) || item.Qty == nil && len(item.RawLine) < 8 {
			continue
		}
		out = append(out, *item)
	}
	return out
}

func FromHTML(html string) []internal.ExtractedLine {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []internal.ExtractedLine
	globalLine := 0
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return
		}

		var headers []string
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.ToLower(strings.TrimSpace(cell.Text())))
		})
		nameIdx := findHeaderIndex(headers, nameKeys)
		qtyIdx := findHeaderIndex(headers, qtyKeys)
		unitIdx := findHeaderIndex(headers, unitKeys)

		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			var cells []string
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, util.NormalizeSpaces(cell.Text()))
			})
			if len(cells) == 0 {
				return
			}

			nameCell := pickCell(cells, nameIdx, 0)
			qtyCell := pickCell(cells, qtyIdx, -1)
			if qtyCell == "" {
				for i, c := range cells {
					if i != nameIdx && hasDigit.MatchString(c) {
						qtyCell = c
						break
					}
				}
			}
			parsed := util.ParseQty(qtyCell)
			rawLine := strings.Join(cells, " | ")
			if nameCell == "" || parsed.Qty == nil && !hasDigit.MatchString(rawLine) {
				return
			}

			globalLine++
			item := internal.ExtractedLine{
				LineNo:  globalLine,
				Source:  internal.SourceEmailHTMLTable,
				RawLine: rawLine,
				Name:    nameCell,
				Qty:     parsed.Qty,
				Unit:    parsed.Unit,
				Meta:    map[string]any{"row": cells},
			}
			if unit := pickCell(cells, unitIdx, -1); unit != "" {
				item.Unit = util.StringPtr(util.NormalizeUnit(unit))
			}
			out = append(out, item)
		})
	})
	return out
}

func FromXLSX(content []byte) ([]internal.ExtractedLine, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lineNo := 0
	var out []internal.ExtractedLine
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}

		nameIdx, qtyIdx, unitIdx := -1, -1, -1
		for i, row := range rows {
			cells := normalizeCells(row)
			if len(cells) == 0 {
				continue
			}
			if i < 3 && nameIdx < 0 {
				nameIdx, qtyIdx, unitIdx = inferColumns(cells)
				if nameIdx >= 0 || qtyIdx >= 0 {
					continue
				}
			}
			if nameIdx < 0 {
				nameIdx, qtyIdx, unitIdx = 0, 1, 2
			}

			name := pickCell(cells, nameIdx, 0)
			qtyCell := pickCell(cells, qtyIdx, -1)
			if qtyCell == "" {
				qtyCell = strings.Join(cells, " ")
			}
			parsed := util.ParseQty(qtyCell)
			if name == "" || parsed.Qty == nil {
				continue
			}

			lineNo++
			item := internal.ExtractedLine{
				LineNo:  lineNo,
				Source:  internal.SourceXLSX,
				RawLine: strings.Join(cells, " | "),
				Name:    name,
				Qty:     parsed.Qty,
				Unit:    parsed.Unit,
				Meta:    map[string]any{"sheet": sheet, "rowNumber": i + 1},
			}
			if unit := pickCell(cells, unitIdx, -1); unit != "" {
				item.Unit = util.StringPtr(util.NormalizeUnit(unit))
			}
			out = append(out, item)
		}
	}
	return out, nil
}

func FromPDF(content []byte) ([]internal.ExtractedLine, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	var out []internal.ExtractedLine
	lineNo := 0
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		for _, line := range splitLines(text) {
			lineNo++
			item := lineToExtracted(internal.SourcePDF, lineNo, line)
			if item == nil || item.Qty == nil {
				continue
			}
			out = append(out, *item)
		}
	}
	return out, nil
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func lineToExtracted(source internal.ItemSource, lineNo int, rawLine string) *internal.ExtractedLine {
	compact := util.NormalizeSpaces(rawLine)
	if compact == "" || isLikelyNoise(compact) {
		return nil
	}
	compact = strings.TrimLeft(compact, "-*•· ")
	compact = strings.TrimSpace(leadingIndex.ReplaceAllString(compact, ""))

	parsed := util.ParseQty(compact)
	noQty := compact
	if parsed.QtyRaw != nil {
		if idx := strings.LastIndex(noQty, *parsed.QtyRaw); idx >= 0 {
			noQty = noQty[:idx] + " " + noQty[idx+len(*parsed.QtyRaw):]
		}
	}

	name := unitWordRe.ReplaceAllString(noQty, " ")
	name = separatorsRe.ReplaceAllString(name, " ")
	name = strings.Trim(util.NormalizeSpaces(name), " -:,")
	if len([]rune(name)) <= 1 {
		name = compact
	}

	item := internal.ExtractedLine{
		LineNo:  lineNo,
		Source:  source,
		RawLine: compact,
		Name:    name,
		Qty:     parsed.Qty,
		Unit:    parsed.Unit,
		Meta:    map[string]any{},
	}
	if parsed.QtyRaw != nil {
		item.Meta["qtyRaw"] = *parsed.QtyRaw
	}
	return &item
}

var leadingIndex = regexp.MustCompile(`^\d{1,2}[.)]\s+`)

func isLikelyNoise(line string) bool {
	for _, re := range ignorePatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func dedupe(items []internal.ExtractedLine) []internal.ExtractedLine {
	seen := map[string]struct{}{}
	out := make([]internal.ExtractedLine, 0, len(items))
	for _, item := range items {
		qtyKey := "null"
		if item.Qty != nil {
			qtyKey = fmt.Sprintf("%g", *item.Qty)
		}
		key := string(item.Source) + "|" + item.RawLine + "|" + qtyKey
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func findHeaderIndex(headers []string, keys []string) int {
	for _, key := range keys {
		for i, h := range headers {
			if strings.Contains(h, key) {
				return i
			}
		}
	}
	return -1
}

func pickCell(cells []string, idx int, fallback int) string {
	if idx >= 0 && idx < len(cells) {
		return strings.TrimSpace(cells[idx])
	}
	if fallback >= 0 && fallback < len(cells) {
		return strings.TrimSpace(cells[fallback])
	}
	return ""
}

func inferColumns(headers []string) (nameIdx, qtyIdx, unitIdx int) {
	norm := make([]string, 0, len(headers))
	for _, h := range headers {
		norm = append(norm, strings.ToLower(h))
	}
	nameIdx = findHeaderIndex(norm, nameKeys)
	qtyIdx = findHeaderIndex(norm, qtyKeys)
	unitIdx = findHeaderIndex(norm, unitKeys)
	return
}

func normalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, util.NormalizeSpaces(c))
	}
	return out
}
