package order

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"orderdesk/internal"
	"orderdesk/internal/util"
)

// Draft is an order being assembled. It is not safe for concurrent use.
type Draft struct {
	Header internal.OrderHeader `json:"formData"`
	lines  []internal.LineItem
}

func NewDraft(header internal.OrderHeader, lines ...internal.LineItem) (*Draft, error) {
	d := &Draft{Header: header}
	for _, l := range lines {
		if err := d.Add(l); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Add appends a line. Exactly one of ItemName and ManualItemName must be
// set. The quantity text is parsed here, once; unparseable text counts as
// zero.
func (d *Draft) Add(line internal.LineItem) error {
	prepared, err := prepare(line)
	if err != nil {
		return err
	}
	d.lines = append(d.lines, prepared)
	return nil
}

func prepare(line internal.LineItem) (internal.LineItem, error) {
	hasItem := strings.TrimSpace(line.ItemName) != ""
	hasManual := strings.TrimSpace(line.ManualItemName) != ""
	if hasItem == hasManual {
		return line, internal.Invalid("itemName", "pick a catalog item or type a manual name, not both")
	}
	if line.ID == "" {
		line.ID = uuid.NewString()
	}
	line.Quantity = util.ParseQuantity(line.QuantityText)
	return line, nil
}

func (d *Draft) Remove(id string) bool {
	for i, l := range d.lines {
		if l.ID == id {
			d.lines = append(d.lines[:i], d.lines[i+1:]...)
			return true
		}
	}
	return false
}

// Edit takes a line out of the draft so it can be changed and added again.
func (d *Draft) Edit(id string) (internal.LineItem, bool) {
	for i, l := range d.lines {
		if l.ID == id {
			d.lines = append(d.lines[:i], d.lines[i+1:]...)
			return l, true
		}
	}
	return internal.LineItem{}, false
}

// Replace swaps the line with the given id in place, keeping its id.
func (d *Draft) Replace(id string, line internal.LineItem) error {
	for i, l := range d.lines {
		if l.ID != id {
			continue
		}
		line.ID = id
		prepared, err := prepare(line)
		if err != nil {
			return err
		}
		d.lines[i] = prepared
		return nil
	}
	return internal.Invalid("id", "line %s not found", id)
}

func (d *Draft) Lines() []internal.LineItem {
	return append([]internal.LineItem(nil), d.lines...)
}

func (d *Draft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.lines {
		total = total.Add(l.Amount())
	}
	return total
}

func (d *Draft) NetTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.lines {
		total = total.Add(l.NetAmount())
	}
	return total
}

func (d *Draft) Validate() error {
	if strings.TrimSpace(d.Header.CustomerName) == "" {
		return internal.Invalid("customerName", "Customer name is required")
	}
	if len(d.lines) == 0 {
		return internal.Invalid("items", "Add at least one item")
	}
	return nil
}
