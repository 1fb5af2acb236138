package order

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"orderdesk/internal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAddRequiresExactlyOneName(t *testing.T) {
	cases := []struct {
		name    string
		line    internal.LineItem
		wantErr bool
	}{
		{name: "catalog", line: internal.LineItem{ItemName: "40s Cotton"}},
		{name: "manual", line: internal.LineItem{ManualItemName: "Special lace"}},
		{name: "both", line: internal.LineItem{ItemName: "A", ManualItemName: "B"}, wantErr: true},
		{name: "neither", line: internal.LineItem{ItemName: "  "}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &Draft{}
			err := d.Add(tc.line)
			var verr *internal.ValidationError
			if tc.wantErr != errors.As(err, &verr) {
				t.Fatalf("err=%v wantErr=%t", err, tc.wantErr)
			}
			if !tc.wantErr && (len(d.Lines()) != 1 || d.Lines()[0].ID == "") {
				t.Fatalf("line not added with id: %+v", d.Lines())
			}
		})
	}
}

func TestTotals(t *testing.T) {
	d := &Draft{Header: internal.OrderHeader{CustomerName: "Acme"}}
	lines := []internal.LineItem{
		{ItemName: "A", QuantityText: "10 kg", Rate: dec("12.5"), DiscountPercent: dec("10")},
		{ManualItemName: "B", QuantityText: "abc", Rate: dec("100")},
		{ItemName: "C", QuantityText: "2,5", Rate: dec("4")},
		{ItemName: "D", QuantityText: "", Rate: dec("75")},
	}
	for _, l := range lines {
		if err := d.Add(l); err != nil {
			t.Fatal(err)
		}
	}
	if got := d.Lines()[3].Amount(); !got.IsZero() {
		t.Fatalf("empty quantity amount=%s", got)
	}
	if got := d.Total(); !got.Equal(dec("135")) {
		t.Fatalf("total=%s", got)
	}
	if got := d.NetTotal(); !got.Equal(dec("122.5")) {
		t.Fatalf("net total=%s", got)
	}
	if err := d.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestEditRemoveReplace(t *testing.T) {
	d := &Draft{}
	_ = d.Add(internal.LineItem{ID: "a", ItemName: "A", QuantityText: "1"})
	_ = d.Add(internal.LineItem{ID: "b", ItemName: "B", QuantityText: "2"})
	_ = d.Add(internal.LineItem{ID: "c", ItemName: "C", QuantityText: "3"})

	if err := d.Replace("b", internal.LineItem{ManualItemName: "B2", QuantityText: "5"}); err != nil {
		t.Fatal(err)
	}
	if got := d.Lines()[1]; got.ID != "b" || got.ManualItemName != "B2" || !got.Quantity.Equal(dec("5")) {
		t.Fatalf("replace: %+v", got)
	}

	line, ok := d.Edit("a")
	if !ok || line.ItemName != "A" || len(d.Lines()) != 2 {
		t.Fatalf("edit: %+v %t %d", line, ok, len(d.Lines()))
	}
	if !d.Remove("c") || d.Remove("c") {
		t.Fatalf("remove should succeed once")
	}
	if err := d.Replace("zz", internal.LineItem{ItemName: "Z"}); err == nil {
		t.Fatalf("expected error for unknown line")
	}
}

func TestValidate(t *testing.T) {
	d := &Draft{}
	_ = d.Add(internal.LineItem{ItemName: "A"})
	if err := d.Validate(); err == nil {
		t.Fatalf("expected missing customer")
	}
	d = &Draft{Header: internal.OrderHeader{CustomerName: "Acme"}}
	if err := d.Validate(); err == nil {
		t.Fatalf("expected missing lines")
	}
}

func TestBuildPayload(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	header := internal.OrderHeader{Branch: "mumbai", CustomerName: "Acme"}
	d, err := NewDraft(header,
		internal.LineItem{ItemName: "40s Cotton", QuantityText: "3", Rate: dec("20")},
		internal.LineItem{ManualItemName: "Custom tape", QuantityText: "", Rate: dec("9")},
	)
	if err != nil {
		t.Fatal(err)
	}
	p := BuildPayload(header, d.Lines(), now)
	if p.SubmissionID != "1772359200000" || p.SubmissionDate != "2026-03-01T10:00:00Z" {
		t.Fatalf("unexpected submission id/date %q %q", p.SubmissionID, p.SubmissionDate)
	}
	if p.CustomerName != "Acme" || len(p.Items) != 2 {
		t.Fatalf("unexpected payload %+v", p)
	}
	if p.Items[0].ItemName != "40s Cotton" || !p.Items[0].TotalAmount.Equal(dec("60")) {
		t.Fatalf("unexpected first item %+v", p.Items[0])
	}
	if p.Items[1].ItemName != "Custom tape" || !p.Items[1].TotalAmount.IsZero() {
		t.Fatalf("unexpected second item %+v", p.Items[1])
	}
}
