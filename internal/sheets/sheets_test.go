package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"orderdesk/internal"
	"orderdesk/internal/config"
)

func discard() *log.Logger { return log.New(io.Discard, "", 0) }

func testPayload(branch string) internal.SheetPayload {
	return internal.SheetPayload{
		SubmissionID:   "1772359200000",
		SubmissionDate: "2026-03-01T10:00:00Z",
		OrderHeader:    internal.OrderHeader{Branch: branch, CustomerName: "Acme", SalesPerson: "Ravi Kumar"},
		Items: []internal.SheetItem{
			{Category: "WARP", ItemName: "40s Cotton", Quantity: "3", Rate: decimal.NewFromInt(20), TotalAmount: decimal.NewFromInt(60)},
			{ItemName: "Custom tape", Quantity: "", Rate: decimal.NewFromInt(9)},
		},
	}
}

func TestRowsFollowHeaders(t *testing.T) {
	rows := Rows(testPayload("mumbai"))
	if len(rows) != 2 {
		t.Fatalf("rows=%d", len(rows))
	}
	for _, r := range rows {
		if len(r) != len(Headers) {
			t.Fatalf("row has %d cells, headers %d", len(r), len(Headers))
		}
	}
	if rows[0][6] != "Acme" || rows[0][12] != "40s Cotton" || rows[0][21] != 60.0 {
		t.Fatalf("unexpected row %v", rows[0])
	}
}

func TestTabName(t *testing.T) {
	cases := map[string]string{
		"":          "Orders",
		"mumbai":    "mumbai",
		"Mumbai/HO": "Mumbai-HO",
		"a[b]*c?":   "abc",
	}
	for in, want := range cases {
		if got := TabName(internal.SheetPayload{OrderHeader: internal.OrderHeader{Branch: in}}); got != want {
			t.Fatalf("TabName(%q)=%q want %q", in, got, want)
		}
	}
}

func TestWebhookPrefersProxy(t *testing.T) {
	var gotKey string
	var got internal.SheetPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh, err := NewWebhook(config.Config{SheetProxyURL: srv.URL, SheetProxyAPIKey: "k1", SheetScriptURL: "https://script.example/dev"}, discard())
	if err != nil {
		t.Fatal(err)
	}
	if err := wh.Submit(context.Background(), testPayload("mumbai")); err != nil {
		t.Fatal(err)
	}
	if gotKey != "k1" || got.CustomerName != "Acme" || len(got.Items) != 2 {
		t.Fatalf("unexpected request key=%q payload=%+v", gotKey, got)
	}
}

func TestWebhookDirectURLRewrite(t *testing.T) {
	wh, err := NewWebhook(config.Config{SheetScriptURL: "https://script.google.com/macros/s/abc/dev"}, discard())
	if err != nil {
		t.Fatal(err)
	}
	if wh.url != "https://script.google.com/macros/s/abc/userweb" || wh.proxied {
		t.Fatalf("unexpected url %q", wh.url)
	}
	if _, err := NewWebhook(config.Config{}, discard()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestWebhookErrorHints(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{http.StatusUnauthorized, "SHEET_PROXY_API_KEY"},
		{http.StatusForbidden, "access denied"},
		{http.StatusNotFound, "URL is invalid"},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		wh, err := NewWebhook(config.Config{SheetProxyURL: srv.URL}, discard())
		if err != nil {
			t.Fatal(err)
		}
		err = wh.Submit(context.Background(), testPayload("mumbai"))
		srv.Close()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("status %d: expected %q in %v", tc.status, tc.want, err)
		}
	}
}

func TestXLSXAppendsPerBranch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	x := NewXLSX(path)
	ctx := context.Background()
	for _, branch := range []string{"mumbai", "mumbai", "delhi"} {
		if err := x.Submit(ctx, testPayload(branch)); err != nil {
			t.Fatal(err)
		}
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 2 || got[0] != "mumbai" || got[1] != "delhi" {
		t.Fatalf("unexpected tabs %v", got)
	}
	rows, err := f.GetRows("mumbai")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 || rows[0][0] != "Submission ID" || rows[4][12] != "Custom tape" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestOffIsNotConfigured(t *testing.T) {
	s, err := New(context.Background(), config.Config{SheetMode: "off"}, discard())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Submit(context.Background(), testPayload("")); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
