package sheets

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"orderdesk/internal"
	"orderdesk/internal/config"
)

// API appends order rows to a spreadsheet through the Sheets API, one tab
// per branch.
type API struct {
	service       *gsheets.Service
	spreadsheetID string
	infoLog       *log.Logger

	mu   sync.Mutex
	tabs map[string]bool
}

func NewAPI(ctx context.Context, cfg config.Config, infoLog *log.Logger) (*API, error) {
	if err := cfg.Require("SHEET_SPREADSHEET_ID", cfg.SheetSpreadsheetID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GOOGLE_CLIENT_ID", cfg.GoogleClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GOOGLE_CLIENT_SECRET", cfg.GoogleClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("GOOGLE_REFRESH_TOKEN", cfg.GoogleRefreshToken); err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GoogleRedirectURI,
		Scopes:       []string{gsheets.SpreadsheetsScope},
	}
	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GoogleRefreshToken})
	return newAPI(ctx, cfg.SheetSpreadsheetID, infoLog, option.WithTokenSource(tokenSource))
}

func newAPI(ctx context.Context, spreadsheetID string, infoLog *log.Logger, opts ...option.ClientOption) (*API, error) {
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &API{service: svc, spreadsheetID: spreadsheetID, infoLog: infoLog, tabs: map[string]bool{}}, nil
}

func (a *API) Submit(ctx context.Context, payload internal.SheetPayload) error {
	tab := TabName(payload)
	if err := a.ensureTab(ctx, tab); err != nil {
		return fmt.Errorf("sheet tab %q: %w", tab, err)
	}

	vr := &gsheets.ValueRange{Values: Rows(payload)}
	_, err := a.service.Spreadsheets.Values.Append(a.spreadsheetID, quoteRange(tab, "A1"), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheet append: %w", err)
	}
	a.infoLog.Printf("sheet: appended %d rows to %q", len(vr.Values), tab)
	return nil
}

// ensureTab creates the tab with its header row the first time a branch
// submits.
func (a *API) ensureTab(ctx context.Context, tab string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tabs[tab] {
		return nil
	}

	ss, err := a.service.Spreadsheets.Get(a.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return err
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			a.tabs[s.Properties.Title] = true
		}
	}
	if a.tabs[tab] {
		return nil
	}

	add := &gsheets.BatchUpdateSpreadsheetRequest{Requests: []*gsheets.Request{{
		AddSheet: &gsheets.AddSheetRequest{Properties: &gsheets.SheetProperties{Title: tab}},
	}}}
	if _, err := a.service.Spreadsheets.BatchUpdate(a.spreadsheetID, add).Context(ctx).Do(); err != nil {
		return err
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	_, err = a.service.Spreadsheets.Values.Update(a.spreadsheetID, quoteRange(tab, "A1"), &gsheets.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return err
	}
	a.tabs[tab] = true
	a.infoLog.Printf("sheet: created tab %q", tab)
	return nil
}

func quoteRange(tab, cell string) string {
	return fmt.Sprintf("'%s'!%s", tab, cell)
}
