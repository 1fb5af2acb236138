package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"orderdesk/internal"
	"orderdesk/internal/config"
)

// Webhook posts the payload as JSON to an Apps Script web app, either
// directly or through a proxy that holds the deployment credentials.
type Webhook struct {
	url        string
	apiKey     string
	proxied    bool
	httpClient *http.Client
	infoLog    *log.Logger
}

func NewWebhook(cfg config.Config, infoLog *log.Logger) (*Webhook, error) {
	w := &Webhook{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		infoLog:    infoLog,
	}
	switch {
	case strings.TrimSpace(cfg.SheetProxyURL) != "":
		w.url = strings.TrimSpace(cfg.SheetProxyURL)
		w.apiKey = cfg.SheetProxyAPIKey
		w.proxied = true
	case strings.TrimSpace(cfg.SheetScriptURL) != "":
		// A /dev deployment only runs for its owner.
		w.url = strings.Replace(strings.TrimSpace(cfg.SheetScriptURL), "/dev", "/userweb", 1)
	default:
		return nil, fmt.Errorf("%w: set SHEET_PROXY_URL or SHEET_SCRIPT_URL", ErrNotConfigured)
	}
	return w, nil
}

func (w *Webhook) Submit(ctx context.Context, payload internal.SheetPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.apiKey != "" {
		req.Header.Set("x-api-key", w.apiKey)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	blob, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		w.infoLog.Printf("sheet: submission %s accepted (%d items)", payload.SubmissionID, len(payload.Items))
		return nil
	}
	return fmt.Errorf("sheet webhook status=%d body=%s: %s", resp.StatusCode, strings.TrimSpace(string(blob)), w.hint(resp.StatusCode))
}

func (w *Webhook) hint(status int) string {
	switch status {
	case http.StatusUnauthorized:
		if w.proxied {
			return "proxy rejected the API key; check SHEET_PROXY_API_KEY"
		}
		return "the script deployment is not public; deploy with access for anyone or use a proxy"
	case http.StatusForbidden:
		return "access denied; check the deployment settings"
	case http.StatusNotFound:
		return "the URL is invalid or the deployment was removed"
	default:
		return "unexpected response"
	}
}
