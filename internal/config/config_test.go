package config

import "testing"

func TestLoadFallbacks(t *testing.T) {
	t.Setenv("IMPORT_BATCH_SIZE", "0")
	t.Setenv("HISTORY_RETENTION_DAYS", "x")
	t.Setenv("SHEET_MODE", "Webhook")
	t.Setenv("IMAP_SECURE", "no")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ImportBatchSize != 100 {
		t.Fatalf("batch size fallback got %d", cfg.ImportBatchSize)
	}
	if cfg.HistoryRetentionDays != 5 {
		t.Fatalf("retention fallback got %d", cfg.HistoryRetentionDays)
	}
	if cfg.SheetMode != "webhook" {
		t.Fatalf("sheet mode got %q", cfg.SheetMode)
	}
	if cfg.IMAPSecure {
		t.Fatalf("expected IMAP_SECURE=no to disable tls")
	}
}

func TestRequire(t *testing.T) {
	var cfg Config
	if err := cfg.Require("REST_BASE_URL", "  "); err == nil || err.Error() != "missing required env var: REST_BASE_URL" {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Require("REST_BASE_URL", "http://x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
