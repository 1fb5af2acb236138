package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath     string
	RawMailDir string
	OutputDir  string

	StoreBackend     string
	RestBaseURL      string
	RestAPIKey       string
	RestRateLimitRPS int
	RestTimeoutMs    int

	ImportBatchSize  int
	DefaultBranch    string
	GhostEmailDomain string

	SheetMode          string
	SheetScriptURL     string
	SheetProxyURL      string
	SheetProxyAPIKey   string
	SheetSpreadsheetID string
	SheetXLSXPath      string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	GoogleRefreshToken string

	HistoryRetentionDays int

	HTTPAddr      string
	HTTPRateLimit string

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	InboxProvider     string
	InboxLabel        string
	InboxIntervalSec  int
	InboxFetchMax     int
	InboxProcessBatch int
	InboxAutoExport   bool
	InboxMinScore     int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "orderdesk.db")),
		RawMailDir: getEnv("MAIL_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", "sqlite")),
		RestBaseURL:      getEnv("REST_BASE_URL", ""),
		RestAPIKey:       getEnv("REST_API_KEY", ""),
		RestRateLimitRPS: getEnvInt("REST_RATE_LIMIT_RPS", 5),
		RestTimeoutMs:    getEnvInt("REST_TIMEOUT_MS", 30000),

		ImportBatchSize:  getEnvInt("IMPORT_BATCH_SIZE", 100),
		DefaultBranch:    getEnv("DEFAULT_BRANCH", "mum"),
		GhostEmailDomain: getEnv("GHOST_EMAIL_DOMAIN", "orderdesk.local"),

		SheetMode:          strings.ToLower(getEnv("SHEET_MODE", "off")),
		SheetScriptURL:     getEnv("SHEET_SCRIPT_URL", ""),
		SheetProxyURL:      getEnv("SHEET_PROXY_URL", ""),
		SheetProxyAPIKey:   getEnv("SHEET_PROXY_API_KEY", ""),
		SheetSpreadsheetID: getEnv("SHEET_SPREADSHEET_ID", ""),
		SheetXLSXPath:      getEnv("SHEET_XLSX_PATH", filepath.Join(cwd, "out", "orders.xlsx")),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GoogleRefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),

		HistoryRetentionDays: getEnvInt("HISTORY_RETENTION_DAYS", 5),

		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		HTTPRateLimit: getEnv("HTTP_RATE_LIMIT", "30-M"),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		InboxProvider:     getEnv("INBOX_PROVIDER", "gmail"),
		InboxLabel:        getEnv("INBOX_LABEL", "INBOX"),
		InboxIntervalSec:  getEnvInt("INBOX_INTERVAL_SEC", 60),
		InboxFetchMax:     getEnvInt("INBOX_FETCH_MAX", 20),
		InboxProcessBatch: getEnvInt("INBOX_PROCESS_BATCH", 20),
		InboxAutoExport:   getEnvBool("INBOX_AUTO_EXPORT", true),
		InboxMinScore:     getEnvInt("INBOX_MIN_SCORE", 3),
	}

	if cfg.ImportBatchSize <= 0 {
		cfg.ImportBatchSize = 100
	}
	if cfg.HistoryRetentionDays <= 0 {
		cfg.HistoryRetentionDays = 5
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
