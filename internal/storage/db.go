package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"orderdesk/internal/catalog"
)

// DB is the local SQLite store. It holds the same tables as the hosted
// store plus the order history and the inbox tables.
type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := conn.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func itemsTableDDL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS items_new (\n  id INTEGER PRIMARY KEY AUTOINCREMENT")
	for _, col := range catalog.WideColumns() {
		switch {
		case col == "item_name":
			b.WriteString(",\n  item_name TEXT NOT NULL UNIQUE")
		case col == "rate" || strings.HasPrefix(col, "rate_"):
			fmt.Fprintf(&b, ",\n  %q REAL", col)
		default:
			fmt.Fprintf(&b, ",\n  %q TEXT", col)
		}
	}
	b.WriteString(",\n  updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP\n);\n")
	return b.String()
}

func (d *DB) init() error {
	schema := itemsTableDDL() + `
CREATE TABLE IF NOT EXISTS app_users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL UNIQUE,
  password TEXT NOT NULL DEFAULT '',
  branch_id TEXT NOT NULL DEFAULT '',
  ghost INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS customers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sales_person_id TEXT NOT NULL,
  name TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT '',
  contact_no TEXT NOT NULL DEFAULT '',
  billing_address TEXT NOT NULL DEFAULT '',
  delivery_address TEXT NOT NULL DEFAULT '',
  branch TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(name, sales_person_id)
);
CREATE INDEX IF NOT EXISTS idx_customers_branch ON customers(branch);

CREATE TABLE IF NOT EXISTS orders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id TEXT NOT NULL DEFAULT '',
  submission_id TEXT NOT NULL,
  sales_person_id TEXT NOT NULL,
  branch_id TEXT NOT NULL DEFAULT '',
  customer_name TEXT NOT NULL,
  order_date TEXT NOT NULL DEFAULT '',
  order_data TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS order_history (
  id TEXT PRIMARY KEY,
  sales_person_id TEXT NOT NULL,
  submitted_at TEXT NOT NULL,
  store_saved INTEGER NOT NULL,
  sheet_saved INTEGER NOT NULL,
  order_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_history_sp ON order_history(sales_person_id, submitted_at);

CREATE TABLE IF NOT EXISTS inbox_emails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS inbox_drafts (
  emailId INTEGER PRIMARY KEY,
  draftJson TEXT NOT NULL,
  lineCount INTEGER NOT NULL,
  matchedCount INTEGER NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(emailId) REFERENCES inbox_emails(id)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  emailId INTEGER,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(emailId) REFERENCES inbox_emails(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	if _, err := d.conn.Exec(schema); err != nil {
		return err
	}
	return d.ensureColumn("orders", "order_id", `TEXT NOT NULL DEFAULT ''`)
}

// ensureColumn adds a column that databases created by older builds lack.
func (d *DB) ensureColumn(table, column, decl string) error {
	rows, err := d.conn.Query(fmt.Sprintf(`PRAGMA table_info(%q)`, table))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	_, err = d.conn.Exec(fmt.Sprintf(`ALTER TABLE %q ADD COLUMN %q %s`, table, column, decl))
	return err
}

func (d *DB) SetMetadata(ctx context.Context, key, value string) error {
	_, err := d.conn.ExecContext(ctx, `
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(ctx context.Context, key string) (*string, error) {
	var value string
	err := d.conn.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
