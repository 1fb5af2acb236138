package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"orderdesk/internal"
	"orderdesk/internal/catalog"
)

// ListItemRows returns every items_new row keyed by column name.
func (d *DB) ListItemRows(ctx context.Context) ([]map[string]any, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT * FROM items_new ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// UpsertItems writes one batch in a single transaction. A row whose
// item_name exists is overwritten column by column.
func (d *DB) UpsertItems(ctx context.Context, batch []internal.ItemUpsert) error {
	if len(batch) == 0 {
		return nil
	}

	cols := make([]string, 0, len(catalog.Schema)*2+3)
	for col := range catalog.WideRow(internal.ItemUpsert{}) {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	quoted := make([]string, len(cols))
	updates := make([]string, 0, len(cols))
	for i, c := range cols {
		quoted[i] = fmt.Sprintf("%q", c)
		if c != "item_name" {
			updates = append(updates, fmt.Sprintf("%q=excluded.%q", c, c))
		}
	}
	updates = append(updates, "updated_at=CURRENT_TIMESTAMP")

	query := fmt.Sprintf(`INSERT INTO items_new (%s) VALUES (%s)
ON CONFLICT(item_name) DO UPDATE SET %s`,
		strings.Join(quoted, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
		strings.Join(updates, ", "))

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for _, it := range batch {
		row := catalog.WideRow(it)
		for i, c := range cols {
			args[i] = row[c]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("upsert item %q: %w", it.ItemName, err)
		}
	}

	return tx.Commit()
}
