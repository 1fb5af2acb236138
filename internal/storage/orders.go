package storage

import (
	"context"
	"encoding/json"
	"time"

	"orderdesk/internal"
)

// historyTimeLayout has a fixed width so stored timestamps compare as text.
const historyTimeLayout = "2006-01-02T15:04:05.000000000Z"

func (d *DB) SaveOrder(ctx context.Context, salesPersonID string, order internal.SubmittedOrder) error {
	data, err := json.Marshal(map[string]any{
		"formData": order.Header,
		"items":    order.Lines,
	})
	if err != nil {
		return err
	}
	_, err = d.conn.ExecContext(ctx, `
INSERT INTO orders (order_id, submission_id, sales_person_id, branch_id, customer_name, order_date, order_data)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, order.ID, order.SubmissionID, salesPersonID, order.Header.Branch, order.Header.CustomerName, order.Header.OrderDate, string(data))
	return err
}

func (d *DB) RecordOrder(ctx context.Context, entry internal.HistoryEntry) error {
	blob, err := json.Marshal(entry.Order)
	if err != nil {
		return err
	}
	_, err = d.conn.ExecContext(ctx, `
INSERT INTO order_history (id, sales_person_id, submitted_at, store_saved, sheet_saved, order_json)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  store_saved=excluded.store_saved,
  sheet_saved=excluded.sheet_saved,
  order_json=excluded.order_json
`, entry.ID, entry.SalesPersonID, entry.Order.SubmittedAt.UTC().Format(historyTimeLayout), entry.StoreSaved, entry.SheetSaved, string(blob))
	return err
}

// ListHistory returns the orders recorded for a sales person at or after
// since, newest first. An empty salesPersonID lists every sales person.
func (d *DB) ListHistory(ctx context.Context, salesPersonID string, since time.Time) ([]internal.HistoryEntry, error) {
	rows, err := d.conn.QueryContext(ctx, `
SELECT id, sales_person_id, store_saved, sheet_saved, order_json
FROM order_history
WHERE (? = '' OR sales_person_id = ?) AND submitted_at >= ?
ORDER BY submitted_at DESC
`, salesPersonID, salesPersonID, since.UTC().Format(historyTimeLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.HistoryEntry
	for rows.Next() {
		var e internal.HistoryEntry
		var blob string
		if err := rows.Scan(&e.ID, &e.SalesPersonID, &e.StoreSaved, &e.SheetSaved, &blob); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(blob), &e.Order); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (d *DB) PruneHistory(ctx context.Context, before time.Time) (int, error) {
	res, err := d.conn.ExecContext(ctx, `DELETE FROM order_history WHERE submitted_at < ?`, before.UTC().Format(historyTimeLayout))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
