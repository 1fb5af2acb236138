package storage

import (
	"context"
	"strconv"

	"orderdesk/internal"
)

func (d *DB) ListSalesPersons(ctx context.Context) ([]internal.SalesPerson, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT id, first_name, last_name, email, branch_id, ghost FROM app_users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.SalesPerson
	for rows.Next() {
		var sp internal.SalesPerson
		var id int64
		if err := rows.Scan(&id, &sp.FirstName, &sp.LastName, &sp.Email, &sp.BranchID, &sp.Ghost); err != nil {
			return nil, err
		}
		sp.ID = strconv.FormatInt(id, 10)
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (d *DB) CreateSalesPerson(ctx context.Context, sp internal.SalesPerson) (internal.SalesPerson, error) {
	res, err := d.conn.ExecContext(ctx, `
INSERT INTO app_users (first_name, last_name, email, password, branch_id, ghost)
VALUES (?, ?, ?, ?, ?, ?)
`, sp.FirstName, sp.LastName, sp.Email, sp.PasswordHash, sp.BranchID, sp.Ghost)
	if err != nil {
		return internal.SalesPerson{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return internal.SalesPerson{}, err
	}
	sp.ID = strconv.FormatInt(id, 10)
	sp.PasswordHash = ""
	return sp, nil
}
