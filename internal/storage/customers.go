package storage

import (
	"context"
	"strconv"

	"orderdesk/internal"
)

func (d *DB) ListCustomers(ctx context.Context) ([]internal.Customer, error) {
	rows, err := d.conn.QueryContext(ctx, `
SELECT id, name, email, contact_no, billing_address, delivery_address, sales_person_id, branch
FROM customers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Customer
	for rows.Next() {
		var c internal.Customer
		var id int64
		if err := rows.Scan(&id, &c.Name, &c.Email, &c.ContactNo, &c.BillingAddress, &c.DeliveryAddress, &c.SalesPersonID, &c.Branch); err != nil {
			return nil, err
		}
		c.ID = strconv.FormatInt(id, 10)
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertCustomer adds one customer. An existing (name, sales_person_id)
// pair is an error.
func (d *DB) InsertCustomer(ctx context.Context, in internal.CustomerUpsert) (internal.Customer, error) {
	res, err := d.conn.ExecContext(ctx, `
INSERT INTO customers (sales_person_id, name, email, contact_no, billing_address, delivery_address, branch)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, in.SalesPersonID, in.Name, in.Email, in.ContactNo, in.BillingAddress, in.DeliveryAddress, in.Branch)
	if err != nil {
		return internal.Customer{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return internal.Customer{}, err
	}
	return internal.Customer{
		ID:              strconv.FormatInt(id, 10),
		Name:            in.Name,
		Email:           in.Email,
		ContactNo:       in.ContactNo,
		BillingAddress:  in.BillingAddress,
		DeliveryAddress: in.DeliveryAddress,
		SalesPersonID:   in.SalesPersonID,
		Branch:          in.Branch,
	}, nil
}

func (d *DB) UpsertCustomers(ctx context.Context, batch []internal.CustomerUpsert) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO customers (sales_person_id, name, email, contact_no, billing_address, delivery_address, branch)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(name, sales_person_id) DO UPDATE SET
  email=excluded.email,
  contact_no=excluded.contact_no,
  billing_address=excluded.billing_address,
  delivery_address=excluded.delivery_address,
  branch=excluded.branch
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range batch {
		if _, err := stmt.ExecContext(ctx, c.SalesPersonID, c.Name, c.Email, c.ContactNo, c.BillingAddress, c.DeliveryAddress, c.Branch); err != nil {
			return err
		}
	}

	return tx.Commit()
}
