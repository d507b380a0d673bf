package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nattapongw/khlang/internal/model"
)

// CreateCustomer creates a new customer.
func CreateCustomer(ctx context.Context, db *sql.DB, name, phone, email, address string) (*model.Customer, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO customers (name, phone, email, address) VALUES (?, ?, ?, ?)`,
		name, phone, email, address,
	)
	if err != nil {
		return nil, fmt.Errorf("creating customer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting customer id: %w", err)
	}

	return GetCustomer(ctx, db, id)
}

// GetCustomer returns a customer by ID.
func GetCustomer(ctx context.Context, db *sql.DB, id int64) (*model.Customer, error) {
	c := &model.Customer{}
	var phone, email, address sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, phone, email, address, created_at, deleted_at
		 FROM customers WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &phone, &email, &address, &c.CreatedAt, &c.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting customer: %w", err)
	}
	c.Phone = phone.String
	c.Email = email.String
	c.Address = address.String
	return c, nil
}

// ListCustomers returns all non-deleted customers, optionally filtered by a
// name substring.
func ListCustomers(ctx context.Context, db *sql.DB, search string) ([]model.Customer, error) {
	query := `SELECT id, name, phone, email, address, created_at, deleted_at
	          FROM customers WHERE deleted_at IS NULL`
	var args []any

	if search != "" {
		query += ` AND name LIKE ?`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var c model.Customer
		var phone, email, address sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &phone, &email, &address, &c.CreatedAt, &c.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
		c.Phone = phone.String
		c.Email = email.String
		c.Address = address.String
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// UpdateCustomer updates a customer's details.
func UpdateCustomer(ctx context.Context, db *sql.DB, id int64, name, phone, email, address string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE customers SET name = ?, phone = ?, email = ?, address = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		name, phone, email, address, id,
	)
	if err != nil {
		return fmt.Errorf("updating customer: %w", err)
	}
	return nil
}

// DeleteCustomer soft-deletes a customer. Customers with open borrowings
// cannot be deleted.
func DeleteCustomer(ctx context.Context, db *sql.DB, id int64) error {
	var open int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM borrowings WHERE customer_id = ? AND status = ?`,
		id, model.BorrowingActive,
	).Scan(&open)
	if err != nil {
		return fmt.Errorf("checking open borrowings: %w", err)
	}
	if open > 0 {
		return fmt.Errorf("%w: customer %d has open borrowings", ErrConflict, id)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE customers SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting customer: %w", err)
	}
	return nil
}
