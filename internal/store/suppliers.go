package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nattapongw/khlang/internal/model"
)

// CreateSupplier creates a new supplier.
func CreateSupplier(ctx context.Context, db *sql.DB, name, phone string) (*model.Supplier, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO suppliers (name, phone) VALUES (?, ?)`,
		name, phone,
	)
	if err != nil {
		return nil, fmt.Errorf("creating supplier: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting supplier id: %w", err)
	}

	return GetSupplier(ctx, db, id)
}

// GetSupplier returns a supplier by ID.
func GetSupplier(ctx context.Context, db *sql.DB, id int64) (*model.Supplier, error) {
	s := &model.Supplier{}
	var phone sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, phone, created_at, deleted_at FROM suppliers WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &phone, &s.CreatedAt, &s.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting supplier: %w", err)
	}
	s.Phone = phone.String
	return s, nil
}

// ListSuppliers returns all non-deleted suppliers.
func ListSuppliers(ctx context.Context, db *sql.DB) ([]model.Supplier, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, phone, created_at, deleted_at
		 FROM suppliers WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []model.Supplier
	for rows.Next() {
		var s model.Supplier
		var phone sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &phone, &s.CreatedAt, &s.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning supplier: %w", err)
		}
		s.Phone = phone.String
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

// UpdateSupplier updates a supplier's details.
func UpdateSupplier(ctx context.Context, db *sql.DB, id int64, name, phone string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE suppliers SET name = ?, phone = ? WHERE id = ? AND deleted_at IS NULL`,
		name, phone, id,
	)
	if err != nil {
		return fmt.Errorf("updating supplier: %w", err)
	}
	return nil
}

// DeleteSupplier soft-deletes a supplier. Items keep their reference for
// history.
func DeleteSupplier(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE suppliers SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting supplier: %w", err)
	}
	return nil
}
