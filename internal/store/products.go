package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nattapongw/khlang/internal/model"
)

// CreateCategory creates a product category with its validation flags.
func CreateCategory(ctx context.Context, db *sql.DB, name string, requiresSerial, requiresMac bool) (*model.ProductCategory, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO product_categories (name, requires_serial_number, requires_mac_address)
		 VALUES (?, ?, ?)`,
		name, requiresSerial, requiresMac,
	)
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting category id: %w", err)
	}

	return GetCategory(ctx, db, id)
}

// GetCategory returns a product category by ID.
func GetCategory(ctx context.Context, db *sql.DB, id int64) (*model.ProductCategory, error) {
	c := &model.ProductCategory{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, requires_serial_number, requires_mac_address, created_at, deleted_at
		 FROM product_categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.RequiresSerialNumber, &c.RequiresMacAddress, &c.CreatedAt, &c.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	return c, nil
}

// ListCategories returns all non-deleted product categories.
func ListCategories(ctx context.Context, db *sql.DB) ([]model.ProductCategory, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, requires_serial_number, requires_mac_address, created_at, deleted_at
		 FROM product_categories WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []model.ProductCategory
	for rows.Next() {
		var c model.ProductCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.RequiresSerialNumber, &c.RequiresMacAddress, &c.CreatedAt, &c.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpdateCategory updates a category's name and validation flags. Flag
// changes apply to future item validations only; existing items are not
// re-checked.
func UpdateCategory(ctx context.Context, db *sql.DB, id int64, name string, requiresSerial, requiresMac bool) error {
	_, err := db.ExecContext(ctx,
		`UPDATE product_categories SET name = ?, requires_serial_number = ?, requires_mac_address = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		name, requiresSerial, requiresMac, id,
	)
	if err != nil {
		return fmt.Errorf("updating category: %w", err)
	}
	return nil
}

// DeleteCategory soft-deletes a category. Categories with live product
// models cannot be deleted.
func DeleteCategory(ctx context.Context, db *sql.DB, id int64) error {
	var models int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM product_models WHERE category_id = ? AND deleted_at IS NULL`, id,
	).Scan(&models)
	if err != nil {
		return fmt.Errorf("checking category models: %w", err)
	}
	if models > 0 {
		return fmt.Errorf("%w: category %d still has product models", ErrConflict, id)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE product_categories SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	return nil
}

// CreateProductModel creates a product model under a category. SellingPrice
// is in satang.
func CreateProductModel(ctx context.Context, db *sql.DB, categoryID int64, name string, sellingPrice int64) (*model.ProductModel, error) {
	cat, err := GetCategory(ctx, db, categoryID)
	if err != nil {
		return nil, err
	}
	if cat == nil || cat.DeletedAt != nil {
		return nil, fmt.Errorf("%w: category %d", ErrNotFound, categoryID)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO product_models (category_id, name, selling_price) VALUES (?, ?, ?)`,
		categoryID, name, sellingPrice,
	)
	if err != nil {
		return nil, fmt.Errorf("creating product model: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting product model id: %w", err)
	}

	return GetProductModel(ctx, db, id)
}

// GetProductModel returns a product model by ID with its category name.
func GetProductModel(ctx context.Context, db *sql.DB, id int64) (*model.ProductModel, error) {
	m := &model.ProductModel{}
	err := db.QueryRowContext(ctx,
		`SELECT pm.id, pm.category_id, pm.name, pm.selling_price, pm.created_at, pm.deleted_at,
		        pc.name AS category_name
		 FROM product_models pm
		 JOIN product_categories pc ON pc.id = pm.category_id
		 WHERE pm.id = ?`, id,
	).Scan(&m.ID, &m.CategoryID, &m.Name, &m.SellingPrice, &m.CreatedAt, &m.DeletedAt, &m.CategoryName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product model: %w", err)
	}
	return m, nil
}

// ListProductModels returns non-deleted product models, optionally filtered
// by category.
func ListProductModels(ctx context.Context, db *sql.DB, categoryID int64) ([]model.ProductModel, error) {
	query := `SELECT pm.id, pm.category_id, pm.name, pm.selling_price, pm.created_at, pm.deleted_at,
	                 pc.name AS category_name
	          FROM product_models pm
	          JOIN product_categories pc ON pc.id = pm.category_id
	          WHERE pm.deleted_at IS NULL`
	var args []any

	if categoryID > 0 {
		query += ` AND pm.category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY pc.name, pm.name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing product models: %w", err)
	}
	defer rows.Close()

	var models []model.ProductModel
	for rows.Next() {
		var m model.ProductModel
		if err := rows.Scan(&m.ID, &m.CategoryID, &m.Name, &m.SellingPrice, &m.CreatedAt, &m.DeletedAt, &m.CategoryName); err != nil {
			return nil, fmt.Errorf("scanning product model: %w", err)
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

// UpdateProductModel updates a model's name and selling price. Price
// changes affect future sales only: completed sales keep their frozen
// totals.
func UpdateProductModel(ctx context.Context, db *sql.DB, id int64, name string, sellingPrice int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE product_models SET name = ?, selling_price = ? WHERE id = ? AND deleted_at IS NULL`,
		name, sellingPrice, id,
	)
	if err != nil {
		return fmt.Errorf("updating product model: %w", err)
	}
	return nil
}

// DeleteProductModel soft-deletes a product model. Models with items still
// in inventory cannot be deleted.
func DeleteProductModel(ctx context.Context, db *sql.DB, id int64) error {
	var items int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE product_model_id = ?`, id,
	).Scan(&items)
	if err != nil {
		return fmt.Errorf("checking model items: %w", err)
	}
	if items > 0 {
		return fmt.Errorf("%w: product model %d still has items", ErrConflict, id)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE product_models SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting product model: %w", err)
	}
	return nil
}
