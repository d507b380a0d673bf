package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nattapongw/khlang/internal/model"
)

// CreateSaleInput describes a sale of in-stock items to a customer.
// SaleDate backdates the sale and its events for data migration; when nil
// the database clock is used.
type CreateSaleInput struct {
	CustomerID int64
	ItemIDs    []int64
	Notes      string
	ActorID    *int64
	SaleDate   *time.Time
}

// CreateSale sells the given items to a customer as one atomic unit:
// availability check, totals, the sale row, the item updates and one sale
// event per item all commit or roll back together.
//
// The availability check is the concurrency guard: items are selected with
// the in-stock predicate inside the transaction and the returned count is
// compared to the requested count. A concurrent sale that already claimed
// an item makes this under-count and the whole batch aborts. Re-submitting
// a completed sale fails the same way, which is the at-most-once guarantee.
func CreateSale(ctx context.Context, db *sql.DB, input CreateSaleInput) (*model.Sale, error) {
	if len(input.ItemIDs) == 0 {
		return nil, fmt.Errorf("%w: no items given", ErrInvalidInput)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	customerName, err := getCustomerName(ctx, tx, input.CustomerID)
	if err != nil {
		return nil, err
	}

	items, err := claimableItems(ctx, tx, input.ItemIDs, model.TransitionSell)
	if err != nil {
		return nil, err
	}

	var subtotal, totalCost int64
	for _, it := range items {
		subtotal += it.sellingPrice
		totalCost += it.purchasePrice
	}
	vat := model.VatAmount(subtotal)
	total := subtotal + vat

	var result sql.Result
	if input.SaleDate == nil {
		result, err = tx.ExecContext(ctx,
			`INSERT INTO sales (customer_id, sold_by_id, subtotal, vat_amount, total, total_cost, notes, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			input.CustomerID, input.ActorID, subtotal, vat, total, totalCost, input.Notes, model.SaleCompleted,
		)
	} else {
		result, err = tx.ExecContext(ctx,
			`INSERT INTO sales (customer_id, sold_by_id, subtotal, vat_amount, total, total_cost, notes, status, sale_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			input.CustomerID, input.ActorID, subtotal, vat, total, totalCost, input.Notes, model.SaleCompleted,
			input.SaleDate.UTC(),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("inserting sale: %w", err)
	}

	saleID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting sale id: %w", err)
	}

	args := []any{model.StatusSold, saleID}
	for _, id := range input.ItemIDs {
		args = append(args, id)
	}
	upd, err := tx.ExecContext(ctx,
		`UPDATE items SET status = ?, sale_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id IN (`+placeholders(len(input.ItemIDs))+`) AND status = 'in_stock'`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("marking items sold: %w", err)
	}
	if n, _ := upd.RowsAffected(); n != int64(len(input.ItemIDs)) {
		return nil, fmt.Errorf("%w: items changed status while selling", ErrConflict)
	}

	var at time.Time
	if input.SaleDate != nil {
		at = *input.SaleDate
	}
	details := model.EventDetails{
		Message:      fmt.Sprintf("sold to %s", customerName),
		SaleID:       &saleID,
		CustomerName: customerName,
	}
	for _, it := range items {
		if err := appendEvent(ctx, tx, it.id, input.ActorID, model.EventSale, details, at); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing sale: %w", err)
	}

	return GetSale(ctx, db, saleID)
}

// VoidSale reverses a sale: items return to stock, a void event is written
// per item and the sale is marked voided. The sale row and each item's
// sale_id are kept so the history remains traceable; only the live status
// reverts. Voiding twice fails with a conflict.
func VoidSale(ctx context.Context, db *sql.DB, saleID int64, actorID *int64) (*model.Sale, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM sales WHERE id = ?`, saleID).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: sale %d", ErrNotFound, saleID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading sale: %w", err)
	}
	if status == model.SaleVoided {
		return nil, fmt.Errorf("%w: sale %d is already voided", ErrConflict, saleID)
	}

	rows, err := tx.QueryContext(ctx, `SELECT id FROM items WHERE sale_id = ?`, saleID)
	if err != nil {
		return nil, fmt.Errorf("loading sold items: %w", err)
	}
	var itemIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning sold item: %w", err)
		}
		itemIDs = append(itemIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sold items: %w", err)
	}

	for _, id := range itemIDs {
		if err := applyTransition(ctx, tx, id, model.TransitionVoidSale); err != nil {
			return nil, err
		}
		details := model.EventDetails{
			Message: fmt.Sprintf("sale %d voided, item back in stock", saleID),
			SaleID:  &saleID,
		}
		if err := appendEvent(ctx, tx, id, actorID, model.EventVoidSale, details, time.Time{}); err != nil {
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE sales SET status = ?, voided_at = CURRENT_TIMESTAMP, voided_by_id = ? WHERE id = ?`,
		model.SaleVoided, actorID, saleID,
	)
	if err != nil {
		return nil, fmt.Errorf("voiding sale: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing void: %w", err)
	}

	return GetSale(ctx, db, saleID)
}

// GetSale returns a sale with customer, seller and sold items expanded, or
// nil if it doesn't exist.
func GetSale(ctx context.Context, db *sql.DB, id int64) (*model.Sale, error) {
	s := &model.Sale{}
	var notes sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT s.id, s.customer_id, s.sold_by_id, s.subtotal, s.vat_amount, s.total,
		        s.total_cost, s.notes, s.status, s.sale_date, s.voided_at, s.voided_by_id,
		        s.created_at, c.name AS customer_name, COALESCE(u.username, '') AS sold_by_name
		 FROM sales s
		 JOIN customers c ON c.id = s.customer_id
		 LEFT JOIN users u ON u.id = s.sold_by_id
		 WHERE s.id = ?`, id,
	).Scan(&s.ID, &s.CustomerID, &s.SoldByID, &s.Subtotal, &s.VatAmount, &s.Total,
		&s.TotalCost, &notes, &s.Status, &s.SaleDate, &s.VoidedAt, &s.VoidedByID,
		&s.CreatedAt, &s.CustomerName, &s.SoldByName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting sale: %w", err)
	}
	s.Notes = notes.String

	rows, err := db.QueryContext(ctx, itemSelect+` WHERE i.sale_id = ? ORDER BY i.id`, id)
	if err != nil {
		return nil, fmt.Errorf("listing sold items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sold item: %w", err)
		}
		s.Items = append(s.Items, *item)
	}
	return s, rows.Err()
}

// ListSales returns sales, optionally filtered by status, newest first.
func ListSales(ctx context.Context, db *sql.DB, status string) ([]model.Sale, error) {
	query := `SELECT s.id, s.customer_id, s.sold_by_id, s.subtotal, s.vat_amount, s.total,
	                 s.total_cost, s.notes, s.status, s.sale_date, s.voided_at, s.voided_by_id,
	                 s.created_at, c.name AS customer_name, COALESCE(u.username, '') AS sold_by_name
	          FROM sales s
	          JOIN customers c ON c.id = s.customer_id
	          LEFT JOIN users u ON u.id = s.sold_by_id`
	var args []any

	if status != "" {
		query += ` WHERE s.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY s.sale_date DESC, s.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	defer rows.Close()

	var sales []model.Sale
	for rows.Next() {
		var s model.Sale
		var notes sql.NullString
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.SoldByID, &s.Subtotal, &s.VatAmount, &s.Total,
			&s.TotalCost, &notes, &s.Status, &s.SaleDate, &s.VoidedAt, &s.VoidedByID,
			&s.CreatedAt, &s.CustomerName, &s.SoldByName); err != nil {
			return nil, fmt.Errorf("scanning sale: %w", err)
		}
		s.Notes = notes.String
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// claimedItem is the slice of item fields the aggregate operations need
// while holding the transaction.
type claimedItem struct {
	id            int64
	purchasePrice int64
	sellingPrice  int64
}

// claimableItems loads the requested items that are currently in the
// transition's expected status, inside the caller's transaction. A count
// mismatch means an id was missing, duplicated or not claimable and fails
// the whole operation.
func claimableItems(ctx context.Context, tx *sql.Tx, itemIDs []int64, t model.Transition) ([]claimedItem, error) {
	args := make([]any, 0, len(itemIDs)+1)
	for _, id := range itemIDs {
		args = append(args, id)
	}
	for _, s := range t.From {
		args = append(args, s)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT i.id, i.purchase_price, pm.selling_price
		 FROM items i
		 JOIN product_models pm ON pm.id = i.product_model_id
		 WHERE i.id IN (`+placeholders(len(itemIDs))+`)
		   AND i.status IN (`+placeholders(len(t.From))+`)
		   AND i.item_type = 'sale'`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	defer rows.Close()

	var items []claimedItem
	for rows.Next() {
		var it claimedItem
		if err := rows.Scan(&it.id, &it.purchasePrice, &it.sellingPrice); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}

	if len(items) != len(itemIDs) {
		return nil, fmt.Errorf("%w: %d of %d items are not available (missing, duplicate or not in stock)",
			ErrConflict, len(itemIDs)-len(items), len(itemIDs))
	}
	return items, nil
}

// getCustomerName loads a customer's name on the operation's transaction.
func getCustomerName(ctx context.Context, tx *sql.Tx, customerID int64) (string, error) {
	var name string
	err := tx.QueryRowContext(ctx,
		`SELECT name FROM customers WHERE id = ? AND deleted_at IS NULL`, customerID,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: customer %d", ErrNotFound, customerID)
	}
	if err != nil {
		return "", fmt.Errorf("loading customer: %w", err)
	}
	return name, nil
}
