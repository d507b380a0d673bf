package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nattapongw/khlang/internal/model"
)

// CreateBorrowingInput describes lending in-stock items to a customer.
// BorrowDate backdates the borrowing and its events for data migration.
type CreateBorrowingInput struct {
	CustomerID int64
	ItemIDs    []int64
	DueDate    *time.Time
	Notes      string
	ActorID    *int64
	BorrowDate *time.Time
}

// CreateBorrowing lends the given items to a customer as one atomic unit.
// Uses the same in-transaction availability guard as CreateSale: a
// concurrent claim on any requested item aborts the whole batch.
func CreateBorrowing(ctx context.Context, db *sql.DB, input CreateBorrowingInput) (*model.Borrowing, error) {
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

	items, err := claimableItems(ctx, tx, input.ItemIDs, model.TransitionBorrow)
	if err != nil {
		return nil, err
	}

	var dueDate any
	if input.DueDate != nil {
		dueDate = input.DueDate.UTC()
	}

	var result sql.Result
	if input.BorrowDate == nil {
		result, err = tx.ExecContext(ctx,
			`INSERT INTO borrowings (customer_id, approved_by_id, due_date, notes, status)
			 VALUES (?, ?, ?, ?, ?)`,
			input.CustomerID, input.ActorID, dueDate, input.Notes, model.BorrowingActive,
		)
	} else {
		result, err = tx.ExecContext(ctx,
			`INSERT INTO borrowings (customer_id, approved_by_id, due_date, notes, status, borrow_date)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			input.CustomerID, input.ActorID, dueDate, input.Notes, model.BorrowingActive,
			input.BorrowDate.UTC(),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("inserting borrowing: %w", err)
	}

	borrowingID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting borrowing id: %w", err)
	}

	var at time.Time
	if input.BorrowDate != nil {
		at = *input.BorrowDate
	}
	details := model.EventDetails{
		Message:      fmt.Sprintf("borrowed by %s", customerName),
		BorrowingID:  &borrowingID,
		CustomerName: customerName,
	}

	for _, it := range items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO borrowing_items (borrowing_id, item_id) VALUES (?, ?)`,
			borrowingID, it.id,
		); err != nil {
			return nil, fmt.Errorf("linking borrowed item: %w", err)
		}
		if err := applyTransition(ctx, tx, it.id, model.TransitionBorrow); err != nil {
			return nil, err
		}
		if err := appendEvent(ctx, tx, it.id, input.ActorID, model.EventBorrow, details, at); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing borrowing: %w", err)
	}

	return GetBorrowing(ctx, db, borrowingID)
}

// ReturnBorrowedItems records the return of some (possibly all) items of a
// borrowing. Each returned item gets its join-row timestamp, goes back to
// stock and gets a return event. The remaining-unreturned count is
// recomputed inside the same transaction, so two partial returns cannot
// both leave the borrowing open when the last item comes back.
func ReturnBorrowedItems(ctx context.Context, db *sql.DB, borrowingID int64, itemIDs []int64, actorID *int64) (*model.Borrowing, error) {
	if len(itemIDs) == 0 {
		return nil, fmt.Errorf("%w: no items given", ErrInvalidInput)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var customerName string
	err = tx.QueryRowContext(ctx,
		`SELECT c.name FROM borrowings b JOIN customers c ON c.id = b.customer_id WHERE b.id = ?`,
		borrowingID,
	).Scan(&customerName)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: borrowing %d", ErrNotFound, borrowingID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading borrowing: %w", err)
	}

	// Stamp only join rows that are still open; an id that isn't part of
	// this borrowing, or was already returned, fails the whole call.
	args := []any{borrowingID}
	for _, id := range itemIDs {
		args = append(args, id)
	}
	result, err := tx.ExecContext(ctx,
		`UPDATE borrowing_items SET returned_at = CURRENT_TIMESTAMP
		 WHERE borrowing_id = ? AND item_id IN (`+placeholders(len(itemIDs))+`)
		   AND returned_at IS NULL`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("recording returns: %w", err)
	}
	if n, _ := result.RowsAffected(); n != int64(len(itemIDs)) {
		return nil, fmt.Errorf("%w: %d of %d items are not out on this borrowing",
			ErrConflict, int64(len(itemIDs))-n, len(itemIDs))
	}

	details := model.EventDetails{
		Message:      fmt.Sprintf("returned by %s", customerName),
		BorrowingID:  &borrowingID,
		CustomerName: customerName,
	}
	for _, id := range itemIDs {
		if err := applyTransition(ctx, tx, id, model.TransitionReturn); err != nil {
			return nil, err
		}
		if err := appendEvent(ctx, tx, id, actorID, model.EventReturnFromBorrow, details, time.Time{}); err != nil {
			return nil, err
		}
	}

	// Close the borrowing once nothing is left out. Computed inside this
	// transaction so concurrent partial returns cannot both see a remainder.
	var remaining int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM borrowing_items WHERE borrowing_id = ? AND returned_at IS NULL`,
		borrowingID,
	).Scan(&remaining)
	if err != nil {
		return nil, fmt.Errorf("counting unreturned items: %w", err)
	}
	if remaining == 0 {
		_, err = tx.ExecContext(ctx,
			`UPDATE borrowings SET status = ?, return_date = CURRENT_TIMESTAMP WHERE id = ?`,
			model.BorrowingReturned, borrowingID,
		)
		if err != nil {
			return nil, fmt.Errorf("closing borrowing: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing returns: %w", err)
	}

	return GetBorrowing(ctx, db, borrowingID)
}

// GetBorrowing returns a borrowing with customer, approver and items (with
// per-item return timestamps) expanded, or nil if it doesn't exist.
func GetBorrowing(ctx context.Context, db *sql.DB, id int64) (*model.Borrowing, error) {
	b := &model.Borrowing{}
	var notes sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT b.id, b.customer_id, b.approved_by_id, b.due_date, b.notes, b.status,
		        b.borrow_date, b.return_date, b.created_at,
		        c.name AS customer_name, COALESCE(u.username, '') AS approved_by_name
		 FROM borrowings b
		 JOIN customers c ON c.id = b.customer_id
		 LEFT JOIN users u ON u.id = b.approved_by_id
		 WHERE b.id = ?`, id,
	).Scan(&b.ID, &b.CustomerID, &b.ApprovedByID, &b.DueDate, &notes, &b.Status,
		&b.BorrowDate, &b.ReturnDate, &b.CreatedAt, &b.CustomerName, &b.ApprovedByName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting borrowing: %w", err)
	}
	b.Notes = notes.String

	rows, err := db.QueryContext(ctx,
		itemSelect+`
		 JOIN borrowing_items bi ON bi.item_id = i.id
		 WHERE bi.borrowing_id = ?
		 ORDER BY i.id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("listing borrowed items: %w", err)
	}
	defer rows.Close()

	// Re-read the join timestamps alongside; a second small query keeps the
	// shared item scanner untouched.
	returnedAt := map[int64]*time.Time{}
	jr, err := db.QueryContext(ctx,
		`SELECT item_id, returned_at FROM borrowing_items WHERE borrowing_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("listing return timestamps: %w", err)
	}
	for jr.Next() {
		var itemID int64
		var ts *time.Time
		if err := jr.Scan(&itemID, &ts); err != nil {
			jr.Close()
			return nil, fmt.Errorf("scanning return timestamp: %w", err)
		}
		returnedAt[itemID] = ts
	}
	jr.Close()
	if err := jr.Err(); err != nil {
		return nil, fmt.Errorf("iterating return timestamps: %w", err)
	}

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning borrowed item: %w", err)
		}
		b.Items = append(b.Items, model.BorrowedItem{Item: *item, ReturnedAt: returnedAt[item.ID]})
	}
	return b, rows.Err()
}

// ListBorrowings returns borrowings, optionally filtered by status, newest
// first.
func ListBorrowings(ctx context.Context, db *sql.DB, status string) ([]model.Borrowing, error) {
	query := `SELECT b.id, b.customer_id, b.approved_by_id, b.due_date, b.notes, b.status,
	                 b.borrow_date, b.return_date, b.created_at,
	                 c.name AS customer_name, COALESCE(u.username, '') AS approved_by_name
	          FROM borrowings b
	          JOIN customers c ON c.id = b.customer_id
	          LEFT JOIN users u ON u.id = b.approved_by_id`
	var args []any

	if status != "" {
		query += ` WHERE b.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY b.borrow_date DESC, b.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing borrowings: %w", err)
	}
	defer rows.Close()

	var borrowings []model.Borrowing
	for rows.Next() {
		var b model.Borrowing
		var notes sql.NullString
		if err := rows.Scan(&b.ID, &b.CustomerID, &b.ApprovedByID, &b.DueDate, &notes, &b.Status,
			&b.BorrowDate, &b.ReturnDate, &b.CreatedAt, &b.CustomerName, &b.ApprovedByName); err != nil {
			return nil, fmt.Errorf("scanning borrowing: %w", err)
		}
		b.Notes = notes.String
		borrowings = append(borrowings, b)
	}
	return borrowings, rows.Err()
}
