package model

import "time"

// Borrowing represents items lent to a customer, expected back by DueDate.
// Items can be returned a few at a time; the borrowing closes only when the
// last one comes back.
type Borrowing struct {
	ID           int64      `json:"id"`
	CustomerID   int64      `json:"customer_id"`
	ApprovedByID *int64     `json:"approved_by_id,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Status       string     `json:"status"`
	BorrowDate   time.Time  `json:"borrow_date"`
	ReturnDate   *time.Time `json:"return_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`

	// Joined fields (not always populated).
	CustomerName   string         `json:"customer_name,omitempty"`
	ApprovedByName string         `json:"approved_by_name,omitempty"`
	Items          []BorrowedItem `json:"items,omitempty"`
}

// BorrowedItem is an item on a borrowing together with its per-item return
// timestamp (nil while still out).
type BorrowedItem struct {
	Item
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

// Borrowing statuses. The status is computed from the join rows, never set
// directly by a caller.
const (
	BorrowingActive   = "borrowed"
	BorrowingReturned = "returned"
)
