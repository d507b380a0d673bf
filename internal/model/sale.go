package model

import "time"

// Sale represents a completed or voided sale of one or more items to a
// customer. Sales are append-only history: voiding releases the items but
// the record itself is never deleted.
type Sale struct {
	ID         int64      `json:"id"`
	CustomerID int64      `json:"customer_id"`
	SoldByID   *int64     `json:"sold_by_id,omitempty"`
	Subtotal   int64      `json:"subtotal"`
	VatAmount  int64      `json:"vat_amount"`
	Total      int64      `json:"total"`
	TotalCost  int64      `json:"total_cost"`
	Notes      string     `json:"notes,omitempty"`
	Status     string     `json:"status"`
	SaleDate   time.Time  `json:"sale_date"`
	VoidedAt   *time.Time `json:"voided_at,omitempty"`
	VoidedByID *int64     `json:"voided_by_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`

	// Joined fields (not always populated).
	CustomerName string `json:"customer_name,omitempty"`
	SoldByName   string `json:"sold_by_name,omitempty"`
	Items        []Item `json:"items,omitempty"`
}

// Sale statuses.
const (
	SaleCompleted = "completed"
	SaleVoided    = "voided"
)

// VatRatePercent is the value-added tax rate applied to every sale.
const VatRatePercent = 7

// VatAmount computes the VAT for a subtotal in satang. Integer math: the
// subtotal is already in minor units, so truncation loses less than one
// satang.
func VatAmount(subtotal int64) int64 {
	return subtotal * VatRatePercent / 100
}
