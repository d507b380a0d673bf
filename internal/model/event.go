package model

import (
	"encoding/json"
	"time"
)

// EventLog is one row of the append-only audit trail. Rows are written
// inside the same transaction as the status change they document and are
// never updated or deleted afterwards (the only exception is the cascade
// when a history-free item is hard-deleted).
type EventLog struct {
	ID        int64           `json:"id"`
	ItemID    int64           `json:"item_id"`
	UserID    *int64          `json:"user_id,omitempty"`
	EventType string          `json:"event_type"`
	Details   json.RawMessage `json:"details"`
	CreatedAt time.Time       `json:"created_at"`

	// Joined fields (not always populated).
	Username string `json:"username,omitempty"`
}

// Event types.
const (
	EventCreate           = "create"
	EventUpdate           = "update"
	EventSale             = "sale"
	EventVoidSale         = "void_sale"
	EventBorrow           = "borrow"
	EventReturnFromBorrow = "return_from_borrow"
	EventReserve          = "reserve"
	EventUnreserve        = "unreserve"
	EventMarkDefective    = "mark_defective"
	EventMarkInStock      = "mark_in_stock"
	EventDecommission     = "decommission"
	EventReinstate        = "reinstate"
	EventAssign           = "assign"
	EventUnassign         = "unassign"
	EventSendRepair       = "send_repair"
	EventFinishRepair     = "finish_repair"
	EventPhoto            = "photo"
)

// EventDetails is the structured payload stored with each event. Events
// linked to a sale or borrowing carry the transaction id and customer name
// so the audit trail reads without extra lookups.
type EventDetails struct {
	Message      string `json:"message,omitempty"`
	SaleID       *int64 `json:"sale_id,omitempty"`
	BorrowingID  *int64 `json:"borrowing_id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
}
