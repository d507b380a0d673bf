package model

import "time"

// ProductCategory groups product models and carries the validation
// requirements applied to every item created or updated under it.
type ProductCategory struct {
	ID                   int64      `json:"id"`
	Name                 string     `json:"name"`
	RequiresSerialNumber bool       `json:"requires_serial_number"`
	RequiresMacAddress   bool       `json:"requires_mac_address"`
	CreatedAt            time.Time  `json:"created_at"`
	DeletedAt            *time.Time `json:"deleted_at,omitempty"`
}

// ProductModel is a purchasable model within a category. SellingPrice is in
// satang and is read at sale time to compute the sale subtotal.
type ProductModel struct {
	ID           int64      `json:"id"`
	CategoryID   int64      `json:"category_id"`
	Name         string     `json:"name"`
	SellingPrice int64      `json:"selling_price"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`

	// Joined fields (not always populated).
	CategoryName string `json:"category_name,omitempty"`
}
