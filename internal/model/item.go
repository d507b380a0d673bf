package model

import "time"

// Item represents a single physical inventory unit, tracked individually
// by serial number rather than by quantity.
type Item struct {
	ID             int64     `json:"id"`
	ItemType       string    `json:"item_type"`
	OwnerType      string    `json:"owner_type"`
	SerialNumber   string    `json:"serial_number,omitempty"`
	MacAddress     string    `json:"mac_address,omitempty"`
	Status         string    `json:"status"`
	Notes          string    `json:"notes,omitempty"`
	PurchasePrice  int64     `json:"purchase_price"`
	ProductModelID int64     `json:"product_model_id"`
	SupplierID     *int64    `json:"supplier_id,omitempty"`
	AddedByID      *int64    `json:"added_by_id,omitempty"`
	SaleID         *int64    `json:"sale_id,omitempty"`
	ImageMime      string    `json:"image_mime,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	ProductModelName string `json:"product_model_name,omitempty"`
	CategoryName     string `json:"category_name,omitempty"`
	SellingPrice     int64  `json:"selling_price,omitempty"`
	SupplierName     string `json:"supplier_name,omitempty"`
}

// Item tracks: sale items are consumable stock sold to customers, asset
// items are reusable company equipment.
const (
	TrackSale  = "sale"
	TrackAsset = "asset"
)

// Owner types.
const (
	OwnerCompany  = "company"
	OwnerCustomer = "customer"
)

// Sale-track statuses.
const (
	StatusInStock        = "in_stock"
	StatusReserved       = "reserved"
	StatusDefective      = "defective"
	StatusBorrowed       = "borrowed"
	StatusSold           = "sold"
	StatusDecommissioned = "decommissioned"
)

// Asset-track statuses (defective and decommissioned are shared).
const (
	StatusInWarehouse = "in_warehouse"
	StatusAssigned    = "assigned"
	StatusInRepair    = "in_repair"
)

var saleStatuses = []string{
	StatusInStock, StatusReserved, StatusDefective,
	StatusBorrowed, StatusSold, StatusDecommissioned,
}

var assetStatuses = []string{
	StatusInWarehouse, StatusAssigned, StatusDefective,
	StatusInRepair, StatusDecommissioned,
}

// ValidStatus reports whether status is a legal value for the given track.
func ValidStatus(track, status string) bool {
	for _, s := range trackStatuses(track) {
		if s == status {
			return true
		}
	}
	return false
}

func trackStatuses(track string) []string {
	if track == TrackAsset {
		return assetStatuses
	}
	return saleStatuses
}

// BaseStatus is the status a freshly acquired item starts in.
func BaseStatus(track string) string {
	if track == TrackAsset {
		return StatusInWarehouse
	}
	return StatusInStock
}

// Transition describes a guarded status change: the item must currently be
// in one of the From statuses for the change to apply. Every status change
// in the system goes through a Transition so the legality rules live in
// exactly one place.
type Transition struct {
	Name  string
	From  []string
	To    string
	Event string
}

// Named transitions exposed as single-item operations. Sales and borrowings
// use the dedicated transitions further down, applied in bulk by the
// aggregate operations.
var saleTransitions = []Transition{
	{Name: "reserve", From: []string{StatusInStock}, To: StatusReserved, Event: EventReserve},
	{Name: "unreserve", From: []string{StatusReserved}, To: StatusInStock, Event: EventUnreserve},
	{Name: "defective", From: []string{StatusInStock}, To: StatusDefective, Event: EventMarkDefective},
	{Name: "in-stock", From: []string{StatusDefective}, To: StatusInStock, Event: EventMarkInStock},
	{Name: "decommission", From: []string{StatusInStock, StatusDefective}, To: StatusDecommissioned, Event: EventDecommission},
	{Name: "reinstate", From: []string{StatusDecommissioned}, To: StatusInStock, Event: EventReinstate},
}

var assetTransitions = []Transition{
	{Name: "assign", From: []string{StatusInWarehouse}, To: StatusAssigned, Event: EventAssign},
	{Name: "unassign", From: []string{StatusAssigned}, To: StatusInWarehouse, Event: EventUnassign},
	{Name: "defective", From: []string{StatusInWarehouse, StatusAssigned}, To: StatusDefective, Event: EventMarkDefective},
	{Name: "repair", From: []string{StatusInWarehouse, StatusDefective}, To: StatusInRepair, Event: EventSendRepair},
	{Name: "repair-done", From: []string{StatusInRepair}, To: StatusInWarehouse, Event: EventFinishRepair},
	{Name: "in-stock", From: []string{StatusDefective}, To: StatusInWarehouse, Event: EventMarkInStock},
	{Name: "decommission", From: []string{StatusInWarehouse, StatusDefective}, To: StatusDecommissioned, Event: EventDecommission},
	{Name: "reinstate", From: []string{StatusDecommissioned}, To: StatusInWarehouse, Event: EventReinstate},
}

// Transitions used only by the aggregate operations. They are not reachable
// through the named single-item endpoints: a sold item can only leave the
// sold status by voiding its sale.
var (
	TransitionSell = Transition{
		Name: "sell", From: []string{StatusInStock}, To: StatusSold, Event: EventSale,
	}
	TransitionVoidSale = Transition{
		Name: "void-sale", From: []string{StatusSold}, To: StatusInStock, Event: EventVoidSale,
	}
	TransitionBorrow = Transition{
		Name: "borrow", From: []string{StatusInStock}, To: StatusBorrowed, Event: EventBorrow,
	}
	TransitionReturn = Transition{
		Name: "return", From: []string{StatusBorrowed}, To: StatusInStock, Event: EventReturnFromBorrow,
	}
)

// TransitionFor looks up a named transition for the given track.
func TransitionFor(track, name string) (Transition, bool) {
	transitions := saleTransitions
	if track == TrackAsset {
		transitions = assetTransitions
	}
	for _, t := range transitions {
		if t.Name == name {
			return t, true
		}
	}
	return Transition{}, false
}
