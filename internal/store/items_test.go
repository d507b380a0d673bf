package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nattapongw/khlang/internal/model"
)

func TestCreateItemsRejectsWholeBatchOnOneBadUnit(t *testing.T) {
	database := newStoreTestDB(t)
	ctx := context.Background()

	cat := testCategory(t, database, "Routers", true, true)
	pm := testModel(t, database, cat.ID, "RT-AX55", 150000)

	_, err := CreateItems(ctx, database, CreateItemsInput{
		ProductModelID: pm.ID,
		ItemType:       model.TrackSale,
		PurchasePrice:  100000,
		Units: []ItemUnit{
			{SerialNumber: "SN-A1", MacAddress: "AA:BB:CC:DD:EE:01"},
			{SerialNumber: "", MacAddress: "AA:BB:CC:DD:EE:02"}, // missing serial
		},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	// Nothing may have been written, not even the valid unit.
	items, err := ListItems(ctx, database, ItemFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty inventory after failed batch, got %d items", len(items))
	}
}

func TestCreateItemsNormalizesAndRecordsCreateEvent(t *testing.T) {
	database := newStoreTestDB(t)
	ctx := context.Background()

	cat := testCategory(t, database, "Routers", true, true)
	pm := testModel(t, database, cat.ID, "RT-AX55", 150000)

	items, err := CreateItems(ctx, database, CreateItemsInput{
		ProductModelID: pm.ID,
		PurchasePrice:  100000,
		Units:          []ItemUnit{{SerialNumber: "  SN-B1  ", MacAddress: "AA:BB:CC:DD:EE:03"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	item := items[0]

	if item.SerialNumber != "SN-B1" {
		t.Errorf("serial = %q, want trimmed SN-B1", item.SerialNumber)
	}
	if item.MacAddress != "AABBCCDDEE03" {
		t.Errorf("mac = %q, want normalized AABBCCDDEE03", item.MacAddress)
	}
	if item.Status != model.StatusInStock {
		t.Errorf("status = %s, want %s", item.Status, model.StatusInStock)
	}
	if item.ProductModelName != "RT-AX55" || item.CategoryName != "Routers" {
		t.Errorf("expanded names missing: %q / %q", item.ProductModelName, item.CategoryName)
	}

	events, err := ListItemEvents(ctx, database, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].EventType != model.EventCreate {
		t.Fatalf("expected one create event, got %+v", events)
	}
}

func TestCreateItemsBackdated(t *testing.T) {
	database := newStoreTestDB(t)
	ctx := context.Background()

	cat := testCategory(t, database, "Cables", false, false)
	pm := testModel(t, database, cat.ID, "Cat6 2m", 5000)

	received := time.Date(2023, 5, 10, 9, 0, 0, 0, time.UTC)
	items, err := CreateItems(ctx, database, CreateItemsInput{
		ProductModelID: pm.ID,
		PurchasePrice:  2000,
		Units:          []ItemUnit{{}},
		ReceivedAt:     &received,
	})
	if err != nil {
		t.Fatal(err)
	}

	if y := items[0].CreatedAt.Year(); y != 2023 {
		t.Errorf("created_at year = %d, want 2023", y)
	}

	events, err := ListItemEvents(ctx, database, items[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if y := events[0].CreatedAt.Year(); y != 2023 {
		t.Errorf("create event year = %d, want 2023", y)
	}
}

func TestChangeItemStatusSaleTrack(t *testing.T) {
	database := newStoreTestDB(t)
	ctx := context.Background()

	cat := testCategory(t, database, "Cables", false, false)
	pm := testModel(t, database, cat.ID, "Cat6 2m", 5000)
	item := testItems(t, database, pm.ID, 1, 2000)[0]

	reserved, err := ChangeItemStatus(ctx, database, item.ID, "reserve", nil)
	if err != nil {
		t.Fatal(err)
	}
	if reserved.Status != model.StatusReserved {
		t.Fatalf("status = %s, want %s", reserved.Status, model.StatusReserved)
	}

	// Reserving twice must fail: the item is no longer in stock.
	if _, err := ChangeItemStatus(ctx, database, item.ID, "reserve", nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on double reserve, got %v", err)
	}

	back, err := ChangeItemStatus(ctx, database, item.ID, "unreserve", nil)
	if err != nil {
		t.Fatal(err)
	}
	if back.Status != model.StatusInStock {
		t.Fatalf("status = %s, want %s", back.Status, model.StatusInStock)
	}

	// Unknown transition name.
	if _, err := ChangeItemStatus(ctx, database, item.ID, "assign", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for asset-only transition, got %v", err)
	}

	// Missing item.
	if _, err := ChangeItemStatus(ctx, database, 9999, "reserve", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChangeItemStatusAssetTrack(t *testing.T) {
	database := newStoreTestDB(t)
	ctx := context.Background()

	cat := testCategory(t, database, "Laptops", true, false)
	pm := testModel(t, database, cat.ID, "ThinkPad T14", 0)

	items, err := CreateItems(ctx, database, CreateItemsInput{
		ProductModelID: pm.ID,
		ItemType:       model.TrackAsset,
		PurchasePrice:  3500000,
		Units:          []ItemUnit{{SerialNumber: "SN-AST-1"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	item := items[0]
	if item.Status != model.StatusInWarehouse {
		t.Fatalf("asset base status = %s, want %s", item.Status, model.StatusInWarehouse)
	}

	for _, step := range []struct {
		transition string
		want       string
	}{
		{"assign", model.StatusAssigned},
		{"defective", model.StatusDefective},
		{"repair", model.StatusInRepair},
		{"repair-done", model.StatusInWarehouse},
		{"decommission", model.StatusDecommissioned},
		{"reinstate", model.StatusInWarehouse},
	} {
		got, err := ChangeItemStatus(ctx, database, item.ID, step.transition, nil)
		if err != nil {
			t.Fatalf("%s: %v", step.transition, err)
		}
		if got.Status != step.want {
			t.Fatalf("%s: status = %s, want %s", step.transition, got.Status, step.want)
		}
	}
}

func TestDecommissionSoldItemFails(t *testing.T) {
	database := newStoreTestDB(t)
	ctx := context.Background()

	cat := testCategory(t, database, "Routers", false, false)
	pm := testModel(t, database, cat.ID, "RT-AX55", 150000)
	item := testItems(t, database, pm.ID, 1, 100000)[0]
	customer := testCustomer(t, database, "Somchai")

	if _, err := CreateSale(ctx, database, CreateSaleInput{
		CustomerID: customer.ID, ItemIDs: []int64{item.ID},
	}); err != nil {
		t.Fatal(err)
	}

	_, err := ChangeItemStatus(ctx, database, item.ID, "decommission", nil)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict decommissioning a sold item, got %v", err)
	}
	if got := itemStatus(t, database, item.ID); got != model.StatusSold {
		t.Fatalf("status = %s, want still %s", got, model.StatusSold)
	}
}

func TestUpdateItemSoldIsFrozen(t *testing.T) {
	database := newStoreTestDB(t)
	ctx := context.Background()

	cat := testCategory(t, database, "Routers", false, false)
	pm := testModel(t, database, cat.ID, "RT-AX55", 150000)
	item := testItems(t, database, pm.ID, 1, 100000)[0]
	customer := testCustomer(t, database, "Somchai")

	if _, err := CreateSale(ctx, database, CreateSaleInput{
		CustomerID: customer.ID, ItemIDs: []int64{item.ID},
	}); err != nil {
		t.Fatal(err)
	}

	_, err := UpdateItem(ctx, database, UpdateItemInput{ID: item.ID, Notes: "scratched"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict editing a sold item, got %v", err)
	}
}

func TestUpdateItemRevalidates(t *testing.T) {
	database := newStoreTestDB(t)
	ctx := context.Background()

	cat := testCategory(t, database, "Routers", true, true)
	pm := testModel(t, database, cat.ID, "RT-AX55", 150000)

	items, err := CreateItems(ctx, database, CreateItemsInput{
		ProductModelID: pm.ID,
		PurchasePrice:  100000,
		Units:          []ItemUnit{{SerialNumber: "SN-U1", MacAddress: "AA:BB:CC:DD:EE:10"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = UpdateItem(ctx, database, UpdateItemInput{
		ID: items[0].ID, SerialNumber: "SN-U1", MacAddress: "not-a-mac",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for malformed MAC, got %v", err)
	}

	updated, err := UpdateItem(ctx, database, UpdateItemInput{
		ID: items[0].ID, SerialNumber: "SN-U1", MacAddress: "AA-BB-CC-DD-EE-11", Notes: "swapped antenna",
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.MacAddress != "AABBCCDDEE11" {
		t.Errorf("mac = %q, want AABBCCDDEE11", updated.MacAddress)
	}
	if updated.Notes != "swapped antenna" {
		t.Errorf("notes = %q", updated.Notes)
	}
}

func TestDeleteItem(t *testing.T) {
	database := newStoreTestDB(t)
	ctx := context.Background()

	cat := testCategory(t, database, "Cables", false, false)
	pm := testModel(t, database, cat.ID, "Cat6 2m", 5000)
	customer := testCustomer(t, database, "Somchai")

	fresh := testItems(t, database, pm.ID, 1, 2000)[0]
	sold := testItems(t, database, pm.ID, 1, 2000)[0]

	sale, err := CreateSale(ctx, database, CreateSaleInput{
		CustomerID: customer.ID, ItemIDs: []int64{sold.ID},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := VoidSale(ctx, database, sale.ID, nil); err != nil {
		t.Fatal(err)
	}

	// Voiding put the item back in stock, but its history keeps it undeletable.
	if err := DeleteItem(ctx, database, sold.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict deleting item with sale history, got %v", err)
	}

	// A never-touched item deletes cleanly, events included.
	if err := DeleteItem(ctx, database, fresh.ID); err != nil {
		t.Fatal(err)
	}
	item, err := GetItem(ctx, database, fresh.ID)
	if err != nil {
		t.Fatal(err)
	}
	if item != nil {
		t.Fatal("item still exists after delete")
	}
	events, err := ListItemEvents(ctx, database, fresh.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events after delete, got %d", len(events))
	}
}

func TestListItemsFilters(t *testing.T) {
	database := newStoreTestDB(t)
	ctx := context.Background()

	cat := testCategory(t, database, "Routers", true, true)
	pm := testModel(t, database, cat.ID, "RT-AX55", 150000)

	if _, err := CreateItems(ctx, database, CreateItemsInput{
		ProductModelID: pm.ID,
		PurchasePrice:  100000,
		Units: []ItemUnit{
			{SerialNumber: "SN-F1", MacAddress: "AA:BB:CC:DD:EE:20"},
			{SerialNumber: "SN-F2", MacAddress: "AA:BB:CC:DD:EE:21"},
		},
	}); err != nil {
		t.Fatal(err)
	}

	items, err := ListItems(ctx, database, ItemFilter{Search: "SN-F1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].SerialNumber != "SN-F1" {
		t.Fatalf("search by serial: got %+v", items)
	}

	// MAC search tolerates separators: the pattern is normalized like stored
	// values are.
	items, err = ListItems(ctx, database, ItemFilter{Search: "DD:EE:21"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].SerialNumber != "SN-F2" {
		t.Fatalf("search by mac: got %+v", items)
	}

	items, err = ListItems(ctx, database, ItemFilter{Status: model.StatusInStock})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("status filter: got %d items, want 2", len(items))
	}
}
