package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/nattapongw/khlang/internal/db"
	"github.com/nattapongw/khlang/internal/model"
)

// Shared fixtures for the store tests.

func testCategory(t *testing.T, database *sql.DB, name string, requiresSerial, requiresMac bool) *model.ProductCategory {
	t.Helper()
	cat, err := CreateCategory(context.Background(), database, name, requiresSerial, requiresMac)
	if err != nil {
		t.Fatalf("creating category: %v", err)
	}
	return cat
}

func testModel(t *testing.T, database *sql.DB, categoryID int64, name string, sellingPrice int64) *model.ProductModel {
	t.Helper()
	pm, err := CreateProductModel(context.Background(), database, categoryID, name, sellingPrice)
	if err != nil {
		t.Fatalf("creating product model: %v", err)
	}
	return pm
}

func testCustomer(t *testing.T, database *sql.DB, name string) *model.Customer {
	t.Helper()
	c, err := CreateCustomer(context.Background(), database, name, "", "", "")
	if err != nil {
		t.Fatalf("creating customer: %v", err)
	}
	return c
}

var serialSeq int

// testItems adds n sale-track units of the given model and returns them.
func testItems(t *testing.T, database *sql.DB, modelID int64, n int, purchasePrice int64) []model.Item {
	t.Helper()
	input := CreateItemsInput{
		ProductModelID: modelID,
		ItemType:       model.TrackSale,
		PurchasePrice:  purchasePrice,
	}
	for i := 0; i < n; i++ {
		serialSeq++
		input.Units = append(input.Units, ItemUnit{SerialNumber: fmt.Sprintf("SN-%05d", serialSeq)})
	}
	items, err := CreateItems(context.Background(), database, input)
	if err != nil {
		t.Fatalf("creating items: %v", err)
	}
	return items
}

func itemStatus(t *testing.T, database *sql.DB, id int64) string {
	t.Helper()
	item, err := GetItem(context.Background(), database, id)
	if err != nil {
		t.Fatalf("getting item %d: %v", id, err)
	}
	if item == nil {
		t.Fatalf("item %d not found", id)
	}
	return item.Status
}

func newStoreTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return db.NewTestDB(t)
}
