package store

import (
	"context"
	"errors"
	"testing"
)

func TestCreateProductModelUnknownCategory(t *testing.T) {
	database := newStoreTestDB(t)

	if _, err := CreateProductModel(context.Background(), database, 42, "RT-AX55", 100000); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCategoryWithModels(t *testing.T) {
	database := newStoreTestDB(t)
	ctx := context.Background()

	cat := testCategory(t, database, "Routers", false, false)
	pm := testModel(t, database, cat.ID, "RT-AX55", 100000)

	if err := DeleteCategory(ctx, database, cat.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict while models exist, got %v", err)
	}

	if err := DeleteProductModel(ctx, database, pm.ID); err != nil {
		t.Fatal(err)
	}
	if err := DeleteCategory(ctx, database, cat.ID); err != nil {
		t.Fatal(err)
	}

	got, err := GetCategory(ctx, database, cat.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.DeletedAt == nil {
		t.Fatal("category should be soft-deleted, not gone")
	}
}

func TestDeleteProductModelWithItems(t *testing.T) {
	database := newStoreTestDB(t)
	ctx := context.Background()

	cat := testCategory(t, database, "Routers", false, false)
	pm := testModel(t, database, cat.ID, "RT-AX55", 100000)
	testItems(t, database, pm.ID, 1, 60000)

	if err := DeleteProductModel(ctx, database, pm.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict while items exist, got %v", err)
	}
}

func TestCategoryFlagChangesApplyToNewItemsOnly(t *testing.T) {
	database := newStoreTestDB(t)
	ctx := context.Background()

	cat := testCategory(t, database, "Cables", false, false)
	pm := testModel(t, database, cat.ID, "Cat6 2m", 5000)
	testItems(t, database, pm.ID, 1, 2000) // no serial, fine today

	if err := UpdateCategory(ctx, database, cat.ID, "Cables", true, false); err != nil {
		t.Fatal(err)
	}

	// New units without serials are rejected under the tightened flags.
	_, err := CreateItems(ctx, database, CreateItemsInput{
		ProductModelID: pm.ID,
		PurchasePrice:  2000,
		Units:          []ItemUnit{{}},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput after flag change, got %v", err)
	}
}
