package store

import (
	"context"
	"errors"
	"testing"

	"github.com/nattapongw/khlang/internal/model"
)

func TestUserAccountLifecycle(t *testing.T) {
	database := newStoreTestDB(t)
	ctx := context.Background()

	u, err := CreateUser(ctx, database, "nok", "hash-1", model.RoleManager)
	if err != nil {
		t.Fatal(err)
	}
	if u.Username != "nok" || u.Role != model.RoleManager {
		t.Errorf("created user = %q/%q, want nok/manager", u.Username, u.Role)
	}

	if err := UpdateUser(ctx, database, u.ID, model.RoleAdmin); err != nil {
		t.Fatal(err)
	}
	if err := UpdateUserPassword(ctx, database, u.ID, "hash-2"); err != nil {
		t.Fatal(err)
	}

	got, err := GetUser(ctx, database, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Role != model.RoleAdmin || got.PasswordHash != "hash-2" {
		t.Errorf("after updates role = %q, hash = %q", got.Role, got.PasswordHash)
	}

	if err := DeleteUser(ctx, database, u.ID); err != nil {
		t.Fatal(err)
	}
	users, err := ListUsers(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 0 {
		t.Errorf("%d active users after delete, want 0", len(users))
	}

	// Soft-deleted accounts stay resolvable by name for login checks.
	byName, err := GetUserByUsername(ctx, database, "nok")
	if err != nil {
		t.Fatal(err)
	}
	if byName == nil || byName.DeletedAt == nil {
		t.Error("deleted user should still resolve by username, flagged deleted")
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	database := newStoreTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, database, "nok", "h", model.RoleUser); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateUser(ctx, database, "nok", "h", model.RoleUser); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestUserUpdatesRequireExistingAccount(t *testing.T) {
	database := newStoreTestDB(t)
	ctx := context.Background()

	if err := UpdateUser(ctx, database, 9999, model.RoleUser); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateUser on missing user: got %v", err)
	}
	if err := UpdateUserPassword(ctx, database, 9999, "h"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateUserPassword on missing user: got %v", err)
	}
	if err := DeleteUser(ctx, database, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteUser on missing user: got %v", err)
	}

	u, err := CreateUser(ctx, database, "gone", "h", model.RoleUser)
	if err != nil {
		t.Fatal(err)
	}
	if err := DeleteUser(ctx, database, u.ID); err != nil {
		t.Fatal(err)
	}
	// A soft-deleted account behaves like a missing one.
	if err := UpdateUser(ctx, database, u.ID, model.RoleAdmin); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateUser on deleted user: got %v", err)
	}
}
