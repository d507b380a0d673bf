package store

import (
	"context"
	"testing"
	"time"
)

func TestTokenRevocation(t *testing.T) {
	database := newStoreTestDB(t)
	ctx := context.Background()

	revoked, err := IsTokenRevoked(ctx, database, "jti-a")
	if err != nil {
		t.Fatal(err)
	}
	if revoked {
		t.Error("fresh jti reported revoked")
	}

	exp := time.Now().Add(time.Hour)
	if err := RevokeToken(ctx, database, "jti-a", exp); err != nil {
		t.Fatal(err)
	}
	// Revoking again is a no-op.
	if err := RevokeToken(ctx, database, "jti-a", exp); err != nil {
		t.Fatal(err)
	}

	revoked, err = IsTokenRevoked(ctx, database, "jti-a")
	if err != nil {
		t.Fatal(err)
	}
	if !revoked {
		t.Error("revoked jti reported live")
	}

	if revoked, _ := IsTokenRevoked(ctx, database, "jti-b"); revoked {
		t.Error("unrelated jti reported revoked")
	}
}

func TestExpiredRevocationsArePurged(t *testing.T) {
	database := newStoreTestDB(t)
	ctx := context.Background()

	// Long expired; the next revocation sweeps it out.
	if err := RevokeToken(ctx, database, "jti-old", time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := RevokeToken(ctx, database, "jti-new", time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	var n int
	if err := database.QueryRow(`SELECT COUNT(*) FROM revoked_tokens`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("%d revocation rows, want 1 after purge", n)
	}
}
