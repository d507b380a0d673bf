package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

const jwtSecretKey = "jwt_secret"

// GetJWTSecret returns the token signing secret, minting one on first
// startup. INSERT OR IGNORE followed by a read-back keeps two processes
// racing at startup from ending up with different secrets.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	fresh := make([]byte, 32)
	if _, err := rand.Read(fresh); err != nil {
		return "", fmt.Errorf("generating signing secret: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		jwtSecretKey, hex.EncodeToString(fresh),
	); err != nil {
		return "", fmt.Errorf("storing signing secret: %w", err)
	}

	var secret string
	if err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, jwtSecretKey,
	).Scan(&secret); err != nil {
		return "", fmt.Errorf("reading signing secret: %w", err)
	}
	return secret, nil
}
