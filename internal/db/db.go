package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Connection pragmas. WAL lets readers run alongside the single writer,
// busy_timeout makes concurrent writers queue instead of failing, and
// foreign_keys must be switched on per connection in SQLite.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Open opens the SQLite database at path and applies the pragmas above.
func Open(path string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}

	for _, pragma := range pragmas {
		if _, err := database.Exec(pragma); err != nil {
			database.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return database, nil
}
