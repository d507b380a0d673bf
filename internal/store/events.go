package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nattapongw/khlang/internal/model"
)

// appendEvent writes one audit row on the caller's transaction. It must run
// inside the same transaction as the state change it documents so that both
// commit or roll back together. The writer records whatever it is told;
// deciding which event fired is the caller's job.
//
// A zero `at` means now (database clock); historical entries pass their
// backdated timestamp.
func appendEvent(ctx context.Context, tx *sql.Tx, itemID int64, actorID *int64, eventType string, details model.EventDetails, at time.Time) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshaling event details: %w", err)
	}

	if at.IsZero() {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO event_logs (item_id, user_id, event_type, details) VALUES (?, ?, ?, ?)`,
			itemID, actorID, eventType, string(payload),
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO event_logs (item_id, user_id, event_type, details, created_at) VALUES (?, ?, ?, ?, ?)`,
			itemID, actorID, eventType, string(payload), at.UTC(),
		)
	}
	if err != nil {
		return fmt.Errorf("appending %s event: %w", eventType, err)
	}
	return nil
}

// ListItemEvents returns the audit trail for an item, newest first.
func ListItemEvents(ctx context.Context, db *sql.DB, itemID int64) ([]model.EventLog, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT e.id, e.item_id, e.user_id, e.event_type, e.details, e.created_at,
		        COALESCE(u.username, '') AS username
		 FROM event_logs e
		 LEFT JOIN users u ON u.id = e.user_id
		 WHERE e.item_id = ?
		 ORDER BY e.created_at DESC, e.id DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item events: %w", err)
	}
	defer rows.Close()

	var events []model.EventLog
	for rows.Next() {
		var e model.EventLog
		var details string
		if err := rows.Scan(&e.ID, &e.ItemID, &e.UserID, &e.EventType, &details, &e.CreatedAt, &e.Username); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Details = json.RawMessage(details)
		events = append(events, e)
	}
	return events, rows.Err()
}
