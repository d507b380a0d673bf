package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nattapongw/khlang/internal/model"
)

const itemSelect = `
	SELECT i.id, i.item_type, i.owner_type, i.serial_number, i.mac_address, i.status,
	       i.notes, i.purchase_price, i.product_model_id, i.supplier_id, i.added_by_id,
	       i.sale_id, i.image_mime, i.created_at, i.updated_at,
	       pm.name AS product_model_name, pc.name AS category_name, pm.selling_price,
	       COALESCE(sup.name, '') AS supplier_name
	FROM items i
	JOIN product_models pm ON pm.id = i.product_model_id
	JOIN product_categories pc ON pc.id = pm.category_id
	LEFT JOIN suppliers sup ON sup.id = i.supplier_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var serial, mac, notes, imageMime sql.NullString
	err := row.Scan(&item.ID, &item.ItemType, &item.OwnerType, &serial, &mac, &item.Status,
		&notes, &item.PurchasePrice, &item.ProductModelID, &item.SupplierID, &item.AddedByID,
		&item.SaleID, &imageMime, &item.CreatedAt, &item.UpdatedAt,
		&item.ProductModelName, &item.CategoryName, &item.SellingPrice, &item.SupplierName)
	if err != nil {
		return nil, err
	}
	item.SerialNumber = serial.String
	item.MacAddress = mac.String
	item.Notes = notes.String
	item.ImageMime = imageMime.String
	return item, nil
}

// placeholders returns "?, ?, ..., ?" with n entries.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// GetItem returns an item by ID with its product model, category and
// supplier expanded, or nil if it doesn't exist.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx, itemSelect+` WHERE i.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ItemFilter narrows ListItems. Zero values mean no filtering.
type ItemFilter struct {
	Status         string
	ItemType       string
	ProductModelID int64
	Search         string // matches serial number or MAC address
}

// ListItems returns items matching the filter, newest first.
func ListItems(ctx context.Context, db *sql.DB, filter ItemFilter) ([]model.Item, error) {
	query := itemSelect + ` WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND i.status = ?`
		args = append(args, filter.Status)
	}
	if filter.ItemType != "" {
		query += ` AND i.item_type = ?`
		args = append(args, filter.ItemType)
	}
	if filter.ProductModelID > 0 {
		query += ` AND i.product_model_id = ?`
		args = append(args, filter.ProductModelID)
	}
	if filter.Search != "" {
		query += ` AND (i.serial_number LIKE ? OR i.mac_address LIKE ?)`
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, model.NormalizeMac(pattern))
	}

	query += ` ORDER BY i.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ItemUnit is one physical unit in a bulk acquisition.
type ItemUnit struct {
	SerialNumber string
	MacAddress   string
	Notes        string
}

// CreateItemsInput describes a bulk acquisition of units of one product
// model. ReceivedAt backdates the whole batch for data migration; when nil
// the database clock is used.
type CreateItemsInput struct {
	ProductModelID int64
	SupplierID     *int64
	ItemType       string
	PurchasePrice  int64
	Units          []ItemUnit
	ActorID        *int64
	ReceivedAt     *time.Time
}

// CreateItems records newly acquired units. Every unit is validated against
// the product category's serial/MAC requirements before anything is
// written; all inserts and their create events share one transaction.
func CreateItems(ctx context.Context, db *sql.DB, input CreateItemsInput) ([]model.Item, error) {
	if len(input.Units) == 0 {
		return nil, fmt.Errorf("%w: no units given", ErrInvalidInput)
	}
	if input.ItemType == "" {
		input.ItemType = model.TrackSale
	}
	if input.ItemType != model.TrackSale && input.ItemType != model.TrackAsset {
		return nil, fmt.Errorf("%w: unknown item type %q", ErrInvalidInput, input.ItemType)
	}
	if input.PurchasePrice < 0 {
		return nil, fmt.Errorf("%w: negative purchase price", ErrInvalidInput)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	cat, err := getCategoryForModel(ctx, tx, input.ProductModelID)
	if err != nil {
		return nil, err
	}

	// Validate every unit up front so a bad one rejects the whole batch
	// before any row exists.
	type validated struct {
		serial, mac, notes string
	}
	units := make([]validated, 0, len(input.Units))
	for _, u := range input.Units {
		serial, mac, err := model.ValidateItemFields(cat, u.SerialNumber, u.MacAddress)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
		}
		units = append(units, validated{serial: serial, mac: mac, notes: u.Notes})
	}

	status := model.BaseStatus(input.ItemType)
	var at time.Time
	if input.ReceivedAt != nil {
		at = *input.ReceivedAt
	}

	var ids []int64
	for _, u := range units {
		var result sql.Result
		if at.IsZero() {
			result, err = tx.ExecContext(ctx,
				`INSERT INTO items (item_type, serial_number, mac_address, status, notes,
				                    purchase_price, product_model_id, supplier_id, added_by_id)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				input.ItemType, u.serial, u.mac, status, u.notes,
				input.PurchasePrice, input.ProductModelID, input.SupplierID, input.ActorID,
			)
		} else {
			result, err = tx.ExecContext(ctx,
				`INSERT INTO items (item_type, serial_number, mac_address, status, notes,
				                    purchase_price, product_model_id, supplier_id, added_by_id,
				                    created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				input.ItemType, u.serial, u.mac, status, u.notes,
				input.PurchasePrice, input.ProductModelID, input.SupplierID, input.ActorID,
				at.UTC(), at.UTC(),
			)
		}
		if err != nil {
			return nil, fmt.Errorf("inserting item: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting item id: %w", err)
		}
		ids = append(ids, id)

		details := model.EventDetails{Message: "item added to inventory"}
		if err := appendEvent(ctx, tx, id, input.ActorID, model.EventCreate, details, at); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing items: %w", err)
	}

	items := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		item, err := GetItem(ctx, db, id)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// UpdateItemInput carries editable item fields. Status is not among them:
// status only moves through transitions.
type UpdateItemInput struct {
	ID           int64
	SerialNumber string
	MacAddress   string
	Notes        string
	SupplierID   *int64
	ActorID      *int64
}

// UpdateItem edits an item's descriptive fields, re-validating serial and
// MAC against the category. Sold items are frozen: their sale must be
// voided first.
func UpdateItem(ctx context.Context, db *sql.DB, input UpdateItemInput) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	var modelID int64
	err = tx.QueryRowContext(ctx,
		`SELECT status, product_model_id FROM items WHERE id = ?`, input.ID,
	).Scan(&status, &modelID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, input.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading item: %w", err)
	}

	if status == model.StatusSold {
		return nil, fmt.Errorf("%w: item %d is sold and cannot be edited; void the sale first", ErrConflict, input.ID)
	}

	cat, err := getCategoryForModel(ctx, tx, modelID)
	if err != nil {
		return nil, err
	}
	serial, mac, err := model.ValidateItemFields(cat, input.SerialNumber, input.MacAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET serial_number = ?, mac_address = ?, notes = ?, supplier_id = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		serial, mac, input.Notes, input.SupplierID, input.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	details := model.EventDetails{Message: "item details updated"}
	if err := appendEvent(ctx, tx, input.ID, input.ActorID, model.EventUpdate, details, time.Time{}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item update: %w", err)
	}

	return GetItem(ctx, db, input.ID)
}

// applyTransition performs a guarded status update on the caller's
// transaction. The expected-status predicate is part of the UPDATE itself,
// so the check and the write are atomic: a concurrent change makes the
// update match zero rows and the operation fails without writing.
func applyTransition(ctx context.Context, tx *sql.Tx, itemID int64, t model.Transition) error {
	args := []any{t.To, itemID}
	for _, s := range t.From {
		args = append(args, s)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status IN (`+placeholders(len(t.From))+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("applying %s transition: %w", t.Name, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking %s transition: %w", t.Name, err)
	}
	if n == 1 {
		return nil
	}

	// Zero rows affected: tell a missing item apart from a status clash.
	var actual string
	err = tx.QueryRowContext(ctx, `SELECT status FROM items WHERE id = ?`, itemID).Scan(&actual)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: item %d", ErrNotFound, itemID)
	}
	if err != nil {
		return fmt.Errorf("reading item status: %w", err)
	}
	return fmt.Errorf("%w: cannot %s item %d: expected status %s, item is %s",
		ErrConflict, t.Name, itemID, strings.Join(t.From, " or "), actual)
}

// ChangeItemStatus applies a named transition (reserve, decommission,
// reinstate, ...) to a single item and records the matching event, all in
// one transaction.
func ChangeItemStatus(ctx context.Context, db *sql.DB, itemID int64, transitionName string, actorID *int64) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var itemType string
	err = tx.QueryRowContext(ctx, `SELECT item_type FROM items WHERE id = ?`, itemID).Scan(&itemType)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading item: %w", err)
	}

	t, ok := model.TransitionFor(itemType, transitionName)
	if !ok {
		return nil, fmt.Errorf("%w: no %q transition for %s items", ErrInvalidInput, transitionName, itemType)
	}

	if err := applyTransition(ctx, tx, itemID, t); err != nil {
		return nil, err
	}

	details := model.EventDetails{Message: "status set to " + t.To}
	if err := appendEvent(ctx, tx, itemID, actorID, t.Event, details, time.Time{}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status change: %w", err)
	}

	return GetItem(ctx, db, itemID)
}

// DeleteItem hard-deletes an item, but only if it has no history: never
// sold or borrowed, and no events beyond create/update/photo. Items with
// history must be decommissioned instead so the audit trail stays intact.
// The item's remaining (bookkeeping-only) event rows are removed with it.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var saleID *int64
	err = tx.QueryRowContext(ctx, `SELECT sale_id FROM items WHERE id = ?`, id).Scan(&saleID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("loading item: %w", err)
	}

	if saleID != nil {
		return fmt.Errorf("%w: item %d has sale history and cannot be deleted; decommission it instead", ErrConflict, id)
	}

	var borrowCount int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM borrowing_items WHERE item_id = ?`, id,
	).Scan(&borrowCount)
	if err != nil {
		return fmt.Errorf("checking borrow history: %w", err)
	}

	var eventCount int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_logs
		 WHERE item_id = ? AND event_type NOT IN (?, ?, ?)`,
		id, model.EventCreate, model.EventUpdate, model.EventPhoto,
	).Scan(&eventCount)
	if err != nil {
		return fmt.Errorf("checking event history: %w", err)
	}

	if borrowCount > 0 || eventCount > 0 {
		return fmt.Errorf("%w: item %d has history and cannot be deleted; decommission it instead", ErrConflict, id)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM event_logs WHERE item_id = ?`, id); err != nil {
		return fmt.Errorf("deleting item events: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item deletion: %w", err)
	}
	return nil
}

// SetItemImage stores a processed item photo and records a photo event.
func SetItemImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string, actorID *int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: item %d", ErrNotFound, id)
	}

	details := model.EventDetails{Message: "photo updated"}
	if err := appendEvent(ctx, tx, id, actorID, model.EventPhoto, details, time.Time{}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's photo and MIME type.
func GetItemImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

// getCategoryForModel loads the product category that owns a product model,
// for validation. Runs on the operation's transaction.
func getCategoryForModel(ctx context.Context, tx *sql.Tx, modelID int64) (*model.ProductCategory, error) {
	cat := &model.ProductCategory{}
	err := tx.QueryRowContext(ctx,
		`SELECT pc.id, pc.name, pc.requires_serial_number, pc.requires_mac_address
		 FROM product_models pm
		 JOIN product_categories pc ON pc.id = pm.category_id
		 WHERE pm.id = ? AND pm.deleted_at IS NULL`, modelID,
	).Scan(&cat.ID, &cat.Name, &cat.RequiresSerialNumber, &cat.RequiresMacAddress)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: product model %d", ErrNotFound, modelID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading product category: %w", err)
	}
	return cat, nil
}
