package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nattapongw/khlang/internal/imaging"
	"github.com/nattapongw/khlang/internal/model"
	"github.com/nattapongw/khlang/internal/store"
)

// ItemsHandler handles inventory item endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

type itemUnitRequest struct {
	SerialNumber string `json:"serial_number"`
	MacAddress   string `json:"mac_address"`
	Notes        string `json:"notes"`
}

type createItemsRequest struct {
	ProductModelID int64             `json:"product_model_id"`
	SupplierID     *int64            `json:"supplier_id"`
	ItemType       string            `json:"item_type"`
	PurchasePrice  int64             `json:"purchase_price"`
	ReceivedAt     string            `json:"received_at"` // RFC 3339, for backdated entries
	Units          []itemUnitRequest `json:"units"`
}

type updateItemRequest struct {
	SerialNumber string `json:"serial_number"`
	MacAddress   string `json:"mac_address"`
	Notes        string `json:"notes"`
	SupplierID   *int64 `json:"supplier_id"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ItemFilter{
		Status:   q.Get("status"),
		ItemType: q.Get("type"),
		Search:   q.Get("search"),
	}
	if s := q.Get("product_model_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid product_model_id")
			return
		}
		filter.ProductModelID = id
	}

	items, err := store.ListItems(r.Context(), h.DB, filter)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items (bulk acquisition).
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ProductModelID <= 0 {
		jsonError(w, http.StatusBadRequest, "product_model_id required")
		return
	}
	if len(req.Units) == 0 {
		jsonError(w, http.StatusBadRequest, "at least one unit required")
		return
	}

	receivedAt, err := parseDate(req.ReceivedAt)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid received_at date")
		return
	}

	input := store.CreateItemsInput{
		ProductModelID: req.ProductModelID,
		SupplierID:     req.SupplierID,
		ItemType:       req.ItemType,
		PurchasePrice:  req.PurchasePrice,
		ActorID:        actorID(r.Context()),
		ReceivedAt:     receivedAt,
	}
	for _, u := range req.Units {
		input.Units = append(input.Units, store.ItemUnit{
			SerialNumber: u.SerialNumber,
			MacAddress:   u.MacAddress,
			Notes:        u.Notes,
		})
	}

	items, err := store.CreateItems(r.Context(), h.DB, input)
	if err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("items created", "user", claims.Username, "count", len(items), "product_model_id", req.ProductModelID)
	jsonResponse(w, http.StatusCreated, items)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.UpdateItem(r.Context(), h.DB, store.UpdateItemInput{
		ID:           id,
		SerialNumber: req.SerialNumber,
		MacAddress:   req.MacAddress,
		Notes:        req.Notes,
		SupplierID:   req.SupplierID,
		ActorID:      actorID(r.Context()),
	})
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// ChangeStatus handles POST /api/items/{id}/status/{transition}, e.g.
// reserve, unreserve, defective, in-stock, decommission, reinstate.
func (h *ItemsHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	transition := r.PathValue("transition")

	item, err := store.ChangeItemStatus(r.Context(), h.DB, id, transition, actorID(r.Context()))
	if err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("item status changed", "user", claims.Username, "item", id, "transition", transition, "status", item.Status)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("item deleted", "user", claims.Username, "item", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// GetEvents handles GET /api/items/{id}/events.
func (h *ItemsHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	events, err := store.ListItemEvents(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to list item events", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list item events")
		return
	}
	if events == nil {
		events = []model.EventLog{}
	}
	jsonResponse(w, http.StatusOK, events)
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes)

	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	processed, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, id, processed.Data, processed.MIME, actorID(r.Context())); err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get item image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// parseDate parses an optional RFC 3339 date string. Empty input means "use
// the server clock" and returns nil.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
