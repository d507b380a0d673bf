package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nattapongw/khlang/internal/model"
	"github.com/nattapongw/khlang/internal/store"
)

// SalesHandler handles sale endpoints.
type SalesHandler struct {
	DB *sql.DB
}

type createSaleRequest struct {
	CustomerID int64   `json:"customer_id"`
	ItemIDs    []int64 `json:"item_ids"`
	Notes      string  `json:"notes"`
	SaleDate   string  `json:"sale_date"` // RFC 3339, for backdated entries
}

// Create handles POST /api/sales.
func (h *SalesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CustomerID <= 0 {
		jsonError(w, http.StatusBadRequest, "customer_id required")
		return
	}
	if len(req.ItemIDs) == 0 {
		jsonError(w, http.StatusBadRequest, "item_ids required")
		return
	}

	saleDate, err := parseDate(req.SaleDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid sale_date")
		return
	}

	sale, err := store.CreateSale(r.Context(), h.DB, store.CreateSaleInput{
		CustomerID: req.CustomerID,
		ItemIDs:    req.ItemIDs,
		Notes:      req.Notes,
		ActorID:    actorID(r.Context()),
		SaleDate:   saleDate,
	})
	if err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("sale created", "user", claims.Username, "sale", sale.ID,
		"customer", sale.CustomerName, "items", len(sale.Items), "total", sale.Total)
	jsonResponse(w, http.StatusCreated, sale)
}

// List handles GET /api/sales.
func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	sales, err := store.ListSales(r.Context(), h.DB, r.URL.Query().Get("status"))
	if err != nil {
		slog.Error("failed to list sales", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list sales")
		return
	}
	if sales == nil {
		sales = []model.Sale{}
	}
	jsonResponse(w, http.StatusOK, sales)
}

// Get handles GET /api/sales/{id}.
func (h *SalesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid sale id")
		return
	}

	sale, err := store.GetSale(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get sale", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get sale")
		return
	}
	if sale == nil {
		jsonError(w, http.StatusNotFound, "sale not found")
		return
	}

	jsonResponse(w, http.StatusOK, sale)
}

// Void handles POST /api/sales/{id}/void.
func (h *SalesHandler) Void(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid sale id")
		return
	}

	sale, err := store.VoidSale(r.Context(), h.DB, id, actorID(r.Context()))
	if err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("sale voided", "user", claims.Username, "sale", id)
	jsonResponse(w, http.StatusOK, sale)
}
