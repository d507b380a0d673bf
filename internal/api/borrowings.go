package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nattapongw/khlang/internal/model"
	"github.com/nattapongw/khlang/internal/store"
)

// BorrowingsHandler handles borrowing endpoints.
type BorrowingsHandler struct {
	DB *sql.DB
}

type createBorrowingRequest struct {
	CustomerID int64   `json:"customer_id"`
	ItemIDs    []int64 `json:"item_ids"`
	DueDate    string  `json:"due_date"`    // RFC 3339, optional
	BorrowDate string  `json:"borrow_date"` // RFC 3339, for backdated entries
	Notes      string  `json:"notes"`
}

type returnItemsRequest struct {
	ItemIDs []int64 `json:"item_ids"`
}

// Create handles POST /api/borrowings.
func (h *BorrowingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBorrowingRequest
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

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid due_date")
		return
	}
	borrowDate, err := parseDate(req.BorrowDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid borrow_date")
		return
	}

	borrowing, err := store.CreateBorrowing(r.Context(), h.DB, store.CreateBorrowingInput{
		CustomerID: req.CustomerID,
		ItemIDs:    req.ItemIDs,
		DueDate:    dueDate,
		Notes:      req.Notes,
		ActorID:    actorID(r.Context()),
		BorrowDate: borrowDate,
	})
	if err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("borrowing created", "user", claims.Username, "borrowing", borrowing.ID,
		"customer", borrowing.CustomerName, "items", len(borrowing.Items))
	jsonResponse(w, http.StatusCreated, borrowing)
}

// List handles GET /api/borrowings.
func (h *BorrowingsHandler) List(w http.ResponseWriter, r *http.Request) {
	borrowings, err := store.ListBorrowings(r.Context(), h.DB, r.URL.Query().Get("status"))
	if err != nil {
		slog.Error("failed to list borrowings", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list borrowings")
		return
	}
	if borrowings == nil {
		borrowings = []model.Borrowing{}
	}
	jsonResponse(w, http.StatusOK, borrowings)
}

// Get handles GET /api/borrowings/{id}.
func (h *BorrowingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid borrowing id")
		return
	}

	borrowing, err := store.GetBorrowing(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get borrowing", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get borrowing")
		return
	}
	if borrowing == nil {
		jsonError(w, http.StatusNotFound, "borrowing not found")
		return
	}

	jsonResponse(w, http.StatusOK, borrowing)
}

// Return handles POST /api/borrowings/{id}/return.
func (h *BorrowingsHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid borrowing id")
		return
	}

	var req returnItemsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.ItemIDs) == 0 {
		jsonError(w, http.StatusBadRequest, "item_ids required")
		return
	}

	borrowing, err := store.ReturnBorrowedItems(r.Context(), h.DB, id, req.ItemIDs, actorID(r.Context()))
	if err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("items returned", "user", claims.Username, "borrowing", id,
		"items", len(req.ItemIDs), "status", borrowing.Status)
	jsonResponse(w, http.StatusOK, borrowing)
}
