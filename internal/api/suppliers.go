package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nattapongw/khlang/internal/model"
	"github.com/nattapongw/khlang/internal/store"
)

// SuppliersHandler handles supplier endpoints.
type SuppliersHandler struct {
	DB *sql.DB
}

type supplierRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// List handles GET /api/suppliers.
func (h *SuppliersHandler) List(w http.ResponseWriter, r *http.Request) {
	suppliers, err := store.ListSuppliers(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list suppliers", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list suppliers")
		return
	}
	if suppliers == nil {
		suppliers = []model.Supplier{}
	}
	jsonResponse(w, http.StatusOK, suppliers)
}

// Create handles POST /api/suppliers.
func (h *SuppliersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	supplier, err := store.CreateSupplier(r.Context(), h.DB, req.Name, req.Phone)
	if err != nil {
		slog.Error("failed to create supplier", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create supplier")
		return
	}

	jsonResponse(w, http.StatusCreated, supplier)
}

// Update handles PUT /api/suppliers/{id}.
func (h *SuppliersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid supplier id")
		return
	}

	var req supplierRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	if err := store.UpdateSupplier(r.Context(), h.DB, id, req.Name, req.Phone); err != nil {
		slog.Error("failed to update supplier", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update supplier")
		return
	}

	supplier, err := store.GetSupplier(r.Context(), h.DB, id)
	if err != nil || supplier == nil {
		jsonError(w, http.StatusNotFound, "supplier not found")
		return
	}
	jsonResponse(w, http.StatusOK, supplier)
}

// Delete handles DELETE /api/suppliers/{id}.
func (h *SuppliersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid supplier id")
		return
	}

	if err := store.DeleteSupplier(r.Context(), h.DB, id); err != nil {
		slog.Error("failed to delete supplier", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete supplier")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "supplier deleted"})
}
