package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nattapongw/khlang/internal/model"
	"github.com/nattapongw/khlang/internal/store"
)

// ProductsHandler handles product category and model endpoints.
type ProductsHandler struct {
	DB *sql.DB
}

type categoryRequest struct {
	Name                 string `json:"name"`
	RequiresSerialNumber bool   `json:"requires_serial_number"`
	RequiresMacAddress   bool   `json:"requires_mac_address"`
}

type productModelRequest struct {
	CategoryID   int64  `json:"category_id"`
	Name         string `json:"name"`
	SellingPrice int64  `json:"selling_price"`
}

// ListCategories handles GET /api/categories.
func (h *ProductsHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list categories", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []model.ProductCategory{}
	}
	jsonResponse(w, http.StatusOK, categories)
}

// CreateCategory handles POST /api/categories.
func (h *ProductsHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	category, err := store.CreateCategory(r.Context(), h.DB, req.Name, req.RequiresSerialNumber, req.RequiresMacAddress)
	if err != nil {
		slog.Error("failed to create category", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create category")
		return
	}

	jsonResponse(w, http.StatusCreated, category)
}

// UpdateCategory handles PUT /api/categories/{id}.
func (h *ProductsHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	if err := store.UpdateCategory(r.Context(), h.DB, id, req.Name, req.RequiresSerialNumber, req.RequiresMacAddress); err != nil {
		slog.Error("failed to update category", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update category")
		return
	}

	category, err := store.GetCategory(r.Context(), h.DB, id)
	if err != nil || category == nil {
		jsonError(w, http.StatusNotFound, "category not found")
		return
	}
	jsonResponse(w, http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/categories/{id}.
func (h *ProductsHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	if err := store.DeleteCategory(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

// ListModels handles GET /api/product-models.
func (h *ProductsHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	var categoryID int64
	if s := r.URL.Query().Get("category_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		categoryID = id
	}

	models, err := store.ListProductModels(r.Context(), h.DB, categoryID)
	if err != nil {
		slog.Error("failed to list product models", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list product models")
		return
	}
	if models == nil {
		models = []model.ProductModel{}
	}
	jsonResponse(w, http.StatusOK, models)
}

// CreateModel handles POST /api/product-models.
func (h *ProductsHandler) CreateModel(w http.ResponseWriter, r *http.Request) {
	var req productModelRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.CategoryID <= 0 {
		jsonError(w, http.StatusBadRequest, "category_id required")
		return
	}

	pm, err := store.CreateProductModel(r.Context(), h.DB, req.CategoryID, req.Name, req.SellingPrice)
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, pm)
}

// UpdateModel handles PUT /api/product-models/{id}.
func (h *ProductsHandler) UpdateModel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product model id")
		return
	}

	var req productModelRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	if err := store.UpdateProductModel(r.Context(), h.DB, id, req.Name, req.SellingPrice); err != nil {
		slog.Error("failed to update product model", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update product model")
		return
	}

	pm, err := store.GetProductModel(r.Context(), h.DB, id)
	if err != nil || pm == nil {
		jsonError(w, http.StatusNotFound, "product model not found")
		return
	}
	jsonResponse(w, http.StatusOK, pm)
}

// DeleteModel handles DELETE /api/product-models/{id}.
func (h *ProductsHandler) DeleteModel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product model id")
		return
	}

	if err := store.DeleteProductModel(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "product model deleted"})
}
