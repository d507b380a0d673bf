package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nattapongw/khlang/internal/model"
	"github.com/nattapongw/khlang/internal/store"
)

// CustomersHandler handles customer endpoints.
type CustomersHandler struct {
	DB *sql.DB
}

type customerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// List handles GET /api/customers.
func (h *CustomersHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := store.ListCustomers(r.Context(), h.DB, r.URL.Query().Get("search"))
	if err != nil {
		slog.Error("failed to list customers", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list customers")
		return
	}
	if customers == nil {
		customers = []model.Customer{}
	}
	jsonResponse(w, http.StatusOK, customers)
}

// Create handles POST /api/customers.
func (h *CustomersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	customer, err := store.CreateCustomer(r.Context(), h.DB, req.Name, req.Phone, req.Email, req.Address)
	if err != nil {
		slog.Error("failed to create customer", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create customer")
		return
	}

	jsonResponse(w, http.StatusCreated, customer)
}

// Get handles GET /api/customers/{id}.
func (h *CustomersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	customer, err := store.GetCustomer(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get customer", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get customer")
		return
	}
	if customer == nil {
		jsonError(w, http.StatusNotFound, "customer not found")
		return
	}

	jsonResponse(w, http.StatusOK, customer)
}

// Update handles PUT /api/customers/{id}.
func (h *CustomersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	if err := store.UpdateCustomer(r.Context(), h.DB, id, req.Name, req.Phone, req.Email, req.Address); err != nil {
		slog.Error("failed to update customer", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update customer")
		return
	}

	customer, err := store.GetCustomer(r.Context(), h.DB, id)
	if err != nil || customer == nil {
		jsonError(w, http.StatusNotFound, "customer not found")
		return
	}
	jsonResponse(w, http.StatusOK, customer)
}

// Delete handles DELETE /api/customers/{id}.
func (h *CustomersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	if err := store.DeleteCustomer(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "customer deleted"})
}
