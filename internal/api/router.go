package api

import (
	"database/sql"
	"net/http"

	"github.com/nattapongw/khlang/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	customersHandler := &CustomersHandler{DB: db}
	suppliersHandler := &SuppliersHandler{DB: db}
	productsHandler := &ProductsHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	salesHandler := &SalesHandler{DB: db}
	borrowingsHandler := &BorrowingsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Customers: read (all roles), write (manager+).
	mux.Handle("GET /api/customers", authMW(http.HandlerFunc(customersHandler.List)))
	mux.Handle("POST /api/customers", authMW(requireManager(http.HandlerFunc(customersHandler.Create))))
	mux.Handle("GET /api/customers/{id}", authMW(http.HandlerFunc(customersHandler.Get)))
	mux.Handle("PUT /api/customers/{id}", authMW(requireManager(http.HandlerFunc(customersHandler.Update))))
	mux.Handle("DELETE /api/customers/{id}", authMW(requireManager(http.HandlerFunc(customersHandler.Delete))))

	// Suppliers: read (all roles), write (manager+).
	mux.Handle("GET /api/suppliers", authMW(http.HandlerFunc(suppliersHandler.List)))
	mux.Handle("POST /api/suppliers", authMW(requireManager(http.HandlerFunc(suppliersHandler.Create))))
	mux.Handle("PUT /api/suppliers/{id}", authMW(requireManager(http.HandlerFunc(suppliersHandler.Update))))
	mux.Handle("DELETE /api/suppliers/{id}", authMW(requireManager(http.HandlerFunc(suppliersHandler.Delete))))

	// Product categories and models: read (all roles), write (manager+).
	mux.Handle("GET /api/categories", authMW(http.HandlerFunc(productsHandler.ListCategories)))
	mux.Handle("POST /api/categories", authMW(requireManager(http.HandlerFunc(productsHandler.CreateCategory))))
	mux.Handle("PUT /api/categories/{id}", authMW(requireManager(http.HandlerFunc(productsHandler.UpdateCategory))))
	mux.Handle("DELETE /api/categories/{id}", authMW(requireManager(http.HandlerFunc(productsHandler.DeleteCategory))))
	mux.Handle("GET /api/product-models", authMW(http.HandlerFunc(productsHandler.ListModels)))
	mux.Handle("POST /api/product-models", authMW(requireManager(http.HandlerFunc(productsHandler.CreateModel))))
	mux.Handle("PUT /api/product-models/{id}", authMW(requireManager(http.HandlerFunc(productsHandler.UpdateModel))))
	mux.Handle("DELETE /api/product-models/{id}", authMW(requireManager(http.HandlerFunc(productsHandler.DeleteModel))))

	// Items: read (all roles), write (manager+).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireManager(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(requireManager(http.HandlerFunc(itemsHandler.Update))))
	mux.Handle("DELETE /api/items/{id}", authMW(requireManager(http.HandlerFunc(itemsHandler.Delete))))
	mux.Handle("POST /api/items/{id}/status/{transition}", authMW(requireManager(http.HandlerFunc(itemsHandler.ChangeStatus))))
	mux.Handle("GET /api/items/{id}/events", authMW(http.HandlerFunc(itemsHandler.GetEvents)))
	mux.Handle("PUT /api/items/{id}/image", authMW(requireManager(http.HandlerFunc(itemsHandler.UploadImage))))
	mux.Handle("GET /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))

	// Sales: read (all roles), write (manager+).
	mux.Handle("GET /api/sales", authMW(http.HandlerFunc(salesHandler.List)))
	mux.Handle("POST /api/sales", authMW(requireManager(http.HandlerFunc(salesHandler.Create))))
	mux.Handle("GET /api/sales/{id}", authMW(http.HandlerFunc(salesHandler.Get)))
	mux.Handle("POST /api/sales/{id}/void", authMW(requireManager(http.HandlerFunc(salesHandler.Void))))

	// Borrowings: read (all roles), write (manager+).
	mux.Handle("GET /api/borrowings", authMW(http.HandlerFunc(borrowingsHandler.List)))
	mux.Handle("POST /api/borrowings", authMW(requireManager(http.HandlerFunc(borrowingsHandler.Create))))
	mux.Handle("GET /api/borrowings/{id}", authMW(http.HandlerFunc(borrowingsHandler.Get)))
	mux.Handle("POST /api/borrowings/{id}/return", authMW(requireManager(http.HandlerFunc(borrowingsHandler.Return))))

	return mux
}
