package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/nattapongw/khlang/internal/auth"
	"github.com/nattapongw/khlang/internal/db"
	"github.com/nattapongw/khlang/internal/model"
	"github.com/nattapongw/khlang/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Create admin user.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "admin", string(hash), model.RoleAdmin)

	// Get token.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "password"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token := loginResp["token"]
	if token == "" {
		t.Fatal("empty token from login")
	}

	return server, token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// doJSON runs an authenticated request, checks the status and decodes the
// response into out (when non-nil).
func doJSON(t *testing.T, method, url, token string, body any, wantStatus int, out any) {
	t.Helper()
	req, err := authRequest(method, url, token, body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		var e map[string]string
		json.NewDecoder(resp.Body).Decode(&e)
		t.Fatalf("%s %s: status %d, want %d (%s)", method, url, resp.StatusCode, wantStatus, e["error"])
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, url, err)
		}
	}
}

// seedCatalog creates a category, a product model and a customer over the API
// and returns the model and customer ids.
func seedCatalog(t *testing.T, server *httptest.Server, token string, sellingPrice int64) (int64, int64) {
	t.Helper()

	var cat model.ProductCategory
	doJSON(t, "POST", server.URL+"/api/categories", token, map[string]any{
		"name": "Routers", "requires_serial_number": true,
	}, http.StatusCreated, &cat)

	var pm model.ProductModel
	doJSON(t, "POST", server.URL+"/api/product-models", token, map[string]any{
		"category_id": cat.ID, "name": "RT-AX55", "selling_price": sellingPrice,
	}, http.StatusCreated, &pm)

	var customer model.Customer
	doJSON(t, "POST", server.URL+"/api/customers", token, map[string]any{
		"name": "Somchai", "phone": "0812345678",
	}, http.StatusCreated, &customer)

	return pm.ID, customer.ID
}

func TestLoginEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	// Test invalid credentials.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	server, token := setupTestServer(t)

	doJSON(t, "POST", server.URL+"/api/auth/logout", token, nil, http.StatusOK, nil)

	// The token must be dead now.
	req, _ := authRequest("GET", server.URL+"/api/items", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSaleLifecycle(t *testing.T) {
	server, token := setupTestServer(t)
	modelID, customerID := seedCatalog(t, server, token, 100000)

	// Stock two units.
	var items []model.Item
	doJSON(t, "POST", server.URL+"/api/items", token, map[string]any{
		"product_model_id": modelID,
		"purchase_price":   60000,
		"units": []map[string]string{
			{"serial_number": "SN-001"},
			{"serial_number": "SN-002"},
		},
	}, http.StatusCreated, &items)
	if len(items) != 2 {
		t.Fatalf("created %d items, want 2", len(items))
	}

	// Sell both.
	var sale model.Sale
	doJSON(t, "POST", server.URL+"/api/sales", token, map[string]any{
		"customer_id": customerID,
		"item_ids":    []int64{items[0].ID, items[1].ID},
	}, http.StatusCreated, &sale)

	if sale.Subtotal != 200000 || sale.VatAmount != 14000 || sale.Total != 214000 {
		t.Errorf("totals = %d/%d/%d, want 200000/14000/214000",
			sale.Subtotal, sale.VatAmount, sale.Total)
	}

	// Selling again conflicts.
	doJSON(t, "POST", server.URL+"/api/sales", token, map[string]any{
		"customer_id": customerID,
		"item_ids":    []int64{items[0].ID},
	}, http.StatusConflict, nil)

	// Void releases the items.
	var voided model.Sale
	doJSON(t, "POST", server.URL+"/api/sales/"+itoa(sale.ID)+"/void", token, nil, http.StatusOK, &voided)
	if voided.Status != model.SaleVoided {
		t.Errorf("status = %s, want voided", voided.Status)
	}

	var item model.Item
	doJSON(t, "GET", server.URL+"/api/items/"+itoa(items[0].ID), token, nil, http.StatusOK, &item)
	if item.Status != model.StatusInStock {
		t.Errorf("item status after void = %s, want in_stock", item.Status)
	}

	// Double void conflicts.
	doJSON(t, "POST", server.URL+"/api/sales/"+itoa(sale.ID)+"/void", token, nil, http.StatusConflict, nil)

	// The audit trail is visible over the API.
	var events []model.EventLog
	doJSON(t, "GET", server.URL+"/api/items/"+itoa(items[0].ID)+"/events", token, nil, http.StatusOK, &events)
	if len(events) != 3 { // create, sale, void_sale
		t.Errorf("got %d events, want 3", len(events))
	}
}

func TestBorrowingLifecycle(t *testing.T) {
	server, token := setupTestServer(t)
	modelID, customerID := seedCatalog(t, server, token, 100000)

	var items []model.Item
	doJSON(t, "POST", server.URL+"/api/items", token, map[string]any{
		"product_model_id": modelID,
		"purchase_price":   60000,
		"units": []map[string]string{
			{"serial_number": "SN-101"},
			{"serial_number": "SN-102"},
		},
	}, http.StatusCreated, &items)

	var b model.Borrowing
	doJSON(t, "POST", server.URL+"/api/borrowings", token, map[string]any{
		"customer_id": customerID,
		"item_ids":    []int64{items[0].ID, items[1].ID},
	}, http.StatusCreated, &b)
	if b.Status != model.BorrowingActive {
		t.Fatalf("status = %s, want %s", b.Status, model.BorrowingActive)
	}

	// Partial return keeps the borrowing open.
	var after model.Borrowing
	doJSON(t, "POST", server.URL+"/api/borrowings/"+itoa(b.ID)+"/return", token, map[string]any{
		"item_ids": []int64{items[0].ID},
	}, http.StatusOK, &after)
	if after.Status != model.BorrowingActive {
		t.Errorf("status after partial return = %s, want %s", after.Status, model.BorrowingActive)
	}

	// Full return closes it.
	doJSON(t, "POST", server.URL+"/api/borrowings/"+itoa(b.ID)+"/return", token, map[string]any{
		"item_ids": []int64{items[1].ID},
	}, http.StatusOK, &after)
	if after.Status != model.BorrowingReturned {
		t.Errorf("status after full return = %s, want %s", after.Status, model.BorrowingReturned)
	}
}

func TestItemStatusEndpoint(t *testing.T) {
	server, token := setupTestServer(t)
	modelID, _ := seedCatalog(t, server, token, 100000)

	var items []model.Item
	doJSON(t, "POST", server.URL+"/api/items", token, map[string]any{
		"product_model_id": modelID,
		"purchase_price":   60000,
		"units":            []map[string]string{{"serial_number": "SN-201"}},
	}, http.StatusCreated, &items)

	var item model.Item
	doJSON(t, "POST", server.URL+"/api/items/"+itoa(items[0].ID)+"/status/reserve", token, nil, http.StatusOK, &item)
	if item.Status != model.StatusReserved {
		t.Errorf("status = %s, want reserved", item.Status)
	}

	// Illegal from the current status.
	doJSON(t, "POST", server.URL+"/api/items/"+itoa(items[0].ID)+"/status/reserve", token, nil, http.StatusConflict, nil)

	// Unknown transition name.
	doJSON(t, "POST", server.URL+"/api/items/"+itoa(items[0].ID)+"/status/levitate", token, nil, http.StatusBadRequest, nil)
}

func TestCreateItemsValidation(t *testing.T) {
	server, token := setupTestServer(t)
	modelID, _ := seedCatalog(t, server, token, 100000)

	// The seeded category requires serial numbers.
	doJSON(t, "POST", server.URL+"/api/items", token, map[string]any{
		"product_model_id": modelID,
		"purchase_price":   60000,
		"units":            []map[string]string{{"serial_number": ""}},
	}, http.StatusBadRequest, nil)

	// Malformed historical date.
	doJSON(t, "POST", server.URL+"/api/items", token, map[string]any{
		"product_model_id": modelID,
		"received_at":      "last tuesday",
		"units":            []map[string]string{{"serial_number": "SN-301"}},
	}, http.StatusBadRequest, nil)
}

func TestUnauthenticatedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	resp, _ := http.Get(server.URL + "/api/items")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Create a regular user.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "user1", string(hash), model.RoleUser)

	userToken, _ := auth.GenerateToken(testJWTSecret, 1, "user1", model.RoleUser)

	// Regular users can read but not mutate inventory.
	req, _ := authRequest("GET", server.URL+"/api/items", userToken, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for user listing items, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("POST", server.URL+"/api/sales", userToken, map[string]any{
		"customer_id": 1, "item_ids": []int64{1},
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for user creating sale, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Regular user should not access /api/users.
	req, _ = authRequest("GET", server.URL+"/api/users", userToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for user accessing users, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
