package routers

import (
	"Bookstore/audit"
	"Bookstore/config"
	"Bookstore/jwt"
	"Bookstore/payment"
	"Bookstore/services"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type stubProvider struct {
	intents map[string]*payment.Intent
}

func (p *stubProvider) Name() string { return "STRIPE" }

func (p *stubProvider) CreateIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	intent := &payment.Intent{
		ID:           fmt.Sprintf("pi_%d", len(p.intents)+1),
		ClientSecret: "secret",
		Status:       "requires_payment_method",
		Amount:       req.Amount,
		Currency:     req.Currency,
		Metadata:     req.Metadata,
	}
	p.intents[intent.ID] = intent
	return intent, nil
}

func (p *stubProvider) GetIntent(_ context.Context, id string) (*payment.Intent, error) {
	intent, ok := p.intents[id]
	if !ok {
		return nil, errors.New("No such payment_intent")
	}
	return intent, nil
}

type testServer struct {
	t        *testing.T
	router   *gin.Engine
	users    *services.UserService
	provider *stubProvider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newLoggedTestServer(t, zap.NewNop())
}

func newLoggedTestServer(t *testing.T, logger *zap.Logger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), "bookstore.db") + "?_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	tokens := jwt.NewManager(testKey, time.Hour)
	provider := &stubProvider{intents: map[string]*payment.Intent{}}
	users := services.NewUserService(db, tokens, logger)
	if _, err := users.SeedAdmin(context.Background(), "admin", "admin@test.com", "admin"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	router := SetupRouters(Dependencies{
		DB:             db,
		Tokens:         tokens,
		Users:          users,
		Catalog:        services.NewCatalogService(db, nil, logger),
		Carts:          services.NewCartService(db, logger),
		Payments:       services.NewPaymentService(db, provider, audit.NopRecorder{}, "pk_test", "inr", logger),
		Logger:         logger,
		AllowedOrigins: []string{"http://localhost:3000"},
		UploadDir:      t.TempDir(),
	})
	return &testServer{t: t, router: router, users: users, provider: provider}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) expect(rec *httptest.ResponseRecorder, status int, out interface{}) {
	s.t.Helper()
	if rec.Code != status {
		s.t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			s.t.Fatalf("decode response: %v", err)
		}
	}
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	var resp struct {
		JWTToken string `json:"jwtToken"`
	}
	s.expect(s.do(http.MethodPost, "/authenticate", "", gin.H{"username": email, "password": password}), http.StatusOK, &resp)
	if resp.JWTToken == "" {
		s.t.Fatal("expected a token")
	}
	return resp.JWTToken
}

type orderResponse struct {
	ID          uint   `json:"id"`
	Amount      int64  `json:"amount"`
	OrderStatus string `json:"orderStatus"`
	PaymentType string `json:"paymentType"`
	Username    string `json:"username"`
	Cart        []struct {
		Quantity  int64  `json:"quantity"`
		Price     int64  `json:"price"`
		BookTitle string `json:"bookTitle"`
	} `json:"cartDTO"`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	s.expect(s.do(http.MethodGet, "/health", "", nil), http.StatusOK, nil)
}

func TestPanicIsRecoveredAndLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := newLoggedTestServer(t, zap.New(core))
	s.router.GET("/explode", func(*gin.Context) { panic("boom") })

	s.expect(s.do(http.MethodGet, "/explode", "", nil), http.StatusInternalServerError, nil)

	entries := logs.FilterMessage("HTTP request").FilterField(zap.String("path", "/explode")).All()
	if len(entries) != 1 {
		t.Fatalf("expected one access log line for the panicking request, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusInternalServerError) || fields["requestID"] == "" {
		t.Fatalf("unexpected access log fields %v", fields)
	}
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	var user struct {
		ID       uint   `json:"id"`
		Email    string `json:"email"`
		UserRole string `json:"userRole"`
	}
	signup := gin.H{"name": "Reader", "email": "reader@example.com", "password": "secret1"}
	s.expect(s.do(http.MethodPost, "/sign-up", "", signup), http.StatusCreated, &user)
	if user.UserRole != "USER" || user.Email != "reader@example.com" {
		t.Fatalf("unexpected signup response %+v", user)
	}
	s.expect(s.do(http.MethodPost, "/sign-up", "", signup), http.StatusConflict, nil)
	s.expect(s.do(http.MethodPost, "/sign-up", "", gin.H{"name": "R", "email": "bad", "password": "1"}), http.StatusBadRequest, nil)

	s.login("reader@example.com", "secret1")

	var failure map[string]string
	s.expect(s.do(http.MethodPost, "/authenticate", "", gin.H{"username": "reader@example.com", "password": "nope"}), http.StatusUnauthorized, &failure)
	if failure["error"] != "invalid credentials" {
		t.Fatalf("unexpected failure body %v", failure)
	}
}

func TestRoleChecks(t *testing.T) {
	s := newTestServer(t)
	s.expect(s.do(http.MethodPost, "/sign-up", "", gin.H{"name": "Reader", "email": "reader@example.com", "password": "secret1"}), http.StatusCreated, nil)
	userToken := s.login("reader@example.com", "secret1")
	adminToken := s.login("admin@test.com", "admin")

	s.expect(s.do(http.MethodGet, "/api/admin/books", "", nil), http.StatusUnauthorized, nil)
	s.expect(s.do(http.MethodGet, "/api/admin/books", userToken, nil), http.StatusForbidden, nil)
	s.expect(s.do(http.MethodGet, "/api/admin/books", adminToken, nil), http.StatusOK, nil)
	s.expect(s.do(http.MethodGet, "/api/customer/books", adminToken, nil), http.StatusForbidden, nil)
	s.expect(s.do(http.MethodGet, "/api/payment/config", "", nil), http.StatusOK, nil)

	expired, err := jwt.NewManager(testKey, time.Nanosecond).GenerateToken(1, "admin@test.com", "ADMIN")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	time.Sleep(time.Second)
	s.expect(s.do(http.MethodGet, "/api/admin/books", expired, nil), http.StatusUnauthorized, nil)
}

func TestShoppingFlow(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.login("admin@test.com", "admin")

	var category struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}
	s.expect(s.do(http.MethodPost, "/api/admin/category", adminToken, gin.H{"name": "Fiction", "description": "Novels"}), http.StatusCreated, &category)

	var book struct {
		ID           uint   `json:"id"`
		Price        int64  `json:"price"`
		CategoryName string `json:"categoryName"`
	}
	path := fmt.Sprintf("/api/admin/book/%d", category.ID)
	s.expect(s.do(http.MethodPost, path, adminToken, gin.H{"title": "Dune", "author": "Herbert", "price": 500}), http.StatusCreated, &book)
	if book.CategoryName != "Fiction" || book.Price != 500 {
		t.Fatalf("unexpected book %+v", book)
	}
	s.expect(s.do(http.MethodPost, "/api/admin/book/999", adminToken, gin.H{"title": "X", "author": "Y", "price": 1}), http.StatusNotFound, nil)

	var user struct {
		ID uint `json:"id"`
	}
	s.expect(s.do(http.MethodPost, "/sign-up", "", gin.H{"name": "Reader", "email": "reader@example.com", "password": "secret1"}), http.StatusCreated, &user)
	token := s.login("reader@example.com", "secret1")

	var cart orderResponse
	cartPath := fmt.Sprintf("/api/customer/cart/%d", user.ID)
	s.expect(s.do(http.MethodGet, cartPath, token, nil), http.StatusOK, &cart)
	if cart.Amount != 0 || cart.OrderStatus != "PENDING" {
		t.Fatalf("expected empty pending cart, got %+v", cart)
	}

	add := gin.H{"userId": user.ID, "bookId": book.ID}
	s.expect(s.do(http.MethodPost, "/api/customer/cart", token, add), http.StatusCreated, nil)
	s.expect(s.do(http.MethodPost, "/api/customer/cart", token, add), http.StatusOK, nil)
	s.expect(s.do(http.MethodPost, "/api/customer/cart", token, gin.H{"userId": user.ID + 1, "bookId": book.ID}), http.StatusForbidden, nil)

	s.expect(s.do(http.MethodGet, cartPath, token, nil), http.StatusOK, &cart)
	if cart.Amount != 1000 || len(cart.Cart) != 1 || cart.Cart[0].Quantity != 2 || cart.Cart[0].BookTitle != "Dune" {
		t.Fatalf("unexpected cart %+v", cart)
	}
	s.expect(s.do(http.MethodGet, fmt.Sprintf("/api/customer/cart/%d", user.ID+1), token, nil), http.StatusForbidden, nil)

	s.expect(s.do(http.MethodGet, fmt.Sprintf("%s/deduct/%d", cartPath, book.ID), token, nil), http.StatusOK, &cart)
	if cart.Amount != 500 {
		t.Fatalf("expected 500 after deduct, got %d", cart.Amount)
	}
	s.expect(s.do(http.MethodGet, fmt.Sprintf("%s/add/%d", cartPath, book.ID), token, nil), http.StatusOK, &cart)
	if cart.Amount != 1000 {
		t.Fatalf("expected 1000 after add, got %d", cart.Amount)
	}

	var placed orderResponse
	order := gin.H{"userId": user.ID, "address": "123 Main St, City, ST 00000", "payment": "card"}
	s.expect(s.do(http.MethodPost, "/api/customer/placeOrder", token, order), http.StatusCreated, &placed)
	if placed.OrderStatus != "SUBMITTED" || placed.Amount != 1000 || placed.Username != "Reader" {
		t.Fatalf("unexpected order %+v", placed)
	}
	s.expect(s.do(http.MethodPost, "/api/customer/placeOrder", token, order), http.StatusBadRequest, nil)
	s.expect(s.do(http.MethodPost, "/api/customer/placeOrder", token, gin.H{"userId": user.ID, "address": "short", "payment": "card"}), http.StatusBadRequest, nil)

	var history []orderResponse
	s.expect(s.do(http.MethodGet, fmt.Sprintf("/api/customer/orders/%d", user.ID), token, nil), http.StatusOK, &history)
	if len(history) != 1 || history[0].ID != placed.ID {
		t.Fatalf("unexpected history %+v", history)
	}

	var all []orderResponse
	s.expect(s.do(http.MethodGet, "/api/admin/orders", adminToken, nil), http.StatusOK, &all)
	if len(all) != 1 {
		t.Fatalf("expected 1 order for admin, got %d", len(all))
	}

	s.expect(s.do(http.MethodGet, cartPath, token, nil), http.StatusNotFound, nil)
	s.expect(s.do(http.MethodPost, "/api/customer/cart", token, add), http.StatusCreated, nil)
	s.expect(s.do(http.MethodDelete, fmt.Sprintf("%s/remove/%d", cartPath, book.ID), token, nil), http.StatusNoContent, nil)
	s.expect(s.do(http.MethodGet, cartPath, token, nil), http.StatusOK, &cart)
	if cart.Amount != 0 || len(cart.Cart) != 0 {
		t.Fatalf("expected empty cart after remove, got %+v", cart)
	}

	var found []struct {
		Title string `json:"title"`
	}
	s.expect(s.do(http.MethodGet, "/api/customer/book/search/un", token, nil), http.StatusOK, &found)
	if len(found) != 1 || found[0].Title != "Dune" {
		t.Fatalf("unexpected search result %+v", found)
	}

	s.expect(s.do(http.MethodDelete, fmt.Sprintf("/api/admin/category/%d", category.ID), adminToken, nil), http.StatusNoContent, nil)
	s.expect(s.do(http.MethodGet, fmt.Sprintf("/api/admin/book/%d", book.ID), adminToken, nil), http.StatusNotFound, nil)
}

func TestPaymentFlow(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.login("admin@test.com", "admin")
	var category, book struct {
		ID uint `json:"id"`
	}
	s.expect(s.do(http.MethodPost, "/api/admin/category", adminToken, gin.H{"name": "Fiction"}), http.StatusCreated, &category)
	s.expect(s.do(http.MethodPost, fmt.Sprintf("/api/admin/book/%d", category.ID), adminToken, gin.H{"title": "Dune", "author": "Herbert", "price": 1000}), http.StatusCreated, &book)

	var user struct {
		ID uint `json:"id"`
	}
	s.expect(s.do(http.MethodPost, "/sign-up", "", gin.H{"name": "Reader", "email": "reader@example.com", "password": "secret1"}), http.StatusCreated, &user)
	token := s.login("reader@example.com", "secret1")
	s.expect(s.do(http.MethodPost, "/api/customer/cart", token, gin.H{"userId": user.ID, "bookId": book.ID}), http.StatusCreated, nil)

	var cart orderResponse
	s.expect(s.do(http.MethodGet, fmt.Sprintf("/api/customer/cart/%d", user.ID), token, nil), http.StatusOK, &cart)

	var paymentConfig map[string]string
	s.expect(s.do(http.MethodGet, "/api/payment/config", "", nil), http.StatusOK, &paymentConfig)
	if paymentConfig["publishableKey"] != "pk_test" {
		t.Fatalf("unexpected config %v", paymentConfig)
	}

	var failed struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	s.expect(s.do(http.MethodPost, "/api/payment/create-payment-intent", token, gin.H{"orderId": cart.ID, "amount": 0}), http.StatusBadRequest, &failed)
	if failed.Success {
		t.Fatal("expected success=false")
	}

	var created struct {
		PaymentIntentID string `json:"paymentIntentId"`
		ClientSecret    string `json:"clientSecret"`
		Currency        string `json:"currency"`
		Success         bool   `json:"success"`
	}
	intent := gin.H{"userId": user.ID, "orderId": cart.ID, "amount": 1000, "address": "123 Main St, City"}
	s.expect(s.do(http.MethodPost, "/api/payment/create-payment-intent", token, intent), http.StatusOK, &created)
	if !created.Success || created.ClientSecret == "" || created.Currency != "inr" {
		t.Fatalf("unexpected intent response %+v", created)
	}

	confirmPath := fmt.Sprintf("/api/payment/confirm?paymentIntentId=%s&orderId=%d", created.PaymentIntentID, cart.ID)
	s.expect(s.do(http.MethodPost, confirmPath, token, nil), http.StatusBadRequest, &failed)
	if failed.Message != "Payment not completed. Status: requires_payment_method" {
		t.Fatalf("unexpected message %q", failed.Message)
	}

	var cheap struct {
		PaymentIntentID string `json:"paymentIntentId"`
	}
	s.expect(s.do(http.MethodPost, "/api/payment/create-payment-intent", token, gin.H{"orderId": cart.ID, "amount": 1}), http.StatusOK, &cheap)
	s.provider.intents[cheap.PaymentIntentID].Status = payment.StatusSucceeded
	cheapPath := fmt.Sprintf("/api/payment/confirm?paymentIntentId=%s&orderId=%d", cheap.PaymentIntentID, cart.ID)
	s.expect(s.do(http.MethodPost, cheapPath, token, nil), http.StatusBadRequest, &failed)
	if failed.Message != "Payment amount does not match the order total" {
		t.Fatalf("unexpected message %q", failed.Message)
	}

	s.provider.intents[created.PaymentIntentID].Status = payment.StatusSucceeded
	s.expect(s.do(http.MethodPost, confirmPath, token, nil), http.StatusOK, nil)

	var history []orderResponse
	s.expect(s.do(http.MethodGet, fmt.Sprintf("/api/customer/orders/%d", user.ID), token, nil), http.StatusOK, &history)
	if len(history) != 1 || history[0].PaymentType != "STRIPE" {
		t.Fatalf("expected the paid order in history, got %+v", history)
	}

	var status struct {
		Status string `json:"status"`
		Amount int64  `json:"amount"`
	}
	s.expect(s.do(http.MethodGet, "/api/payment/status/"+created.PaymentIntentID, token, nil), http.StatusOK, &status)
	if status.Amount != 1000 || status.Status != payment.StatusSucceeded {
		t.Fatalf("unexpected status %+v", status)
	}
	s.expect(s.do(http.MethodGet, "/api/payment/status/pi_missing", token, nil), http.StatusNotFound, nil)
}

func TestImageUpload(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.login("admin@test.com", "admin")

	upload := func(filename string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		form := multipart.NewWriter(&body)
		part, err := form.CreateFormFile("image", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write([]byte("\x89PNG fake image"))
		form.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/admin/image", &body)
		req.Header.Set("Content-Type", form.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+adminToken)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		return rec
	}

	s.expect(upload("cover.gif"), http.StatusBadRequest, nil)

	var resp struct {
		ImagePath string `json:"imagePath"`
	}
	s.expect(upload("cover.png"), http.StatusCreated, &resp)
	if filepath.Ext(resp.ImagePath) != ".png" {
		t.Fatalf("unexpected image path %q", resp.ImagePath)
	}
	s.expect(s.do(http.MethodGet, resp.ImagePath, "", nil), http.StatusOK, nil)
}
