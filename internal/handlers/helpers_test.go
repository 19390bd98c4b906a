package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tixup/internal/config"
	"tixup/internal/models"
	"tixup/internal/repositories"
	"tixup/internal/services"
)

const testEventName = "Festival de Música Eletrônica 2024"

// testClock is a settable clock shared by the handler and the checkout service
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

type testApp struct {
	router   http.Handler
	clock    *testClock
	checkout *CheckoutHandler
	receipts *recordingReceiptStore
}

// recordingReceiptStore keeps archived receipts in memory
type recordingReceiptStore struct {
	saved []*models.Receipt
}

func (s *recordingReceiptStore) Save(_ context.Context, receipt *models.Receipt) (string, error) {
	s.saved = append(s.saved, receipt)
	return "memory://" + receipt.OrderNumber, nil
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := zap.NewNop()
	clock := &testClock{now: time.Date(2026, time.March, 10, 20, 0, 0, 0, time.UTC)}
	store := sessions.NewCookieStore([]byte("test-session-secret-32-bytes-lo!"))
	carts := repositories.NewMemoryCartProvider()
	receipts := &recordingReceiptStore{}

	checkoutService := services.NewCheckoutService(services.CheckoutServiceConfig{
		Pricing:          services.NewPricingService(decimal.NewFromInt(25)),
		Payments:         services.NewMockPaymentService(logger),
		Receipts:         receipts,
		Logger:           logger,
		DocumentHashSalt: "test-salt",
		PlaceholderEvent: testEventName,
		Now:              clock.Now,
	})

	cartHandler := NewCartHandler(store, carts, logger, testEventName)
	checkoutHandler := NewCheckoutHandler(store, carts, checkoutService, config.CheckoutConfig{
		ReservationWindow:    10 * time.Minute,
		ReservationEnforced:  true,
		PlaceholderEventName: testEventName,
	}, logger)
	checkoutHandler.now = clock.Now
	formatHandler := NewFormatHandler()
	formatHandler.now = clock.Now

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/cart", cartHandler.GetCart)
		r.Delete("/cart", cartHandler.ClearCart)
		r.Post("/cart/items", cartHandler.AddItem)
		r.Patch("/cart/items/{id}", cartHandler.UpdateItem)
		r.Delete("/cart/items/{id}", cartHandler.RemoveItem)
		r.Get("/checkout", checkoutHandler.GetCheckout)
		r.Post("/checkout", checkoutHandler.SubmitCheckout)
		r.Post("/format/{field}", formatHandler.FormatField)
		r.Post("/profile/validate", formatHandler.ValidateProfile)
	})

	return &testApp{router: r, clock: clock, checkout: checkoutHandler, receipts: receipts}
}

// testClient replays the session cookie between requests like a browser
type testClient struct {
	t       *testing.T
	app     *testApp
	cookies []*http.Cookie
}

func (a *testApp) client(t *testing.T) *testClient {
	return &testClient{t: t, app: a}
}

func (c *testClient) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	c.app.router.ServeHTTP(rec, req)

	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func pistaItem(quantity int) models.CartItem {
	return models.CartItem{
		ID:       1,
		Title:    "Festival - Pista Inteira",
		Date:     "15/03/2026",
		Time:     "22:00",
		Location: "São Paulo",
		Venue:    "Allianz Parque",
		Price:    decimal.NewFromInt(150),
		Quantity: quantity,
	}
}

func validSubmitRequest() submitCheckoutRequest {
	return submitCheckoutRequest{
		Buyer: models.BuyerInfo{
			Name:  "Maria Silva",
			Email: "maria@example.com",
			CPF:   "52998224725",
			Phone: "11987654321",
		},
		Payment: models.PaymentFormData{
			CardNumber: "4111111111111111",
			CardName:   "MARIA SILVA",
			ExpiryDate: "1228",
			CVV:        "123",
		},
	}
}
