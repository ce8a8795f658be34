package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/omnishop/checkout-service/internal/checkout"
	"github.com/omnishop/checkout-service/internal/model"
	"github.com/omnishop/checkout-service/internal/payment"
)

type stubEngine struct {
	rec *model.CartReconciliation
}

func (s *stubEngine) Reconcile(context.Context, []model.CheckoutItem) (*model.CartReconciliation, error) {
	return s.rec, nil
}

type stubAddresses struct {
	addrs []model.Address
}

func (s *stubAddresses) ListAddresses(context.Context, string) ([]model.Address, error) {
	return s.addrs, nil
}

func (s *stubAddresses) CreateAddress(_ context.Context, _ string, in *model.AddressInput) (*model.Address, error) {
	return &model.Address{ID: "addr-new", City: in.City}, nil
}

func (s *stubAddresses) UpdateAddress(context.Context, string, *model.AddressInput) (*model.Address, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAddresses) DeleteAddress(context.Context, string) error {
	return nil
}

type stubOrders struct{}

func (stubOrders) CreateOrder(context.Context, *model.CreateOrderRequest, string) (*model.CreateOrderResponse, error) {
	return &model.CreateOrderResponse{Success: true, OrderID: "ord-1", Amount: "100.00"}, nil
}

func readyRec() *model.CartReconciliation {
	return &model.CartReconciliation{
		Success:              true,
		OverallStatus:        model.OverallReady,
		CanProceedToCheckout: true,
		Lines: []model.LineVerdict{{
			ProductID:            "p1",
			StatusCode:           model.StatusInStock,
			CanProceedToCheckout: true,
			CartDetails:          model.CartDetails{ItemTotal: decimal.NewFromInt(100)},
		}},
	}
}

func blockedRec() *model.CartReconciliation {
	return &model.CartReconciliation{
		Success:       true,
		OverallStatus: model.OverallRequiresAction,
		Lines: []model.LineVerdict{{
			ProductID:  "p1",
			StatusCode: model.StatusOutOfStock,
		}},
	}
}

func newTestServer(rec *model.CartReconciliation) *echo.Echo {
	addrs := &stubAddresses{addrs: []model.Address{{ID: "addr-1", IsDefault: true}}}
	dispatcher := payment.NewDispatcher(stubOrders{}, nil, zap.NewNop())
	orch := checkout.NewOrchestrator(checkout.NewStore(time.Minute), &stubEngine{rec: rec}, addrs, dispatcher, zap.NewNop())

	e := echo.New()
	NewCheckoutHandler(orch, addrs, nil, zap.NewNop()).Register(e)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func startSession(t *testing.T, e *echo.Echo) *checkout.SessionView {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/api/v1/checkout/sessions",
		`{"userId":"u1","authenticated":true,"items":[{"productId":"p1","quantity":1}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Session *checkout.SessionView `json:"session"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Session
}

func TestStartSessionEndpoint(t *testing.T) {
	e := newTestServer(readyRec())
	view := startSession(t, e)

	if view.ID == "" {
		t.Error("session id should be set")
	}
	if view.Step != model.StepReview {
		t.Errorf("step = %s, want %s", view.Step, model.StepReview)
	}
}

func TestStartSessionEmptyItems(t *testing.T) {
	e := newTestServer(readyRec())
	rec := doJSON(e, http.MethodPost, "/api/v1/checkout/sessions",
		`{"userId":"u1","authenticated":true,"items":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUnknownActionType(t *testing.T) {
	e := newTestServer(readyRec())
	view := startSession(t, e)

	rec := doJSON(e, http.MethodPost, "/api/v1/checkout/sessions/"+view.ID+"/actions", `{"type":"teleport"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestActionOnUnknownSession(t *testing.T) {
	e := newTestServer(readyRec())
	rec := doJSON(e, http.MethodPost, "/api/v1/checkout/sessions/nope/actions", `{"type":"advance"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGuardRejectionReturnsConflict(t *testing.T) {
	e := newTestServer(blockedRec())
	view := startSession(t, e)

	rec := doJSON(e, http.MethodPost, "/api/v1/checkout/sessions/"+view.ID+"/actions", `{"type":"advance"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	// The rejected transition still returns the session so the client can
	// render the updated error state.
	var resp struct {
		Session *checkout.SessionView `json:"session"`
		Error   string                `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Session == nil || resp.Session.Step != model.StepReview {
		t.Error("conflict response should carry the unchanged session")
	}
	if resp.Error == "" {
		t.Error("conflict response should carry an error message")
	}
}

func TestAddressPassthrough(t *testing.T) {
	e := newTestServer(readyRec())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/addresses", nil)
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	// Missing user header is rejected before hitting the backend.
	rec = doJSON(e, http.MethodGet, "/api/v1/addresses", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status without X-User-ID = %d, want 401", rec.Code)
	}
}
