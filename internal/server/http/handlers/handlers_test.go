package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/quickserve/dispatch/internal/domain/errors"
	"github.com/quickserve/dispatch/internal/domain/model"
	"github.com/quickserve/dispatch/internal/domain/repository"
	pkgAuth "github.com/quickserve/dispatch/internal/pkg/auth"
	"github.com/quickserve/dispatch/internal/server/http/dto"
	"github.com/quickserve/dispatch/internal/server/http/middleware"
	testhelpers "github.com/quickserve/dispatch/internal/test"
	"github.com/quickserve/dispatch/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(t *testing.T, method, path, target string, handler gin.HandlerFunc, setup func(*gin.Context), body []byte) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, path, func(c *gin.Context) {
		if setup != nil {
			setup(c)
		}
		handler(c)
	})

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func asRider(id int64) func(*gin.Context) {
	return func(c *gin.Context) {
		c.Set(middleware.ActorIDContextKey, id)
		c.Set(middleware.RoleContextKey, pkgAuth.RoleRider)
	}
}

func asDispatcher(id int64) func(*gin.Context) {
	return func(c *gin.Context) {
		c.Set(middleware.ActorIDContextKey, id)
		c.Set(middleware.RoleContextKey, pkgAuth.RoleDispatcher)
	}
}

func TestCurrentActorHelpers(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := CurrentActorID(c); got != 0 {
		t.Fatalf("expected 0 when not set, got %d", got)
	}
	if got := CurrentRole(c); got != "" {
		t.Fatalf("expected empty role when not set, got %q", got)
	}

	c.Set(middleware.ActorIDContextKey, int64(42))
	c.Set(middleware.RoleContextKey, pkgAuth.RoleDispatcher)
	if got := CurrentActorID(c); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if got := CurrentRole(c); got != pkgAuth.RoleDispatcher {
		t.Fatalf("expected dispatcher role, got %q", got)
	}
}

func TestSessionHandlerLogin(t *testing.T) {
	body, _ := json.Marshal(dto.LoginRequest{Phone: "0899999999", PIN: "1234"})
	resp := performRequest(t, http.MethodPost, "/login", "/login",
		NewSessionHandler(testhelpers.SessionFacadeStub{}).Login, nil, body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var out dto.LoginResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Token == "" || out.RiderID != 1 {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestSessionHandlerLoginRejections(t *testing.T) {
	handler := NewSessionHandler(testhelpers.SessionFacadeStub{
		LoginFn: func(context.Context, string, string) (*model.Rider, string, error) {
			return nil, "", domainErrors.ErrInvalidCredentials
		},
	})

	body, _ := json.Marshal(dto.LoginRequest{Phone: "0899999999", PIN: "0000"})
	resp := performRequest(t, http.MethodPost, "/login", "/login", handler.Login, nil, body)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad PIN, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodPost, "/login", "/login", handler.Login, nil, []byte("{"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", resp.Code)
	}
}

func TestSessionHandlerLogout(t *testing.T) {
	var loggedOut int64
	handler := NewSessionHandler(testhelpers.SessionFacadeStub{
		LogoutFn: func(_ context.Context, riderID int64) error {
			loggedOut = riderID
			return nil
		},
	})

	resp := performRequest(t, http.MethodPost, "/logout", "/logout", handler.Logout, asRider(7), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if loggedOut != 7 {
		t.Fatalf("expected rider 7 logged out, got %d", loggedOut)
	}
}

func TestOrderHandlerCreate(t *testing.T) {
	body, _ := json.Marshal(dto.CreateOrderRequest{
		CustomerName: "Somsak",
		Items:        []dto.LineItem{{Name: "Pad Thai", Quantity: 2, Price: 120}},
		Total:        240,
	})
	resp := performRequest(t, http.MethodPost, "/orders", "/orders",
		NewOrderHandler(testhelpers.OrderFacadeStub{}).Create, nil, body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var out dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Status != string(model.OrderStatusPending) || out.PaymentStatus != string(model.PaymentStatusUnpaid) {
		t.Fatalf("expected pending/unpaid, got %+v", out)
	}
}

func TestOrderHandlerCreateRejectsBadAmount(t *testing.T) {
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{
		CreateFn: func(context.Context, *model.DeliveryOrder) error {
			return domainErrors.ErrInvalidAmount
		},
	})
	body, _ := json.Marshal(dto.CreateOrderRequest{Total: 0})
	resp := performRequest(t, http.MethodPost, "/orders", "/orders", handler.Create, nil, body)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestOrderHandlerActiveScopesRider(t *testing.T) {
	var gotScope repository.OrderScope
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{
		ActiveFn: func(_ context.Context, scope repository.OrderScope) ([]model.DeliveryOrder, error) {
			gotScope = scope
			return []model.DeliveryOrder{{ID: "ord-1"}}, nil
		},
	})

	resp := performRequest(t, http.MethodGet, "/active", "/active?date=2026-08-23", handler.Active, asRider(7), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotScope.RiderID != 7 || gotScope.Date != "2026-08-23" {
		t.Fatalf("unexpected scope: %+v", gotScope)
	}

	resp = performRequest(t, http.MethodGet, "/active", "/active", handler.Active, asDispatcher(1), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotScope.RiderID != 0 {
		t.Fatalf("dispatcher scope must not be rider-bound: %+v", gotScope)
	}
}

func TestOrderHandlerTransition(t *testing.T) {
	var gotReq usecase.TransitionRequest
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{
		TransitionFn: func(_ context.Context, req usecase.TransitionRequest) (*model.DeliveryOrder, error) {
			gotReq = req
			return &model.DeliveryOrder{ID: req.OrderID, Status: req.To}, nil
		},
	})

	body, _ := json.Marshal(dto.TransitionRequest{Status: string(model.OrderStatusOutForDelivery)})
	resp := performRequest(t, http.MethodPost, "/orders/:id/status", "/orders/ord-1/status", handler.Transition, asRider(5), body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotReq.OrderID != "ord-1" || gotReq.To != model.OrderStatusOutForDelivery {
		t.Fatalf("unexpected request: %+v", gotReq)
	}
	if gotReq.RiderID == nil || *gotReq.RiderID != 5 {
		t.Fatalf("expected rider id attached, got %v", gotReq.RiderID)
	}
}

func TestOrderHandlerTransitionErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", domainErrors.ErrNotFound, http.StatusNotFound},
		{"illegal move", domainErrors.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{"stale actor", domainErrors.ErrConflict, http.StatusConflict},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewOrderHandler(testhelpers.OrderFacadeStub{
				TransitionFn: func(context.Context, usecase.TransitionRequest) (*model.DeliveryOrder, error) {
					return nil, tc.err
				},
			})
			body, _ := json.Marshal(dto.TransitionRequest{Status: string(model.OrderStatusConfirmed)})
			resp := performRequest(t, http.MethodPost, "/orders/:id/status", "/orders/ord-1/status", handler.Transition, asDispatcher(1), body)
			if resp.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, resp.Code)
			}
		})
	}
}

func TestTrackingHandlerPush(t *testing.T) {
	var gotLat, gotLng float64
	var gotRider int64
	handler := NewTrackingHandler(testhelpers.TrackingFacadeStub{
		PushFn: func(_ context.Context, riderID int64, orderID string, lat, lng float64, _ time.Time) error {
			gotRider, gotLat, gotLng = riderID, lat, lng
			if orderID != "ord-1" {
				t.Fatalf("unexpected order id %q", orderID)
			}
			return nil
		},
	})

	body, _ := json.Marshal(dto.PositionRequest{Lat: 13.7563, Lng: 100.5018})
	resp := performRequest(t, http.MethodPost, "/orders/:id/location", "/orders/ord-1/location", handler.Push, asRider(5), body)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
	if gotRider != 5 || gotLat != 13.7563 || gotLng != 100.5018 {
		t.Fatalf("unexpected push args: %d %v %v", gotRider, gotLat, gotLng)
	}
}

func TestTrackingHandlerPushRejectsBadCoordinates(t *testing.T) {
	handler := NewTrackingHandler(testhelpers.TrackingFacadeStub{
		PushFn: func(context.Context, int64, string, float64, float64, time.Time) error {
			return domainErrors.ErrInvalidCoordinates
		},
	})
	body, _ := json.Marshal(dto.PositionRequest{Lat: 0, Lng: 0})
	resp := performRequest(t, http.MethodPost, "/orders/:id/location", "/orders/ord-1/location", handler.Push, asRider(5), body)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestTrackingHandlerLast(t *testing.T) {
	handler := NewTrackingHandler(testhelpers.TrackingFacadeStub{})
	resp := performRequest(t, http.MethodGet, "/orders/:id/location", "/orders/ord-1/location", handler.Last, asDispatcher(1), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var out dto.PositionResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.OrderID != "ord-1" {
		t.Fatalf("unexpected response: %+v", out)
	}

	handler = NewTrackingHandler(testhelpers.TrackingFacadeStub{
		LastFn: func(context.Context, string) (*model.Position, error) {
			return nil, domainErrors.ErrNotFound
		},
	})
	resp = performRequest(t, http.MethodGet, "/orders/:id/location", "/orders/ord-2/location", handler.Last, asDispatcher(1), nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when no position, got %d", resp.Code)
	}
}

func TestPaymentHandlerVerify(t *testing.T) {
	amount := 450.0
	handler := NewPaymentHandler(testhelpers.PaymentFacadeStub{
		VerifyFn: func(_ context.Context, got float64) (*model.VerificationResult, error) {
			if got != amount {
				t.Fatalf("unexpected amount %v", got)
			}
			return &model.VerificationResult{Verified: true, Amount: &amount}, nil
		},
	})

	body, _ := json.Marshal(dto.VerifyRequest{Amount: amount})
	resp := performRequest(t, http.MethodPost, "/verify", "/verify", handler.Verify, nil, body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var out dto.VerifyResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Success || !out.Verified {
		t.Fatalf("expected success+verified, got %+v", out)
	}
	if out.Amount == nil || *out.Amount != amount {
		t.Fatalf("expected amount echoed, got %v", out.Amount)
	}
}

func TestPaymentHandlerVerifyNoMatch(t *testing.T) {
	handler := NewPaymentHandler(testhelpers.PaymentFacadeStub{})
	body, _ := json.Marshal(dto.VerifyRequest{Amount: 450})
	resp := performRequest(t, http.MethodPost, "/verify", "/verify", handler.Verify, nil, body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var out dto.VerifyResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Success || out.Verified {
		t.Fatalf("expected success without verification, got %+v", out)
	}
}

func TestPaymentHandlerVerifyFailure(t *testing.T) {
	handler := NewPaymentHandler(testhelpers.PaymentFacadeStub{
		VerifyFn: func(context.Context, float64) (*model.VerificationResult, error) {
			return nil, errors.New("db down")
		},
	})
	body, _ := json.Marshal(dto.VerifyRequest{Amount: 450})
	resp := performRequest(t, http.MethodPost, "/verify", "/verify", handler.Verify, nil, body)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if bytes.Contains(resp.Body.Bytes(), []byte("success")) {
		t.Fatal("failure response must not carry a success payload")
	}
}

func TestPaymentHandlerSignals(t *testing.T) {
	handler := NewPaymentHandler(testhelpers.PaymentFacadeStub{
		SignalsFn: func(_ context.Context, expected float64) ([]usecase.SignalView, error) {
			if expected != 450 {
				t.Fatalf("unexpected expected amount %v", expected)
			}
			return []usecase.SignalView{
				{Signal: model.PaymentSignal{ID: 2, Amount: 450}, Matched: true},
				{Signal: model.PaymentSignal{ID: 1, Amount: 120}},
			}, nil
		},
	})

	resp := performRequest(t, http.MethodGet, "/signals", "/signals?amount=450", handler.Signals, asDispatcher(1), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var out []dto.SignalResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 || !out[0].Matched || out[1].Matched {
		t.Fatalf("unexpected views: %+v", out)
	}

	resp = performRequest(t, http.MethodGet, "/signals", "/signals?amount=abc", handler.Signals, asDispatcher(1), nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad amount, got %d", resp.Code)
	}
}

func TestPaymentHandlerRecordSignal(t *testing.T) {
	body, _ := json.Marshal(dto.SignalRequest{Sender: "KBank", Amount: 450, RawText: "received 450.00 THB"})
	resp := performRequest(t, http.MethodPost, "/signals", "/signals",
		NewPaymentHandler(testhelpers.PaymentFacadeStub{}).RecordSignal, nil, body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
}

func TestPaymentHandlerConfirm(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"ok", nil, http.StatusOK},
		{"missing order", domainErrors.ErrNotFound, http.StatusNotFound},
		{"repeat", domainErrors.ErrAlreadyPaid, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewPaymentHandler(testhelpers.PaymentFacadeStub{
				ConfirmFn: func(context.Context, string) error { return tc.err },
			})
			resp := performRequest(t, http.MethodPost, "/orders/:id/confirm-payment", "/orders/ord-1/confirm-payment", handler.Confirm, asDispatcher(1), nil)
			if resp.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, resp.Code)
			}
		})
	}
}
