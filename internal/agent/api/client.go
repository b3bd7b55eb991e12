package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"sync"
	"time"

	domainErrors "github.com/quickserve/dispatch/internal/domain/errors"
	"github.com/quickserve/dispatch/internal/domain/model"
	"github.com/quickserve/dispatch/internal/server/http/dto"
)

// ErrUnauthorized indicates the device token is missing, expired, or revoked.
var ErrUnauthorized = errors.New("unauthorized")

// Session is the result of a successful rider login.
type Session struct {
	Token   string
	RiderID int64
	Name    string
}

// VerifyResult mirrors the verification response verbatim. The gate inspects
// both flags; anything short of success and verified keeps it locked.
type VerifyResult struct {
	Success  bool
	Verified bool
	Amount   *float64
}

// Client exposes the backend operations the rider agent needs.
type Client interface {
	Login(ctx context.Context, phone, pin string) (*Session, error)
	Logout(ctx context.Context) error
	ActiveOrders(ctx context.Context) ([]model.DeliveryOrder, error)
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, proofImageID, slipImageID *string) (*model.DeliveryOrder, error)
	PushLocation(ctx context.Context, orderID string, lat, lng float64) error
	VerifyPayment(ctx context.Context, amount float64) (*VerifyResult, error)
}

// HTTPClient implements Client against a running dispatchd.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.RWMutex
	token string
}

// NewHTTPClient creates an HTTP agent client with default timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse dispatch url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("dispatch url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// SetToken installs the device token used on authenticated calls.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *HTTPClient) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges phone and PIN for a device token and installs it.
func (c *HTTPClient) Login(ctx context.Context, phone, pin string) (*Session, error) {
	var resp dto.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/session/login", dto.LoginRequest{Phone: phone, PIN: pin}, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &Session{Token: resp.Token, RiderID: resp.RiderID, Name: resp.Name}, nil
}

// Logout flips the online gate off on the backend and drops the token.
func (c *HTTPClient) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/session/logout", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// ActiveOrders fetches the current backlog for the authenticated scope.
func (c *HTTPClient) ActiveOrders(ctx context.Context) ([]model.DeliveryOrder, error) {
	var resp []dto.OrderResponse
	if err := c.do(ctx, http.MethodGet, "/api/orders/active", nil, &resp); err != nil {
		return nil, err
	}
	orders := make([]model.DeliveryOrder, 0, len(resp))
	for _, r := range resp {
		orders = append(orders, toDomainOrder(r))
	}
	return orders, nil
}

// UpdateStatus asks the backend to apply a lifecycle transition.
func (c *HTTPClient) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, proofImageID, slipImageID *string) (*model.DeliveryOrder, error) {
	req := dto.TransitionRequest{Status: string(status), ProofImageID: proofImageID, SlipImageID: slipImageID}
	var resp dto.OrderResponse
	if err := c.do(ctx, http.MethodPost, path.Join("/api/orders", orderID, "status"), req, &resp); err != nil {
		return nil, err
	}
	order := toDomainOrder(resp)
	return &order, nil
}

// PushLocation reports a single GPS fix for the order being delivered.
func (c *HTTPClient) PushLocation(ctx context.Context, orderID string, lat, lng float64) error {
	req := dto.PositionRequest{Lat: lat, Lng: lng}
	return c.do(ctx, http.MethodPost, path.Join("/api/orders", orderID, "location"), req, nil)
}

// VerifyPayment checks the payment buffer for the expected amount.
func (c *HTTPClient) VerifyPayment(ctx context.Context, amount float64) (*VerifyResult, error) {
	var resp dto.VerifyResponse
	if err := c.do(ctx, http.MethodPost, "/api/payments/verify", dto.VerifyRequest{Amount: amount}, &resp); err != nil {
		return nil, err
	}
	return &VerifyResult{Success: resp.Success, Verified: resp.Verified, Amount: resp.Amount}, nil
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, payload, out any) error {
	target := *c.baseURL
	target.Path = path.Join(target.Path, endpoint)

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		if out == nil {
			return nil
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, out)
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return domainErrors.ErrNotFound
	case http.StatusConflict:
		return domainErrors.ErrConflict
	case http.StatusUnprocessableEntity:
		return domainErrors.ErrInvalidTransition
	default:
		data, _ := io.ReadAll(resp.Body)
		c.logger.Error("dispatch request failed",
			slog.String("method", method),
			slog.String("path", endpoint),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(data)),
		)
		return fmt.Errorf("dispatch error: %s", resp.Status)
	}
}

func toDomainOrder(r dto.OrderResponse) model.DeliveryOrder {
	items := make([]model.LineItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, model.LineItem{Name: item.Name, Quantity: item.Quantity, Price: item.Price})
	}
	return model.DeliveryOrder{
		ID:            r.ID,
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		Address:       r.Address,
		Items:         items,
		Total:         r.Total,
		DeliveryFee:   r.DeliveryFee,
		Status:        model.OrderStatus(r.Status),
		PaymentStatus: model.PaymentStatus(r.PaymentStatus),
		RiderID:       r.RiderID,
		ProofImageID:  r.ProofImageID,
		SlipImageID:   r.SlipImageID,
		RequestedFor:  r.RequestedFor,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
