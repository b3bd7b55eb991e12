package test

import (
	"context"
	"errors"
	"sync"
	"time"

	domainErrors "github.com/quickserve/dispatch/internal/domain/errors"
	"github.com/quickserve/dispatch/internal/domain/model"
	"github.com/quickserve/dispatch/internal/domain/repository"
	"github.com/quickserve/dispatch/internal/geo"
	"github.com/quickserve/dispatch/internal/server/ws"
)

// OrderRepositoryStub is an in-memory order store.
type OrderRepositoryStub struct {
	mu     sync.Mutex
	Orders map[string]*model.DeliveryOrder

	CreateErr error
	CASErr    error
}

// NewOrderRepositoryStub constructs an empty store.
func NewOrderRepositoryStub() *OrderRepositoryStub {
	return &OrderRepositoryStub{Orders: make(map[string]*model.DeliveryOrder)}
}

// Put seeds an order bypassing Create semantics.
func (s *OrderRepositoryStub) Put(order *model.DeliveryOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Orders[order.ID] = order
}

func (s *OrderRepositoryStub) Create(_ context.Context, order *model.DeliveryOrder) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Orders[order.ID]; ok {
		return domainErrors.ErrAlreadyExists
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	s.Orders[order.ID] = order
	return nil
}

func (s *OrderRepositoryStub) GetByID(_ context.Context, id string) (*model.DeliveryOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *OrderRepositoryStub) ListActive(_ context.Context, scope repository.OrderScope) ([]model.DeliveryOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.DeliveryOrder
	for _, order := range s.Orders {
		if model.IsTerminal(order.Status) {
			continue
		}
		if scope.RiderID != 0 && order.RiderID != nil && *order.RiderID != scope.RiderID {
			continue
		}
		result = append(result, *order)
	}
	return result, nil
}

func (s *OrderRepositoryStub) UpdateStatusCAS(_ context.Context, id string, from, to model.OrderStatus, riderID *int64, proofImageID, slipImageID *string) error {
	if s.CASErr != nil {
		return s.CASErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if order.Status != from {
		return domainErrors.ErrConflict
	}
	order.Status = to
	if riderID != nil {
		order.RiderID = riderID
	}
	if proofImageID != nil {
		order.ProofImageID = proofImageID
	}
	if slipImageID != nil {
		order.SlipImageID = slipImageID
	}
	order.UpdatedAt = time.Now()
	return nil
}

func (s *OrderRepositoryStub) SetPaymentStatus(_ context.Context, id string, status model.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if order.PaymentStatus != model.PaymentStatusUnpaid {
		return domainErrors.ErrAlreadyPaid
	}
	order.PaymentStatus = status
	return nil
}

// SignalRepositoryStub is an in-memory payment-signal buffer.
type SignalRepositoryStub struct {
	mu      sync.Mutex
	Signals []model.PaymentSignal
	nextID  int64
}

func (s *SignalRepositoryStub) Insert(_ context.Context, signal *model.PaymentSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	signal.ID = s.nextID
	if signal.ReceivedAt.IsZero() {
		signal.ReceivedAt = time.Now()
	}
	s.Signals = append(s.Signals, *signal)
	return nil
}

func (s *SignalRepositoryStub) ListSince(_ context.Context, since time.Time) ([]model.PaymentSignal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.PaymentSignal
	for i := len(s.Signals) - 1; i >= 0; i-- {
		if !s.Signals[i].ReceivedAt.Before(since) {
			result = append(result, s.Signals[i])
		}
	}
	return result, nil
}

func (s *SignalRepositoryStub) MatchAmount(_ context.Context, amount, tolerance float64, since time.Time) (*model.PaymentSignal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.Signals) - 1; i >= 0; i-- {
		sig := s.Signals[i]
		if sig.ReceivedAt.Before(since) {
			continue
		}
		delta := sig.Amount - amount
		if delta < 0 {
			delta = -delta
		}
		if delta <= tolerance {
			copied := sig
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (s *SignalRepositoryStub) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []model.PaymentSignal
	var removed int64
	for _, sig := range s.Signals {
		if sig.ReceivedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, sig)
	}
	s.Signals = kept
	return removed, nil
}

// PositionRepositoryStub keeps position history in memory.
type PositionRepositoryStub struct {
	mu        sync.Mutex
	Positions []model.Position
	AppendErr error
}

func (s *PositionRepositoryStub) Append(_ context.Context, pos model.Position) error {
	if s.AppendErr != nil {
		return s.AppendErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Positions = append(s.Positions, pos)
	return nil
}

func (s *PositionRepositoryStub) LastForOrder(_ context.Context, orderID string) (*model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.Positions) - 1; i >= 0; i-- {
		if s.Positions[i].OrderID == orderID {
			copied := s.Positions[i]
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// RiderRepositoryStub is an in-memory rider store.
type RiderRepositoryStub struct {
	mu     sync.Mutex
	Riders map[int64]*model.Rider
	nextID int64
}

// NewRiderRepositoryStub constructs an empty store.
func NewRiderRepositoryStub() *RiderRepositoryStub {
	return &RiderRepositoryStub{Riders: make(map[int64]*model.Rider)}
}

func (s *RiderRepositoryStub) Create(_ context.Context, name, phone, pinHash string) (*model.Rider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.Riders {
		if r.Phone == phone {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	s.nextID++
	rider := &model.Rider{ID: s.nextID, Name: name, Phone: phone, PINHash: pinHash, CreatedAt: time.Now()}
	s.Riders[rider.ID] = rider
	copied := *rider
	return &copied, nil
}

func (s *RiderRepositoryStub) GetByPhone(_ context.Context, phone string) (*model.Rider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.Riders {
		if r.Phone == phone {
			copied := *r
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (s *RiderRepositoryStub) GetByID(_ context.Context, id int64) (*model.Rider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rider, ok := s.Riders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	copied := *rider
	return &copied, nil
}

func (s *RiderRepositoryStub) SetOnline(_ context.Context, id int64, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rider, ok := s.Riders[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	rider.Online = online
	return nil
}

// HasherStub hashes PINs with a reversible prefix for assertions.
type HasherStub struct{}

func (HasherStub) Hash(plain string) (string, error) { return "hash:" + plain, nil }

func (HasherStub) Compare(hash, plain string) error {
	if hash != "hash:"+plain {
		return errors.New("pin mismatch")
	}
	return nil
}

// LocatorStub records live-position updates.
type LocatorStub struct {
	mu        sync.Mutex
	Updates   []geo.LivePosition
	Removed   []int64
	UpdateErr error
}

func (s *LocatorStub) Update(_ context.Context, riderID int64, lat, lng float64) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Updates = append(s.Updates, geo.LivePosition{RiderID: riderID, Lat: lat, Lng: lng})
	return nil
}

func (s *LocatorStub) Remove(_ context.Context, riderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Removed = append(s.Removed, riderID)
	return nil
}

func (s *LocatorStub) Last(_ context.Context, riderID int64) (*geo.LivePosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.Updates) - 1; i >= 0; i-- {
		if s.Updates[i].RiderID == riderID {
			copied := s.Updates[i]
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// BroadcasterStub records websocket events.
type BroadcasterStub struct {
	mu     sync.Mutex
	Events []ws.Event
}

func (s *BroadcasterStub) Broadcast(event ws.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, event)
}

// EventTypes lists the recorded event types in order.
func (s *BroadcasterStub) EventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]string, 0, len(s.Events))
	for _, e := range s.Events {
		types = append(types, e.Type)
	}
	return types
}
