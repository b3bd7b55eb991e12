package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/quickserve/dispatch/internal/domain/errors"
	"github.com/quickserve/dispatch/internal/domain/model"
	"github.com/quickserve/dispatch/internal/domain/repository"
)

// DBPool is the subset of pgxpool.Pool used by the storage. Declared as an
// interface so tests can substitute pgxmock.
type DBPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   DBPool
	logger *slog.Logger
}

type orderRepository struct {
	storage *Storage
}

type signalRepository struct {
	storage *Storage
}

type positionRepository struct {
	storage *Storage
}

type riderRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) PaymentSignals() repository.PaymentSignalRepository {
	return &signalRepository{storage: s}
}

func (s *Storage) Positions() repository.PositionRepository {
	return &positionRepository{storage: s}
}

func (s *Storage) Riders() repository.RiderRepository {
	return &riderRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS riders (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            phone TEXT UNIQUE NOT NULL,
            pin_hash TEXT NOT NULL,
            online BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            id TEXT PRIMARY KEY,
            customer_name TEXT NOT NULL DEFAULT '',
            customer_phone TEXT NOT NULL DEFAULT '',
            address TEXT NOT NULL DEFAULT '',
            items JSONB NOT NULL DEFAULT '[]',
            total DOUBLE PRECISION NOT NULL,
            delivery_fee DOUBLE PRECISION NOT NULL DEFAULT 0,
            status TEXT NOT NULL,
            payment_status TEXT NOT NULL,
            rider_id BIGINT REFERENCES riders(id),
            proof_image_id TEXT,
            slip_image_id TEXT,
            requested_for TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS payment_signals (
            id SERIAL PRIMARY KEY,
            sender TEXT NOT NULL,
            amount DOUBLE PRECISION NOT NULL,
            raw_text TEXT NOT NULL,
            received_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS positions (
            id SERIAL PRIMARY KEY,
            order_id TEXT NOT NULL REFERENCES orders(id),
            rider_id BIGINT NOT NULL,
            lat DOUBLE PRECISION NOT NULL,
            lng DOUBLE PRECISION NOT NULL,
            recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_order ON positions(order_id, recorded_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_received ON payment_signals(received_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

const orderColumns = `id, customer_name, customer_phone, address, items, total, delivery_fee,
                      status, payment_status, rider_id, proof_image_id, slip_image_id,
                      requested_for, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.DeliveryOrder, error) {
	var o model.DeliveryOrder
	var items []byte
	err := row.Scan(&o.ID, &o.CustomerName, &o.CustomerPhone, &o.Address, &items, &o.Total,
		&o.DeliveryFee, &o.Status, &o.PaymentStatus, &o.RiderID, &o.ProofImageID,
		&o.SlipImageID, &o.RequestedFor, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode order items: %w", err)
		}
	}
	return &o, nil
}

// --- OrderRepository implementation ---

func (r *orderRepository) Create(ctx context.Context, order *model.DeliveryOrder) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	const query = `INSERT INTO orders
                   (id, customer_name, customer_phone, address, items, total, delivery_fee, status, payment_status, requested_for)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
                   RETURNING created_at, updated_at`
	err = r.storage.pool.QueryRow(ctx, query,
		order.ID, order.CustomerName, order.CustomerPhone, order.Address, items,
		order.Total, order.DeliveryFee, order.Status, order.PaymentStatus, order.RequestedFor,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.DeliveryOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListActive(ctx context.Context, scope repository.OrderScope) ([]model.DeliveryOrder, error) {
	query := `SELECT ` + orderColumns + `
              FROM orders
              WHERE status NOT IN ($1, $2)`
	args := []any{model.OrderStatusDelivered, model.OrderStatusCancelled}

	if scope.Date != "" {
		args = append(args, scope.Date)
		query += fmt.Sprintf(" AND created_at::date = $%d", len(args))
	}
	if scope.RiderID != 0 {
		args = append(args, scope.RiderID)
		query += fmt.Sprintf(" AND (rider_id IS NULL OR rider_id = $%d)", len(args))
	}
	query += " ORDER BY created_at"

	rows, err := r.storage.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.DeliveryOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) UpdateStatusCAS(ctx context.Context, id string, from, to model.OrderStatus, riderID *int64, proofImageID, slipImageID *string) error {
	const query = `UPDATE orders
                   SET status=$1,
                       rider_id=COALESCE($2, rider_id),
                       proof_image_id=COALESCE($3, proof_image_id),
                       slip_image_id=COALESCE($4, slip_image_id),
                       updated_at=NOW()
                   WHERE id=$5 AND status=$6`
	tag, err := r.storage.pool.Exec(ctx, query, to, riderID, proofImageID, slipImageID, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domainErrors.ErrConflict
	}
	return nil
}

func (r *orderRepository) SetPaymentStatus(ctx context.Context, id string, status model.PaymentStatus) error {
	const query = `UPDATE orders SET payment_status=$1, updated_at=NOW()
                   WHERE id=$2 AND payment_status=$3`
	tag, err := r.storage.pool.Exec(ctx, query, status, id, model.PaymentStatusUnpaid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domainErrors.ErrAlreadyPaid
	}
	return nil
}

// --- PaymentSignalRepository implementation ---

func (r *signalRepository) Insert(ctx context.Context, signal *model.PaymentSignal) error {
	const query = `INSERT INTO payment_signals (sender, amount, raw_text, received_at)
                   VALUES ($1, $2, $3, COALESCE($4, NOW()))
                   RETURNING id, received_at`
	var receivedAt *time.Time
	if !signal.ReceivedAt.IsZero() {
		receivedAt = &signal.ReceivedAt
	}
	return r.storage.pool.QueryRow(ctx, query, signal.Sender, signal.Amount, signal.RawText, receivedAt).
		Scan(&signal.ID, &signal.ReceivedAt)
}

func (r *signalRepository) ListSince(ctx context.Context, since time.Time) ([]model.PaymentSignal, error) {
	const query = `SELECT id, sender, amount, raw_text, received_at
                   FROM payment_signals WHERE received_at >= $1
                   ORDER BY received_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.PaymentSignal
	for rows.Next() {
		var s model.PaymentSignal
		if err := rows.Scan(&s.ID, &s.Sender, &s.Amount, &s.RawText, &s.ReceivedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *signalRepository) MatchAmount(ctx context.Context, amount, tolerance float64, since time.Time) (*model.PaymentSignal, error) {
	const query = `SELECT id, sender, amount, raw_text, received_at
                   FROM payment_signals
                   WHERE ABS(amount - $1) <= $2 AND received_at >= $3
                   ORDER BY received_at DESC
                   LIMIT 1`
	var s model.PaymentSignal
	err := r.storage.pool.QueryRow(ctx, query, amount, tolerance, since).
		Scan(&s.ID, &s.Sender, &s.Amount, &s.RawText, &s.ReceivedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *signalRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.storage.pool.Exec(ctx, `DELETE FROM payment_signals WHERE received_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// --- PositionRepository implementation ---

func (r *positionRepository) Append(ctx context.Context, pos model.Position) error {
	const query = `INSERT INTO positions (order_id, rider_id, lat, lng, recorded_at)
                   VALUES ($1, $2, $3, $4, $5)`
	_, err := r.storage.pool.Exec(ctx, query, pos.OrderID, pos.RiderID, pos.Lat, pos.Lng, pos.RecordedAt)
	return err
}

func (r *positionRepository) LastForOrder(ctx context.Context, orderID string) (*model.Position, error) {
	const query = `SELECT order_id, rider_id, lat, lng, recorded_at
                   FROM positions WHERE order_id=$1
                   ORDER BY recorded_at DESC LIMIT 1`
	var p model.Position
	err := r.storage.pool.QueryRow(ctx, query, orderID).Scan(&p.OrderID, &p.RiderID, &p.Lat, &p.Lng, &p.RecordedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// --- RiderRepository implementation ---

func (r *riderRepository) Create(ctx context.Context, name, phone, pinHash string) (*model.Rider, error) {
	const query = `INSERT INTO riders (name, phone, pin_hash) VALUES ($1, $2, $3) RETURNING id, created_at`
	rider := model.Rider{Name: name, Phone: phone, PINHash: pinHash}
	err := r.storage.pool.QueryRow(ctx, query, name, phone, pinHash).Scan(&rider.ID, &rider.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &rider, nil
}

func (r *riderRepository) GetByPhone(ctx context.Context, phone string) (*model.Rider, error) {
	const query = `SELECT id, name, phone, pin_hash, online, created_at FROM riders WHERE phone=$1`
	return r.scanRider(r.storage.pool.QueryRow(ctx, query, phone))
}

func (r *riderRepository) GetByID(ctx context.Context, id int64) (*model.Rider, error) {
	const query = `SELECT id, name, phone, pin_hash, online, created_at FROM riders WHERE id=$1`
	return r.scanRider(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *riderRepository) SetOnline(ctx context.Context, id int64, online bool) error {
	tag, err := r.storage.pool.Exec(ctx, `UPDATE riders SET online=$1 WHERE id=$2`, online, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *riderRepository) scanRider(row pgx.Row) (*model.Rider, error) {
	var rider model.Rider
	err := row.Scan(&rider.ID, &rider.Name, &rider.Phone, &rider.PINHash, &rider.Online, &rider.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &rider, nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
