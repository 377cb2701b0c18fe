package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"shopgate/internal/model"
)

// Postgres persists sessions and shipment events when DATABASE_URL is set.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	p := &Postgres{db: db}
	if err := p.ensureSchema(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureSchema() error {
	_, err := p.db.Exec(`
CREATE TABLE IF NOT EXISTS payment_sessions (
    transaction_id TEXT PRIMARY KEY,
    amount         DOUBLE PRECISION NOT NULL,
    redirect_url   TEXT NOT NULL,
    meta_info      JSONB,
    state          TEXT NOT NULL DEFAULT 'PENDING',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS shipment_events (
    id          UUID PRIMARY KEY,
    order_id    TEXT NOT NULL,
    awb         TEXT,
    status      TEXT,
    payload     JSONB NOT NULL,
    received_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS shipment_events_order_idx ON shipment_events (order_id, received_at);
`)
	return err
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) SavePaymentSession(ctx context.Context, s model.PaymentSession) error {
	meta, _ := json.Marshal(s.MetaInfo)
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.State == "" {
		s.State = "PENDING"
	}
	_, err := p.db.ExecContext(ctx, `
INSERT INTO payment_sessions (transaction_id, amount, redirect_url, meta_info, state, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (transaction_id) DO UPDATE SET state = EXCLUDED.state`,
		s.TransactionID, s.Amount, s.RedirectURL, meta, s.State, s.CreatedAt)
	return err
}

func (p *Postgres) GetPaymentSession(ctx context.Context, transactionID string) (model.PaymentSession, error) {
	var s model.PaymentSession
	var meta []byte
	err := p.db.QueryRowContext(ctx, `
SELECT transaction_id, amount, redirect_url, meta_info, state, created_at
FROM payment_sessions WHERE transaction_id = $1`, transactionID).
		Scan(&s.TransactionID, &s.Amount, &s.RedirectURL, &meta, &s.State, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return model.PaymentSession{}, ErrNotFound
	}
	if err != nil {
		return model.PaymentSession{}, err
	}
	if len(meta) > 0 {
		_ = json.Unmarshal(meta, &s.MetaInfo)
	}
	return s, nil
}

func (p *Postgres) UpdatePaymentState(ctx context.Context, transactionID, state string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE payment_sessions SET state = $2 WHERE transaction_id = $1`, transactionID, state)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) RecordShipmentEvent(ctx context.Context, e model.ShipmentEvent) (string, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now().UTC()
	}
	payload, _ := json.Marshal(e.Payload)
	_, err := p.db.ExecContext(ctx, `
INSERT INTO shipment_events (id, order_id, awb, status, payload, received_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.OrderID, e.AWB, e.Status, payload, e.ReceivedAt)
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

func (p *Postgres) ListShipmentEvents(ctx context.Context, orderID string, limit int) ([]model.ShipmentEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
SELECT id, order_id, COALESCE(awb, ''), COALESCE(status, ''), payload, received_at
FROM shipment_events WHERE order_id = $1
ORDER BY received_at ASC LIMIT $2`, orderID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.ShipmentEvent
	for rows.Next() {
		var e model.ShipmentEvent
		var payload []byte
		if err := rows.Scan(&e.ID, &e.OrderID, &e.AWB, &e.Status, &payload, &e.ReceivedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(payload, &e.Payload)
		out = append(out, e)
	}
	return out, rows.Err()
}
