package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cargo-recon/internal/pricing"
	"cargo-recon/internal/reconcile/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS customers (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	phone            TEXT NOT NULL DEFAULT '',
	region           TEXT NOT NULL DEFAULT '',
	active           BOOLEAN NOT NULL DEFAULT TRUE,
	discount_percent DOUBLE PRECISION,
	discount_info    TEXT NOT NULL DEFAULT '',
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_customers_active ON customers(active);

CREATE TABLE IF NOT EXISTS batches (
	id            TEXT PRIMARY KEY,
	source_text   TEXT NOT NULL,
	total         INTEGER NOT NULL,
	verified      INTEGER NOT NULL,
	similar       INTEGER NOT NULL,
	new_customers INTEGER NOT NULL,
	untracked     INTEGER NOT NULL,
	warnings      INTEGER NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	committed_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS shipments (
	id            TEXT PRIMARY KEY,
	batch_id      TEXT NOT NULL REFERENCES batches(id),
	row_index     INTEGER NOT NULL,
	status        TEXT NOT NULL,
	confidence    DOUBLE PRECISION NOT NULL,
	customer_json JSONB,
	item_json     JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	base_volume   DOUBLE PRECISION NOT NULL,
	unit_price    DOUBLE PRECISION NOT NULL,
	master_rate   DOUBLE PRECISION NOT NULL,
	master_reason TEXT NOT NULL DEFAULT '',
	base_amount   DOUBLE PRECISION NOT NULL,
	master_amount DOUBLE PRECISION NOT NULL,
	auto_total    DOUBLE PRECISION NOT NULL,
	manual_total  DOUBLE PRECISION NOT NULL,
	final_total   DOUBLE PRECISION NOT NULL,
	history_json  JSONB NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_shipments_batch ON shipments(batch_id, row_index);

CREATE TABLE IF NOT EXISTS adjustments (
	seq         BIGSERIAL,
	id          TEXT PRIMARY KEY,
	shipment_id TEXT NOT NULL REFERENCES shipments(id),
	type        TEXT NOT NULL,
	amount      DOUBLE PRECISION NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	created_by  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_adjustments_shipment ON adjustments(shipment_id);
`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ListActiveCustomers(ctx context.Context) ([]model.Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, phone, region, active, discount_percent, discount_info
		FROM customers WHERE active ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Region, &c.Active, &c.DiscountPercent, &c.DiscountInfo); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetCustomer(ctx context.Context, id string) (model.Customer, error) {
	var c model.Customer
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, phone, region, active, discount_percent, discount_info
		FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Phone, &c.Region, &c.Active, &c.DiscountPercent, &c.DiscountInfo)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Customer{}, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	return c, err
}

func (s *PostgresStore) UpsertCustomer(ctx context.Context, c model.Customer) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO customers (id, name, phone, region, active, discount_percent, discount_info, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, phone = EXCLUDED.phone, region = EXCLUDED.region,
			active = EXCLUDED.active, discount_percent = EXCLUDED.discount_percent,
			discount_info = EXCLUDED.discount_info, updated_at = NOW()`,
		c.ID, c.Name, c.Phone, c.Region, c.Active, c.DiscountPercent, c.DiscountInfo)
	if err != nil {
		return fmt.Errorf("upsert customer: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveBatch(ctx context.Context, b model.Batch) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO batches (id, source_text, total, verified, similar, new_customers, untracked, warnings, created_at, updated_at, committed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.SourceText, b.Counters.Total, b.Counters.Verified, b.Counters.Similar, b.Counters.New,
		b.Counters.Untracked, b.Counters.Warnings, b.CreatedAt, b.UpdatedAt, b.CommittedAt)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	for _, sh := range b.Shipments {
		var customerJSON []byte
		if sh.Record.Customer != nil {
			cj, err := marshalJSON(sh.Record.Customer)
			if err != nil {
				return err
			}
			customerJSON = []byte(cj)
		}
		itemJSON, err := marshalJSON(sh.Record.Item)
		if err != nil {
			return err
		}
		historyJSON, err := marshalJSON(historyOrEmpty(sh.Pricing.History))
		if err != nil {
			return err
		}
		p := sh.Pricing
		_, err = tx.Exec(ctx, `
			INSERT INTO shipments (id, batch_id, row_index, status, confidence, customer_json, item_json, created_at,
				base_volume, unit_price, master_rate, master_reason, base_amount, master_amount,
				auto_total, manual_total, final_total, history_json)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
			sh.Record.ID, b.ID, sh.Record.RowIndex, string(sh.Record.Status), sh.Record.Confidence,
			customerJSON, []byte(itemJSON), sh.Record.CreatedAt,
			p.BaseVolume, p.UnitPrice, p.MasterDiscountRate, p.MasterDiscountReason, p.BaseAmount,
			p.MasterDiscountAmount, p.AutoTotal, p.ManualTotal, p.FinalTotal, []byte(historyJSON))
		if err != nil {
			return fmt.Errorf("insert shipment %s: %w", sh.Record.ID, err)
		}
		for _, a := range p.Adjustments {
			if a == nil {
				continue
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO adjustments (id, shipment_id, type, amount, reason, created_by, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				a.ID, sh.Record.ID, string(a.Type), a.Amount, a.Reason, a.CreatedBy, a.CreatedAt); err != nil {
				return fmt.Errorf("insert adjustment %s: %w", a.ID, err)
			}
		}
	}
	return tx.Commit(ctx)
}

const pgShipmentColumns = `id, batch_id, row_index, status, confidence, customer_json, item_json, created_at,
	base_volume, unit_price, master_rate, master_reason, history_json`

func scanShipmentPG(r pgx.Row) (model.Shipment, error) {
	var (
		sh                                  model.Shipment
		status                              string
		customerJSON, itemJSON, historyJSON []byte
	)
	err := r.Scan(&sh.Record.ID, &sh.Record.BatchID, &sh.Record.RowIndex, &status, &sh.Record.Confidence,
		&customerJSON, &itemJSON, &sh.Record.CreatedAt,
		&sh.Pricing.BaseVolume, &sh.Pricing.UnitPrice, &sh.Pricing.MasterDiscountRate,
		&sh.Pricing.MasterDiscountReason, &historyJSON)
	if err != nil {
		return model.Shipment{}, err
	}
	sh.Record.Status = model.MatchStatus(status)
	if err := decodeShipment(&sh, customerJSON, itemJSON, historyJSON); err != nil {
		return model.Shipment{}, err
	}
	return sh, nil
}

func (s *PostgresStore) GetShipment(ctx context.Context, id string) (model.Shipment, error) {
	sh, err := scanShipmentPG(s.pool.QueryRow(ctx, `SELECT `+pgShipmentColumns+` FROM shipments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Shipment{}, fmt.Errorf("shipment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Shipment{}, err
	}
	if err := s.loadAdjustments(ctx, &sh); err != nil {
		return model.Shipment{}, err
	}
	return sh, nil
}

func (s *PostgresStore) ListShipments(ctx context.Context, batchID string) ([]model.Shipment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgShipmentColumns+` FROM shipments WHERE batch_id = $1 ORDER BY row_index`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	var out []model.Shipment
	for rows.Next() {
		sh, err := scanShipmentPG(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, sh)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := s.loadAdjustments(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PostgresStore) loadAdjustments(ctx context.Context, sh *model.Shipment) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id, type, amount, reason, created_by, created_at
		FROM adjustments WHERE shipment_id = $1 ORDER BY seq`, sh.Record.ID)
	if err != nil {
		return fmt.Errorf("load adjustments: %w", err)
	}
	defer rows.Close()

	sh.Pricing.Adjustments = []*model.ManualAdjustment{}
	for rows.Next() {
		var (
			a   model.ManualAdjustment
			typ string
		)
		if err := rows.Scan(&a.ID, &typ, &a.Amount, &a.Reason, &a.CreatedBy, &a.CreatedAt); err != nil {
			return err
		}
		a.Type = model.AdjustmentType(typ)
		sh.Pricing.Adjustments = append(sh.Pricing.Adjustments, &a)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	sh.Pricing = pricing.Recompute(sh.Pricing)
	return nil
}

func (s *PostgresStore) SavePricing(ctx context.Context, shipmentID string, l model.PricingLayer) error {
	historyJSON, err := marshalJSON(historyOrEmpty(l.History))
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE shipments SET base_volume = $1, unit_price = $2, master_rate = $3, master_reason = $4,
			base_amount = $5, master_amount = $6, auto_total = $7, manual_total = $8, final_total = $9,
			history_json = $10
		WHERE id = $11`,
		l.BaseVolume, l.UnitPrice, l.MasterDiscountRate, l.MasterDiscountReason,
		l.BaseAmount, l.MasterDiscountAmount, l.AutoTotal, l.ManualTotal, l.FinalTotal,
		[]byte(historyJSON), shipmentID)
	if err != nil {
		return fmt.Errorf("save pricing: %w", err)
	}
	return expectTag(tag, "shipment "+shipmentID)
}

func (s *PostgresStore) AddAdjustment(ctx context.Context, shipmentID string, a model.ManualAdjustment) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO adjustments (id, shipment_id, type, amount, reason, created_by, created_at)
		SELECT $1::text, id, $2::text, $3::double precision, $4::text, $5::text, $6::timestamptz
		FROM shipments WHERE id = $7`,
		a.ID, string(a.Type), a.Amount, a.Reason, a.CreatedBy, a.CreatedAt, shipmentID)
	if err != nil {
		return fmt.Errorf("add adjustment: %w", err)
	}
	return expectTag(tag, "shipment "+shipmentID)
}

func (s *PostgresStore) RemoveAdjustment(ctx context.Context, shipmentID, adjustmentID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM adjustments WHERE id = $1 AND shipment_id = $2`, adjustmentID, shipmentID)
	if err != nil {
		return fmt.Errorf("remove adjustment: %w", err)
	}
	return expectTag(tag, "adjustment "+adjustmentID)
}

func expectTag(tag pgconn.CommandTag, what string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
