package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"cargo-recon/internal/pricing"
	"cargo-recon/internal/reconcile/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS customers (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	phone            TEXT NOT NULL DEFAULT '',
	region           TEXT NOT NULL DEFAULT '',
	active           INTEGER NOT NULL DEFAULT 1,
	discount_percent REAL,
	discount_info    TEXT NOT NULL DEFAULT '',
	updated_at       TEXT NOT NULL
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
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	committed_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS shipments (
	id            TEXT PRIMARY KEY,
	batch_id      TEXT NOT NULL REFERENCES batches(id),
	row_index     INTEGER NOT NULL,
	status        TEXT NOT NULL,
	confidence    REAL NOT NULL,
	customer_json TEXT,
	item_json     TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	base_volume   REAL NOT NULL,
	unit_price    REAL NOT NULL,
	master_rate   REAL NOT NULL,
	master_reason TEXT NOT NULL DEFAULT '',
	base_amount   REAL NOT NULL,
	master_amount REAL NOT NULL,
	auto_total    REAL NOT NULL,
	manual_total  REAL NOT NULL,
	final_total   REAL NOT NULL,
	history_json  TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_shipments_batch ON shipments(batch_id, row_index);

CREATE TABLE IF NOT EXISTS adjustments (
	id          TEXT PRIMARY KEY,
	shipment_id TEXT NOT NULL REFERENCES shipments(id),
	type        TEXT NOT NULL,
	amount      REAL NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	created_by  TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_adjustments_shipment ON adjustments(shipment_id);
`

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) ListActiveCustomers(ctx context.Context) ([]model.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, region, active, discount_percent, discount_info
		FROM customers WHERE active = 1 ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetCustomer(ctx context.Context, id string) (model.Customer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, region, active, discount_percent, discount_info
		FROM customers WHERE id = ?`, id)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Customer{}, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	return c, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCustomer(r scanner) (model.Customer, error) {
	var (
		c      model.Customer
		active int
		pct    sql.NullFloat64
	)
	if err := r.Scan(&c.ID, &c.Name, &c.Phone, &c.Region, &active, &pct, &c.DiscountInfo); err != nil {
		return model.Customer{}, err
	}
	c.Active = active == 1
	if pct.Valid {
		v := pct.Float64
		c.DiscountPercent = &v
	}
	return c, nil
}

func (s *SQLiteStore) UpsertCustomer(ctx context.Context, c model.Customer) error {
	var pct sql.NullFloat64
	if c.DiscountPercent != nil {
		pct = sql.NullFloat64{Float64: *c.DiscountPercent, Valid: true}
	}
	active := 0
	if c.Active {
		active = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, region, active, discount_percent, discount_info, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, phone = excluded.phone, region = excluded.region,
			active = excluded.active, discount_percent = excluded.discount_percent,
			discount_info = excluded.discount_info, updated_at = excluded.updated_at`,
		c.ID, c.Name, c.Phone, c.Region, active, pct, c.DiscountInfo, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert customer: %w", err)
	}
	return nil
}

// SaveBatch writes the batch, its shipments and their adjustments in one transaction.
func (s *SQLiteStore) SaveBatch(ctx context.Context, b model.Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO batches (id, source_text, total, verified, similar, new_customers, untracked, warnings, created_at, updated_at, committed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.SourceText, b.Counters.Total, b.Counters.Verified, b.Counters.Similar, b.Counters.New,
		b.Counters.Untracked, b.Counters.Warnings, formatTime(b.CreatedAt), formatTime(b.UpdatedAt), formatTime(b.CommittedAt))
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	for _, sh := range b.Shipments {
		if err := insertShipmentSQLite(ctx, tx, b.ID, sh); err != nil {
			return err
		}
		for _, a := range sh.Pricing.Adjustments {
			if a == nil {
				continue
			}
			if err := insertAdjustmentSQLite(ctx, tx, sh.Record.ID, *a); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func insertShipmentSQLite(ctx context.Context, tx *sql.Tx, batchID string, sh model.Shipment) error {
	var customerJSON sql.NullString
	if sh.Record.Customer != nil {
		cj, err := marshalJSON(sh.Record.Customer)
		if err != nil {
			return err
		}
		customerJSON = sql.NullString{String: cj, Valid: true}
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
	_, err = tx.ExecContext(ctx, `
		INSERT INTO shipments (id, batch_id, row_index, status, confidence, customer_json, item_json, created_at,
			base_volume, unit_price, master_rate, master_reason, base_amount, master_amount,
			auto_total, manual_total, final_total, history_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sh.Record.ID, batchID, sh.Record.RowIndex, string(sh.Record.Status), sh.Record.Confidence,
		customerJSON, itemJSON, formatTime(sh.Record.CreatedAt),
		p.BaseVolume, p.UnitPrice, p.MasterDiscountRate, p.MasterDiscountReason, p.BaseAmount,
		p.MasterDiscountAmount, p.AutoTotal, p.ManualTotal, p.FinalTotal, historyJSON)
	if err != nil {
		return fmt.Errorf("insert shipment %s: %w", sh.Record.ID, err)
	}
	return nil
}

func insertAdjustmentSQLite(ctx context.Context, tx *sql.Tx, shipmentID string, a model.ManualAdjustment) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO adjustments (id, shipment_id, type, amount, reason, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, shipmentID, string(a.Type), a.Amount, a.Reason, a.CreatedBy, formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert adjustment %s: %w", a.ID, err)
	}
	return nil
}

const sqliteShipmentColumns = `id, batch_id, row_index, status, confidence, customer_json, item_json, created_at,
	base_volume, unit_price, master_rate, master_reason, history_json`

func (s *SQLiteStore) GetShipment(ctx context.Context, id string) (model.Shipment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteShipmentColumns+` FROM shipments WHERE id = ?`, id)
	sh, err := scanShipmentSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
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

func (s *SQLiteStore) ListShipments(ctx context.Context, batchID string) ([]model.Shipment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteShipmentColumns+` FROM shipments WHERE batch_id = ? ORDER BY row_index`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	var out []model.Shipment
	for rows.Next() {
		sh, err := scanShipmentSQLite(rows)
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
	// single connection: adjustments are read after the cursor is closed
	for i := range out {
		if err := s.loadAdjustments(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scanShipmentSQLite(r scanner) (model.Shipment, error) {
	var (
		sh           model.Shipment
		status       string
		createdAt    string
		customerJSON sql.NullString
		itemJSON     string
		historyJSON  string
	)
	err := r.Scan(&sh.Record.ID, &sh.Record.BatchID, &sh.Record.RowIndex, &status, &sh.Record.Confidence,
		&customerJSON, &itemJSON, &createdAt,
		&sh.Pricing.BaseVolume, &sh.Pricing.UnitPrice, &sh.Pricing.MasterDiscountRate,
		&sh.Pricing.MasterDiscountReason, &historyJSON)
	if err != nil {
		return model.Shipment{}, err
	}
	sh.Record.Status = model.MatchStatus(status)
	sh.Record.CreatedAt = parseTime(createdAt)
	var cj []byte
	if customerJSON.Valid {
		cj = []byte(customerJSON.String)
	}
	if err := decodeShipment(&sh, cj, []byte(itemJSON), []byte(historyJSON)); err != nil {
		return model.Shipment{}, err
	}
	return sh, nil
}

func (s *SQLiteStore) loadAdjustments(ctx context.Context, sh *model.Shipment) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, amount, reason, created_by, created_at
		FROM adjustments WHERE shipment_id = ? ORDER BY rowid`, sh.Record.ID)
	if err != nil {
		return fmt.Errorf("load adjustments: %w", err)
	}
	defer rows.Close()

	sh.Pricing.Adjustments = []*model.ManualAdjustment{}
	for rows.Next() {
		var (
			a         model.ManualAdjustment
			typ       string
			createdAt string
		)
		if err := rows.Scan(&a.ID, &typ, &a.Amount, &a.Reason, &a.CreatedBy, &createdAt); err != nil {
			return err
		}
		a.Type = model.AdjustmentType(typ)
		a.CreatedAt = parseTime(createdAt)
		sh.Pricing.Adjustments = append(sh.Pricing.Adjustments, &a)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	sh.Pricing = pricing.Recompute(sh.Pricing)
	return nil
}

// SavePricing stores the layer's inputs, derived totals and history. The
// adjustment rows are managed only by AddAdjustment and RemoveAdjustment.
func (s *SQLiteStore) SavePricing(ctx context.Context, shipmentID string, l model.PricingLayer) error {
	historyJSON, err := marshalJSON(historyOrEmpty(l.History))
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE shipments SET base_volume = ?, unit_price = ?, master_rate = ?, master_reason = ?,
			base_amount = ?, master_amount = ?, auto_total = ?, manual_total = ?, final_total = ?, history_json = ?
		WHERE id = ?`,
		l.BaseVolume, l.UnitPrice, l.MasterDiscountRate, l.MasterDiscountReason,
		l.BaseAmount, l.MasterDiscountAmount, l.AutoTotal, l.ManualTotal, l.FinalTotal, historyJSON, shipmentID)
	if err != nil {
		return fmt.Errorf("save pricing: %w", err)
	}
	return expectOne(res, "shipment "+shipmentID)
}

func (s *SQLiteStore) AddAdjustment(ctx context.Context, shipmentID string, a model.ManualAdjustment) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO adjustments (id, shipment_id, type, amount, reason, created_by, created_at)
		SELECT ?, id, ?, ?, ?, ?, ? FROM shipments WHERE id = ?`,
		a.ID, string(a.Type), a.Amount, a.Reason, a.CreatedBy, formatTime(a.CreatedAt), shipmentID)
	if err != nil {
		return fmt.Errorf("add adjustment: %w", err)
	}
	return expectOne(res, "shipment "+shipmentID)
}

func (s *SQLiteStore) RemoveAdjustment(ctx context.Context, shipmentID, adjustmentID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM adjustments WHERE id = ? AND shipment_id = ?`, adjustmentID, shipmentID)
	if err != nil {
		return fmt.Errorf("remove adjustment: %w", err)
	}
	return expectOne(res, "adjustment "+adjustmentID)
}

func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

func historyOrEmpty(h []model.PricingChange) []model.PricingChange {
	if h == nil {
		return []model.PricingChange{}
	}
	return h
}
