// Package store holds the customer directory and the persistence store for
// committed batches, with SQLite and Postgres backends and a Redis cache for
// staging snapshots.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cargo-recon/internal/reconcile/model"
)

var ErrNotFound = errors.New("not found")

// Directory is the read side used by the matcher.
type Directory interface {
	ListActiveCustomers(ctx context.Context) ([]model.Customer, error)
}

// Store is the durable side: customers, committed batches, pricing.
type Store interface {
	Directory
	UpsertCustomer(ctx context.Context, c model.Customer) error
	GetCustomer(ctx context.Context, id string) (model.Customer, error)
	SaveBatch(ctx context.Context, b model.Batch) error
	GetShipment(ctx context.Context, id string) (model.Shipment, error)
	ListShipments(ctx context.Context, batchID string) ([]model.Shipment, error)
	SavePricing(ctx context.Context, shipmentID string, layer model.PricingLayer) error
	AddAdjustment(ctx context.Context, shipmentID string, adj model.ManualAdjustment) error
	RemoveAdjustment(ctx context.Context, shipmentID, adjustmentID string) error
	Close() error
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}
	return string(b), nil
}

// decodeShipment fills the JSON columns of a shipment row.
func decodeShipment(sh *model.Shipment, customerJSON, itemJSON, historyJSON []byte) error {
	if len(customerJSON) > 0 && string(customerJSON) != "null" {
		var c model.Customer
		if err := json.Unmarshal(customerJSON, &c); err != nil {
			return fmt.Errorf("decode customer: %w", err)
		}
		sh.Record.Customer = &c
	}
	if err := json.Unmarshal(itemJSON, &sh.Record.Item); err != nil {
		return fmt.Errorf("decode item: %w", err)
	}
	sh.Pricing.History = []model.PricingChange{}
	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &sh.Pricing.History); err != nil {
			return fmt.Errorf("decode history: %w", err)
		}
	}
	return nil
}
