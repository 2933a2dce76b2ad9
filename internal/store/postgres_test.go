package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargo-recon/internal/pricing"
	"cargo-recon/internal/reconcile/model"
)

func newPostgresTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := NewPostgresStore(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// uniqueBatch is testBatch with fresh ids, so runs against a shared database
// do not collide.
func uniqueBatch(now time.Time) model.Batch {
	b := testBatch(now)
	b.ID = "b-" + uuid.NewString()
	b.UpdatedAt = now.Add(time.Minute)
	sh := &b.Shipments[0]
	sh.Record.ID = "s-" + uuid.NewString()
	sh.Record.BatchID = b.ID
	return b
}

func TestPostgresCustomers(t *testing.T) {
	ctx := context.Background()
	s := newPostgresTestStore(t)

	id := "c-" + uuid.NewString()
	pct := 10.0
	require.NoError(t, s.UpsertCustomer(ctx, model.Customer{ID: id, Name: "Kim", Phone: "01011112222", Active: true, DiscountPercent: &pct}))

	c, err := s.GetCustomer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Kim", c.Name)
	require.NotNil(t, c.DiscountPercent)
	assert.Equal(t, 10.0, *c.DiscountPercent)

	require.NoError(t, s.UpsertCustomer(ctx, model.Customer{ID: id, Name: "Kim", Phone: "01011112222", Active: false}))
	list, err := s.ListActiveCustomers(ctx)
	require.NoError(t, err)
	for _, c := range list {
		assert.NotEqual(t, id, c.ID)
	}

	_, err = s.GetCustomer(ctx, "missing-"+uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresAdjustments(t *testing.T) {
	ctx := context.Background()
	s := newPostgresTestStore(t)
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	b := uniqueBatch(now)
	shipID := b.Shipments[0].Record.ID
	require.NoError(t, s.SaveBatch(ctx, b))

	sh, err := s.GetShipment(ctx, shipID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, sh.Record.BatchID)
	assert.True(t, now.Equal(sh.Record.CreatedAt))
	assert.Equal(t, 135.0, sh.Pricing.FinalTotal)

	// inserted later but created earlier: order follows insertion
	first := model.ManualAdjustment{ID: "a-" + uuid.NewString(), Type: model.AdjustmentDamageDiscount, Amount: -50, CreatedAt: now.Add(time.Minute)}
	second := model.ManualAdjustment{ID: "a-" + uuid.NewString(), Type: model.AdjustmentSpecialFee, Amount: 20, CreatedAt: now}
	require.NoError(t, s.AddAdjustment(ctx, shipID, first))
	require.NoError(t, s.AddAdjustment(ctx, shipID, second))

	sh, err = s.GetShipment(ctx, shipID)
	require.NoError(t, err)
	require.Len(t, sh.Pricing.Adjustments, 2)
	assert.Equal(t, first.ID, sh.Pricing.Adjustments[0].ID)
	assert.Equal(t, second.ID, sh.Pricing.Adjustments[1].ID)
	assert.Equal(t, 105.0, sh.Pricing.FinalTotal)

	layer, err := pricing.WithVolume(sh.Pricing, 1.8, "tester", now)
	require.NoError(t, err)
	require.NoError(t, s.SavePricing(ctx, shipID, layer))

	require.NoError(t, s.RemoveAdjustment(ctx, shipID, second.ID))
	sh, err = s.GetShipment(ctx, shipID)
	require.NoError(t, err)
	require.Len(t, sh.Pricing.Adjustments, 1)
	assert.Equal(t, 112.0, sh.Pricing.FinalTotal)

	list, err := s.ListShipments(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, s.RemoveAdjustment(ctx, shipID, second.ID), ErrNotFound)
	assert.ErrorIs(t, s.AddAdjustment(ctx, "missing", model.ManualAdjustment{ID: "a-" + uuid.NewString(), Type: model.AdjustmentOther}), ErrNotFound)
	assert.ErrorIs(t, s.SavePricing(ctx, "missing", layer), ErrNotFound)
	_, err = s.GetShipment(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
