package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargo-recon/internal/pricing"
	"cargo-recon/internal/reconcile/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "recon.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testBatch(now time.Time) model.Batch {
	cust := &model.Customer{ID: "c1", Name: "Rev. Lee Hanna", Phone: "010-1234-5678", Active: true}
	layer := pricing.NewLayer(1.5, 100, 0.1, "missionary")
	return model.Batch{
		ID:          "b1",
		SourceText:  "Lee Hanna\t010-1234-5678\t150",
		Counters:    model.Counters{Total: 1, Verified: 1},
		CreatedAt:   now,
		CommittedAt: now,
		Shipments: []model.Shipment{{
			Record: model.ShipmentRecord{
				ID:         "s1",
				BatchID:    "b1",
				RowIndex:   0,
				Status:     model.StatusVerified,
				Confidence: 0.95,
				Customer:   cust,
				Item:       model.ParsedItem{Name: "Lee Hanna", Phone: "01012345678", Quantity: 1, Weight: 150},
				CreatedAt:  now,
			},
			Pricing: layer,
		}},
	}
}

func TestSQLiteCustomers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	pct := 10.0
	require.NoError(t, s.UpsertCustomer(ctx, model.Customer{ID: "c1", Name: "Kim", Phone: "01011112222", Active: true, DiscountPercent: &pct}))
	require.NoError(t, s.UpsertCustomer(ctx, model.Customer{ID: "c2", Name: "Park", Phone: "01033334444", Active: false}))

	list, err := s.ListActiveCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c1", list[0].ID)
	require.NotNil(t, list[0].DiscountPercent)
	assert.Equal(t, 10.0, *list[0].DiscountPercent)

	require.NoError(t, s.UpsertCustomer(ctx, model.Customer{ID: "c2", Name: "Park", Phone: "01033334444", Active: true}))
	list, err = s.ListActiveCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	c, err := s.GetCustomer(ctx, "c2")
	require.NoError(t, err)
	assert.Nil(t, c.DiscountPercent)

	_, err = s.GetCustomer(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteBatchRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	require.NoError(t, s.SaveBatch(ctx, testBatch(now)))

	sh, err := s.GetShipment(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, sh.Record.Status)
	assert.Equal(t, "b1", sh.Record.BatchID)
	require.NotNil(t, sh.Record.Customer)
	assert.Equal(t, "Rev. Lee Hanna", sh.Record.Customer.Name)
	assert.Equal(t, "01012345678", sh.Record.Item.Phone)
	assert.True(t, now.Equal(sh.Record.CreatedAt))
	assert.Equal(t, 150.0, sh.Pricing.BaseAmount)
	assert.Equal(t, 15.0, sh.Pricing.MasterDiscountAmount)
	assert.Equal(t, 135.0, sh.Pricing.FinalTotal)
	assert.Empty(t, sh.Pricing.Adjustments)
	assert.NotNil(t, sh.Pricing.History)

	list, err := s.ListShipments(ctx, "b1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.GetShipment(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteAdjustments(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.SaveBatch(ctx, testBatch(now)))

	first := model.ManualAdjustment{ID: "a1", Type: model.AdjustmentDamageDiscount, Amount: -50, CreatedAt: now.Add(time.Minute)}
	second := model.ManualAdjustment{ID: "a2", Type: model.AdjustmentSpecialFee, Amount: 20, CreatedAt: now}
	require.NoError(t, s.AddAdjustment(ctx, "s1", first))
	require.NoError(t, s.AddAdjustment(ctx, "s1", second))

	sh, err := s.GetShipment(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, sh.Pricing.Adjustments, 2)
	assert.Equal(t, "a1", sh.Pricing.Adjustments[0].ID)
	assert.Equal(t, "a2", sh.Pricing.Adjustments[1].ID)
	assert.Equal(t, -30.0, sh.Pricing.ManualTotal)
	assert.Equal(t, 105.0, sh.Pricing.FinalTotal)

	// pricing writes leave adjustment rows alone
	layer, err := pricing.WithVolume(sh.Pricing, 1.8, "tester", now)
	require.NoError(t, err)
	require.NoError(t, s.SavePricing(ctx, "s1", layer))
	sh, err = s.GetShipment(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, sh.Pricing.Adjustments, 2)
	assert.Equal(t, 1.8, sh.Pricing.BaseVolume)
	assert.Equal(t, 132.0, sh.Pricing.FinalTotal)
	require.Len(t, sh.Pricing.History, 1)
	assert.Equal(t, "baseVolume", sh.Pricing.History[0].Field)

	require.NoError(t, s.RemoveAdjustment(ctx, "s1", "a2"))
	sh, err = s.GetShipment(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, sh.Pricing.Adjustments, 1)
	assert.Equal(t, 112.0, sh.Pricing.FinalTotal)

	assert.ErrorIs(t, s.RemoveAdjustment(ctx, "s1", "a2"), ErrNotFound)
	assert.ErrorIs(t, s.AddAdjustment(ctx, "missing", model.ManualAdjustment{ID: "a3", Type: model.AdjustmentOther}), ErrNotFound)
	assert.ErrorIs(t, s.SavePricing(ctx, "missing", layer), ErrNotFound)
}
