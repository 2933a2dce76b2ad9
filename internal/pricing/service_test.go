package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargo-recon/internal/reconcile/model"
)

var errNotFound = errors.New("not found")

type memRepo struct {
	shipments map[string]model.Shipment
	added     []model.ManualAdjustment
	removed   []string
	saves     int
}

func newMemRepo(sh model.Shipment) *memRepo {
	return &memRepo{shipments: map[string]model.Shipment{sh.Record.ID: sh}}
}

func (m *memRepo) GetShipment(_ context.Context, id string) (model.Shipment, error) {
	sh, ok := m.shipments[id]
	if !ok {
		return model.Shipment{}, errNotFound
	}
	return sh, nil
}

func (m *memRepo) SavePricing(_ context.Context, id string, l model.PricingLayer) error {
	sh := m.shipments[id]
	sh.Pricing = l
	m.shipments[id] = sh
	m.saves++
	return nil
}

func (m *memRepo) AddAdjustment(_ context.Context, _ string, adj model.ManualAdjustment) error {
	m.added = append(m.added, adj)
	return nil
}

func (m *memRepo) RemoveAdjustment(_ context.Context, _ string, id string) error {
	m.removed = append(m.removed, id)
	return nil
}

func TestService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(model.Shipment{
		Record:  model.ShipmentRecord{ID: "s1"},
		Pricing: NewLayer(1.5, 100, 0.10, "customer discount 10%"),
	})
	svc := NewService(repo, zerolog.Nop())
	svc.now = func() time.Time { return t0 }

	sh, adj, err := svc.AddAdjustment(ctx, "s1", AdjustmentInput{
		Type: model.AdjustmentDamageDiscount, Amount: -50, Reason: "wet box", CreatedBy: "staff",
	})
	require.NoError(t, err)
	assert.Equal(t, 85.0, sh.Pricing.FinalTotal)
	require.Len(t, repo.added, 1)
	assert.Equal(t, adj.ID, repo.added[0].ID)

	sh, err = svc.UpdateVolume(ctx, "s1", 1.8, "staff")
	require.NoError(t, err)
	assert.Equal(t, 162.0, sh.Pricing.AutoTotal)
	assert.Equal(t, -50.0, sh.Pricing.ManualTotal)
	assert.Equal(t, 112.0, sh.Pricing.FinalTotal)
	require.Len(t, sh.Pricing.Adjustments, 1)
	assert.Equal(t, adj, *sh.Pricing.Adjustments[0])
	assert.Empty(t, repo.removed)

	sh, err = svc.RemoveAdjustment(ctx, "s1", adj.ID, "staff")
	require.NoError(t, err)
	assert.Equal(t, 162.0, sh.Pricing.FinalTotal)
	assert.Equal(t, []string{adj.ID}, repo.removed)
	assert.Equal(t, 3, repo.saves)
}

func TestService_Errors(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(model.Shipment{Record: model.ShipmentRecord{ID: "s1"}, Pricing: NewLayer(1, 100, 0, "")})
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.UpdateVolume(ctx, "nope", 1, "")
	assert.ErrorIs(t, err, errNotFound)

	_, _, err = svc.AddAdjustment(ctx, "s1", AdjustmentInput{Type: "FREE", Amount: 1})
	assert.ErrorIs(t, err, ErrUnknownAdjustmentType)
	assert.Empty(t, repo.added)

	_, err = svc.RemoveAdjustment(ctx, "s1", "missing", "")
	assert.ErrorIs(t, err, ErrAdjustmentNotFound)
	assert.Zero(t, repo.saves)
}
