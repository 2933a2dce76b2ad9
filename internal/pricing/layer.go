package pricing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"cargo-recon/internal/reconcile/model"
)

var (
	ErrUnknownAdjustmentType = errors.New("unknown adjustment type")
	ErrInvalidAmount         = errors.New("invalid adjustment amount")
	ErrAdjustmentNotFound    = errors.New("adjustment not found")
	ErrInvalidVolume         = errors.New("invalid volume")
)

// NewLayer builds a layer with no adjustments.
func NewLayer(volume, unitPrice, rate float64, reason string) model.PricingLayer {
	return Recompute(model.PricingLayer{
		BaseVolume:           volume,
		UnitPrice:            unitPrice,
		MasterDiscountRate:   rate,
		MasterDiscountReason: reason,
		Adjustments:          []*model.ManualAdjustment{},
		History:              []model.PricingChange{},
	})
}

// Recompute refreshes every derived field from the layer's inputs. The
// adjustment slice is carried through as is.
func Recompute(l model.PricingLayer) model.PricingLayer {
	b := Calculate(l.BaseVolume, l.UnitPrice, l.MasterDiscountRate, l.Adjustments)
	l.BaseAmount = b.BaseAmount
	l.MasterDiscountAmount = b.MasterDiscountAmount
	l.AutoTotal = b.AutoTotal
	l.ManualTotal = b.ManualTotal
	l.FinalTotal = b.FinalTotal
	return l
}

func WithVolume(l model.PricingLayer, volume float64, by string, at time.Time) (model.PricingLayer, error) {
	if math.IsNaN(volume) || math.IsInf(volume, 0) || volume < 0 {
		return l, fmt.Errorf("%w: %v", ErrInvalidVolume, volume)
	}
	if volume != l.BaseVolume {
		l.History = appendHistory(l.History, at, "baseVolume", num(l.BaseVolume), num(volume), by)
		l.BaseVolume = volume
	}
	return Recompute(l), nil
}

func WithUnitPrice(l model.PricingLayer, price float64, by string, at time.Time) model.PricingLayer {
	l.History = appendHistory(l.History, at, "unitPrice", num(l.UnitPrice), num(price), by)
	l.UnitPrice = price
	return Recompute(l)
}

func WithMasterDiscount(l model.PricingLayer, rate float64, reason, by string, at time.Time) model.PricingLayer {
	l.History = appendHistory(l.History, at, "masterDiscountRate", num(l.MasterDiscountRate), num(rate), by)
	l.MasterDiscountRate = rate
	l.MasterDiscountReason = reason
	return Recompute(l)
}

// AddAdjustment validates adj, fills ID and CreatedAt when empty and returns a
// layer whose list holds the previous entries plus adj.
func AddAdjustment(l model.PricingLayer, adj *model.ManualAdjustment, at time.Time) (model.PricingLayer, error) {
	if !adj.Type.Valid() {
		return l, fmt.Errorf("%w: %q", ErrUnknownAdjustmentType, adj.Type)
	}
	if math.IsNaN(adj.Amount) || math.IsInf(adj.Amount, 0) {
		return l, ErrInvalidAmount
	}
	if adj.ID == "" {
		adj.ID = uuid.NewString()
	}
	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = at
	}

	list := make([]*model.ManualAdjustment, 0, len(l.Adjustments)+1)
	list = append(list, l.Adjustments...)
	l.Adjustments = append(list, adj)
	l.History = appendHistory(l.History, at, "manualAdjustments", "", "+"+adj.ID, adj.CreatedBy)
	return Recompute(l), nil
}

// RemoveAdjustment drops the adjustment with id.
func RemoveAdjustment(l model.PricingLayer, id, by string, at time.Time) (model.PricingLayer, error) {
	idx := -1
	for i, a := range l.Adjustments {
		if a != nil && a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return l, fmt.Errorf("%w: %s", ErrAdjustmentNotFound, id)
	}

	list := make([]*model.ManualAdjustment, 0, len(l.Adjustments)-1)
	list = append(list, l.Adjustments[:idx]...)
	l.Adjustments = append(list, l.Adjustments[idx+1:]...)
	l.History = appendHistory(l.History, at, "manualAdjustments", "-"+id, "", by)
	return Recompute(l), nil
}

// appendHistory never writes into a backing array shared with another layer.
func appendHistory(h []model.PricingChange, at time.Time, field, from, to, by string) []model.PricingChange {
	return append(h[:len(h):len(h)], model.PricingChange{At: at, Field: field, From: from, To: to, By: by})
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
