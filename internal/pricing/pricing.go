// Package pricing derives shipment prices. Auto components (volume, unit
// price, master discount) are recomputed freely; manual adjustments are only
// ever added or removed by explicit calls.
package pricing

import (
	"github.com/shopspring/decimal"

	"cargo-recon/internal/reconcile/model"
)

// Breakdown is the output of Calculate.
type Breakdown struct {
	BaseAmount           float64 `json:"baseAmount"`
	MasterDiscountAmount float64 `json:"masterDiscountAmount"`
	AutoTotal            float64 `json:"autoTotal"`
	ManualTotal          float64 `json:"manualTotal"`
	FinalTotal           float64 `json:"finalTotal"`
}

// Calculate is pure: every adjustment contributes its signed amount, none is
// filtered or clamped.
func Calculate(baseVolume, unitPrice, masterDiscountRate float64, adjustments []*model.ManualAdjustment) Breakdown {
	base := decimal.NewFromFloat(baseVolume).Mul(decimal.NewFromFloat(unitPrice))
	discount := base.Mul(decimal.NewFromFloat(masterDiscountRate))
	auto := base.Sub(discount)

	manual := decimal.Zero
	for _, a := range adjustments {
		if a != nil {
			manual = manual.Add(decimal.NewFromFloat(a.Amount))
		}
	}

	return Breakdown{
		BaseAmount:           base.InexactFloat64(),
		MasterDiscountAmount: discount.InexactFloat64(),
		AutoTotal:            auto.InexactFloat64(),
		ManualTotal:          manual.InexactFloat64(),
		FinalTotal:           auto.Add(manual).InexactFloat64(),
	}
}
