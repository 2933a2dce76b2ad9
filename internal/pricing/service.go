package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"cargo-recon/internal/reconcile/model"
)

// Repository is the part of the persistence store the pricing service needs.
type Repository interface {
	GetShipment(ctx context.Context, id string) (model.Shipment, error)
	SavePricing(ctx context.Context, shipmentID string, layer model.PricingLayer) error
	AddAdjustment(ctx context.Context, shipmentID string, adj model.ManualAdjustment) error
	RemoveAdjustment(ctx context.Context, shipmentID, adjustmentID string) error
}

// AdjustmentInput is a user request to add a manual adjustment.
type AdjustmentInput struct {
	Type      model.AdjustmentType `json:"type"`
	Amount    float64              `json:"amount"`
	Reason    string               `json:"reason"`
	CreatedBy string               `json:"createdBy"`
}

// Service applies pricing changes to committed shipments.
type Service struct {
	repo Repository
	log  zerolog.Logger
	now  func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, log: logger, now: time.Now}
}

func (s *Service) Get(ctx context.Context, shipmentID string) (model.Shipment, error) {
	return s.repo.GetShipment(ctx, shipmentID)
}

// UpdateVolume recomputes the auto part of the price. Adjustments are untouched.
func (s *Service) UpdateVolume(ctx context.Context, shipmentID string, volume float64, by string) (model.Shipment, error) {
	sh, err := s.repo.GetShipment(ctx, shipmentID)
	if err != nil {
		return model.Shipment{}, err
	}
	layer, err := WithVolume(sh.Pricing, volume, by, s.now())
	if err != nil {
		return model.Shipment{}, err
	}
	if err := s.repo.SavePricing(ctx, shipmentID, layer); err != nil {
		return model.Shipment{}, fmt.Errorf("save pricing: %w", err)
	}
	sh.Pricing = layer
	s.log.Info().
		Str("shipment", shipmentID).
		Float64("volume", volume).
		Float64("final", layer.FinalTotal).
		Int("adjustments", len(layer.Adjustments)).
		Msg("volume updated")
	return sh, nil
}

func (s *Service) AddAdjustment(ctx context.Context, shipmentID string, in AdjustmentInput) (model.Shipment, model.ManualAdjustment, error) {
	sh, err := s.repo.GetShipment(ctx, shipmentID)
	if err != nil {
		return model.Shipment{}, model.ManualAdjustment{}, err
	}
	adj := &model.ManualAdjustment{
		Type:      in.Type,
		Amount:    in.Amount,
		Reason:    in.Reason,
		CreatedBy: in.CreatedBy,
	}
	layer, err := AddAdjustment(sh.Pricing, adj, s.now())
	if err != nil {
		return model.Shipment{}, model.ManualAdjustment{}, err
	}
	if err := s.repo.AddAdjustment(ctx, shipmentID, *adj); err != nil {
		return model.Shipment{}, model.ManualAdjustment{}, fmt.Errorf("add adjustment: %w", err)
	}
	if err := s.repo.SavePricing(ctx, shipmentID, layer); err != nil {
		return model.Shipment{}, model.ManualAdjustment{}, fmt.Errorf("save pricing: %w", err)
	}
	sh.Pricing = layer
	s.log.Info().
		Str("shipment", shipmentID).
		Str("adjustment", adj.ID).
		Str("type", string(adj.Type)).
		Float64("amount", adj.Amount).
		Msg("adjustment added")
	return sh, *adj, nil
}

func (s *Service) RemoveAdjustment(ctx context.Context, shipmentID, adjustmentID, by string) (model.Shipment, error) {
	sh, err := s.repo.GetShipment(ctx, shipmentID)
	if err != nil {
		return model.Shipment{}, err
	}
	layer, err := RemoveAdjustment(sh.Pricing, adjustmentID, by, s.now())
	if err != nil {
		return model.Shipment{}, err
	}
	if err := s.repo.RemoveAdjustment(ctx, shipmentID, adjustmentID); err != nil {
		return model.Shipment{}, fmt.Errorf("remove adjustment: %w", err)
	}
	if err := s.repo.SavePricing(ctx, shipmentID, layer); err != nil {
		return model.Shipment{}, fmt.Errorf("save pricing: %w", err)
	}
	sh.Pricing = layer
	s.log.Info().Str("shipment", shipmentID).Str("adjustment", adjustmentID).Msg("adjustment removed")
	return sh, nil
}
