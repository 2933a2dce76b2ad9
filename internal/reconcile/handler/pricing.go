package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cargo-recon/internal/config"
	"cargo-recon/internal/pricing"
	"cargo-recon/internal/reconcile/model"
)

type calculateRequest struct {
	BaseVolume         float64                   `json:"baseVolume"`
	UnitPrice          *float64                  `json:"unitPrice"`
	MasterDiscountRate float64                   `json:"masterDiscountRate"`
	Adjustments        []*model.ManualAdjustment `json:"manualAdjustments"`
}

// Calculate exposes the pure price derivation. unitPrice defaults to the
// configured price.
func Calculate(cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req calculateRequest
		if err := decodeJSON(r, &req); err != nil {
			badRequest(w, "%v", err)
			return
		}
		unit := cfg.UnitPrice
		if req.UnitPrice != nil {
			unit = *req.UnitPrice
		}
		if !finite(req.BaseVolume, unit, req.MasterDiscountRate) || req.BaseVolume < 0 || unit < 0 {
			badRequest(w, "baseVolume and unitPrice must be finite and non-negative")
			return
		}
		if req.MasterDiscountRate < 0 || req.MasterDiscountRate > 1 {
			badRequest(w, "masterDiscountRate must be within [0, 1]")
			return
		}
		for _, a := range req.Adjustments {
			if a == nil || !finite(a.Amount) {
				badRequest(w, "adjustment amounts must be finite")
				return
			}
		}
		writeJSON(w, http.StatusOK, pricing.Calculate(req.BaseVolume, unit, req.MasterDiscountRate, req.Adjustments))
	}
}

func GetShipment(svc *pricing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sh, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sh)
	}
}

type volumeRequest struct {
	Volume *float64 `json:"volume"`
	By     string   `json:"by"`
}

func UpdateVolume(svc *pricing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req volumeRequest
		if err := decodeJSON(r, &req); err != nil {
			badRequest(w, "%v", err)
			return
		}
		if req.Volume == nil {
			badRequest(w, "volume is required")
			return
		}
		sh, err := svc.UpdateVolume(r.Context(), chi.URLParam(r, "id"), *req.Volume, actor(r, req.By))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sh)
	}
}

type adjustmentResponse struct {
	Adjustment model.ManualAdjustment `json:"adjustment"`
	Shipment   model.Shipment         `json:"shipment"`
}

func AddAdjustment(svc *pricing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in pricing.AdjustmentInput
		if err := decodeJSON(r, &in); err != nil {
			badRequest(w, "%v", err)
			return
		}
		in.CreatedBy = actor(r, in.CreatedBy)
		sh, adj, err := svc.AddAdjustment(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, adjustmentResponse{Adjustment: adj, Shipment: sh})
	}
}

func RemoveAdjustment(svc *pricing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sh, err := svc.RemoveAdjustment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "adjID"), actor(r, ""))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sh)
	}
}
