package main

import (
	"errors"
	"math"

	"github.com/spf13/cobra"

	"cargo-recon/internal/pricing"
	"cargo-recon/internal/reconcile/model"
)

func newPriceCmd() *cobra.Command {
	var (
		volume    float64
		unitPrice float64
		rate      float64
		adjust    []float64
	)

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Print the price breakdown for a volume, discount rate and manual adjustments",
		Example: `  recon-cli price --volume 1.8 --rate 0.1 --adjust -50
  recon-cli price --volume 2 --unit-price 120 --adjust -10 --adjust 25`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("unit-price") {
				unitPrice = cfg.UnitPrice
			}
			if volume < 0 || unitPrice < 0 {
				return errors.New("volume and unit price must be non-negative")
			}
			if rate < 0 || rate > 1 {
				return errors.New("rate must be within [0, 1]")
			}
			adjs := make([]*model.ManualAdjustment, 0, len(adjust))
			for _, a := range adjust {
				if math.IsNaN(a) || math.IsInf(a, 0) {
					return errors.New("adjustments must be finite")
				}
				adjs = append(adjs, &model.ManualAdjustment{Type: model.AdjustmentOther, Amount: a})
			}
			return printJSON(cmd.OutOrStdout(), pricing.Calculate(volume, unitPrice, rate, adjs))
		},
	}
	cmd.Flags().Float64Var(&volume, "volume", 0, "base volume")
	cmd.Flags().Float64Var(&unitPrice, "unit-price", 0, "price per volume unit (default UNIT_PRICE)")
	cmd.Flags().Float64Var(&rate, "rate", 0, "master discount rate, 0..1")
	cmd.Flags().Float64SliceVar(&adjust, "adjust", nil, "signed manual adjustment, repeatable")
	_ = cmd.MarkFlagRequired("volume")
	return cmd
}
