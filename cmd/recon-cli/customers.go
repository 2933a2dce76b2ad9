package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cargo-recon/internal/store"
)

func newCustomersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Manage the customer directory in the configured store",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.json>",
		Short: "Upsert customer records from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			list, err := readCustomers(args[0])
			if err != nil {
				return err
			}
			st, err := store.Open(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			for _, c := range list {
				if c.ID == "" {
					return fmt.Errorf("customer %q has no id", c.Name)
				}
				if err := st.UpsertCustomer(ctx, c); err != nil {
					return err
				}
			}
			logger.Info().Int("customers", len(list)).Str("driver", cfg.DBDriver).Msg("imported")
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d customers\n", len(list))
			return nil
		},
	})
	return cmd
}
