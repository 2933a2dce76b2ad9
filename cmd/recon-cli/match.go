package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cargo-recon/internal/reconcile/model"
	"cargo-recon/internal/reconcile/service"
	"cargo-recon/internal/store"
)

type matchedRow struct {
	Item  model.ParsedItem  `json:"item"`
	Match model.MatchResult `json:"match"`
}

type matchOutput struct {
	Result     model.ParseResult      `json:"result"`
	Rows       []matchedRow           `json:"rows"`
	Duplicates []model.DuplicateGroup `json:"duplicates"`
	Counters   model.Counters         `json:"counters"`
}

func newMatchCmd() *cobra.Command {
	var customersFile string

	cmd := &cobra.Command{
		Use:   "match [file]",
		Short: "Parse a batch and match every row against the customer directory",
		Long: `match reads active customers from the configured store (DB_DRIVER, DB_PATH,
DATABASE_URL) or, with --customers, from a JSON array of customer records.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text, err := readInput(args)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			eng, err := newEngine()
			if err != nil {
				return err
			}

			var customers []model.Customer
			if customersFile != "" {
				customers, err = readCustomers(customersFile)
			} else {
				var st store.Store
				st, err = store.Open(ctx, cfg)
				if err == nil {
					defer st.Close()
					customers, err = st.ListActiveCustomers(ctx)
				}
			}
			if err != nil {
				return fmt.Errorf("load customers: %w", err)
			}

			res, dups, err := eng.Parse(ctx, text)
			if err != nil {
				return err
			}
			out := matchOutput{
				Result:     res,
				Rows:       make([]matchedRow, 0, len(res.Items)),
				Duplicates: dups,
				Counters:   model.Counters{Total: len(res.Items), Warnings: len(res.Warnings)},
			}
			if out.Duplicates == nil {
				out.Duplicates = []model.DuplicateGroup{}
			}
			for _, it := range res.Items {
				m := service.Match(it, customers)
				out.Rows = append(out.Rows, matchedRow{Item: it, Match: m})
				switch m.Status {
				case model.StatusVerified:
					out.Counters.Verified++
				case model.StatusSimilar:
					out.Counters.Similar++
				case model.StatusNewCustomer:
					out.Counters.New++
				}
				if !service.UsablePhone(service.NormalizePhone(it.Phone)) {
					out.Counters.Untracked++
				}
			}
			logger.Debug().Int("customers", len(customers)).Int("rows", len(out.Rows)).Msg("matched")
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&customersFile, "customers", "", "JSON file with customer records")
	return cmd
}

func readCustomers(path string) ([]model.Customer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []model.Customer
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return list, nil
}
