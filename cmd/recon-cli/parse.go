package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cargo-recon/internal/reconcile/model"
)

type parseOutput struct {
	Result     model.ParseResult      `json:"result"`
	Duplicates []model.DuplicateGroup `json:"duplicates"`
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file]",
		Short: "Tokenize and extract a batch, print items, warnings and duplicate phones",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			eng, err := newEngine()
			if err != nil {
				return err
			}

			start := time.Now()
			res, dups, err := eng.Parse(cmd.Context(), text)
			if err != nil {
				return err
			}
			if dups == nil {
				dups = []model.DuplicateGroup{}
			}
			logger.Debug().
				Int("items", len(res.Items)).
				Int("warnings", len(res.Warnings)).
				Dur("took", time.Since(start)).
				Msg("parsed")
			return printJSON(cmd.OutOrStdout(), parseOutput{Result: res, Duplicates: dups})
		},
	}
}
