// Command recon-cli runs the reconciliation pipeline from a terminal.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"cargo-recon/internal/config"
	"cargo-recon/internal/fileio"
	"cargo-recon/internal/reconcile/service"
)

var (
	dictFile string
	verbose  bool

	cfg    config.Config
	logger zerolog.Logger
	raw    config.Dictionary
)

var rootCmd = &cobra.Command{
	Use:   "recon-cli",
	Short: "Parse, match and price pasted shipment batches",
	Long: `recon-cli runs the same pipeline as the HTTP service on a file or stdin.

Input is pasted text (tab or multi-space separated) or a .csv/.tsv/.xlsx/.xls
file. Output is JSON on stdout.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		lvl := zerolog.WarnLevel
		if verbose {
			lvl = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()

		path := dictFile
		if path == "" {
			path = cfg.DictionaryFile
		}
		raw = config.DefaultDictionary()
		if path != "" {
			d, err := config.LoadDictionary(path)
			if err != nil {
				return fmt.Errorf("load dictionary: %w", err)
			}
			raw = d
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dictFile, "dictionary", "d", "", "dictionary YAML (default: embedded)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")

	rootCmd.AddCommand(newParseCmd(), newMatchCmd(), newPriceCmd(), newCustomersCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newEngine() (*service.Engine, error) {
	dict, err := service.NewDictionary(raw)
	if err != nil {
		return nil, err
	}
	return service.NewEngine(dict, service.Options{YieldEvery: cfg.YieldEvery}), nil
}

// readInput reads the named file, or stdin when no file is given or it is "-".
func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return fileio.DecodeText(b), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return "", err
	}
	defer f.Close()
	return fileio.ReadText(f, args[0])
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
