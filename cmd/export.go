package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stocker-app/stocker-cli/internal/report"
	"github.com/stocker-app/stocker-cli/internal/store"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <ticker>",
	Short: "Export normalized metrics as CSV, XLSX, or JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ticker := strings.ToUpper(args[0])

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		cat, err := loadCatalog()
		if err != nil {
			return err
		}

		sets, err := st.ListMetricSets(ctx, store.Filter{Ticker: ticker})
		if err != nil {
			return err
		}
		if len(sets) == 0 {
			return eris.Errorf("export: no metric sets for %s, run normalize first", ticker)
		}

		switch exportFormat {
		case "csv":
			w, closeFn, err := outWriter()
			if err != nil {
				return err
			}
			defer closeFn()
			if err := report.WriteCSV(w, sets, cat); err != nil {
				return err
			}
		case "json":
			w, closeFn, err := outWriter()
			if err != nil {
				return err
			}
			defer closeFn()
			if err := report.WriteJSON(w, sets); err != nil {
				return err
			}
		case "xlsx":
			if exportOut == "" {
				return eris.New("export: xlsx format requires --out")
			}
			if err := report.WriteXLSX(exportOut, sets, cat); err != nil {
				return err
			}
		default:
			return eris.Errorf("export: unknown format %q", exportFormat)
		}

		zap.L().Info("exported metrics",
			zap.String("ticker", ticker),
			zap.String("format", exportFormat),
			zap.Int("periods", len(sets)),
		)
		return nil
	},
}

// outWriter opens --out for writing, defaulting to stdout.
func outWriter() (w *os.File, closeFn func(), err error) {
	if exportOut == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(exportOut)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "export: create %s", exportOut)
	}
	return f, func() { _ = f.Close() }, nil
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv, xlsx, or json")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (stdout for csv/json when unset)")
	rootCmd.AddCommand(exportCmd)
}
