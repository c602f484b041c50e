package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/stocker-app/stocker-cli/internal/report"
	"github.com/stocker-app/stocker-cli/internal/store"
)

var reportPeriod string

var reportCmd = &cobra.Command{
	Use:   "report <ticker>",
	Short: "Print normalized metrics for a ticker",
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

		sets, err := st.ListMetricSets(ctx, store.Filter{Ticker: ticker, Period: reportPeriod})
		if err != nil {
			return err
		}
		if len(sets) == 0 {
			return eris.Errorf("report: no metric sets for %s, run normalize first", ticker)
		}

		fmt.Fprintln(cmd.OutOrStdout(), report.Render(sets, cat))
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportPeriod, "period", "", "report a single period label")
	rootCmd.AddCommand(reportCmd)
}
