package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/stocker-app/stocker-cli/internal/analyzer"
	"github.com/stocker-app/stocker-cli/internal/store"
)

var analyzeCSVs []string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <ticker>...",
	Short: "Compare XBRL concept usage across stored companies",
	Long:  "Loads stored fact sets (or raw CSV exports via --csv TICKER=path) and reports which concepts the companies share, bucketed by statement, with the best concrete concept per target metric.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if len(args) == 0 && len(analyzeCSVs) == 0 {
			return eris.New("analyze: pass tickers or --csv files")
		}

		a := analyzer.New()

		if len(args) > 0 {
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			for _, arg := range args {
				ticker := strings.ToUpper(arg)
				periods, err := st.ListFactSets(ctx, store.Filter{Ticker: ticker})
				if err != nil {
					return err
				}
				if len(periods) == 0 {
					return eris.Errorf("analyze: no fact sets for %s, run fetch first", ticker)
				}
				a.AddFacts(ticker, periods)
			}
		}

		for _, pair := range analyzeCSVs {
			ticker, path, ok := strings.Cut(pair, "=")
			if !ok {
				return eris.Errorf("analyze: --csv wants TICKER=path, got %q", pair)
			}
			f, err := os.Open(path)
			if err != nil {
				return eris.Wrapf(err, "analyze: open %s", path)
			}
			err = a.LoadCSV(ctx, strings.ToUpper(ticker), f)
			_ = f.Close()
			if err != nil {
				return err
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), a.Report())
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringArrayVar(&analyzeCSVs, "csv", nil, "raw fact export to include, as TICKER=path")
	rootCmd.AddCommand(analyzeCmd)
}
