package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stocker-app/stocker-cli/internal/model"
	"github.com/stocker-app/stocker-cli/internal/normalize"
	"github.com/stocker-app/stocker-cli/internal/store"
)

var normalizePeriod string

var normalizeCmd = &cobra.Command{
	Use:   "normalize <ticker>",
	Short: "Resolve stored fact sets into canonical metric sets",
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

		factSets, err := st.ListFactSets(ctx, store.Filter{Ticker: ticker, Period: normalizePeriod})
		if err != nil {
			return err
		}
		if len(factSets) == 0 {
			return eris.Errorf("normalize: no fact sets for %s, run fetch first", ticker)
		}

		for _, pf := range factSets {
			ms := model.MetricSet{
				Ticker:  pf.Ticker,
				Period:  pf.Period,
				Metrics: normalize.Normalize(pf.Facts, cat),
			}
			if err := st.SaveMetricSet(ctx, ms); err != nil {
				return eris.Wrapf(err, "save metrics %s %s", ticker, pf.Period)
			}
		}

		zap.L().Info("normalized fact sets",
			zap.String("ticker", ticker),
			zap.Int("periods", len(factSets)),
		)
		return nil
	},
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizePeriod, "period", "", "normalize a single period label")
	rootCmd.AddCommand(normalizeCmd)
}
