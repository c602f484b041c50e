package main

import (
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stocker-app/stocker-cli/internal/provider"
)

var (
	fetchSource   string
	fetchQuarters int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <ticker>...",
	Short: "Download company facts and store them per period",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		src, err := newFactSource(fetchSource)
		if err != nil {
			return err
		}

		quarters := fetchQuarters
		if quarters <= 0 {
			quarters = cfg.Fetch.Quarters
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Fetch.MaxConcurrency)

		for _, arg := range args {
			ticker := strings.ToUpper(arg)
			g.Go(func() error {
				periods, err := src.FetchFacts(gctx, ticker, quarters)
				if err != nil {
					return eris.Wrapf(err, "fetch %s", ticker)
				}
				for _, pf := range periods {
					if err := st.SaveFactSet(gctx, pf); err != nil {
						return eris.Wrapf(err, "save %s %s", ticker, pf.Period)
					}
				}
				zap.L().Info("fetched company facts",
					zap.String("ticker", ticker),
					zap.String("source", fetchSource),
					zap.Int("periods", len(periods)),
				)
				return nil
			})
		}

		return g.Wait()
	},
}

// newFactSource selects the provider behind the --source flag.
func newFactSource(name string) (provider.FactSource, error) {
	switch name {
	case "edgar":
		return newEdgar(), nil
	case "fmp":
		if cfg.FMP.Key == "" {
			return nil, eris.New("fetch: fmp source requires STOCKER_FMP_KEY")
		}
		return provider.NewFMP(cfg.FMP.Key), nil
	case "finnhub":
		if cfg.Finnhub.Key == "" {
			return nil, eris.New("fetch: finnhub source requires STOCKER_FINNHUB_KEY")
		}
		return provider.NewFinnhub(cfg.Finnhub.Key), nil
	default:
		return nil, eris.Errorf("fetch: unknown source %q", name)
	}
}

func init() {
	fetchCmd.Flags().StringVar(&fetchSource, "source", "edgar", "fact source: edgar, fmp, or finnhub")
	fetchCmd.Flags().IntVar(&fetchQuarters, "quarters", 0, "number of recent quarters (default from config)")
	rootCmd.AddCommand(fetchCmd)
}
