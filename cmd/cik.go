package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cikCmd = &cobra.Command{
	Use:   "cik",
	Short: "Manage the ticker-to-CIK table",
}

var cikUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh the CIK table from SEC EDGAR",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		entries, err := newEdgar().CompanyTickers(ctx)
		if err != nil {
			return err
		}

		n, err := st.UpsertCIKs(ctx, entries)
		if err != nil {
			return err
		}

		zap.L().Info("updated CIK table", zap.Int("entries", n))
		fmt.Fprintf(cmd.OutOrStdout(), "upserted %d CIK entries\n", n)
		return nil
	},
}

var cikLookupCmd = &cobra.Command{
	Use:   "lookup <ticker>",
	Short: "Look up the CIK for a ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ticker := strings.ToUpper(args[0])

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		entry, err := st.LookupCIK(ctx, ticker)
		if err != nil {
			return err
		}
		if entry == nil {
			return eris.Errorf("cik: no entry for %s, run cik update first", ticker)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s\tCIK %010d\t%s\n", entry.Ticker, entry.CIK, entry.Name)
		return nil
	},
}

func init() {
	cikCmd.AddCommand(cikUpdateCmd)
	cikCmd.AddCommand(cikLookupCmd)
	rootCmd.AddCommand(cikCmd)
}
