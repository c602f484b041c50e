package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stocker-app/stocker-cli/internal/catalog"
	"github.com/stocker-app/stocker-cli/internal/config"
	"github.com/stocker-app/stocker-cli/internal/fetcher"
	"github.com/stocker-app/stocker-cli/internal/provider"
	"github.com/stocker-app/stocker-cli/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "stocker",
	Short: "Fetch and normalize company financials from XBRL filings",
	Long:  "Downloads company facts from SEC EDGAR and market data APIs, resolves filer-specific XBRL concepts into canonical metrics, and reports or exports the results.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// openStore opens the configured store backend.
func openStore(ctx context.Context) (store.Store, error) {
	poolCfg := &store.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	}
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, poolCfg)
}

// loadCatalog returns the configured metric catalog, falling back to
// the built-in one when no override file is set.
func loadCatalog() (*catalog.Catalog, error) {
	if cfg.Catalog.Path != "" {
		return catalog.LoadFile(cfg.Catalog.Path)
	}
	return catalog.Default(), nil
}

// newEdgar builds an EDGAR provider with the configured fetch limits.
func newEdgar() *provider.Edgar {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Edgar.UserAgent,
		Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Fetch.MaxRetries,
	})
	return provider.NewEdgar(f)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
