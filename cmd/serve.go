package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stocker-app/stocker-cli/internal/catalog"
	"github.com/stocker-app/stocker-cli/internal/model"
	"github.com/stocker-app/stocker-cli/internal/normalize"
	"github.com/stocker-app/stocker-cli/internal/report"
	"github.com/stocker-app/stocker-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON API server",
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

		cat, err := loadCatalog()
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newServeMux(st, cat),
		}

		// Graceful shutdown
		go shutdownOnSignal(ctx, srv, 10*time.Second)

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// shutdownOnSignal waits for ctx cancellation and drains in-flight
// requests under a fresh deadline. The signal context is already
// canceled by then, so Shutdown needs its own.
func shutdownOnSignal(ctx context.Context, srv *http.Server, drain time.Duration) {
	<-ctx.Done()
	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// newServeMux wires the API routes against a store and catalog.
func newServeMux(st store.Store, cat *catalog.Catalog) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /metrics/{ticker}", func(w http.ResponseWriter, r *http.Request) {
		ticker := strings.ToUpper(r.PathValue("ticker"))

		sets, err := st.ListMetricSets(r.Context(), store.Filter{Ticker: ticker})
		if err != nil {
			zap.L().Error("list metric sets failed", zap.String("ticker", ticker), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		if len(sets) == 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no metrics for " + ticker})
			return
		}

		writeJSON(w, http.StatusOK, report.BuildDataset(sets))
	})

	mux.HandleFunc("POST /normalize/{ticker}", func(w http.ResponseWriter, r *http.Request) {
		ticker := strings.ToUpper(r.PathValue("ticker"))

		factSets, err := st.ListFactSets(r.Context(), store.Filter{Ticker: ticker})
		if err != nil {
			zap.L().Error("list fact sets failed", zap.String("ticker", ticker), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		if len(factSets) == 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no fact sets for " + ticker})
			return
		}

		for _, pf := range factSets {
			ms := model.MetricSet{
				Ticker:  pf.Ticker,
				Period:  pf.Period,
				Metrics: normalize.Normalize(pf.Facts, cat),
			}
			if err := st.SaveMetricSet(r.Context(), ms); err != nil {
				zap.L().Error("save metric set failed", zap.String("ticker", ticker), zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
				return
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"ticker":  ticker,
			"periods": len(factSets),
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
