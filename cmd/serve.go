package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gymscout/leads-cli/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an HTTP server that accepts scrape requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initScrapeEnv(ctx, cfg.Store.Enabled)
		if err != nil {
			return err
		}
		defer env.Close()

		addr := serveAddr
		if addr == "" {
			addr = fmt.Sprintf(":%d", cfg.Server.Port)
		}

		srv := &http.Server{
			Addr:    addr,
			Handler: buildMux(ctx, env),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(context.Background()) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :<server.port> from config)")
	rootCmd.AddCommand(serveCmd)
}

// buildMux assembles the HTTP routes. Scrape runs are asynchronous: the
// handler answers 202 with a run ID and the run proceeds on ctx, which
// outlives the request.
func buildMux(ctx context.Context, env *scrapeEnv) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /scrape", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			City       string   `json:"city"`
			Sources    []string `json:"sources"`
			Sequential bool     `json:"sequential"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		if req.City == "" {
			http.Error(w, `{"error":"city is required"}`, http.StatusBadRequest)
			return
		}

		// Reject unknown source names before accepting the run.
		if env != nil && env.Registry != nil {
			if _, err := env.Registry.Select(req.Sources); err != nil {
				http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusBadRequest)
				return
			}
		}

		id := uuid.NewString()

		go func() {
			if env == nil || env.Geo == nil {
				zap.L().Warn("scrape environment not initialized, skipping run", zap.String("run_id", id))
				return
			}

			loc, err := env.Geo.Resolve(ctx, req.City)
			if err != nil {
				zap.L().Error("scrape request resolution failed",
					zap.String("run_id", id),
					zap.String("city", req.City),
					zap.Error(err),
				)
				return
			}

			run, unique, err := env.runScrape(ctx, loc, scrapeRequest{
				ID:         id,
				Query:      req.City,
				Sources:    req.Sources,
				Sequential: req.Sequential,
				Headless:   true,
				Enrich:     true,
				Format:     "csv",
			})
			if err != nil {
				zap.L().Error("scrape request failed",
					zap.String("run_id", id),
					zap.String("city", req.City),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("scrape request complete",
				zap.String("run_id", run.ID),
				zap.Int("leads", len(unique)),
				zap.String("output", run.Output),
			)
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"run_id": id})
	})

	mux.HandleFunc("GET /runs", func(w http.ResponseWriter, r *http.Request) {
		if env == nil || env.Store == nil {
			http.Error(w, `{"error":"run store disabled"}`, http.StatusServiceUnavailable)
			return
		}

		runs, err := env.Store.ListRuns(r.Context(), store.RunFilter{Limit: 50})
		if err != nil {
			zap.L().Error("list runs failed", zap.Error(err))
			http.Error(w, `{"error":"list runs failed"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(runs)
	})

	return mux
}
