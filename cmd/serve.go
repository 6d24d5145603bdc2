package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sales-etl/internal/model"
	"github.com/sells-group/sales-etl/internal/pipeline"
	"github.com/sells-group/sales-etl/internal/store"
)

var servePort int

// servableOutputs is the allowlist of files the server exposes. Everything
// else in the output directory stays private.
var servableOutputs = map[string]string{
	pipeline.FileOrdersCleaned:  "text/csv",
	pipeline.FileItemsCleaned:   "text/csv",
	pipeline.FileOrdersEnriched: "text/csv",
	pipeline.FileTopCities:      "text/csv",
	pipeline.FileTopPairs:       "text/csv",
	pipeline.FileMonthlyMargin:  "text/csv",
	pipeline.FileManifest:       "application/yaml",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve pipeline outputs and run status over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(st, cfg.ETL.OutputDir, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// newRouter builds the read-only API. The server never triggers runs; it only
// reports on the latest one and hands out its files.
func newRouter(st store.Store, outputDir string, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/runs/latest", func(w http.ResponseWriter, req *http.Request) {
		run, err := st.LatestRun(req.Context())
		if err != nil {
			zap.L().Error("latest run lookup failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
			return
		}
		if run == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no runs recorded"})
			return
		}

		stages, err := st.ListStages(req.Context(), run.ID)
		if err != nil {
			zap.L().Error("stage lookup failed", zap.String("run_id", run.ID), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
			return
		}

		writeJSON(w, http.StatusOK, struct {
			Run    *model.Run    `json:"run"`
			Stages []model.Stage `json:"stages"`
		}{Run: run, Stages: stages})
	})

	r.Get("/api/outputs/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "name")
		contentType, ok := servableOutputs[name]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown output"})
			return
		}
		path := filepath.Join(outputDir, name)
		if _, err := os.Stat(path); err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "output not generated yet"})
			return
		}
		w.Header().Set("Content-Type", contentType)
		http.ServeFile(w, req, path)
	})

	return r
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
