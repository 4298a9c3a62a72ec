package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rouki-watch/rouki-cli/internal/ledger"
	"github.com/rouki-watch/rouki-cli/internal/reconcile"
	"github.com/rouki-watch/rouki-cli/internal/site"
)

var (
	servePort    int
	serveDocsDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generated site and a small statistics API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		docsDir := cfg.Site.DocsDir
		if serveDocsDir != "" {
			docsDir = serveDocsDir
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet},
		}))

		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		r.Get("/api/statistics", func(w http.ResponseWriter, _ *http.Request) {
			led, malformed, err := ledger.Load(cfg.Timeline.AppearancesPath)
			if err != nil || len(malformed) > 0 {
				http.Error(w, `{"error":"ledger unavailable"}`, http.StatusInternalServerError)
				return
			}
			changes, err := reconcile.LoadChanges(cfg.Timeline.ChangesPath)
			if err != nil {
				http.Error(w, `{"error":"change log unavailable"}`, http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(site.Compute(led.All(), changes, time.Now()))
		})

		r.Get("/api/changes", func(w http.ResponseWriter, _ *http.Request) {
			changes, err := reconcile.LoadChanges(cfg.Timeline.ChangesPath)
			if err != nil {
				http.Error(w, `{"error":"change log unavailable"}`, http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(changes)
		})

		r.Handle("/*", http.FileServer(http.Dir(docsDir)))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("docs", docsDir))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveDocsDir, "docs", "", "site directory to serve (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
