package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveFlags struct {
	dataDir string
	port    int
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the data directory read-only for the table viewer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		r := chi.NewRouter()
		r.Use(middleware.RealIP)
		r.Use(middleware.Recoverer)
		// The viewer is a static frontend served from elsewhere.
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodHead},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{"status":"ok"}`)
		})
		r.Handle("/*", http.FileServer(http.Dir(serveFlags.dataDir)))

		port := serveFlags.port
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.String("data_dir", serveFlags.dataDir))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.dataDir, "data-dir", "", "data directory")
	serveCmd.Flags().IntVar(&serveFlags.port, "port", 0, "server port (default from config)")
	serveCmd.MarkFlagRequired("data-dir") //nolint:errcheck
	rootCmd.AddCommand(serveCmd)
}
