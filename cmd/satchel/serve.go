package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	satchelhttp "github.com/aretw0/satchel/pkg/adapters/http"
	"github.com/aretw0/satchel/pkg/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the session HTTP server",
	Long:  `Serves a JSON API over the caller's session, backed by the configured storage driver.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		opts := []satchelhttp.ProviderOption{
			satchelhttp.WithProviderLogger(logger),
			satchelhttp.WithOptions(cfg.Session),
			satchelhttp.WithCookies(cfg.Cookie),
			satchelhttp.WithMiddleware(cfg.Middlewares(logger)...),
		}
		if cfg.Server.Metrics {
			opts = append(opts, satchelhttp.WithMetrics(observability.NewMetrics(reg)))
		}
		provider, err := satchelhttp.NewProvider(cmd.Context(), cfg.Driver, opts...)
		if err != nil {
			return err
		}
		defer provider.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID, middleware.Recoverer)
		if cfg.Server.Metrics {
			r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		}
		r.Mount("/", satchelhttp.NewHandler(provider))

		srv := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: r,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("Starting satchel server", "addr", srv.Addr, "driver", provider.Kind())
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("Start shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", cfg.Server.ShutdownTimeout, "error", err)
				return srv.Close()
			}
			logger.Info("Satchel server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides server.addr)")
}
