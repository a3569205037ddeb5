package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/librarydesk/circulation/web"
)

const readHeaderTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface and the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	w, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.close(context.Background()); closeErr != nil {
			a.logger.Error("shutting down telemetry failed", "error", closeErr.Error())
		}
	}()

	if a.cfg.Database.MigrateOnStartup {
		if err := w.engine.Migrate(ctx); err != nil {
			return err
		}
	}

	handlers, err := web.NewHandlers(w.engine, a.cfg.Library.LoanPeriodDays, w.observability)
	if err != nil {
		return err
	}

	if a.cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := web.NewRouter(handlers, a.logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)

	go func() {
		a.logger.Info("http server started",
			slog.String("addr", a.cfg.HTTP.Addr),
			slog.String("dialect", w.engine.Dialect()),
			slog.Int("loan_period_days", a.cfg.Library.LoanPeriodDays),
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}

		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("http server shutting down", slog.Duration("timeout", a.cfg.HTTP.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
