package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/librarydesk/circulation/shared/shell/config"
	"github.com/AntonStoeckl/librarydesk/circulation/web"
	"github.com/AntonStoeckl/librarydesk/librarystore/oteladapters"
	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
)

const (
	defaultEnvFile = ".env"

	logMsgOTelNotExported = "opentelemetry enabled without an exporter endpoint, spans and metrics stay in process"
)

// app carries what every subcommand needs after the configuration was loaded.
type app struct {
	configPath string
	envFile    string
	cfg        config.Config
	logger     *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "librarydesk",
		Short:         "Library management: books, members and their borrowings",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML configuration file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", defaultEnvFile, "path to a .env file, ignored if missing")

	root.AddCommand(
		newServeCommand(a),
		newMigrateCommand(a),
		newPingCommand(a),
		newDescribeCommand(a),
		newSeedCommand(a),
		newSimulateCommand(a),
	)

	return root
}

func (a *app) load(logOutput io.Writer) error {
	cfg, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = config.NewLogger(cfg.Log, logOutput)

	return nil
}

// wiring is the engine together with the instrumentation shared by the engine and the handlers.
type wiring struct {
	engine        *sqlengine.Engine
	observability web.Observability
	shutdown      func(ctx context.Context) error
}

// connect opens the engine. With OpenTelemetry enabled, the SDK providers are registered
// and both the engine and the handlers report metrics and spans through the OpenTelemetry
// adapters. Handler logs go to the OTLP log pipeline only while an exporter endpoint is set;
// otherwise they stay on the slog logger.
func (a *app) connect(ctx context.Context) (*wiring, error) {
	w := &wiring{
		observability: web.Observability{ContextualLogger: a.logger},
		shutdown:      func(context.Context) error { return nil },
	}

	options := []sqlengine.Option{
		sqlengine.WithLogger(a.logger),
		sqlengine.WithClock(a.cfg.Library.Clock()),
	}

	if a.cfg.OTel.Enabled {
		providers, err := config.NewOTelProviders(ctx, a.cfg.OTel)
		if err != nil {
			return nil, err
		}

		name := a.cfg.OTel.ServiceName
		metrics := oteladapters.NewMetricsCollector(otel.Meter(name))
		tracing := oteladapters.NewTracingCollector(otel.Tracer(name))

		options = append(options, sqlengine.WithMetrics(metrics), sqlengine.WithTracing(tracing))
		w.observability.Metrics = metrics
		w.observability.Tracing = tracing

		if providers.LoggerProvider != nil {
			contextualLogger := oteladapters.NewSlogBridgeLoggerWithProvider(name, providers.LoggerProvider)
			options = append(options, sqlengine.WithContextualLogger(contextualLogger))
			w.observability.ContextualLogger = contextualLogger
		} else {
			a.logger.Warn(logMsgOTelNotExported)
		}

		w.shutdown = providers.Shutdown
	}

	engine, err := config.NewEngine(ctx, a.cfg.Database, options...)
	if err != nil {
		_ = w.shutdown(ctx)
		return nil, err
	}

	w.engine = engine

	return w, nil
}

func (w *wiring) close(ctx context.Context) error {
	w.engine.Close()
	return w.shutdown(ctx)
}
