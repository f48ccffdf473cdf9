package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/riskibarqy/fotmob-etl/internal/config"
	"github.com/riskibarqy/fotmob-etl/internal/observability"
	"github.com/riskibarqy/fotmob-etl/internal/platform/logging"
)

var tracer = otel.Tracer("fotmob-etl/cmd")

var rootCmd = &cobra.Command{
	Use:           "fotmob-etl",
	Short:         "fotmob-etl loads FotMob league matches, teams and standings into Postgres.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type runtime struct {
	cfg     config.Config
	logger  *logging.Logger
	closers []func(context.Context) error
}

// bootstrap loads .env and config, then starts logging, tracing and profiling.
func bootstrap() (*runtime, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewJSON(cfg.LogLevel).With(
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"env", cfg.AppEnv,
	)
	logging.SetDefault(logger)

	rt := &runtime{cfg: cfg, logger: logger}

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init uptrace: %w", err)
	}
	rt.closers = append(rt.closers, shutdownTracing)

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("init pyroscope: %w", err)
	}
	rt.closers = append(rt.closers, func(context.Context) error { return stopProfiler() })

	return rt, nil
}

// close flushes telemetry in reverse start order. It ignores the command
// context, which is already cancelled on SIGINT.
func (r *runtime) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			r.logger.Warn("telemetry shutdown failed", "error", err)
		}
	}
	_ = r.logger.Sync()
}
