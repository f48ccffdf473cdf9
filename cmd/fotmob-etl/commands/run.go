package commands

import (
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/riskibarqy/fotmob-etl/internal/app"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch every configured season and load matches, teams and standings.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.close()

		if err := rt.cfg.RequireDB(); err != nil {
			return err
		}

		ctx, span := tracer.Start(cmd.Context(), "fotmob-etl.run")
		defer span.End()
		span.SetAttributes(attribute.StringSlice("etl.seasons", rt.cfg.Seasons))

		result, err := app.NewETLService(rt.cfg, rt.logger).Run(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "etl run failed")
			return fmt.Errorf("etl run %s: %w", result.RunID, err)
		}

		out, err := sonic.Marshal(result)
		if err != nil {
			return fmt.Errorf("encode run result: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}
