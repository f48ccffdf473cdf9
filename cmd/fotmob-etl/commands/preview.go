package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/codes"

	"github.com/riskibarqy/fotmob-etl/internal/app"
	"github.com/riskibarqy/fotmob-etl/internal/usecase"
)

func init() {
	rootCmd.AddCommand(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Fetch and transform every configured season, print the teams, load nothing.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.close()

		ctx, span := tracer.Start(cmd.Context(), "fotmob-etl.preview")
		defer span.End()

		batch, err := app.NewETLService(rt.cfg, rt.logger).Preview(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "etl preview failed")
			return fmt.Errorf("etl preview: %w", err)
		}

		renderPreview(cmd.OutOrStdout(), batch)
		return nil
	},
}

func renderPreview(w io.Writer, batch usecase.Batch) {
	teams := batch.Teams()

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Team ID", "Team", "Short"})
	for _, item := range teams {
		t.AppendRow(table.Row{item.TeamID, item.TeamName, item.ShortName})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	counts := table.NewWriter()
	counts.SetOutputMirror(w)
	counts.AppendHeader(table.Row{"Table", "Rows"})
	counts.AppendRows([]table.Row{
		{"matches", len(batch.Matches)},
		{"teams", len(teams)},
		{"standings", len(batch.Standings)},
	})
	counts.SetStyle(table.StyleRounded)
	counts.Render()
}
