package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mlx-scraper-service/internal"
	"mlx-scraper-service/internal/core/domain"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
	// scrape - действие по умолчанию
	rootCmd.RunE = scrapeCmd.RunE
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Запускает полный проход по настроенным годам постройки.",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := internal.NewApp()
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		summary, runErr := app.Run(ctx)
		if summary != nil {
			renderSummary(summary)
		}
		if runErr != nil {
			return fmt.Errorf("run finished with error: %w", runErr)
		}
		return nil
	},
}

func renderSummary(summary *domain.RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Run %s", summary.RunID)
	t.AppendHeader(table.Row{"Year", "Status", "Records", "Pages", "Failed Pages", "Error"})

	for _, outcome := range summary.Outcomes {
		status := "ok"
		errText := ""
		if !outcome.Succeeded {
			status = "failed"
			if outcome.Err != nil {
				errText = outcome.Err.Error()
			}
		}
		t.AppendRow(table.Row{
			outcome.Year, status, len(outcome.Records),
			outcome.PagesFetched, outcome.PagesFailed, errText,
		})
	}

	t.AppendFooter(table.Row{
		"total", "", summary.TotalRecords, summary.TotalPages, "",
		summary.WallTime().Round(100 * time.Millisecond).String(),
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
