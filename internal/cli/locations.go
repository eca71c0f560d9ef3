package cli

import (
	"fmt"
	"os"

	"mlx-scraper-service/internal"
	"mlx-scraper-service/internal/core/domain"
	"mlx-scraper-service/internal/core/usecase"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(locationsCmd)
}

var locationsCmd = &cobra.Command{
	Use:   "locations <query>",
	Short: "Ищет коды подрайонов и комьюнити для omni-фильтра.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := internal.NewApp()
		if err != nil {
			return err
		}
		defer app.Close()

		subareas, communities, err := app.SearchLocations(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("location search failed: %w", err)
		}

		renderLocations("Subareas", subareas)
		renderLocations("Communities", communities)
		return nil
	},
}

func renderLocations(title string, locations []domain.Location) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Code", "Name", "Confidence", "Omni"})

	for _, loc := range locations {
		omni, err := usecase.BuildOmni(loc)
		if err != nil {
			omni = ""
		}
		t.AppendRow(table.Row{loc.Code, loc.Name, fmt.Sprintf("%.2f", loc.Confidence), omni})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}
