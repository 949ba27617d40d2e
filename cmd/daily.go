package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mveitas/cclens/internal/cli"
	"github.com/mveitas/cclens/internal/model"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Per-day usage table",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, closeEngine := newEngine(cfg)
	defer closeEngine()

	period := currentPeriod()
	if period == model.PeriodToday {
		// A single day has no daily breakdown; show hours instead.
		return renderHourly(engine)
	}

	data, err := engine.ChartData(context.Background(), period)
	if err != nil {
		return err
	}

	if data.Summary.Entries == 0 {
		fmt.Println("\n  No usage found for the selected period.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("DAILY USAGE  " + periodTitle(period)))
	fmt.Println()

	unit := "Date"
	if data.Granularity == model.GranularityMonthly {
		unit = "Month"
	}

	rows := make([][]string, 0, len(data.Points))
	for _, p := range data.Points {
		if p.Entries == 0 {
			continue
		}
		rows = append(rows, []string{
			p.Label,
			cli.FormatNumber(int64(p.Entries)),
			cli.FormatTokens(p.InputTokens),
			cli.FormatTokens(p.OutputTokens),
			cli.FormatTokens(p.TotalTokens),
			cli.FormatCost(p.CostUSD),
		})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{
		"Total",
		cli.FormatNumber(int64(data.Summary.Entries)),
		cli.FormatTokens(data.Summary.InputTokens),
		cli.FormatTokens(data.Summary.OutputTokens),
		cli.FormatTokens(data.Summary.TotalTokens),
		cli.FormatCost(data.Summary.CostUSD) + cli.EstimateMarker(data.Summary.Estimated),
	})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{unit, "Entries", "Input", "Output", "Tokens", "Cost"},
		Rows:    rows,
	}))

	printZoneWarning(engine)
	return nil
}
