package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mveitas/cclens/internal/cli"
	"github.com/mveitas/cclens/internal/query"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Usage summary for a period",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, closeEngine := newEngine(cfg)
	defer closeEngine()

	period := currentPeriod()
	data, err := engine.ChartData(context.Background(), period)
	if err != nil {
		return err
	}
	stats := data.Summary

	fmt.Println()
	fmt.Println(cli.RenderTitle("USAGE  " + periodTitle(period)))
	fmt.Println()

	if stats.Entries == 0 {
		fmt.Println("  No usage found for the selected period.")
		fmt.Println()
		return nil
	}

	costLabel := "Cost"
	if stats.Estimated {
		costLabel = "Cost" + cli.EstimateMarker(true)
	}

	rows := [][]string{
		{"Entries", cli.FormatNumber(int64(stats.Entries))},
		{"Messages", cli.FormatNumber(int64(stats.Messages))},
		{"Projects", cli.FormatNumber(int64(stats.ProjectCount))},
		{"Active Hours", cli.FormatNumber(int64(stats.ActiveHours))},
		{"---"},
		{"Input Tokens", cli.FormatTokens(stats.InputTokens)},
		{"Output Tokens", cli.FormatTokens(stats.OutputTokens)},
		{"Total Tokens", cli.FormatTokens(stats.TotalTokens)},
		{"---"},
		{costLabel, cli.FormatCost(stats.CostUSD)},
	}
	if cfg.General.Currency != "" && cfg.General.Currency != "USD" {
		rows = append(rows, []string{
			"Cost (" + cfg.General.Currency + ")",
			cli.FormatCurrency(stats.CostLocal, cfg.General.Currency),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if data.Comparison != nil && data.ComparisonWindow != nil {
		prev := *data.Comparison
		fmt.Println()
		fmt.Printf("  vs %s: %s tokens (%s), %s cost (%s)\n",
			data.ComparisonWindow.Label,
			cli.FormatTokens(stats.TotalTokens-prev.TotalTokens),
			cli.FormatTrend(float64(stats.TotalTokens), float64(prev.TotalTokens)),
			cli.FormatDelta(stats.CostUSD, prev.CostUSD),
			cli.FormatTrend(stats.CostUSD, prev.CostUSD),
		)
	}

	printZoneWarning(engine)
	fmt.Println()
	return nil
}

// printZoneWarning surfaces degraded timezone bucketing once per command.
func printZoneWarning(engine *query.Engine) {
	if engine.Resolver().Degraded() {
		fmt.Println()
		fmt.Println("  " + cli.RenderWarning("configured timezone is invalid; bucketing by timestamp wall clock"))
	}
}
