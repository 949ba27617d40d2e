package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mveitas/cclens/internal/cli"
	"github.com/mveitas/cclens/internal/model"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Usage chart with project breakdown",
	RunE:  runChart,
}

func init() {
	rootCmd.AddCommand(chartCmd)
}

const breakdownLimit = 10

func runChart(_ *cobra.Command, _ []string) error {
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

	fmt.Println()
	fmt.Println(cli.RenderTitle("USAGE CHART  " + periodTitle(period)))
	fmt.Println()

	if data.Summary.Entries == 0 {
		fmt.Println("  No usage found for the selected period.")
		fmt.Println()
		return nil
	}

	values := make([]float64, len(data.Points))
	for i, p := range data.Points {
		values[i] = float64(p.TotalTokens)
	}
	fmt.Printf("  %s\n", cli.RenderSparkline(values))
	if len(data.Labels) > 1 {
		fmt.Printf("  %s .. %s  (%s)\n\n",
			cli.MutedText(data.Labels[0]),
			cli.MutedText(data.Labels[len(data.Labels)-1]),
			data.Granularity,
		)
	}

	if len(data.ProjectBreakdown) > 0 {
		fmt.Println("  " + cli.HeaderText("By project"))
		maxTokens := float64(data.ProjectBreakdown[0].TotalTokens)
		width := longestProjectName(data.ProjectBreakdown)
		shown := data.ProjectBreakdown
		if len(shown) > breakdownLimit {
			shown = shown[:breakdownLimit]
		}
		for _, p := range shown {
			label := fmt.Sprintf("%-*s", width, p.Project)
			fmt.Println(cli.RenderHorizontalBar(
				label,
				float64(p.TotalTokens), maxTokens, 30,
				fmt.Sprintf("%s  %s", cli.FormatTokens(p.TotalTokens), cli.CostText(cli.FormatCost(p.CostUSD))),
			))
		}
		if hidden := len(data.ProjectBreakdown) - len(shown); hidden > 0 {
			fmt.Printf("  %s\n", cli.MutedText(fmt.Sprintf("… and %d more", hidden)))
		}
		fmt.Println()
	}

	fmt.Printf("  Total: %s tokens, %s%s\n",
		cli.FormatTokens(data.Summary.TotalTokens),
		cli.CostText(cli.FormatCost(data.Summary.CostUSD)),
		cli.EstimateMarker(data.Summary.Estimated),
	)
	if data.Comparison != nil && data.ComparisonWindow != nil {
		fmt.Printf("  vs %s: %s\n",
			data.ComparisonWindow.Label,
			cli.FormatTrend(data.Summary.CostUSD, data.Comparison.CostUSD),
		)
	}

	printZoneWarning(engine)
	fmt.Println()
	return nil
}

func longestProjectName(buckets []model.ProjectBucket) int {
	width := 0
	for _, b := range buckets {
		if len(b.Project) > width {
			width = len(b.Project)
		}
	}
	return width
}
