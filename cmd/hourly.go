package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mveitas/cclens/internal/cli"
	"github.com/mveitas/cclens/internal/model"
	"github.com/mveitas/cclens/internal/query"
)

var hourlyCmd = &cobra.Command{
	Use:   "hourly",
	Short: "Hour-of-day usage for today",
	RunE:  runHourly,
}

func init() {
	rootCmd.AddCommand(hourlyCmd)
}

func runHourly(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, closeEngine := newEngine(cfg)
	defer closeEngine()

	return renderHourly(engine)
}

// renderHourly prints the hour-of-day view for an already-built engine so
// other commands can reuse it without reopening the store.
func renderHourly(engine *query.Engine) error {
	data, err := engine.ChartData(context.Background(), model.PeriodToday)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("HOURLY USAGE  Today"))
	fmt.Println()

	if data.Summary.Entries == 0 {
		fmt.Println("  No usage yet today.")
		fmt.Println()
		return nil
	}

	values := make([]float64, len(data.Points))
	for i, p := range data.Points {
		values[i] = float64(p.TotalTokens)
	}
	fmt.Printf("  %s\n", cli.RenderSparkline(values))
	fmt.Printf("  %s\n\n", cli.MutedText("00:00"+strings.Repeat(" ", 14)+"23:00"))

	rows := make([][]string, 0, 24)
	for _, p := range data.Points {
		if p.Entries == 0 {
			continue
		}
		rows = append(rows, []string{
			p.Label + ":00",
			cli.FormatNumber(int64(p.Entries)),
			cli.FormatTokens(p.TotalTokens),
			cli.FormatCost(p.CostUSD),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Hour", "Entries", "Tokens", "Cost"},
		Rows:    rows,
	}))

	fmt.Printf("\n  Active hours: %d\n", data.Summary.ActiveHours)
	printZoneWarning(engine)
	return nil
}
