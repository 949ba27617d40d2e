package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mveitas/cclens/internal/cli"
)

var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Usage for the last four weeks",
	RunE:  runWeekly,
}

func init() {
	rootCmd.AddCommand(weeklyCmd)
}

func runWeekly(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, closeEngine := newEngine(cfg)
	defer closeEngine()

	buckets, err := engine.Weekly(context.Background())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("WEEKLY USAGE  Last 4 Weeks"))
	fmt.Println()

	total := int64(0)
	rows := make([][]string, 0, len(buckets)+2)
	for _, b := range buckets {
		rows = append(rows, []string{
			"Week of " + b.WeekStart.Format("Jan 02"),
			cli.FormatNumber(int64(b.Entries)),
			cli.FormatTokens(b.TotalTokens),
			cli.FormatCost(b.CostUSD),
		})
		total += b.TotalTokens
	}
	if total == 0 {
		fmt.Println("  No usage found in the last four weeks.")
		fmt.Println()
		return nil
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Week", "Entries", "Tokens", "Cost"},
		Rows:    rows,
	}))

	printZoneWarning(engine)
	return nil
}
