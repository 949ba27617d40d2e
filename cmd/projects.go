package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mveitas/cclens/internal/cli"
	"github.com/mveitas/cclens/internal/model"
	"github.com/mveitas/cclens/internal/query"
)

var projectsCmd = &cobra.Command{
	Use:   "projects [path]",
	Short: "Per-project usage, or entry detail for one project",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProjects,
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}

func runProjects(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, closeEngine := newEngine(cfg)
	defer closeEngine()

	if len(args) == 1 {
		return showProjectDetail(engine, args[0])
	}

	ctx := context.Background()
	projects, err := engine.Projects(ctx)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("\n  No projects found under " + cfg.Root())
		return nil
	}

	period := currentPeriod()
	data, err := engine.ChartData(ctx, period)
	if err != nil {
		return err
	}

	usage := make(map[string]model.ProjectBucket, len(data.ProjectBreakdown))
	for _, b := range data.ProjectBreakdown {
		usage[b.Project] = b
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("PROJECTS  " + periodTitle(period)))
	fmt.Println()

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		b := usage[p.Name]
		rows = append(rows, []string{
			p.Name,
			cli.FormatNumber(int64(len(p.Files))),
			cli.FormatNumber(int64(b.Entries)),
			cli.FormatTokens(b.TotalTokens),
			cli.FormatCost(b.CostUSD),
			p.LastModified.Format("2006-01-02 15:04"),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Project", "Files", "Entries", "Tokens", "Cost", "Last Activity"},
		Rows:    rows,
	}))

	printZoneWarning(engine)
	return nil
}

// showProjectDetail lists the most recent entries of one project by path.
func showProjectDetail(engine *query.Engine, path string) error {
	entries, err := engine.ProjectEntries(context.Background(), path)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("PROJECT LOG  " + path))
	fmt.Println()

	if len(entries) == 0 {
		fmt.Println("  No entries.")
		return nil
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	const detailLimit = 25
	if len(entries) > detailLimit {
		entries = entries[:detailLimit]
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Kind,
			cli.FormatTokens(e.TotalTokens()),
			cli.FormatCost(e.Cost()),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Timestamp", "Kind", "Tokens", "Cost"},
		Rows:    rows,
	}))
	return nil
}
