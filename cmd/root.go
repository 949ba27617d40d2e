// Package cmd implements the cclens CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mveitas/cclens/internal/config"
	"github.com/mveitas/cclens/internal/logger"
	"github.com/mveitas/cclens/internal/model"
	"github.com/mveitas/cclens/internal/query"
	"github.com/mveitas/cclens/internal/store"
)

var (
	flagPeriod  string
	flagRoot    string
	flagNoStore bool
	flagQuiet   bool
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:   "cclens",
	Short: "Usage analytics for JSONL activity logs",
	Long:  "Aggregate token and cost usage from per-project JSONL logs: summaries, charts, projects, and a live watch daemon.",
	RunE:  runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagPeriod, "period", "P", "all", "Time period: today, week, month, year, all")
	rootCmd.PersistentFlags().StringVarP(&flagRoot, "root", "d", "", "Log root directory (default ~/.claude/projects)")
	rootCmd.PersistentFlags().BoolVar(&flagNoStore, "no-store", false, "Skip the SQLite store, reparse everything")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
}

// loadConfig loads the config file, applies flag overrides, and wires up
// logging. Shared by every command.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if flagRoot != "" {
		cfg.General.RootPath = flagRoot
	}
	if flagDebug {
		cfg.Log.Debug = true
	}
	logger.Setup(cfg.Log.File, cfg.Log.Debug)
	return cfg, nil
}

// newEngine builds the query engine, opening the SQLite store unless
// disabled. A store that fails to open degrades to scan-only with a notice
// rather than failing the command.
func newEngine(cfg config.Config) (*query.Engine, func()) {
	if flagNoStore {
		return query.New(cfg, nil), func() {}
	}

	st, err := store.Open(config.StorePath())
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Store unavailable, doing full parse (%v)\n", err)
		}
		return query.New(cfg, nil), func() {}
	}
	return query.New(cfg, st), func() { _ = st.Close() }
}

func currentPeriod() model.Period {
	return model.ParsePeriod(flagPeriod)
}

// periodTitle is the heading suffix for the selected period.
func periodTitle(period model.Period) string {
	switch period {
	case model.PeriodToday:
		return "Today"
	case model.PeriodWeek:
		return "This Week"
	case model.PeriodMonth:
		return "This Month"
	case model.PeriodYear:
		return "This Year"
	default:
		return "All Time"
	}
}
