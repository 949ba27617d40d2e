package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mveitas/cclens/internal/config"
	"github.com/mveitas/cclens/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe the SQLite entry store",
	Long:  "Drop every ingested entry and file record. The store is rebuilt from the logs on the next query.",
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(_ *cobra.Command, _ []string) error {
	st, err := store.Open(config.StorePath())
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = st.Close() }()

	if err := st.Reset(); err != nil {
		return err
	}
	fmt.Printf("  Store reset: %s\n", config.StorePath())
	return nil
}
