package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mveitas/cclens/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Log root:      %s\n", cfg.Root())
	if cfg.General.Timezone != "" {
		fmt.Printf("    Timezone:      %s\n", cfg.General.Timezone)
	} else {
		fmt.Println("    Timezone:      system")
	}
	fmt.Printf("    Currency:      %s (rate %.4f)\n", cfg.General.Currency, cfg.General.ExchangeRate)
	fmt.Println()

	fmt.Println("  [Cache]")
	fmt.Printf("    Fast TTL:      %ds\n", cfg.Cache.FastTTLSeconds)
	fmt.Printf("    Base TTL:      %ds\n", cfg.Cache.BaseTTLSeconds)
	fmt.Printf("    Capacity:      %d entries\n", cfg.Cache.Capacity)
	fmt.Printf("    Store:         %s\n", config.StorePath())
	fmt.Println()

	fmt.Println("  [Estimate]")
	fmt.Printf("    Input per 1K:  $%.4f\n", cfg.Estimate.InputPer1K)
	fmt.Printf("    Output per 1K: $%.4f\n", cfg.Estimate.OutputPer1K)
	fmt.Println()

	if cfg.Log.File != "" {
		fmt.Println("  [Log]")
		fmt.Printf("    File:          %s\n", cfg.Log.File)
		fmt.Printf("    Debug:         %v\n", cfg.Log.Debug)
		fmt.Println()
	}

	return nil
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	if config.Exists() {
		return fmt.Errorf("config already exists at %s", config.ConfigPath())
	}
	if err := config.Save(config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("  Wrote default config to %s\n", config.ConfigPath())
	return nil
}
