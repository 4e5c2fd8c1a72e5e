package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BeeKIS/honeybee-migrations/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "beemig",
	Short: "Honeybee colony migration pipeline",
	Long:  "Reconstructs migration chains from the apiary movement registry, routes them over the road network, prices the transport and writes the yearly statistics, cost model and figures.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		if err := cfg.Validate(topLevel(cmd).Name()); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

// topLevel returns the direct child of the root command cmd belongs to.
func topLevel(cmd *cobra.Command) *cobra.Command {
	for cmd.HasParent() && cmd.Parent().HasParent() {
		cmd = cmd.Parent()
	}
	return cmd
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
