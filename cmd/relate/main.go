package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relate-orm/relate"
	"github.com/relate-orm/relate/config"
)

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "relate",
	Short: "Inspect and maintain relate model types and their associations",
	Long: `relate reads model type definitions from a YAML config file, connects to the
configured database and runs association queries or maintenance tasks on it.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "relate.yaml", "path to YAML config file")
}

// loadConfig is the PersistentPreRunE of the commands working on an existing config file
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgPath)
	return err
}

// openDB connects to the configured database, the caller closes it
func openDB(ctx context.Context) (*relate.DB, error) {
	db, err := config.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
