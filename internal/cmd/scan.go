package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	chartconfig "github.com/chartsrv/chartsrv/internal/config"
	"github.com/chartsrv/chartsrv/internal/registry"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Re-scan the data directory and refresh the registry from sidecars",
	RunE:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	chartconfig.SetDefaults(viper.GetViper())
	cfg := chartconfig.FromViper(viper.GetViper())

	reg, err := registry.Open(cfg.RegistryPath)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	defer reg.Close()

	if err := reg.Scan([]string{cfg.DataDir}, registry.ScanOptions{}, nil); err != nil {
		return fmt.Errorf("scan %s: %w", cfg.DataDir, err)
	}

	records, err := reg.List("", "", 1, 0)
	if err != nil {
		return fmt.Errorf("list registry: %w", err)
	}

	logger.Info("scan complete", "data_dir", cfg.DataDir, "datasets", len(records))
	return nil
}
