package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	chartconfig "github.com/chartsrv/chartsrv/internal/config"
	"github.com/chartsrv/chartsrv/internal/ingest"
	"github.com/chartsrv/chartsrv/internal/registry"
	"github.com/chartsrv/chartsrv/internal/worker"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Convert chart sources into the served dataset formats and register them",
}

var ingestENCCmd = &cobra.Command{
	Use:   "enc <source-dir> <dataset-id> [<source-dir> <dataset-id> ...]",
	Short: "Ingest one or more S-57/ENC source directories",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runIngestBatch(ingest.BatchENC),
}

var ingestCM93Cmd = &cobra.Command{
	Use:   "cm93 <cm93-file> <dataset-id> [<cm93-file> <dataset-id> ...]",
	Short: "Ingest one or more CM93 cell files",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runIngestBatch(ingest.BatchCM93),
}

var ingestGeoTIFFCmd = &cobra.Command{
	Use:   "geotiff <tif-file> <dataset-id> [<tif-file> <dataset-id> ...]",
	Short: "Ingest one or more GeoTIFF rasters, converting each to a Cloud-Optimized GeoTIFF",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runIngestBatch(ingest.BatchGeoTIFF),
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.AddCommand(ingestENCCmd, ingestCM93Cmd, ingestGeoTIFFCmd)

	ingestCmd.PersistentFlags().Int("workers", 4, "Concurrent ingest workers when multiple sources are given")
	if err := viper.BindPFlag("ingest-workers", ingestCmd.PersistentFlags().Lookup("workers")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

// newPipeline opens the registry and builds an ingest.Pipeline from the
// shared root-level flags (data-dir, registry-path, and the external
// tool paths), used by every `chartsrv ingest <kind>` subcommand.
func newPipeline() (*ingest.Pipeline, error) {
	chartconfig.SetDefaults(viper.GetViper())
	cfg := chartconfig.FromViper(viper.GetViper())

	reg, err := registry.Open(cfg.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}

	return &ingest.Pipeline{
		Tools: ingest.Tools{
			ENCConverter: viper.GetString("enc-converter"),
			TilePyramid:  viper.GetString("tile-pyramid"),
			CM93Decoder:  viper.GetString("cm93-decoder"),
			GeoTIFFToCOG: viper.GetString("geotiff-to-cog"),
		},
		DataDir:  cfg.DataDir,
		Registry: reg,
		Log:      logger,
	}, nil
}

// runIngestBatch builds a cobra RunE for one ingest kind. args are
// (source, id) pairs, fanned out across the configured number of
// workers; a lone pair still runs through Batch with one task.
func runIngestBatch(kind ingest.BatchKind) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if logger == nil {
			initLogging()
		}
		if len(args)%2 != 0 {
			return fmt.Errorf("ingest %s: arguments must be (source, dataset-id) pairs", kind)
		}

		p, err := newPipeline()
		if err != nil {
			return err
		}

		tasks := make([]worker.Task, 0, len(args)/2)
		for i := 0; i < len(args); i += 2 {
			tasks = append(tasks, worker.Task{Source: args[i], ID: args[i+1]})
		}

		progress := worker.NewProgress(len(tasks), len(tasks) > 1)
		results := p.Batch(cmd.Context(), kind, tasks, viper.GetInt("ingest-workers"), progress.Callback())
		progress.Done()

		var failed int
		for _, r := range results {
			if r.Err != nil {
				failed++
				logger.Error("ingest task failed", "dataset", r.Task.ID, "err", r.Err)
			}
		}
		if failed > 0 {
			return fmt.Errorf("ingest %s: %d/%d tasks failed", kind, failed, len(tasks))
		}
		return nil
	}
}
