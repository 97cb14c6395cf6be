package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chartsrv/chartsrv/internal/cache"
	chartconfig "github.com/chartsrv/chartsrv/internal/config"
	"github.com/chartsrv/chartsrv/internal/feature"
	"github.com/chartsrv/chartsrv/internal/registry"
	"github.com/chartsrv/chartsrv/internal/renderer"
	"github.com/chartsrv/chartsrv/internal/s52"
	"github.com/chartsrv/chartsrv/internal/warm"
	"github.com/chartsrv/chartsrv/internal/worker"
)

var warmCmd = &cobra.Command{
	Use:   "warm <dataset-id>",
	Short: "Pre-render a bounding box across a zoom range into the response cache",
	Args:  cobra.ExactArgs(1),
	RunE:  runWarm,
}

func init() {
	rootCmd.AddCommand(warmCmd)
	warmCmd.Flags().String("bbox", "", "minLon,minLat,maxLon,maxLat (required)")
	warmCmd.Flags().Int("zoom-min", 0, "lowest zoom level to render")
	warmCmd.Flags().Int("zoom-max", 14, "highest zoom level to render")
	warmCmd.Flags().String("format", "mvt", "tile format to render (mvt, png, png-mvp, webp)")
	warmCmd.Flags().Int("workers", 4, "concurrent render workers")
	warmCmd.MarkFlagRequired("bbox")
}

func parseBBoxFlag(s string) ([4]float64, error) {
	var bbox [4]float64
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return bbox, fmt.Errorf("bbox must be minLon,minLat,maxLon,maxLat, got %q", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return bbox, fmt.Errorf("bbox component %q: %w", p, err)
		}
		bbox[i] = v
	}
	return bbox, nil
}

func runWarm(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	bboxStr, err := cmd.Flags().GetString("bbox")
	if err != nil {
		return err
	}
	bbox, err := parseBBoxFlag(bboxStr)
	if err != nil {
		return err
	}
	zoomMin, _ := cmd.Flags().GetInt("zoom-min")
	zoomMax, _ := cmd.Flags().GetInt("zoom-max")
	format, _ := cmd.Flags().GetString("format")
	workers, _ := cmd.Flags().GetInt("workers")

	chartconfig.SetDefaults(viper.GetViper())
	cfg := chartconfig.FromViper(viper.GetViper())

	reg, err := registry.Open(cfg.RegistryPath)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	defer reg.Close()

	sources := map[registry.Kind]feature.Source{
		registry.KindENC:  feature.NewSQLSource(),
		registry.KindCM93: feature.NewSQLSource(),
	}
	rend := renderer.New(reg, sources, s52.New(nil, nil), s52.DeeperFirst, nil)

	tier1 := cache.NewTier1(viper.GetInt("lru-capacity"))
	var tier2 cache.KV = cache.NoopKV{}
	if cfg.RedisURL != "" {
		redisKV, err := cache.NewRedisKV(cfg.RedisURL)
		if err != nil {
			logger.Warn("redis cache unavailable, falling back to Tier-1 only", "err", err)
		} else {
			tier2 = redisKV
		}
	}
	tileCache := cache.New(tier1, tier2, time.Duration(cfg.CacheTTLSecs)*time.Second, logger)

	target := warm.Target{
		DatasetID: args[0],
		Format:    format,
		BBox:      bbox,
		ZoomMin:   zoomMin,
		ZoomMax:   zoomMax,
		Contour:   cfg.Contour,
	}

	progress := worker.NewProgress(0, true)
	results := warm.Run(cmd.Context(), rend, tileCache, target, workers, progress.Callback())
	progress.Done()

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Error("warm render failed", "tile", r.Task.ID, "err", r.Err)
		}
	}
	logger.Info("warm complete", "dataset", args[0], "tiles", len(results), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("warm: %d/%d tiles failed", failed, len(results))
	}
	return nil
}
