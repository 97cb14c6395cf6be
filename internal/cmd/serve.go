package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chartsrv/chartsrv/internal/assets"
	"github.com/chartsrv/chartsrv/internal/cache"
	chartconfig "github.com/chartsrv/chartsrv/internal/config"
	"github.com/chartsrv/chartsrv/internal/feature"
	"github.com/chartsrv/chartsrv/internal/ingest"
	"github.com/chartsrv/chartsrv/internal/metrics"
	"github.com/chartsrv/chartsrv/internal/registry"
	"github.com/chartsrv/chartsrv/internal/renderer"
	"github.com/chartsrv/chartsrv/internal/s52"
	"github.com/chartsrv/chartsrv/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve ENC/CM93/GeoTIFF tiles over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	chartconfig.SetDefaults(viper.GetViper())
	cfg := chartconfig.FromViper(viper.GetViper())

	reg, err := registry.Open(cfg.RegistryPath)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}

	if err := reg.Scan([]string{cfg.DataDir}, registry.ScanOptions{}, nil); err != nil {
		logger.Warn("initial registry scan failed", "err", err)
	}

	sources := map[registry.Kind]feature.Source{
		registry.KindENC:  feature.NewSQLSource(),
		registry.KindCM93: feature.NewSQLSource(),
	}

	classifier := s52.New(nil, nil)

	rend := renderer.New(reg, sources, classifier, s52.DeeperFirst, nil)

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

	met := metrics.New()
	assetServer := assets.NewServer(viper.GetString("style-dir"))

	ing := &ingest.Pipeline{
		Tools: ingest.Tools{
			ENCConverter: viper.GetString("enc-converter"),
			TilePyramid:  viper.GetString("tile-pyramid"),
			CM93Decoder:  viper.GetString("cm93-decoder"),
			GeoTIFFToCOG: viper.GetString("geotiff-to-cog"),
		},
		DataDir:  cfg.DataDir,
		Registry: reg,
		Log:      logger,
	}

	srv := server.New(server.Config{
		Renderer:   rend,
		Registry:   reg,
		Cache:      tileCache,
		Metrics:    met,
		Assets:     assetServer,
		Ingest:     ing,
		Log:        logger,
		Contour:    cfg.Contour,
		AllowAdmin: cfg.AllowAdminAPI,
		AllowWebP:  cfg.AllowWebP,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("chartsrv listening",
		"addr", cfg.Addr,
		"data_dir", cfg.DataDir,
		"registry_path", cfg.RegistryPath,
		"allow_admin_api", cfg.AllowAdminAPI,
	)

	return httpServer.ListenAndServe()
}
