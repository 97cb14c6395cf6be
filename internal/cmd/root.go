package cmd

import (
	"fmt"
	"os"
	"strings"

	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var logger *slog.Logger

var rootCmd = &cobra.Command{
	Use:   "chartsrv",
	Short: "A vector and raster tile server for S-57/ENC and CM93 electronic charts",
	Long: `chartsrv serves MVT and raster tiles from ingested S-57/ENC and CM93
electronic navigational charts, applying an S-52 portrayal subset
(safety contours, depth bands, hazard icons) at render time, and
exposes the ingest/registry/style machinery needed to operate it.`,
}

func Execute() {
	if logger == nil {
		initLogging() // fallback in case cobra init didn't fire
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.PersistentFlags().String("addr", "", "Listen address (host:port), serve only")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory holding ingested datasets and sidecars")
	rootCmd.PersistentFlags().String("registry-path", "", "Path to the chart registry sqlite database")
	rootCmd.PersistentFlags().String("redis-url", "", "Optional Tier-2 Redis cache URL")
	rootCmd.PersistentFlags().Int("cache-ttl-secs", 0, "Tier-2 cache entry TTL in seconds")
	rootCmd.PersistentFlags().Int("lru-capacity", 0, "Tier-1 in-memory LRU capacity per tile variant")
	rootCmd.PersistentFlags().Bool("allow-admin-api", false, "Enable the /admin/import/* ingest-trigger routes")
	rootCmd.PersistentFlags().Bool("allow-webp", false, "Allow webp as a GeoTIFF tile format")
	rootCmd.PersistentFlags().String("style-dir", "./assets/style", "Directory containing style.json, sprites, and glyphs")
	rootCmd.PersistentFlags().String("enc-converter", "", "External ENC-to-GeoJSON converter binary")
	rootCmd.PersistentFlags().String("tile-pyramid", "", "External tile-pyramid builder binary")
	rootCmd.PersistentFlags().String("cm93-decoder", "", "External CM93-to-ENC decoder binary")
	rootCmd.PersistentFlags().String("geotiff-to-cog", "", "External GeoTIFF-to-COG translator binary")

	for _, key := range []string{
		"verbose", "log-level", "addr", "data-dir", "registry-path", "redis-url",
		"cache-ttl-secs", "lru-capacity", "allow-admin-api", "allow-webp", "style-dir",
		"enc-converter", "tile-pyramid", "cm93-decoder", "geotiff-to-cog",
	} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %q: %v", key, err))
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("CHARTSRV")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func initLogging() {
	levelStr := strings.ToLower(viper.GetString("log-level"))
	level := slog.LevelInfo
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error", "err":
		level = slog.LevelError
	default:
		fmt.Fprintf(os.Stderr, "Unknown log level %q, defaulting to info\n", levelStr)
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}
