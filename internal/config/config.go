// Package config centralises the viper-backed settings chartsrv reads
// from flags, CHARTSRV_* environment variables, and config.yaml, the
// same layering internal/cmd/root.go establishes for cobra.
package config

import (
	"github.com/spf13/viper"

	"github.com/chartsrv/chartsrv/internal/s52"
)

// Server holds the settings that drive chartsrv serve.
type Server struct {
	Addr          string
	DataDir       string
	RegistryPath  string
	RedisURL      string
	CacheTTLSecs  int
	LRUCapacity   int
	AllowAdminAPI bool
	AllowWebP     bool
	Contour       s52.ContourConfig
	OSMEnabled    bool
}

// FromViper reads a Server config from the process's bound viper
// instance, applying the defaults SetDefaults establishes.
func FromViper(v *viper.Viper) Server {
	return Server{
		Addr:          v.GetString("addr"),
		DataDir:       v.GetString("data-dir"),
		RegistryPath:  v.GetString("registry-path"),
		RedisURL:      v.GetString("redis-url"),
		CacheTTLSecs:  v.GetInt("cache-ttl-secs"),
		LRUCapacity:   v.GetInt("lru-capacity"),
		AllowAdminAPI: v.GetBool("allow-admin-api"),
		AllowWebP:     v.GetBool("allow-webp"),
		OSMEnabled:    v.GetBool("osm-enabled"),
		Contour: s52.ContourConfig{
			Safety:       v.GetFloat64("contour-safety"),
			Shallow:      v.GetFloat64("contour-shallow"),
			Deep:         v.GetFloat64("contour-deep"),
			HazardBuffer: v.GetFloat64("hazard-buffer"),
		},
	}
}

// SetDefaults installs the process defaults onto v, mirroring
// s52.DefaultContourConfig.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("data-dir", "./data")
	v.SetDefault("registry-path", "./data/registry.sqlite")
	v.SetDefault("redis-url", "")
	v.SetDefault("cache-ttl-secs", 60)
	v.SetDefault("lru-capacity", 256)
	v.SetDefault("allow-admin-api", false)
	v.SetDefault("allow-webp", false)
	v.SetDefault("osm-enabled", false)
	v.SetDefault("contour-safety", s52.DefaultContourConfig.Safety)
	v.SetDefault("contour-shallow", s52.DefaultContourConfig.Shallow)
	v.SetDefault("contour-deep", s52.DefaultContourConfig.Deep)
	v.SetDefault("hazard-buffer", s52.DefaultContourConfig.HazardBuffer)
}
