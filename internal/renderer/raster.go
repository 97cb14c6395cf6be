package renderer

import (
	"context"
	"errors"

	"github.com/chartsrv/chartsrv/internal/chartserr"
	"github.com/chartsrv/chartsrv/internal/registry"
)

var errRasterUnavailable = errors.New("raster rendering is not available in this build")

// RasterRenderer is the collaborator boundary for PNG/GeoTIFF tile
// rendering. No implementation ships in this module; a real rasteriser
// (GDAL-backed, or otherwise) is injected by a deployment that has one.
type RasterRenderer interface {
	RenderRaster(ctx context.Context, rec registry.Record, z, x, y int, format string) ([]byte, string, error)
}

// NoopRasterRenderer always reports the raster path as unavailable.
// It backs deployments that serve vector tiles only, without wiring a
// real rasteriser.
type NoopRasterRenderer struct{}

func (NoopRasterRenderer) RenderRaster(ctx context.Context, rec registry.Record, z, x, y int, format string) ([]byte, string, error) {
	return nil, "", chartserr.New(chartserr.Unavailable, "renderer.RenderRaster", errRasterUnavailable)
}
