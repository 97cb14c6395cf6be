// Package warm pre-renders a bounding box across a zoom range into the
// response cache, so a first real request never pays a cold-render
// cost after a deploy or a fresh ingest.
package warm

import (
	"context"
	"fmt"

	"github.com/chartsrv/chartsrv/internal/cache"
	"github.com/chartsrv/chartsrv/internal/renderer"
	"github.com/chartsrv/chartsrv/internal/s52"
	"github.com/chartsrv/chartsrv/internal/tile"
	"github.com/chartsrv/chartsrv/internal/worker"
)

// Target names the dataset, format, and tile range a Run call should warm.
type Target struct {
	DatasetID string
	Format    string
	BBox      [4]float64 // minLon, minLat, maxLon, maxLat
	ZoomMin   int
	ZoomMax   int
	Contour   s52.ContourConfig
}

type generator struct {
	renderer *renderer.Renderer
	cache    *cache.Cache
	target   Target
}

func (g *generator) Generate(ctx context.Context, task worker.Task) (string, error) {
	c, err := tile.ParseCoords(task.ID)
	if err != nil {
		return "", err
	}

	res, err := g.renderer.Render(ctx, renderer.Request{
		DatasetID: g.target.DatasetID,
		Z:         int(c.Z), X: int(c.X), Y: int(c.Y),
		Format:  g.target.Format,
		Contour: g.target.Contour,
	})
	if err != nil {
		return "", fmt.Errorf("warm %s: %w", c, err)
	}

	key := cache.Key{
		Format: g.target.Format, DatasetID: g.target.DatasetID,
		Z: int(c.Z), X: int(c.X), Y: int(c.Y),
		Safety: g.target.Contour.Safety, Shallow: g.target.Contour.Shallow, Deep: g.target.Contour.Deep,
	}
	g.cache.Put(ctx, key, cache.NewEntry(res.Bytes, res.MediaType))

	return c.Path(g.target.Format), nil
}

// Run renders and caches every tile in target.BBox across
// [target.ZoomMin, target.ZoomMax], fanning the work out across workers
// goroutines. A failure rendering one tile does not stop the others;
// check each Result.Err.
func Run(ctx context.Context, rend *renderer.Renderer, c *cache.Cache, target Target, workers int, onProgress worker.ProgressFunc) []worker.Result {
	coordsList := tile.TilesInBBox(target.BBox, target.ZoomMin, target.ZoomMax)
	tasks := make([]worker.Task, len(coordsList))
	for i, coords := range coordsList {
		tasks[i] = worker.Task{ID: coords.String()}
	}

	pool := worker.New(worker.Config{
		Workers:    workers,
		Generator:  &generator{renderer: rend, cache: c, target: target},
		OnProgress: onProgress,
	})
	return pool.Run(ctx, tasks)
}
