package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chartsrv/chartsrv/internal/registry"
	"github.com/chartsrv/chartsrv/internal/worker"
)

// Tools names the external converter binaries each flow shells out to.
// A zero value (empty string) for any of these means that tool is not
// configured; the flow logs SKIP and returns without registering,
// rather than failing the whole ingest run.
type Tools struct {
	ENCConverter string // emits line-delimited GeoJSON, then a tile-pyramid builder
	TilePyramid  string // e.g. tippecanoe-equivalent
	CM93Decoder  string // OPENCN_CM93_CLI: CM93 -> intermediate ENC
	GeoTIFFToCOG string // e.g. gdal_translate -of COG
}

// Pipeline runs the three ingest flows against a registry and data
// directory, using the configured Tools.
type Pipeline struct {
	Tools    Tools
	DataDir  string
	Registry *registry.Registry
	Log      *slog.Logger
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}

// lookPath resolves a configured tool name to an absolute path,
// reporting ok=false when it is unset or not found on PATH.
func lookPath(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	full, err := exec.LookPath(name)
	if err != nil {
		return "", false
	}
	return full, true
}

// IngestENC converts an ENC cell directory into an MBTiles dataset,
// writing a *.meta.json sidecar and registering it. Idempotent: if the
// source fingerprint matches the prior sidecar's sha256, it SKIPs.
func (p *Pipeline) IngestENC(ctx context.Context, sourceDir, datasetID string) error {
	log := p.logger().With("flow", "enc", "dataset", datasetID)

	sha, err := FingerprintDir(sourceDir)
	if err != nil {
		return err
	}

	metaPath := filepath.Join(p.DataDir, datasetID+".meta.json")
	if prior, err := readExistingMeta(metaPath); err == nil && prior.SHA256 == sha {
		log.Info("SKIP: fingerprint unchanged", "sha256", sha)
		return nil
	}

	converter, ok := lookPath(p.Tools.ENCConverter)
	if !ok {
		log.Warn("SKIP: ENC converter not configured or not found on PATH")
		return nil
	}
	pyramid, ok := lookPath(p.Tools.TilePyramid)
	if !ok {
		log.Warn("SKIP: tile pyramid builder not configured or not found on PATH")
		return nil
	}

	geojsonPath := filepath.Join(p.DataDir, datasetID+".ldgeojson")
	if err := runTool(ctx, converter, sourceDir, geojsonPath); err != nil {
		return err
	}

	tilesPath := filepath.Join(p.DataDir, datasetID+".mbtiles")
	if err := runTool(ctx, pyramid, geojsonPath, tilesPath); err != nil {
		return err
	}

	meta := MetaSidecar{
		Kind:      "enc",
		Name:      datasetID,
		UpdatedAt: time.Now().Format(time.RFC3339),
		SCAMIN:    true,
		SHA256:    sha,
	}
	if err := WriteSidecarJSON(metaPath, meta); err != nil {
		return err
	}

	return p.Registry.RegisterMBTiles(metaPath, tilesPath)
}

// IngestCM93 decodes a CM93 cell set to an intermediate ENC
// representation, then runs the same downstream path as IngestENC.
func (p *Pipeline) IngestCM93(ctx context.Context, cm93Path, datasetID string) error {
	log := p.logger().With("flow", "cm93", "dataset", datasetID)

	sha, err := Fingerprint([]string{cm93Path})
	if err != nil {
		return err
	}

	metaPath := filepath.Join(p.DataDir, datasetID+".meta.json")
	if prior, err := readExistingMeta(metaPath); err == nil && prior.SHA256 == sha {
		log.Info("SKIP: fingerprint unchanged", "sha256", sha)
		return nil
	}

	decoder, ok := lookPath(p.Tools.CM93Decoder)
	if !ok {
		log.Warn("SKIP: CM93 decoder (OPENCN_CM93_CLI) not configured or not found on PATH")
		return nil
	}

	encDir := filepath.Join(p.DataDir, datasetID+".enc")
	if err := os.MkdirAll(encDir, 0o755); err != nil {
		return err
	}
	if err := runTool(ctx, decoder, cm93Path, encDir); err != nil {
		return err
	}

	if err := p.IngestENC(ctx, encDir, datasetID); err != nil {
		return err
	}

	metaPath2 := filepath.Join(p.DataDir, datasetID+".meta.json")
	meta, err := readExistingMeta(metaPath2)
	if err != nil {
		return err
	}
	meta.Kind = "cm93"
	meta.SHA256 = sha
	if err := WriteSidecarJSON(metaPath2, meta); err != nil {
		return err
	}
	return p.Registry.RegisterCM93(metaPath2, filepath.Join(p.DataDir, datasetID+".mbtiles"))
}

// IngestGeoTIFF translates a GeoTIFF into a Cloud Optimized GeoTIFF,
// writing a *.cog.json sidecar and registering it. Skips reconversion
// when the checksum matches.
func (p *Pipeline) IngestGeoTIFF(ctx context.Context, tifPath, datasetID string) error {
	log := p.logger().With("flow", "geotiff", "dataset", datasetID)

	sha, err := Fingerprint([]string{tifPath})
	if err != nil {
		return err
	}

	metaPath := filepath.Join(p.DataDir, datasetID+".cog.json")
	if prior, err := readExistingCogMeta(metaPath); err == nil && prior.SHA256 == sha {
		log.Info("SKIP: checksum unchanged", "sha256", sha)
		return nil
	}

	translator, ok := lookPath(p.Tools.GeoTIFFToCOG)
	if !ok {
		log.Warn("SKIP: GeoTIFF->COG translator not configured or not found on PATH")
		return nil
	}

	cogPath := filepath.Join(p.DataDir, datasetID+".cog.tif")
	if err := runTool(ctx, translator, "-of", "COG", tifPath, cogPath); err != nil {
		return err
	}

	meta := CogSidecar{Name: datasetID, SHA256: sha}
	if err := WriteSidecarJSON(metaPath, meta); err != nil {
		return err
	}

	return p.Registry.RegisterCOG(metaPath, cogPath)
}

func runTool(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func readExistingMeta(path string) (MetaSidecar, error) {
	var m MetaSidecar
	raw, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(raw, &m)
	return m, err
}

func readExistingCogMeta(path string) (CogSidecar, error) {
	var m CogSidecar
	raw, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(raw, &m)
	return m, err
}

// BatchKind selects which single-dataset ingest flow Batch runs per task.
type BatchKind string

const (
	BatchENC     BatchKind = "enc"
	BatchCM93    BatchKind = "cm93"
	BatchGeoTIFF BatchKind = "geotiff"
)

// batchGenerator adapts Pipeline's single-dataset ingest flows to
// worker.Generator so Batch can fan a list of (source, id) pairs out
// across a worker pool.
type batchGenerator struct {
	pipeline *Pipeline
	kind     BatchKind
}

func (g *batchGenerator) Generate(ctx context.Context, task worker.Task) (string, error) {
	switch g.kind {
	case BatchENC:
		return task.ID, g.pipeline.IngestENC(ctx, task.Source, task.ID)
	case BatchCM93:
		return task.ID, g.pipeline.IngestCM93(ctx, task.Source, task.ID)
	case BatchGeoTIFF:
		return task.ID, g.pipeline.IngestGeoTIFF(ctx, task.Source, task.ID)
	default:
		return "", fmt.Errorf("ingest: unknown batch kind %q", g.kind)
	}
}

// Batch runs the ingest flow named by kind across many (source, id)
// pairs concurrently, fanning out across up to workers goroutines. A
// failure in one task does not stop the others; check each Result.Err.
func (p *Pipeline) Batch(ctx context.Context, kind BatchKind, tasks []worker.Task, workers int, onProgress worker.ProgressFunc) []worker.Result {
	pool := worker.New(worker.Config{
		Workers:    workers,
		Generator:  &batchGenerator{pipeline: p, kind: kind},
		OnProgress: onProgress,
	})
	return pool.Run(ctx, tasks)
}
