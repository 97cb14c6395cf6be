package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chartsrv/chartsrv/internal/registry"
	"github.com/chartsrv/chartsrv/internal/worker"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Open(filepath.Join(t.TempDir(), "registry.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestIngestENCSkipsWhenConverterMissing(t *testing.T) {
	dataDir := t.TempDir()
	sourceDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(sourceDir, "cell.000"), []byte("cell data"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &Pipeline{
		Tools:    Tools{}, // no converters configured
		DataDir:  dataDir,
		Registry: newTestRegistry(t),
	}

	if err := p.IngestENC(context.Background(), sourceDir, "chart1"); err != nil {
		t.Fatalf("expected SKIP, not an error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dataDir, "chart1.meta.json")); err == nil {
		t.Error("expected no meta sidecar to be written when the converter is missing")
	}
}

func TestIngestGeoTIFFSkipsWhenTranslatorMissing(t *testing.T) {
	dataDir := t.TempDir()
	tif := filepath.Join(t.TempDir(), "scan.tif")
	if err := os.WriteFile(tif, []byte("fake tiff bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &Pipeline{
		Tools:    Tools{},
		DataDir:  dataDir,
		Registry: newTestRegistry(t),
	}

	if err := p.IngestGeoTIFF(context.Background(), tif, "raster1"); err != nil {
		t.Fatalf("expected SKIP, not an error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "raster1.cog.json")); err == nil {
		t.Error("expected no cog sidecar to be written when the translator is missing")
	}
}

func TestIngestENCIdempotentOnMatchingFingerprint(t *testing.T) {
	dataDir := t.TempDir()
	sourceDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(sourceDir, "cell.000"), []byte("cell data"), 0o644); err != nil {
		t.Fatal(err)
	}

	sha, err := FingerprintDir(sourceDir)
	if err != nil {
		t.Fatal(err)
	}
	meta := MetaSidecar{Kind: "enc", Name: "chart1", SHA256: sha}
	if err := WriteSidecarJSON(filepath.Join(dataDir, "chart1.meta.json"), meta); err != nil {
		t.Fatal(err)
	}

	p := &Pipeline{
		Tools:    Tools{}, // converters unreachable; if this runs the test fails differently
		DataDir:  dataDir,
		Registry: newTestRegistry(t),
	}

	if err := p.IngestENC(context.Background(), sourceDir, "chart1"); err != nil {
		t.Fatalf("expected idempotent no-op, got error: %v", err)
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(a, []byte("alpha"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("beta"), 0o644); err != nil {
		t.Fatal(err)
	}

	f1, err := Fingerprint([]string{b, a})
	if err != nil {
		t.Fatal(err)
	}
	f2, err := Fingerprint([]string{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if f1 != f2 {
		t.Errorf("fingerprint should be order-independent: %q vs %q", f1, f2)
	}
}

func TestBatchRunsAllTasksAndSkipsWithoutTools(t *testing.T) {
	dataDir := t.TempDir()

	sourceA := t.TempDir()
	sourceB := t.TempDir()
	if err := os.WriteFile(filepath.Join(sourceA, "cell.000"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sourceB, "cell.000"), []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &Pipeline{
		Tools:    Tools{}, // no converters configured; every task SKIPs cleanly
		DataDir:  dataDir,
		Registry: newTestRegistry(t),
	}

	tasks := []worker.Task{
		{ID: "chartA", Source: sourceA},
		{ID: "chartB", Source: sourceB},
	}

	var lastCompleted int
	results := p.Batch(context.Background(), BatchENC, tasks, 2, func(completed, total, failed int) {
		lastCompleted = completed
	})

	if len(results) != len(tasks) {
		t.Fatalf("expected %d results, got %d", len(tasks), len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("unexpected error for %s: %v", r.Task.ID, r.Err)
		}
	}
	if lastCompleted != len(tasks) {
		t.Errorf("expected progress to reach %d, got %d", len(tasks), lastCompleted)
	}
}

func TestWriteSidecarJSONAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.meta.json")
	if err := WriteSidecarJSON(path, MetaSidecar{Name: "x"}); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "x.meta.json" {
			t.Errorf("leftover temp file not cleaned up: %s", e.Name())
		}
	}
}
