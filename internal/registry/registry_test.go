package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeMeta(t *testing.T, path string, m metaSidecar) {
	t.Helper()
	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanThenListSeesRegisteredRecord(t *testing.T) {
	dir := t.TempDir()
	reg, err := Open(filepath.Join(dir, "registry.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reg.Close()

	metaPath := filepath.Join(dir, "chart1.meta.json")
	tilesPath := filepath.Join(dir, "chart1.mbtiles")
	writeMeta(t, metaPath, metaSidecar{Kind: "enc", Name: "Chart One", Bounds: [4]float64{-1, -1, 1, 1}, MinZoom: 0, MaxZoom: 10})
	if err := os.WriteFile(tilesPath, []byte("not a real mbtiles, just a presence marker"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := reg.Scan([]string{dir}, ScanOptions{}, nil); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	records, err := reg.List(KindENC, "", 1, 50)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].ID != "chart1" {
		t.Errorf("id = %q, want chart1", records[0].ID)
	}

	// Re-scan with no changes: the set should be identical.
	if err := reg.Scan([]string{dir}, ScanOptions{}, nil); err != nil {
		t.Fatalf("re-scan: %v", err)
	}
	records2, err := reg.List(KindENC, "", 1, 50)
	if err != nil {
		t.Fatalf("List after re-scan: %v", err)
	}
	if len(records2) != 1 || records2[0].ID != records[0].ID {
		t.Errorf("re-scan changed the set: %+v vs %+v", records, records2)
	}
}

func TestGetUnknownIDReturnsNotFound(t *testing.T) {
	reg, err := Open(filepath.Join(t.TempDir(), "registry.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reg.Close()

	if _, err := reg.Get("nope"); err == nil {
		t.Fatal("expected an error for an unknown id")
	}
}

func TestRecordValidInvariants(t *testing.T) {
	valid := Record{ID: "a", MinZoom: 0, MaxZoom: 5, BBox: [4]float64{-1, -1, 1, 1}}
	if !valid.Valid() {
		t.Error("expected valid record to pass Valid()")
	}
	invalid := Record{ID: "a", MinZoom: 5, MaxZoom: 0}
	if invalid.Valid() {
		t.Error("expected minzoom>maxzoom to fail Valid()")
	}
}
