package assets

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestDictServesETagAndCacheControl(t *testing.T) {
	s := NewServer(t.TempDir())
	req := httptest.NewRequest(http.MethodGet, "/tiles/cm93/dict.json", nil)
	rec := httptest.NewRecorder()

	s.Dict()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("expected an ETag header")
	}
	if rec.Header().Get("Cache-Control") != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
}

func TestStyleMissingIs404(t *testing.T) {
	s := NewServer(t.TempDir())
	req := httptest.NewRequest(http.MethodGet, "/style/s52.day.json", nil)
	rec := httptest.NewRecorder()

	s.Style("day")(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestStyleServesExistingFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "style"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "style", "s52.day.json"), []byte(`{"version":8}`), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewServer(dir)
	req := httptest.NewRequest(http.MethodGet, "/style/s52.day.json", nil)
	rec := httptest.NewRecorder()

	s.Style("day")(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != `{"version":8}` {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestClassCodeKnownAndUnknown(t *testing.T) {
	if code, ok := ClassCode("DEPARE"); !ok || code != 2 {
		t.Errorf("ClassCode(DEPARE) = (%d,%v), want (2,true)", code, ok)
	}
	if _, ok := ClassCode("NOPE"); ok {
		t.Error("expected unknown class to report ok=false")
	}
}
