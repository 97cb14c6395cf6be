package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chartsrv/chartsrv/internal/chartserr"
)

// handleAdminImport serves POST /admin/import/{kind}, flag-gated by
// AllowAdmin. Ingest never runs inside the request goroutine: it is
// dispatched and the handler returns 202 immediately, matching the
// concurrency model's "ingest does not block the server" contract.
func (s *Server) handleAdminImport(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	source := r.URL.Query().Get("source")
	datasetID := r.URL.Query().Get("id")
	if source == "" || datasetID == "" {
		writeError(w, chartserr.New(chartserr.InvalidTile, "server.handleAdminImport", errMissingImportParams))
		return
	}

	go s.runImport(kind, source, datasetID)

	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"status": "accepted", "kind": kind, "id": datasetID})
}

func (s *Server) runImport(kind, source, datasetID string) {
	ctx := context.Background()
	var err error
	switch kind {
	case "enc":
		err = s.Ingest.IngestENC(ctx, source, datasetID)
	case "cm93":
		err = s.Ingest.IngestCM93(ctx, source, datasetID)
	case "geotiff":
		err = s.Ingest.IngestGeoTIFF(ctx, source, datasetID)
	default:
		s.log().Warn("admin import: unknown kind", "kind", kind)
		return
	}
	if err != nil {
		s.log().Error("admin import failed", "kind", kind, "dataset", datasetID, "err", err)
	}
}

var errMissingImportParams = simpleErr("source and id query parameters are required")
