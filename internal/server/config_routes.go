package server

import "net/http"

// handleConfigContours serves GET /config/contours: the live default
// ContourConfig currently applied to tile rendering.
func (s *Server) handleConfigContours(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]float64{
		"safety":       s.Contour.Safety,
		"shallow":      s.Contour.Shallow,
		"deep":         s.Contour.Deep,
		"hazardBuffer": s.Contour.HazardBuffer,
	})
}

// handleConfigDatasource serves GET /config/datasource: which data
// directory ingest/scan is operating against.
func (s *Server) handleConfigDatasource(w http.ResponseWriter, r *http.Request) {
	dataDir := ""
	if s.Ingest != nil {
		dataDir = s.Ingest.DataDir
	}
	writeJSON(w, map[string]interface{}{
		"dataDir":    dataDir,
		"allowAdmin": s.AllowAdmin,
		"allowWebP":  s.AllowWebP,
	})
}
