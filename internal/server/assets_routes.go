package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chartsrv/chartsrv/internal/tile"
)

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	palette := chi.URLParam(r, "palette")
	// Route pattern carries the full "s52.day.json" segment; strip the
	// "s52." prefix and ".json" suffix chi's param capture leaves intact.
	palette = trimStyleSuffix(palette)
	s.Assets.Style(palette)(w, r)
}

func trimStyleSuffix(s string) string {
	const prefix = "s52."
	const suffix = ".json"
	if len(s) > len(prefix)+len(suffix) && s[:len(prefix)] == prefix {
		s = s[len(prefix):]
	}
	if len(s) > len(suffix) && s[len(s)-len(suffix):] == suffix {
		s = s[:len(s)-len(suffix)]
	}
	return s
}

func (s *Server) handleSprite(w http.ResponseWriter, r *http.Request) {
	s.Assets.Sprite(chi.URLParam(r, "name"))(w, r)
}

func (s *Server) handleGlyph(w http.ResponseWriter, r *http.Request) {
	s.Assets.Glyph(chi.URLParam(r, "fontstack"), chi.URLParam(r, "rng"))(w, r)
}

// bboxCenterTile returns the tile (x,y) at zoom z containing the point
// (lon,lat), via a degenerate point bbox through the shared tile-math
// inverse.
func bboxCenterTile(z int, lon, lat float64) (x, y int) {
	return tile.BBoxToXYZ(z, lon, lat, lon, lat)
}
