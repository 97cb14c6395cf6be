package assets

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
)

// Server serves the built MapLibre style JSON, sprite sheet, glyph
// PBFs, and the object-class dictionary, all with a strong ETag and
// long-lived Cache-Control.
type Server struct {
	// StyleDir holds style/*.json, sprites/*.{json,png}, glyphs/*/*.pbf
	// files laid out exactly as the routes below expect.
	StyleDir string
}

// NewServer builds an assets Server rooted at dir.
func NewServer(dir string) *Server {
	return &Server{StyleDir: dir}
}

// Style serves /style/s52.{day|dusk|night}.json.
func (s *Server) Style(palette string) http.HandlerFunc {
	return s.serveFile(filepath.Join(s.StyleDir, "style", "s52."+palette+".json"), "application/json")
}

// Sprite serves /sprites/s52-day.{json|png}.
func (s *Server) Sprite(name string) http.HandlerFunc {
	mediaType := "application/json"
	if filepath.Ext(name) == ".png" {
		mediaType = "image/png"
	}
	return s.serveFile(filepath.Join(s.StyleDir, "sprites", name), mediaType)
}

// Glyph serves /glyphs/{fontstack}/{range}.pbf.
func (s *Server) Glyph(fontstack, rng string) http.HandlerFunc {
	return s.serveFile(filepath.Join(s.StyleDir, "glyphs", fontstack, rng+".pbf"), "application/x-protobuf")
}

// Dict serves /tiles/cm93/dict.json, the static OBJL->int mapping.
func (s *Server) Dict() http.HandlerFunc {
	raw, _ := json.Marshal(ClassDict())
	etag := etagFor(raw)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("ETag", etag)
		w.Write(raw)
	}
}

func (s *Server) serveFile(path, mediaType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := os.ReadFile(path)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", mediaType)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("ETag", etagFor(raw))
		w.Write(raw)
	}
}

func etagFor(data []byte) string {
	sum := sha1.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}
