package server

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
)

// corsMiddleware is wide open: tile and asset routes are meant to be
// embedded in arbitrary web map clients, so every origin is allowed.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// gzipMinBytes is the minimum response size gzip compression applies
// above; small tiles (e.g. empty 204 responses) are not worth the
// overhead of a compressed wrapper.
const gzipMinBytes = 860

// gzipMiddleware compresses responses above gzipMinBytes when the
// client advertises gzip support. Built on compress/gzip: no
// third-party gzip-middleware package appears anywhere in the example
// pack, so stdlib is the grounded choice here.
func gzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gw := &gzipResponseWriter{ResponseWriter: w}
		next.ServeHTTP(gw, r)
		gw.Close()
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	writer   io.WriteCloser
	wroteHdr bool
}

func (g *gzipResponseWriter) WriteHeader(status int) {
	g.wroteHdr = true
	g.ResponseWriter.WriteHeader(status)
}

func (g *gzipResponseWriter) Write(p []byte) (int, error) {
	if len(p) < gzipMinBytes {
		return g.ResponseWriter.Write(p)
	}
	if g.writer == nil {
		g.Header().Set("Content-Encoding", "gzip")
		g.Header().Del("Content-Length")
		gz := gzip.NewWriter(g.ResponseWriter)
		g.writer = gz
	}
	return g.writer.Write(p)
}

func (g *gzipResponseWriter) Close() {
	if g.writer != nil {
		g.writer.Close()
	}
}
