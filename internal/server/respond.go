package server

import (
	"encoding/json"
	"net/http"

	"github.com/chartsrv/chartsrv/internal/chartserr"
)

// writeJSON marshals v and writes it with a 200 status and JSON content type.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	raw, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Write(raw)
}

// writeError converts any error into the `{"error": "..."}` JSON body
// at the status chartserr.Kind maps to. Unrecognised errors surface as
// 500.
func writeError(w http.ResponseWriter, err error) {
	kind := chartserr.KindOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(kind.Status())
	raw, _ := json.Marshal(map[string]string{"error": err.Error()})
	w.Write(raw)
}
