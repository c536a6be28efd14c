//go:build swag

package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strings"

	docs "alertctl/internal/services/api/docs"
)

var docReader = func() string { return docs.SwaggerInfo.ReadDoc() }

// serveDocJSON serves the generated spec lifted to OAS 3.0.3 with the
// /api/v1 server and the Envelope error reply on every operation
func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		var spec map[string]any
		if err := json.Unmarshal([]byte(docReader()), &spec); err != nil {
			http.Error(w, "spec parse error", http.StatusInternalServerError)
			return
		}
		normalize(spec)

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}

func normalize(spec map[string]any) {
	delete(spec, "swagger")
	if v, _ := spec["openapi"].(string); v == "" || strings.HasPrefix(v, "3.1") {
		spec["openapi"] = "3.0.3"
	}
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": "/api/v1"}}
	}

	defs, _ := spec["definitions"].(map[string]any)
	if defs == nil {
		defs = map[string]any{}
		spec["definitions"] = defs
	}
	if _, ok := defs["Envelope"]; !ok {
		defs["Envelope"] = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status_code": map[string]any{"type": "integer"},
				"status":      map[string]any{"type": "string"},
				"code":        map[string]any{"type": "integer"},
				"message":     map[string]any{"type": "string"},
				"more-info":   map[string]any{"type": "string"},
				"request_id":  map[string]any{"type": "string"},
				"data":        map[string]any{},
			},
		}
	}

	ref := map[string]any{"$ref": "#/definitions/Envelope"}
	paths, _ := spec["paths"].(map[string]any)
	for _, p := range paths {
		ops, _ := p.(map[string]any)
		for _, op := range ops {
			o, _ := op.(map[string]any)
			if o == nil {
				continue
			}
			rs, _ := o["responses"].(map[string]any)
			if rs == nil {
				rs = map[string]any{}
				o["responses"] = rs
			}
			if _, ok := rs["default"]; !ok {
				rs["default"] = map[string]any{"description": "error", "schema": ref}
			}
		}
	}
}
