//go:build !swag

package swaggerkit

import (
	"encoding/json"
	"net/http"

	"alertctl/internal/core/version"
)

// serveDocJSON answers an empty OAS document named after this build when the
// generated docs were not compiled in
func serveDocJSON() http.HandlerFunc {
	info := version.Info()
	doc, _ := json.Marshal(map[string]any{
		"openapi": "3.0.3",
		"info":    map[string]any{"title": info.Service + " API", "version": info.Version},
		"servers": []any{map[string]any{"url": "/api/v1"}},
		"paths":   map[string]any{},
	})
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(doc)
	}
}
