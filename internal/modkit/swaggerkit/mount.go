// Package swaggerkit serves the API's OpenAPI document and the swagger UI over it
package swaggerkit

//go:generate swag init --dir ../../.. -g cmd/alertctl-api/main.go -o ../../services/api/docs --parseInternal

import (
	"net/http"

	phttp "alertctl/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	docsRoot = "/api/docs"
	docJSON  = docsRoot + "/doc.json"
)

// Mount serves the UI at /api/docs/ and the document at /api/docs/doc.json.
// Nothing is mounted when enabled is false
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get(docsRoot, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, docsRoot+"/", http.StatusPermanentRedirect)
	})
	r.Get(docJSON, serveDocJSON())
	r.Handle(docsRoot+"/*", httpSwagger.Handler(
		httpSwagger.InstanceName("api"),
		httpSwagger.URL(docJSON),
		httpSwagger.DocExpansion("none"),
	))
}
