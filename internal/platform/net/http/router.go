package http

import "net/http"

// Handler is a plain handler func; httpkit turns typed handlers into these
type Handler = func(http.ResponseWriter, *http.Request)

// Router is what modules mount against. The API binary hands every module a
// sub router scoped to /api/v1/<prefix>, so modules never see chi directly
type Router interface {
	// Get serves reads such as /yaml/list and /meta/ready
	Get(path string, h Handler)
	// Post serves document submissions: create, create-or-update, create-alert and previews
	Post(path string, h Handler)
	// Put serves updates by id, activation toggles and notification triggers
	Put(path string, h Handler)

	// Handle mounts a whole http.Handler, e.g. /metrics or the swagger UI
	Handle(path string, h http.Handler)
	// Use adds middleware to every route registered on this router afterwards
	Use(mw ...func(http.Handler) http.Handler)
	// Group shares middleware without a path prefix
	Group(fn func(Router))
	// Route nests routes under pattern
	Route(pattern string, fn func(Router))

	// Mux is the underlying handler given to the server
	Mux() http.Handler
}
