package middleware

import (
	"net/http"

	"alertctl/internal/platform/logger"
	pnet "alertctl/internal/platform/net"
)

// AuthPort resolves the calling principal for a request
type AuthPort interface {
	// Parse returns the principal name and the session key it was resolved from.
	// An anonymous caller yields an empty session key
	Parse(r *http.Request) (principal string, sessionKey string, err error)
}

// Auth resolves the principal through the port and annotates the request context.
// A nil port passes through untouched
func Auth(p AuthPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			who, key, err := p.Parse(r)
			if err != nil {
				status, body := pnet.Error(err, pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			ctx := pnet.WithPrincipal(r.Context(), who, key)
			ctx = logger.WithRequest(ctx, pnet.RequestID(ctx), who)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
