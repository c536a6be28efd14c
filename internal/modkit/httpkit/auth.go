package httpkit

import (
	"context"
	"net/http"
	"strings"

	perrs "alertctl/internal/platform/errors"
	pnet "alertctl/internal/platform/net"
)

// SessionFunc resolves a bearer session key to a principal name
type SessionFunc func(ctx context.Context, sessionKey string) (principal string, err error)

// Port implements middleware.AuthPort over an Authorization: Bearer header
type Port struct {
	resolve   SessionFunc
	anonymous string
}

// NewPortFunc builds a Port from a session resolver
func NewPortFunc(fn SessionFunc) *Port { return &Port{resolve: fn} }

// WithAnonymous lets requests without an Authorization header through as name
func (p *Port) WithAnonymous(name string) *Port {
	p.anonymous = name
	return p
}

// Parse returns the principal and session key. A missing header is anonymous when
// configured. A malformed header or a key the resolver rejects is always unauthorized
func (p *Port) Parse(r *http.Request) (string, string, error) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" && p.anonymous != "" {
		return p.anonymous, "", nil
	}
	key, err := bearer(h)
	if err != nil {
		return "", "", err
	}
	if p.resolve == nil {
		return "", "", perrs.Unauthorizedf("invalid session")
	}
	who, err := p.resolve(r.Context(), key)
	if err != nil || who == "" {
		return "", "", perrs.Unauthorizedf("invalid session")
	}
	return who, key, nil
}

func bearer(h string) (string, error) {
	scheme, key, _ := strings.Cut(strings.TrimSpace(h), " ")
	key = strings.TrimSpace(key)
	if !strings.EqualFold(scheme, "bearer") || key == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	return key, nil
}

// User returns the principal Auth resolved for r
func User(r *http.Request) (string, error) {
	if who := pnet.UserID(r.Context()); who != "" {
		return who, nil
	}
	return "", perrs.Unauthorizedf("missing principal")
}

// Session returns the bearer session key, empty for anonymous callers
func Session(r *http.Request) string { return pnet.SessionKey(r.Context()) }
