package httpkit

import (
	"net/http"
	"strconv"
	"strings"

	perrs "alertctl/internal/platform/errors"
	"alertctl/internal/platform/net/http/bind"

	"github.com/go-chi/chi/v5"
)

// Param returns the named path parameter
func Param(r *http.Request, name string) string { return chi.URLParam(r, name) }

// PathInt64 parses the named path parameter as a base 10 int64
func PathInt64(r *http.Request, name string) (int64, error) {
	raw := Param(r, name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, perrs.InvalidArgf("path parameter %s must be an integer, got %q", name, raw)
	}
	return v, nil
}

// QueryInt64 parses an optional query parameter, zero when absent
func QueryInt64(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, perrs.InvalidArgf("query parameter %s must be an integer, got %q", name, raw)
	}
	return v, nil
}

// QueryBool parses a required boolean query parameter
func QueryBool(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, perrs.InvalidArgf("query parameter %s is required", name)
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, perrs.InvalidArgf("query parameter %s must be a boolean, got %q", name, raw)
	}
	return v, nil
}

// Query returns a trimmed query parameter
func Query(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

// BindJSON decodes and validates the request body into T
func BindJSON[T any](r *http.Request) (T, error) { return bind.ParseJSON[T](r) }
