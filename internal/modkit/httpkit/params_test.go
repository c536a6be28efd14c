package httpkit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	perrs "alertctl/internal/platform/errors"

	"github.com/go-chi/chi/v5"
)

func withParam(r *http.Request, k, v string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(k, v)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func TestPathInt64(t *testing.T) {
	r := withParam(httptest.NewRequest(http.MethodPut, "/x/42", nil), "id", "42")
	if v, err := PathInt64(r, "id"); err != nil || v != 42 {
		t.Fatalf("v=%d err=%v", v, err)
	}
	r = withParam(httptest.NewRequest(http.MethodPut, "/x/abc", nil), "id", "abc")
	if _, err := PathInt64(r, "id"); !perrs.IsCode(err, perrs.ErrorCodeInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x?start=10&bad=z&active=true&name=+a+", nil)
	if v, err := QueryInt64(r, "start"); err != nil || v != 10 {
		t.Fatalf("start=%d err=%v", v, err)
	}
	if v, err := QueryInt64(r, "missing"); err != nil || v != 0 {
		t.Fatalf("missing=%d err=%v", v, err)
	}
	if _, err := QueryInt64(r, "bad"); !perrs.IsCode(err, perrs.ErrorCodeInvalidArgument) {
		t.Fatalf("bad err = %v", err)
	}
	if v, err := QueryBool(r, "active"); err != nil || !v {
		t.Fatalf("active=%v err=%v", v, err)
	}
	if _, err := QueryBool(r, "nope"); err == nil {
		t.Fatalf("required bool should fail when absent")
	}
	if got := Query(r, "name"); got != "a" {
		t.Fatalf("name = %q", got)
	}
}
