package http

import (
	"context"
	"encoding/json"
	stderrs "errors"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"alertctl/internal/core/engine"
	perr "alertctl/internal/platform/errors"
	pnet "alertctl/internal/platform/net"
	phttp "alertctl/internal/platform/net/http"
	"alertctl/internal/services/api/alerts/domain"

	"github.com/go-chi/chi/v5"
)

type fakeSvc struct {
	domain.ServicePort

	gotPrincipal domain.Principal
	gotTuning    domain.TuningRange
	gotPreview   domain.PreviewInput
	gotList      domain.ListQuery

	err      error
	alertIDs domain.AlertIDs
	id       int64
	result   engine.Result
	listed   []domain.ListedDetection
}

func (f *fakeSvc) CreateAlert(_ context.Context, p domain.Principal, in domain.AlertInput) (domain.AlertIDs, error) {
	f.gotPrincipal, f.gotTuning = p, in.Tuning
	return f.alertIDs, f.err
}

func (f *fakeSvc) CreateDetection(_ context.Context, p domain.Principal, _ string, tr domain.TuningRange) (int64, error) {
	f.gotPrincipal, f.gotTuning = p, tr
	return f.id, f.err
}

func (f *fakeSvc) UpdateDetection(_ context.Context, p domain.Principal, id int64, _ string, tr domain.TuningRange) error {
	f.gotPrincipal, f.gotTuning, f.id = p, tr, id
	return f.err
}

func (f *fakeSvc) UpdateSubscription(_ context.Context, p domain.Principal, id int64, _ string) error {
	f.gotPrincipal, f.id = p, id
	return f.err
}

func (f *fakeSvc) Preview(_ context.Context, in domain.PreviewInput) (engine.Result, error) {
	f.gotPreview = in
	return f.result, f.err
}

func (f *fakeSvc) Baseline(context.Context, domain.BaselineInput) (engine.Prediction, error) {
	return engine.Prediction{}, f.err
}

func (f *fakeSvc) ToggleActivation(_ context.Context, id int64, _ bool) error {
	f.id = id
	return f.err
}

func (f *fakeSvc) List(_ context.Context, q domain.ListQuery) ([]domain.ListedDetection, error) {
	f.gotList = q
	return f.listed, f.err
}

func (f *fakeSvc) Notify(_ context.Context, id int64) error {
	f.id = id
	return f.err
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message"`
	MoreInfo   string          `json:"more-info"`
	Data       json.RawMessage `json:"data"`
}

func serve(t *testing.T, f *fakeSvc, user, method, target, body string) (int, envelope) {
	t.Helper()
	m := chi.NewRouter()
	m.Use(func(next stdhttp.Handler) stdhttp.Handler {
		return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			ctx := pnet.WithRequestID(r.Context(), "req-1")
			next.ServeHTTP(w, r.WithContext(pnet.WithPrincipal(ctx, user, "sess-1")))
		})
	})
	r := phttp.AdaptChi(m)
	r.Route("/yaml", func(sr phttp.Router) { Register(sr, f, Options{}) })

	rr := httptest.NewRecorder()
	m.ServeHTTP(rr, httptest.NewRequest(method, target, strings.NewReader(body)))

	var env envelope
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %q: %v", rr.Body.String(), err)
		}
	}
	return rr.Code, env
}

func reply(t *testing.T, env envelope) domain.Reply {
	t.Helper()
	var rep domain.Reply
	if err := json.Unmarshal(env.Data, &rep); err != nil {
		t.Fatalf("decode reply %s: %v", env.Data, err)
	}
	return rep
}

func TestCreateDetection_OK(t *testing.T) {
	f := &fakeSvc{id: 42}
	code, env := serve(t, f, "alice", stdhttp.MethodPost, "/yaml/?startTime=10&endTime=20", "detectionName: d\n")
	if code != 200 {
		t.Fatalf("code = %d env=%+v", code, env)
	}
	rep := reply(t, env)
	if rep.Message != "Alert was created successfully." || rep.MoreInfo != "Record saved with id 42" || rep.DetectionConfigID != "42" {
		t.Fatalf("reply = %+v", rep)
	}
	if f.gotPrincipal != (domain.Principal{Name: "alice", SessionKey: "sess-1"}) {
		t.Fatalf("principal = %+v", f.gotPrincipal)
	}
	if f.gotTuning != (domain.TuningRange{Start: 10, End: 20}) {
		t.Fatalf("tuning = %+v", f.gotTuning)
	}
}

func TestCreateDetection_ValidationIs400(t *testing.T) {
	f := &fakeSvc{err: perr.WithDetail(perr.Validationf("detectionName missing"), "line 1")}
	code, env := serve(t, f, "alice", stdhttp.MethodPost, "/yaml/", "x: 1\n")
	if code != 400 {
		t.Fatalf("code = %d", code)
	}
	if env.Message != "Validation Error in detection! detectionName missing" || env.MoreInfo != "line 1" {
		t.Fatalf("env = %+v", env)
	}
}

func TestCreateDetection_BadTuningParam(t *testing.T) {
	f := &fakeSvc{}
	code, env := serve(t, f, "alice", stdhttp.MethodPost, "/yaml/?startTime=soon", "x: 1\n")
	if code != 400 || !strings.HasPrefix(env.Message, "Validation Error in detection! ") {
		t.Fatalf("code=%d env=%+v", code, env)
	}
}

func TestUpdateDetection_UnauthorizedIs401(t *testing.T) {
	f := &fakeSvc{err: perr.Unauthorizedf("not an owner")}
	code, env := serve(t, f, "mallory", stdhttp.MethodPut, "/yaml/7", "detectionName: d\n")
	if code != 401 {
		t.Fatalf("code = %d", code)
	}
	if env.Message != "Authorization error! You do not have permissions to UPDATING this detection config" ||
		env.MoreInfo != "Configure owners property in detection config" {
		t.Fatalf("env = %+v", env)
	}
	if f.id != 7 {
		t.Fatalf("id = %d", f.id)
	}
}

func TestUpdateSubscription_OK(t *testing.T) {
	f := &fakeSvc{}
	code, env := serve(t, f, "alice", stdhttp.MethodPut, "/yaml/subscription/9", "subscriptionGroupName: s\n")
	if code != 200 {
		t.Fatalf("code = %d", code)
	}
	rep := reply(t, env)
	if rep.Message != "The subscription group was updated successfully." || rep.DetectionAlertConfID != "9" {
		t.Fatalf("reply = %+v", rep)
	}
}

func TestCreateAlert_InternalFailure(t *testing.T) {
	cause := perr.Wrap(stderrs.New("connection reset"), perr.ErrorCodeDB, "save detection")
	f := &fakeSvc{err: cause}
	body := `{"detection":"detectionName: d\n","subscription":"subscriptionGroupName: s\n"}`
	code, env := serve(t, f, "alice", stdhttp.MethodPost, "/yaml/create-alert?startTime=1&endTime=2", body)
	if code != 500 {
		t.Fatalf("code = %d", code)
	}
	if env.Message != "Failed to create the alert. Reach out to the alerting team." {
		t.Fatalf("message = %q", env.Message)
	}
	if env.MoreInfo != "==save detection==connection reset" {
		t.Fatalf("more-info = %q", env.MoreInfo)
	}
}

func TestCreateAlert_OK(t *testing.T) {
	f := &fakeSvc{alertIDs: domain.AlertIDs{DetectionID: 3, SubscriptionID: 4}}
	body := `{"detection":"detectionName: d\n","subscription":"subscriptionGroupName: s\n"}`
	code, env := serve(t, f, "alice", stdhttp.MethodPost, "/yaml/create-alert", body)
	if code != 200 {
		t.Fatalf("code = %d env=%+v", code, env)
	}
	rep := reply(t, env)
	if rep.MoreInfo != "Record saved with detection id 3 and subscription id 4" ||
		rep.DetectionConfigID != "3" || rep.SubscriptionConfigID != "4" {
		t.Fatalf("reply = %+v", rep)
	}
}

func TestAnonymousCallerIsRejected(t *testing.T) {
	f := &fakeSvc{}
	code, _ := serve(t, f, "", stdhttp.MethodPost, "/yaml/", "detectionName: d\n")
	if code != 401 {
		t.Fatalf("code = %d", code)
	}
}

func TestPreview(t *testing.T) {
	f := &fakeSvc{result: engine.Result{LastTimestamp: 99}}
	code, _ := serve(t, f, "", stdhttp.MethodPost, "/yaml/preview/12?start=1&end=2&tuningStart=3&tuningEnd=4", "detectionName: d\n")
	if code != 200 {
		t.Fatalf("code = %d", code)
	}
	want := domain.PreviewInput{Document: "detectionName: d\n", ExistingID: 12, Start: 1, End: 2, TuningStart: 3, TuningEnd: 4}
	if f.gotPreview != want {
		t.Fatalf("input = %+v", f.gotPreview)
	}

	f = &fakeSvc{err: perr.Timeoutf("preview exceeded 30s")}
	code, env := serve(t, f, "", stdhttp.MethodPost, "/yaml/preview", "detectionName: d\n")
	if code != 500 || env.Message != "Preview has timed out" || env.MoreInfo != "" {
		t.Fatalf("timeout code=%d env=%+v", code, env)
	}

	f = &fakeSvc{err: perr.Validationf("no rules")}
	code, env = serve(t, f, "", stdhttp.MethodPost, "/yaml/preview", "detectionName: d\n")
	if code != 400 || env.Message != "Validation Error in PREVIEW! no rules" {
		t.Fatalf("validation code=%d env=%+v", code, env)
	}
}

func TestBaseline_FailureAnswersEmpty(t *testing.T) {
	f := &fakeSvc{err: perr.InvalidArgf("bad urn")}
	code, env := serve(t, f, "", stdhttp.MethodPost, "/yaml/preview/baseline?urn=x", "detectionName: d\n")
	if code != 200 || len(env.Data) != 0 {
		t.Fatalf("code=%d env=%+v", code, env)
	}
}

func TestToggle(t *testing.T) {
	f := &fakeSvc{}
	code, env := serve(t, f, "alice", stdhttp.MethodPut, "/yaml/activation/5?active=false", "")
	if code != 200 || reply(t, env).Message != "Alert activation toggled to false for detection id 5" {
		t.Fatalf("code=%d env=%+v", code, env)
	}

	f = &fakeSvc{err: perr.NotFoundf("Cannot find config 5")}
	code, env = serve(t, f, "alice", stdhttp.MethodPut, "/yaml/activation/5?active=true", "")
	if code != 500 || env.Message != "Failed to toggle activation: Cannot find config 5" {
		t.Fatalf("code=%d env=%+v", code, env)
	}
}

func TestList(t *testing.T) {
	f := &fakeSvc{listed: []domain.ListedDetection{{ID: 1, Name: "a"}}}
	code, env := serve(t, f, "alice", stdhttp.MethodGet, "/yaml/list?dataset=orders", "")
	if code != 200 || f.gotList != (domain.ListQuery{Dataset: "orders"}) {
		t.Fatalf("code=%d q=%+v", code, f.gotList)
	}
	var out []domain.ListedDetection
	if err := json.Unmarshal(env.Data, &out); err != nil || len(out) != 1 || out[0].Name != "a" {
		t.Fatalf("data=%s err=%v", env.Data, err)
	}

	f = &fakeSvc{err: perr.DBf("pool closed")}
	code, env = serve(t, f, "alice", stdhttp.MethodGet, "/yaml/list", "")
	if code != 500 || env.Message != "Failed to fetch all the detection configurations." || env.MoreInfo != "==pool closed" {
		t.Fatalf("code=%d env=%+v", code, env)
	}
}

func TestNotify(t *testing.T) {
	f := &fakeSvc{}
	code, env := serve(t, f, "alice", stdhttp.MethodPut, "/yaml/notify/8", "")
	if code != 200 || reply(t, env).Message != "Subscription was triggered successfully for 8" {
		t.Fatalf("code=%d env=%+v", code, env)
	}

	f = &fakeSvc{err: perr.NotFoundf("subscription 8 not found")}
	code, env = serve(t, f, "alice", stdhttp.MethodPut, "/yaml/notify/8", "")
	if code != 500 || env.Message != "Failed to trigger the notification for 8" {
		t.Fatalf("code=%d env=%+v", code, env)
	}
}
