package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"alertctl/internal/core/admission"
	"alertctl/internal/core/engine"
	"alertctl/internal/core/runpool"
	"alertctl/internal/core/window"
	"alertctl/internal/modkit/repokit"
	perr "alertctl/internal/platform/errors"
	"alertctl/internal/services/api/alerts/domain"

	"github.com/benbjohnson/clock"
)

// memStore is an in-memory domain.Store with injectable failures
type memStore struct {
	mu     sync.Mutex
	nextID int64

	detections    map[int64]domain.DetectionConfig
	subscriptions map[int64]domain.SubscriptionConfig
	tasks         []domain.Task
	sessions      map[string]domain.Session

	failSaveSub    error
	failUpdateSub  error
	failCreateTask error
	failDelete     error
	deleted        []int64
}

func newMemStore() *memStore {
	return &memStore{
		detections:    map[int64]domain.DetectionConfig{},
		subscriptions: map[int64]domain.SubscriptionConfig{},
		sessions:      map[string]domain.Session{},
	}
}

func (m *memStore) id() int64 { m.nextID++; return m.nextID }

func (m *memStore) DetectionByID(_ context.Context, id int64) (domain.DetectionConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.detections[id]
	if !ok {
		return domain.DetectionConfig{}, perr.ErrNotFound
	}
	return d, nil
}

func (m *memStore) DetectionByName(_ context.Context, name string) (domain.DetectionConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.detections {
		if d.Name == name {
			return d, nil
		}
	}
	return domain.DetectionConfig{}, perr.ErrNotFound
}

func (m *memStore) SaveDetection(_ context.Context, d domain.DetectionConfig) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.detections {
		if x.Name == d.Name {
			return 0, perr.DuplicateKeyf("duplicate key value violates unique constraint")
		}
	}
	d.ID = m.id()
	m.detections[d.ID] = d
	return d.ID, nil
}

func (m *memStore) UpdateDetection(_ context.Context, d domain.DetectionConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.detections[d.ID]; !ok {
		return perr.ErrNotFound
	}
	m.detections[d.ID] = d
	return nil
}

func (m *memStore) DeleteDetection(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete != nil {
		return m.failDelete
	}
	delete(m.detections, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memStore) RecentDetections(_ context.Context, limit int) ([]domain.DetectionConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DetectionConfig
	for id := m.nextID; id > 0 && len(out) < limit; id-- {
		if d, ok := m.detections[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) SubscriptionByID(_ context.Context, id int64) (domain.SubscriptionConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subscriptions[id]
	if !ok {
		return domain.SubscriptionConfig{}, perr.ErrNotFound
	}
	return s, nil
}

func (m *memStore) SubscriptionByName(_ context.Context, name string) (domain.SubscriptionConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subscriptions {
		if s.Name == name {
			return s, nil
		}
	}
	return domain.SubscriptionConfig{}, perr.ErrNotFound
}

func (m *memStore) SaveSubscription(_ context.Context, s domain.SubscriptionConfig) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaveSub != nil {
		return 0, m.failSaveSub
	}
	s.ID = m.id()
	m.subscriptions[s.ID] = s
	return s.ID, nil
}

func (m *memStore) UpdateSubscription(_ context.Context, s domain.SubscriptionConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdateSub != nil {
		return m.failUpdateSub
	}
	m.subscriptions[s.ID] = s
	return nil
}

func (m *memStore) DeleteSubscription(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete != nil {
		return m.failDelete
	}
	delete(m.subscriptions, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memStore) CreateTask(_ context.Context, t domain.Task) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateTask != nil {
		return 0, m.failCreateTask
	}
	t.ID = m.id()
	m.tasks = append(m.tasks, t)
	return t.ID, nil
}

func (m *memStore) SessionByKey(_ context.Context, key string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	if !ok {
		return domain.Session{}, perr.ErrNotFound
	}
	return s, nil
}

func (m *memStore) taskCount(taskType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if t.Type == taskType {
			n++
		}
	}
	return n
}

// nopDB satisfies repokit.TxRunner; the bound memStore never touches it
type nopDB struct{}

var errNoSQL = errors.New("no sql in unit tests")

func (nopDB) Exec(context.Context, string, ...any) (repokit.CommandTag, error) { return nil, errNoSQL }
func (nopDB) Query(context.Context, string, ...any) (repokit.Rows, error)      { return nil, errNoSQL }
func (nopDB) QueryRow(context.Context, string, ...any) repokit.Row             { return nil }
func (d nopDB) Tx(_ context.Context, fn func(q repokit.Queryer) error) error   { return fn(d) }

// scriptedEngine lets tests decide what a run or prediction does
type scriptedEngine struct {
	mu      sync.Mutex
	run     func(ctx context.Context, p engine.Pipeline, iv window.Interval) (engine.Result, error)
	last    engine.Pipeline
	predict engine.Component
	urn     string
}

func (e *scriptedEngine) Run(ctx context.Context, p engine.Pipeline, iv window.Interval) (engine.Result, error) {
	e.mu.Lock()
	e.last = p
	run := e.run
	e.mu.Unlock()
	if run != nil {
		return run(ctx, p, iv)
	}
	return engine.Result{DetectionID: p.ID, LastTimestamp: iv.End}, nil
}

func (e *scriptedEngine) Predict(_ context.Context, c engine.Component, dataset, metric string, iv window.Interval) (engine.Prediction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.predict = c
	e.urn = dataset + ":" + metric
	return engine.Prediction{Time: []int64{iv.Start}, Value: []float64{1}}, nil
}

type recordingAuditor struct {
	mu   sync.Mutex
	runs []domain.PreviewRun
}

func (a *recordingAuditor) Record(_ context.Context, run domain.PreviewRun) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runs = append(a.runs, run)
	return nil
}

type fixture struct {
	svc     *Svc
	store   *memStore
	engine  *scriptedEngine
	clock   *clock.Mock
	auditor *recordingAuditor
	pool    *runpool.Pool
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixtureOpt func(*Options)

func newFixture(t *testing.T, opts ...fixtureOpt) *fixture {
	t.Helper()
	st := newMemStore()
	mc := clock.NewMock()
	mc.Set(testNow)
	eng := &scriptedEngine{}
	aud := &recordingAuditor{}
	pool := runpool.New(runpool.Options{Name: "preview", Workers: 2, Queue: 2})
	t.Cleanup(pool.Close)

	docs := NewDocuments(st, nil)
	o := Options{
		Translator:     docs,
		Validator:      docs.Validator(),
		Tuner:          docs.Tuner(),
		Engine:         eng,
		Limiter:        admission.New(admission.Options{QPS: 100, Clock: mc}),
		Pool:           pool,
		Auditor:        aud,
		Clock:          mc,
		PreviewTimeout: time.Second,
	}
	for _, fn := range opts {
		fn(&o)
	}
	binder := repokit.BindFunc[domain.Store](func(repokit.Queryer) domain.Store { return st })
	return &fixture{
		svc:     New(nopDB{}, binder, o),
		store:   st,
		engine:  eng,
		clock:   mc,
		auditor: aud,
		pool:    pool,
	}
}

func detectionYAML(name string, extra ...string) string {
	doc := "detectionName: " + name + `
dataset: orders
metric: revenue
owners: [bot@example.com]
rules:
  - name: baseline
    type: MEAN_BASELINE
    params: {lookback: 7, k: 3}
  - name: floor
    type: THRESHOLD
    params: {min: 10}
`
	for _, e := range extra {
		doc += e + "\n"
	}
	return doc
}

func subscriptionYAML(name string, detections ...string) string {
	doc := "subscriptionGroupName: " + name + `
application: billing
owners: [bot@example.com]
recipients:
  to: [team@example.com]
detectionNames:
`
	for _, d := range detections {
		doc += "  - " + d + "\n"
	}
	return doc
}

var human = domain.Principal{Name: "alice@example.com"}
