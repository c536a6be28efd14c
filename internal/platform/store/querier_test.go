package store

import (
	"context"
	"errors"
	"testing"

	"alertctl/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakePgx struct {
	tag      string
	execErr  error
	queryErr error
	rowErr   error
}

func (f fakePgx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(f.tag), f.execErr
}

func (f fakePgx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, f.queryErr
}

func (f fakePgx) QueryRow(context.Context, string, ...any) pgx.Row { return errRow{f.rowErr} }

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

type events []pg.QueryEvent

func (e *events) OnQuery(_ context.Context, ev pg.QueryEvent) { *e = append(*e, ev) }

func newObserved(t *testing.T, q pgxQuerier, slowUS int64) (traced, *events, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	s := &Store{reg: reg}
	ev := &events{}
	return traced{q: q, obs: &observer{tracer: ev, slowUS: slowUS, latency: s.queryLatency()}}, ev, reg
}

func TestTraced_ExecReportsTagAndEvent(t *testing.T) {
	tr, ev, reg := newObserved(t, fakePgx{tag: "UPDATE 1"}, -1)

	tag, err := tr.Exec(context.Background(), "UPDATE detection_configs SET active = $2 WHERE id = $1", 7, false)
	if err != nil || tag.RowsAffected() != 1 {
		t.Fatalf("tag=%v err=%v", tag, err)
	}
	if len(*ev) != 1 || (*ev)[0].Slow || (*ev)[0].Err != nil {
		t.Fatalf("events = %+v", *ev)
	}
	if n, err := testutil.GatherAndCount(reg, "alertctl_store_query_seconds"); err != nil || n != 1 {
		t.Fatalf("histogram series = %d", n)
	}
}

func TestTraced_SlowThreshold(t *testing.T) {
	tr, ev, _ := newObserved(t, fakePgx{tag: "SELECT 0"}, 0)
	_, _ = tr.Exec(context.Background(), "SELECT 1")
	if !(*ev)[0].Slow {
		t.Fatalf("zero threshold should flag every statement as slow")
	}
}

func TestTraced_QueryErrorPropagates(t *testing.T) {
	boom := errors.New("relation does not exist")
	tr, ev, _ := newObserved(t, fakePgx{queryErr: boom}, -1)

	if _, err := tr.Query(context.Background(), "SELECT * FROM nope"); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is((*ev)[0].Err, boom) {
		t.Fatalf("event err = %v", (*ev)[0].Err)
	}
}

func TestTraced_QueryRowNoRowsIsNotAnError(t *testing.T) {
	tr, ev, _ := newObserved(t, fakePgx{rowErr: pgx.ErrNoRows}, -1)

	var id int64
	err := tr.QueryRow(context.Background(), "SELECT id FROM sessions WHERE session_key = $1", "k").Scan(&id)
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("scan err = %v", err)
	}
	if len(*ev) != 1 || (*ev)[0].Err != nil {
		t.Fatalf("events = %+v", *ev)
	}
}

func TestObserver_NilIsSafe(t *testing.T) {
	tr := traced{q: fakePgx{tag: "DELETE 0"}}
	if _, err := tr.Exec(context.Background(), "DELETE FROM tasks"); err != nil {
		t.Fatalf("exec: %v", err)
	}
}

func TestPGRunner_NilPing(t *testing.T) {
	var p *pgRunner
	if err := p.Ping(context.Background()); err == nil {
		t.Fatalf("expected error from nil runner")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
