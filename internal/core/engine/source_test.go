package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"alertctl/internal/core/window"
	"alertctl/internal/platform/store"
)

type fakeCH struct {
	sql  string
	args []any
	rows *fakeRows
	err  error
}

func (f *fakeCH) Insert(context.Context, string, [][]any) error { return nil }
func (f *fakeCH) Exec(context.Context, string, ...any) error    { return nil }
func (f *fakeCH) Close() error                                  { return nil }
func (f *fakeCH) Query(_ context.Context, sql string, args ...any) (store.Rows, error) {
	f.sql, f.args = sql, args
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

type fakeRows struct {
	data   [][2]any
	i      int
	closed bool
	err    error
}

func (r *fakeRows) Next() bool        { r.i++; return r.i <= len(r.data) }
func (r *fakeRows) Err() error        { return r.err }
func (r *fakeRows) Close()            { r.closed = true }
func (r *fakeRows) Columns() []string { return []string{"ts_ms", "value"} }
func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.i-1]
	*(dest[0].(*int64)) = row[0].(int64)
	*(dest[1].(*float64)) = row[1].(float64)
	return nil
}

func TestNewCHSource_NilIsNoSource(t *testing.T) {
	t.Parallel()
	if NewCHSource(nil) != nil {
		t.Fatalf("nil clickhouse must give a nil Source")
	}
}

func TestCHSource_Series(t *testing.T) {
	t.Parallel()
	ch := &fakeCH{rows: &fakeRows{data: [][2]any{{int64(1000), 1.5}, {int64(2000), 2.5}}}}
	src := NewCHSource(ch)

	pts, err := src.Series(context.Background(), "orders", "revenue", window.Interval{Start: 10, End: 20})
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if len(pts) != 2 || pts[1] != (Point{TS: 2000, Value: 2.5}) {
		t.Fatalf("points = %+v", pts)
	}
	if !strings.Contains(ch.sql, "FROM metric_points") {
		t.Fatalf("sql = %s", ch.sql)
	}
	if len(ch.args) != 4 || ch.args[0] != "orders" || ch.args[3] != int64(20) {
		t.Fatalf("args = %v", ch.args)
	}
	if !ch.rows.closed {
		t.Fatalf("rows not closed")
	}
}

func TestCHSource_Errors(t *testing.T) {
	t.Parallel()
	boom := errors.New("code: 60, table does not exist")
	if _, err := NewCHSource(&fakeCH{err: boom}).Series(context.Background(), "d", "m", window.Interval{}); !errors.Is(err, boom) {
		t.Fatalf("query err = %v", err)
	}
	iter := errors.New("read: connection reset")
	ch := &fakeCH{rows: &fakeRows{err: iter}}
	if _, err := NewCHSource(ch).Series(context.Background(), "d", "m", window.Interval{}); !errors.Is(err, iter) {
		t.Fatalf("iterate err = %v", err)
	}
}
