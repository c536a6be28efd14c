package store

import (
	"context"
	"errors"
	"testing"
)

type fakeCHRows struct {
	n      int
	closed bool
}

func (f *fakeCHRows) Next() bool {
	f.n--
	return f.n >= 0
}
func (f *fakeCHRows) Scan(dest ...any) error {
	if p, ok := dest[0].(*float64); ok {
		*p = 1.5
	}
	return nil
}
func (f *fakeCHRows) Err() error        { return nil }
func (f *fakeCHRows) Close() error      { f.closed = true; return errors.New("ignored") }
func (f *fakeCHRows) Columns() []string { return []string{"value"} }

func TestRowsAdapter_Delegates(t *testing.T) {
	t.Parallel()

	inner := &fakeCHRows{n: 2}
	var rows Rows = &rowsAdapter{r: inner}

	count := 0
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil || v != 1.5 {
			t.Fatalf("scan got v=%v err=%v", v, err)
		}
		count++
	}
	rows.Close()

	if count != 2 || !inner.closed {
		t.Fatalf("count=%d closed=%v", count, inner.closed)
	}
	if cols := rows.Columns(); len(cols) != 1 || cols[0] != "value" {
		t.Fatalf("columns %v", cols)
	}
}

func TestCHAdapter_NilPing(t *testing.T) {
	t.Parallel()

	var a *clickhouseAdapter
	if err := a.Ping(context.Background()); err == nil {
		t.Fatalf("expected error from nil adapter")
	}
}

func TestCHAdapter_Unconnected_Errors(t *testing.T) {
	t.Parallel()

	a := newCHAdapter(nil)
	ctx := context.Background()
	if err := a.Insert(ctx, "preview_runs", [][]any{{"x"}}); err == nil {
		t.Fatalf("insert without connection should fail")
	}
	if _, err := a.Query(ctx, "SELECT 1"); err == nil {
		t.Fatalf("query without connection should fail")
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close without connection should be a no-op: %v", err)
	}
}
