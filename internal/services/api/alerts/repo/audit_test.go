package repo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	perr "alertctl/internal/platform/errors"
	"alertctl/internal/platform/store"
	"alertctl/internal/services/api/alerts/domain"

	"github.com/google/uuid"
)

type fakeCH struct {
	table string
	rows  [][]any
	execs []string
	err   error
}

func (f *fakeCH) Insert(_ context.Context, table string, rows [][]any) error {
	if f.err != nil {
		return f.err
	}
	f.table = table
	f.rows = append(f.rows, rows...)
	return nil
}

func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error {
	f.execs = append(f.execs, sql)
	return f.err
}

func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) { return nil, f.err }
func (f *fakeCH) Close() error                                              { return nil }

func TestNewCHAuditor_NilClickhouse(t *testing.T) {
	if a := NewCHAuditor(nil); a != nil {
		t.Fatalf("expected nil auditor, got %T", a)
	}
}

func TestCHAuditor_Record(t *testing.T) {
	ch := &fakeCH{}
	a := NewCHAuditor(ch).(*CHAuditor)
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	id := uuid.New()

	err := a.Record(context.Background(), domain.PreviewRun{
		RunID: id.String(), Detection: "revenue_drop", Outcome: domain.OutcomeOK,
		Elapsed: 1500 * time.Millisecond, Anomalies: 3, At: at,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if ch.table != PreviewRunsTable || len(ch.rows) != 1 {
		t.Fatalf("table=%s rows=%d", ch.table, len(ch.rows))
	}
	row := ch.rows[0]
	if row[0] != id || row[3] != uint64(1500) || row[4] != uint32(3) || row[5] != at {
		t.Fatalf("row = %v", row)
	}
}

func TestCHAuditor_Errors(t *testing.T) {
	a := &CHAuditor{ch: &fakeCH{}}
	if err := a.Record(context.Background(), domain.PreviewRun{RunID: "nope"}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("bad id err = %v", err)
	}

	boom := errors.New("ch down")
	a = &CHAuditor{ch: &fakeCH{err: boom}}
	err := a.Record(context.Background(), domain.PreviewRun{RunID: uuid.NewString()})
	if !errors.Is(err, boom) || !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("insert err = %v", err)
	}
}

func TestCHAuditor_EnsureTable(t *testing.T) {
	ch := &fakeCH{}
	if err := (&CHAuditor{ch: ch}).EnsureTable(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(ch.execs) != 1 || !strings.Contains(ch.execs[0], "CREATE TABLE IF NOT EXISTS preview_runs") {
		t.Fatalf("execs = %v", ch.execs)
	}
}

func TestStatements(t *testing.T) {
	stmts := Statements()
	if len(stmts) != 6 {
		t.Fatalf("statements = %d", len(stmts))
	}
	for _, s := range stmts {
		if strings.HasSuffix(s, ";") {
			t.Fatalf("statement keeps its terminator: %q", s)
		}
	}
	if !strings.Contains(stmts[0], "detection_configs") {
		t.Fatalf("first statement = %q", stmts[0])
	}
}
