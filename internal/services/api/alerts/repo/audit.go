package repo

import (
	"context"

	perr "alertctl/internal/platform/errors"
	"alertctl/internal/platform/store"
	"alertctl/internal/services/api/alerts/domain"

	"github.com/google/uuid"
)

// PreviewRunsTable receives one row per preview
const PreviewRunsTable = "preview_runs"

const previewRunsDDL = `
	CREATE TABLE IF NOT EXISTS ` + PreviewRunsTable + ` (
		run_id     UUID,
		detection  String,
		outcome    LowCardinality(String),
		elapsed_ms UInt64,
		anomalies  UInt32,
		at         DateTime64(3)
	) ENGINE = MergeTree
	ORDER BY (at, run_id)`

// CHAuditor appends preview outcomes to ClickHouse
type CHAuditor struct {
	ch store.Clickhouse
}

// NewCHAuditor returns nil when ch is nil so a disabled ClickHouse means no audit
func NewCHAuditor(ch store.Clickhouse) domain.Auditor {
	if ch == nil {
		return nil
	}
	return &CHAuditor{ch: ch}
}

// EnsureTable creates the audit table when missing
func (a *CHAuditor) EnsureTable(ctx context.Context) error {
	if err := a.ch.Exec(ctx, previewRunsDDL); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "create %s", PreviewRunsTable)
	}
	return nil
}

// Record appends run
func (a *CHAuditor) Record(ctx context.Context, run domain.PreviewRun) error {
	id, err := uuid.Parse(run.RunID)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "preview run id %q", run.RunID)
	}
	row := []any{id, run.Detection, run.Outcome, elapsedMillis(run), uint32(max(run.Anomalies, 0)), run.At}
	if err := a.ch.Insert(ctx, PreviewRunsTable, [][]any{row}); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "append preview run %s", run.RunID)
	}
	return nil
}

func elapsedMillis(run domain.PreviewRun) uint64 {
	if run.Elapsed <= 0 {
		return 0
	}
	return uint64(run.Elapsed.Milliseconds())
}
