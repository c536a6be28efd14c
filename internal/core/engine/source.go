package engine

import (
	"context"

	"alertctl/internal/core/window"
	perr "alertctl/internal/platform/errors"
	"alertctl/internal/platform/store"
)

// MetricPointsTable is the ClickHouse table CHSource reads from
const MetricPointsTable = "metric_points"

// CHSource reads series from the ClickHouse metric_points table
type CHSource struct {
	ch    store.Clickhouse
	table string
}

// NewCHSource returns a Source over ch, or nil when ch is nil so callers can
// treat a disabled ClickHouse as "no source"
func NewCHSource(ch store.Clickhouse) Source {
	if ch == nil {
		return nil
	}
	return &CHSource{ch: ch, table: MetricPointsTable}
}

// Series loads points in [iv.Start, iv.End) ordered by time
func (s *CHSource) Series(ctx context.Context, dataset, metric string, iv window.Interval) ([]Point, error) {
	q := `
		SELECT toUnixTimestamp64Milli(ts) AS ts_ms, value
		  FROM ` + s.table + `
		 WHERE dataset = ? AND metric = ?
		   AND ts >= fromUnixTimestamp64Milli(toInt64(?))
		   AND ts <  fromUnixTimestamp64Milli(toInt64(?))
		 ORDER BY ts`
	rows, err := s.ch.Query(ctx, q, dataset, metric, iv.Start, iv.End)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "query metric points")
	}
	defer rows.Close()

	var out []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.TS, &p.Value); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDB, "scan metric point")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "iterate metric points")
	}
	return out, nil
}
