package pg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"alertctl/internal/platform/logger"

	"github.com/rs/zerolog"
)

func traceOne(t *testing.T, ctx context.Context, ev QueryEvent) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	Tracer(zerolog.New(&buf).Level(zerolog.ErrorLevel)).OnQuery(ctx, ev)
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return line
}

func TestTracer_Levels(t *testing.T) {
	tests := []struct {
		name  string
		ev    QueryEvent
		level string
	}{
		{"normal", QueryEvent{SQL: "SELECT 1", ElapsedUS: 900}, "info"},
		{"slow", QueryEvent{SQL: "SELECT 1", ElapsedUS: 900000, Slow: true}, "warn"},
		{"failed", QueryEvent{SQL: "SELECT 1", Err: errors.New("syntax error")}, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := traceOne(t, context.Background(), tt.ev)
			if line["level"] != tt.level || line["component"] != "pg" {
				t.Fatalf("line = %v", line)
			}
		})
	}
}

func TestTracer_CompactsSQLAndTagsRequest(t *testing.T) {
	ctx := logger.WithRequest(context.Background(), "req-9", "")
	line := traceOne(t, ctx, QueryEvent{
		SQL:       "SELECT id\n\t  FROM detection_configs\n WHERE name = $1",
		Args:      []any{"revenue_drop"},
		ElapsedUS: 1500,
	})
	if line["sql"] != "SELECT id FROM detection_configs WHERE name = $1" {
		t.Fatalf("sql = %q", line["sql"])
	}
	if line["request_id"] != "req-9" || line["elapsed_ms"] != 1.5 {
		t.Fatalf("line = %v", line)
	}
}
