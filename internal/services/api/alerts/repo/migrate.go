package repo

import (
	"context"
	_ "embed"
	"strings"

	"alertctl/internal/modkit/repokit"
	perr "alertctl/internal/platform/errors"
)

//go:embed schema.sql
var schema string

// Statements returns the schema split into single statements
func Statements() []string {
	var out []string
	for _, s := range strings.Split(schema, ";\n") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Migrate applies the embedded schema. Every statement is idempotent
func Migrate(ctx context.Context, db repokit.TxRunner) error {
	return db.Tx(ctx, func(q repokit.Queryer) error {
		for i, stmt := range Statements() {
			if _, err := q.Exec(ctx, stmt); err != nil {
				return perr.FromPostgresf(err, "apply schema statement %d", i+1)
			}
		}
		return nil
	})
}
