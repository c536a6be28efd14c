package ch

import (
	"runtime"
	"runtime/debug"

	"alertctl/internal/core/version"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo names this binary in system.query_log. An empty tag uses the build version
func BuildClientInfo(role, tag string) clickhouse.ClientInfo {
	b := version.Info()
	if tag == "" {
		tag = b.Version
	}
	commit := b.Commit
	if commit == "none" {
		commit = vcsRevision()
	}
	return clickhouse.ClientInfo{Products: []struct{ Name, Version string }{
		{Name: "alertctl", Version: tag},
		{Name: "role", Version: role},
		{Name: "commit", Version: commit},
		{Name: "go", Version: runtime.Version()},
	}}
}

func vcsRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return "unknown"
}
