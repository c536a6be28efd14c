package modkit

import (
	"alertctl/internal/modkit/repokit"
	"alertctl/internal/platform/config"
	"alertctl/internal/platform/logger"
	"alertctl/internal/platform/store"

	"github.com/prometheus/client_golang/prometheus"
)

// Deps are the shared backends handed to every module. CH may be nil
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse

	// Metrics is where modules register collectors; nil keeps them unregistered
	Metrics prometheus.Registerer
}
