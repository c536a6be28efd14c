// @title         alertctl API
// @version       0.1.0
// @description   Alert configuration lifecycle and preview execution
// @BasePath      /api/v1

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alertctl/internal/core/version"
	"alertctl/internal/platform/config"
	"alertctl/internal/platform/logger"
	"alertctl/internal/platform/metrics"
	phttp "alertctl/internal/platform/net/http"
	"alertctl/internal/platform/store"

	"alertctl/internal/services/api"

	"golang.org/x/sync/errgroup"
)

func main() {
	version.SetService("alertctl-api")
	logOpt := logger.FromEnv()
	if logOpt.Service == "" {
		logOpt.Service = version.Info().Service
	}
	logOpt.Fields = map[string]string{"version": version.Info().Version}
	logger.Init(logOpt)
	l := logger.Get()

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// clickhouse is optional; without it previews and tuning have no metric source
	chURL := chCfg.MayString("DBURL", "")
	reg := metrics.New()
	st, err := store.Open(ctx, store.Config{
		AppName: "alertctl-api",
		Version: version.Info().Version,
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{Enabled: chURL != "", URL: chURL},
	}, store.WithLogger(*l), store.WithMetrics(reg))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	srv := phttp.NewServer(apiCfg)
	closeModules := api.Mount(srv.Router(), api.Options{
		Config:         apiCfg,
		Store:          st,
		Logger:         l,
		Metrics:        reg,
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
		EnableMetrics:  apiCfg.MayBool("METRICS", true),
		RequestTimeout: apiCfg.MayDuration("REQUEST_TIMEOUT", 2*time.Minute),
		SlowRequest:    apiCfg.MayDuration("SLOW_REQUEST", 5*time.Second),
		CORSOrigins:    apiCfg.MayCSV("CORS_ORIGINS", nil),
	})
	defer closeModules()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("http server stopped")
	}
}
