package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alertctl/internal/core/version"
	"alertctl/internal/modkit"
	"alertctl/internal/modkit/module"
	"alertctl/internal/platform/config"
	"alertctl/internal/platform/logger"
	"alertctl/internal/platform/metrics"
	"alertctl/internal/platform/store"

	onboardermod "alertctl/internal/services/onboarder/module"

	"golang.org/x/sync/errgroup"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	version.SetService("alertctl-onboarder")
	logOpt := logger.FromEnv()
	if logOpt.Service == "" {
		logOpt.Service = version.Info().Service
	}
	logOpt.Fields = map[string]string{"version": version.Info().Version}
	logger.Init(logOpt)
	l := logger.Get()

	var (
		fConc    = flag.Int("concurrency", 4, "detections onboarded in parallel")
		fBatch   = flag.Int("batch", 16, "tasks leased per poll")
		fLease   = flag.Duration("lease", 5*time.Minute, "how long a leased task stays claimed")
		fPoll    = flag.Duration("poll", 2*time.Second, "poll interval")
		fMaxAtt  = flag.Int("max_attempts", 3, "attempts before a task is marked FAILED")
		fMetrics = flag.String("metrics_addr", ":9102", "address serving /metrics, empty disables")
	)
	flag.Parse()

	// export as env so the module reads the same values through FromConfig
	mustSetEnv("ONBOARDER_CONCURRENCY", fmt.Sprintf("%d", *fConc))
	mustSetEnv("ONBOARDER_BATCH", fmt.Sprintf("%d", *fBatch))
	mustSetEnv("ONBOARDER_LEASE", fLease.String())
	mustSetEnv("ONBOARDER_POLL", fPoll.String())
	mustSetEnv("ONBOARDER_MAX_ATTEMPTS", fmt.Sprintf("%d", *fMaxAtt))

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chURL := chCfg.MayString("DBURL", "")
	reg := metrics.New()
	st, err := store.Open(ctx, store.Config{
		AppName: "alertctl-onboarder",
		Version: version.Info().Version,
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
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

	mod := onboardermod.New(modkit.Deps{
		Cfg:     root,
		PG:      st.PG,
		CH:      st.CH,
		Log:     *l,
		Metrics: reg,
	}, onboardermod.Options{
		Concurrency: *fConc,
		Batch:       *fBatch,
		Lease:       *fLease,
		Poll:        *fPoll,
		MaxAttempts: *fMaxAtt,
	})
	module.Register(mod.Name(), mod.Ports())
	ports, ok := module.Lookup[onboardermod.Ports](mod.Name())
	if !ok {
		l.Fatal().Str("module", mod.Name()).Msg("onboarder ports not registered")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ports.Worker.Run(gctx) })
	if *fMetrics != "" {
		ms := &http.Server{Addr: *fMetrics, Handler: metrics.Handler(reg), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			if err := ms.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return ms.Shutdown(context.Background())
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		l.Fatal().Err(err).Msg("onboarding worker failed")
	}
}
