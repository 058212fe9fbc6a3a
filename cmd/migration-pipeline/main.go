// Copyright 2025 James Ross
//
// migration-pipeline is the single binary every stage's controller,
// worker, and delivery dispatcher run from, selected by -role (and, for
// controller/worker, -stage). Splitting each stage into its own binary
// would just duplicate this wiring nine times over; a managed deployment
// runs N copies of this binary with different -role/-stage/-port flags
// instead.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/breaker"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/catalogapi"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/cliflags"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/obs"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/pipelineconfig"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/pipelinequery"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/queuepub"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/reaper"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/redisclient"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stagehttp"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/analytics"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/cleanup"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/convertvisibility"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/discover"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/enumerate"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/fetchpolicies"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/mapidentifiers"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/transfer"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stagetarget"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/warehouse"
)

const allStages = "discover|enumerate|mapidentifiers|fetchpolicies|convertvisibility|transfer|cleanup"

func main() {
	var role, stage, regions string
	var workerPort int
	var quotaService, quotaRegion string
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.StringVar(&role, "role", "", "controller|worker|dispatcher|reaper|analytics")
	fs.StringVar(&stage, "stage", "", "stage to run for -role=controller|worker: "+allStages)
	fs.StringVar(&regions, "regions", "", "comma-separated regions for -role=dispatcher (empty string means the base queue)")
	fs.IntVar(&workerPort, "worker-port", 8081, "port a -role=worker binds its task-delivery endpoint on")
	fs.StringVar(&quotaService, "quota-service", "target-catalog.googleapis.com", "service name queried for region RPS (mapidentifiers/fetchpolicies controllers)")
	fs.StringVar(&quotaRegion, "quota-region", "us-central1", "region the quota lookup is scoped to")
	common, err := cliflags.Parse(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg, err := pipelineconfig.Load(common.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if common.Queue != "" {
		cfg.Queue.BaseQueueName = common.Queue
	}

	logger, err := obs.NewLogger(cfg.Observability.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	tp, err := obs.InitTracing(obs.TracingConfig{
		Enabled:          cfg.Observability.TracingEnabled,
		Environment:      cfg.Observability.TracingEnvironment,
		SamplingStrategy: cfg.Observability.TracingSamplingStrat,
		SamplingRate:     cfg.Observability.TracingSamplingRate,
	})
	if err != nil {
		logger.Warn("tracing init failed", obs.Err(err))
	}
	if tp != nil {
		defer func() { _ = obs.TracerShutdown(context.Background(), tp) }()
	}

	rdb := redisclient.New(cfg.Redis)
	defer rdb.Close()

	wh, err := warehouse.Open(cfg.Warehouse, logger)
	if err != nil {
		logger.Fatal("failed to open warehouse", obs.Err(err))
	}
	defer wh.Close()

	queue := queuepub.New(cfg.Queue, rdb, logger)

	legacyBreaker := breaker.New(cfg.CircuitBreaker.Window, cfg.CircuitBreaker.CooldownPeriod, cfg.CircuitBreaker.FailureThreshold, cfg.CircuitBreaker.MinSamples)
	targetBreaker := breaker.New(cfg.CircuitBreaker.Window, cfg.CircuitBreaker.CooldownPeriod, cfg.CircuitBreaker.FailureThreshold, cfg.CircuitBreaker.MinSamples)
	legacyClient := catalogapi.NewRESTClient(cfg.LegacyCatalog).WithCircuitBreaker(legacyBreaker)
	targetClient := catalogapi.NewRESTClient(cfg.TargetCatalog).WithCircuitBreaker(targetBreaker)
	directory := catalogapi.NewRESTDirectoryClient(cfg.Directory)
	quota := catalogapi.NewRESTQuotaClient(cfg.Quotas)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("signal received, shutting down", obs.String("signal", sig.String()))
		cancel()
		select {
		case sig2 := <-sigCh:
			logger.Warn("second signal received, exiting immediately", obs.String("signal", sig2.String()))
			os.Exit(1)
		case <-time.After(5 * time.Second):
		}
	}()

	targeter := &stagetarget.ServiceTargeter{
		Service:         common.HandlerName,
		Publisher:       queue,
		Directory:       directory,
		AnchorProjectID: common.Project,
	}

	switch role {
	case "controller":
		readyCheck := func(c context.Context) error { return rdb.Ping(c).Err() }
		httpSrv := obs.StartHTTPServer(cfg.Observability.MetricsPort, readyCheck)
		defer func() { _ = httpSrv.Shutdown(context.Background()) }()
		obs.StartQueueDepthUpdater(ctx, queue, []string{""}, 5*time.Second, logger)

		if err := runController(ctx, stage, cfg, common, wh, queue, targeter, directory, quota, quotaService, quotaRegion, logger); err != nil {
			logger.Fatal("controller run failed", obs.String("stage", stage), obs.Err(err))
		}
	case "worker":
		metricsSrv := obs.StartHTTPServer(cfg.Observability.MetricsPort, nil)
		defer func() { _ = metricsSrv.Shutdown(context.Background()) }()
		runWorker(ctx, stage, workerPort, wh, queue, targeter, legacyClient, targetClient, directory, logger)
	case "dispatcher":
		metricsSrv := obs.StartMetricsServer(cfg.Observability.MetricsPort)
		defer func() { _ = metricsSrv.Shutdown(context.Background()) }()
		runDispatcher(ctx, rdb, cfg.Queue.BaseQueueName, regions, logger)
	case "reaper":
		regionList := strings.Split(regions, ",")
		if regions == "" {
			regionList = []string{""}
		}
		for i, r := range regionList {
			regionList[i] = strings.TrimSpace(r)
		}
		rp := reaper.New(rdb, logger, cfg.Queue.BaseQueueName, regionList, 30*time.Second)
		rp.Run(ctx)
	case "analytics":
		setup := &analytics.Setup{Store: wh, Database: cfg.Warehouse.Database, Log: logger}
		if err := setup.Run(ctx); err != nil {
			logger.Fatal("analytics setup failed", obs.Err(err))
		}
	default:
		logger.Fatal("unknown role, expected controller|worker|dispatcher|reaper|analytics", obs.String("role", role))
	}
}

func runController(
	ctx context.Context,
	stage string,
	cfg *pipelineconfig.Config,
	common *cliflags.Common,
	wh *warehouse.Adapter,
	queue *queuepub.Publisher,
	targeter *stagetarget.ServiceTargeter,
	directory *catalogapi.RESTDirectoryClient,
	quota *catalogapi.RESTQuotaClient,
	quotaService, quotaRegion string,
	logger *zap.Logger,
) error {
	workers := cfg.FanoutWorkers
	db := cfg.Warehouse.Database

	// Quota is the minimum of the per-project-per-region and
	// per-project-per-user-per-region read quotas for the target catalog.
	resolveQuota := func() (float64, error) {
		perMinute, err := quota.MinCatalogManagementQuotaPerMinute(ctx, quotaService, quotaRegion)
		if err != nil {
			return 0, err
		}
		return catalogapi.RPSFromQuota(perMinute), nil
	}

	switch stage {
	case "discover":
		c := &discover.Controller{Searcher: directory, Queue: queue, Target: targeter, Log: logger, Workers: workers}
		return c.Run(ctx, common.Scope)
	case "enumerate":
		projectIDs, err := pipelinequery.ProjectIDsInScope(ctx, wh, db)
		if err != nil {
			return err
		}
		c := &enumerate.Controller{Store: wh, Queue: queue, Target: targeter, Log: logger, Workers: workers}
		return c.Run(ctx, projectIDs)
	case "mapidentifiers":
		resources, err := pipelinequery.MapIdentifierCandidates(ctx, wh, db)
		if err != nil {
			return err
		}
		rps, err := resolveQuota()
		if err != nil {
			return err
		}
		c := &mapidentifiers.Controller{Preparer: queue, Queue: queue, Target: targeter, Log: logger, Workers: workers}
		return c.Run(ctx, resources, rps, float64(common.QuotaPercent))
	case "fetchpolicies":
		resources, err := pipelinequery.FetchPolicyCandidates(ctx, wh, db)
		if err != nil {
			return err
		}
		rps, err := resolveQuota()
		if err != nil {
			return err
		}
		c := &fetchpolicies.Controller{Preparer: queue, Queue: queue, Target: targeter, Log: logger, Workers: workers}
		return c.Run(ctx, resources, rps, float64(common.QuotaPercent))
	case "convertvisibility":
		templates, err := pipelinequery.VisibilityCandidates(ctx, wh, db)
		if err != nil {
			return err
		}
		c := &convertvisibility.Controller{Queue: queue, Target: targeter, Log: logger, Workers: workers}
		return c.Run(ctx, templates)
	case "transfer":
		resources, err := pipelinequery.TransferCandidates(ctx, wh, db)
		if err != nil {
			return err
		}
		c := &transfer.Controller{Queue: queue, Target: targeter, Log: logger, Workers: workers}
		return c.Run(ctx, resources)
	case "cleanup":
		resources, err := pipelinequery.CleanupCandidates(ctx, wh, db)
		if err != nil {
			return err
		}
		c := &cleanup.Controller{Queue: queue, Target: targeter, Log: logger, Workers: workers}
		return c.Run(ctx, resources)
	default:
		return fmt.Errorf("unknown -stage %q, expected one of %s", stage, allStages)
	}
}

func runWorker(
	ctx context.Context,
	stage string,
	port int,
	wh *warehouse.Adapter,
	queue *queuepub.Publisher,
	targeter *stagetarget.ServiceTargeter,
	legacyClient, targetClient *catalogapi.RESTClient,
	directory *catalogapi.RESTDirectoryClient,
	logger *zap.Logger,
) {
	mux := http.NewServeMux()
	switch stage {
	case "discover":
		w := &discover.Worker{Store: wh, Ancestry: directory, Log: logger}
		mux.Handle("/", stagehttp.ErrorHandler(stage, logger, func(r *http.Request, p json.RawMessage) error {
			return w.Handle(r.Context(), p)
		}))
	case "enumerate":
		w := &enumerate.Worker{Store: wh, Catalog: legacyClient, Queue: queue, Target: targeter, Log: logger}
		mux.Handle("/", stagehttp.ErrorHandler(stage, logger, func(r *http.Request, p json.RawMessage) error {
			return w.Handle(r.Context(), p)
		}))
	case "mapidentifiers":
		w := &mapidentifiers.Worker{Resolver: targetClient, Store: wh, Log: logger}
		mux.Handle("/", stagehttp.ErrorHandler(stage, logger, func(r *http.Request, p json.RawMessage) error {
			return w.Handle(r.Context(), p)
		}))
	case "fetchpolicies":
		w := &fetchpolicies.Worker{Legacy: legacyClient, Target: targetClient, Store: wh, Log: logger}
		mux.Handle("/", stagehttp.ErrorHandler(stage, logger, func(r *http.Request, p json.RawMessage) error {
			return w.Handle(r.Context(), p)
		}))
	case "convertvisibility":
		w := &convertvisibility.Worker{Resolver: targetClient, Log: logger}
		mux.Handle("/", stagehttp.OutcomeHandler(stage, logger, func(r *http.Request, p json.RawMessage) (stagehttp.Outcome, error) {
			o, err := w.Handle(r.Context(), p)
			return stagehttp.Outcome{Status: o.Status, Message: o.Message}, err
		}))
	case "transfer":
		w := &transfer.Worker{Transferrer: legacyClient, Log: logger}
		mux.Handle("/", stagehttp.OutcomeHandler(stage, logger, func(r *http.Request, p json.RawMessage) (stagehttp.Outcome, error) {
			o, err := w.Handle(r.Context(), p)
			return stagehttp.Outcome{Status: o.Status, Message: o.Message}, err
		}))
	case "cleanup":
		w := &cleanup.Worker{Cleaner: legacyClient, Log: logger}
		mux.Handle("/", stagehttp.OutcomeHandler(stage, logger, func(r *http.Request, p json.RawMessage) (stagehttp.Outcome, error) {
			o, err := w.Handle(r.Context(), p)
			return stagehttp.Outcome{Status: o.Status, Message: o.Message}, err
		}))
	default:
		logger.Fatal("unknown -stage, expected one of "+allStages, obs.String("stage", stage))
	}

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("worker HTTP server failed", obs.Err(err))
		}
	}()
	logger.Info("worker listening", obs.String("stage", stage), obs.Int("port", port))
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// runDispatcher polls each named region's subqueue in round-robin order,
// delivering one task at a time over HTTP via queuepub.Dispatcher. An empty
// regions string dispatches the base (unregioned) queue alone.
func runDispatcher(ctx context.Context, rdb *redis.Client, baseQueue, regions string, logger *zap.Logger) {
	regionList := strings.Split(regions, ",")
	if regions == "" {
		regionList = []string{""}
	}
	for i, r := range regionList {
		regionList[i] = strings.TrimSpace(r)
	}

	d := queuepub.NewDispatcher(rdb, logger)
	logger.Info("dispatcher starting", obs.String("baseQueue", baseQueue), obs.String("regions", regions))
	idx := 0
	for {
		select {
		case <-ctx.Done():
			logger.Info("dispatcher stopping")
			return
		default:
		}
		region := regionList[idx%len(regionList)]
		idx++
		did, err := d.RunOne(ctx, baseQueue, region, 2*time.Second)
		if err != nil {
			logger.Warn("dispatch failed", obs.String("region", region), obs.Err(err))
		}
		if !did {
			time.Sleep(200 * time.Millisecond)
		}
	}
}
