package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/api/rest/handlers"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/api/rest/routes"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/config"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/deploy"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/events"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/monitor"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/policy"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/repository"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/runner"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/sanitizer"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/storage"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/storage/memory"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/versioning"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/providers/aws"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage backend
	var store storage.Store
	switch cfg.StorageBackend {
	case "memory":
		store = memory.NewStore()
		logger.Info("using in-memory storage")
	default:
		db, err := repository.NewDB(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer db.Close()
		store = repository.NewStore(db)
		logger.Info("database connected")
	}

	// Tier catalog and pricing
	catalog, err := policy.LoadCatalog(cfg.TierConfigPath)
	if err != nil {
		logger.Fatal("loading tier catalog", zap.Error(err))
	}

	machineTypes := make([]string, 0, len(catalog.Machines))
	for m := range catalog.Machines {
		machineTypes = append(machineTypes, m)
	}

	var rateSource policy.RateSource
	if cfg.PricingRefresh > 0 {
		awsClient, err := aws.NewClient(ctx, cfg.AWSRegion, machineTypes)
		if err != nil {
			logger.Warn("aws pricing unavailable, serving catalog rates", zap.Error(err))
		} else {
			rateSource = awsClient
		}
	}
	rates := policy.NewRateCache(catalog, rateSource, cfg.PricingRefresh, logger)
	go rates.StartRefreshWorker(ctx)

	enforcer := policy.NewEnforcer(catalog, rates)
	bus := events.NewBus()

	// Orchestration core
	mon := monitor.NewMonitor(store, store, store, enforcer, bus, logger)
	switch cfg.Runner {
	case "aws":
		awsClient, err := aws.NewClient(ctx, cfg.AWSRegion, machineTypes)
		if err != nil {
			logger.Fatal("aws runner setup failed", zap.Error(err))
		}
		mon.SetRunner(aws.NewTrainer(awsClient, cfg.TrainerAMI, cfg.TrainerProfile, cfg.CallbackURL))
		logger.Info("using aws trainer", zap.String("region", cfg.AWSRegion))
	default:
		mon.SetRunner(runner.NewLocal(mon.OnStatusUpdate, 200*time.Millisecond, logger))
		logger.Info("using local runner")
	}

	scripts := versioning.NewStore(store, store, logger)
	registrar := deploy.NewRegistrar(store, store, store, bus, logger)

	// HTTP surface
	r := mux.NewRouter()
	routes.SetupRoutes(r,
		handlers.NewProjectHandler(store, bus, logger),
		handlers.NewScriptHandler(scripts, store, store, sanitizer.NewScanner(), logger),
		handlers.NewJobHandler(mon, store, store, logger),
		handlers.NewModelHandler(registrar, store, logger),
	)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
