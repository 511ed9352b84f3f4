package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/execdb"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/repository"
	"main/internal/router"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to JSON config")
	flag.Parse()

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Workers run on their own context so the shutdown signal never aborts
	// them mid-queue; the Stop cascade below performs the drain.
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if loaded.Profiling.Enabled {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: loaded.Profiling.AppName,
			ServerAddress:   loaded.Profiling.ServerAddress,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	repo, err := openRepository(loaded)
	if err != nil {
		log.Fatalf("repository open failed: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logs.Errorf("repository close failed, err: %+v", err)
		}
	}()

	metrics := obs.NewMetrics()
	store, err := execdb.NewStore(repo, metrics)
	if err != nil {
		log.Fatalf("execution database build failed: %v", err)
	}
	if err := store.LoadCaches(); err != nil {
		log.Fatalf("cache load failed: %v", err)
	}
	store.CheckResiduals()

	adapter := bus.NewAdapter(metrics)
	eng := newEngine(store, adapter)
	engineMailbox := bus.NewMailbox(addrEngine, eng.handle)

	if err := adapter.InitializeSwitchboard(map[bus.Address]*bus.Mailbox{
		addrEngine: engineMailbox,
	}); err != nil {
		log.Fatalf("switchboard install failed: %v", err)
	}
	adapter.RegisterDeadLetterHandler(func(e bus.Envelope) {
		logs.Errorf("dead letter: receiver %s from %s", e.Receiver, e.Sender)
	})

	cmdRouter, err := router.NewCommandRouter(engineMailbox, loaded.Router, metrics)
	if err != nil {
		log.Fatalf("command router build failed: %v", err)
	}

	engineMailbox.Start(runCtx)
	adapter.Start(runCtx)
	cmdRouter.Start(runCtx)
	logs.Infof("execution service running, backend: %s", loaded.Backend)

	<-signalCtx.Done()
	logs.Info("shutdown signal received")

	cmdRouter.Stop()
	adapter.Stop()
	engineMailbox.Stop()
	cancelRun()

	snap := metrics.Snapshot()
	logs.Infof("delivered %d, dead letters %d, throttle delays %d, duplicate keys %d, index drift %d, residuals %d",
		snap.Delivered, snap.DeadLetters, snap.ThrottleDelays, snap.DuplicateKeys, snap.IndexDrift, snap.Residuals)
}

func openRepository(loaded ops.Loaded) (repository.Store, error) {
	switch loaded.Backend {
	case ops.BackendPebble:
		return repository.OpenPebble(loaded.Path)
	case ops.BackendPostgres:
		return repository.OpenPostgres(loaded.Postgres)
	default:
		return repository.NewMemory(), nil
	}
}
