// Command kvs-server runs the TCP front end for the key-value store.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"kvs/internal/boltengine"
	"kvs/internal/engine"
	"kvs/internal/pool"
	"kvs/internal/server"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:4000", "listen address")
	engineKind := flag.String("engine", "kvs", "storage engine: kvs|bolt")
	dataDir := flag.String("dir", "kvs-data", "data directory")
	poolKind := flag.String("pool", "shared", "thread pool: naive|shared|bounded")
	threads := flag.Int("threads", 8, "worker count for the shared/bounded pools")
	compactionThreshold := flag.String("compaction-threshold", "1MiB", "stale bytes the kvs engine's log may accumulate before compacting, e.g. 1MiB, 512kB")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	os.Exit(run(*addr, *engineKind, *dataDir, *poolKind, *compactionThreshold, *threads, log))
}

func run(addr, engineKind, dataDir, poolKind, compactionThreshold string, threads int, log *zap.SugaredLogger) int {
	eng, err := openEngine(engineKind, dataDir, compactionThreshold, log)
	if err != nil {
		log.Errorw("failed to open engine", "error", err)
		return 1
	}

	p, err := openPool(poolKind, threads, log)
	if err != nil {
		log.Errorw("failed to start thread pool", "error", err)
		eng.Close()
		return 1
	}

	srv := server.New(addr, eng, p, log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infow("shutting down")
		srv.Stop()
	}()

	runErr := srv.Run()

	p.Close()
	closeErr := eng.Close()

	if runErr != nil {
		log.Errorw("server exited with error", "error", runErr)
		return 1
	}
	if closeErr != nil {
		log.Errorw("error closing engine", "error", closeErr)
		return 1
	}
	return 0
}

func openEngine(kind, dir, compactionThreshold string, log *zap.SugaredLogger) (engine.Engine, error) {
	switch kind {
	case "kvs":
		cfg := engine.DefaultConfig()
		threshold, err := engine.ParseThreshold(compactionThreshold)
		if err != nil {
			return nil, err
		}
		cfg.CompactionThreshold = threshold
		return engine.OpenWithConfig(dir, log, cfg)
	case "bolt":
		return boltengine.Open(dir)
	default:
		return nil, fmt.Errorf("unknown engine %q (want kvs or bolt)", kind)
	}
}

func openPool(kind string, threads int, log *zap.SugaredLogger) (pool.Pool, error) {
	switch kind {
	case "naive":
		return pool.NewNaivePool(threads)
	case "shared":
		return pool.NewSharedQueuePool(threads, log)
	case "bounded":
		return pool.NewBoundedPool(threads)
	default:
		return nil, fmt.Errorf("unknown pool %q (want naive, shared or bounded)", kind)
	}
}
