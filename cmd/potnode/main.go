// Command potnode runs one role (ingress, transit, or egress) of an
// IPv6 Segment Routing proof-of-transit node: one forwarding loop per
// queue, a periodic counters snapshot, and an HTTP/3 management
// endpoint, all sharing one immutable Config built at start-up.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/srv6pot/potnode/pkg/control"
	"github.com/srv6pot/potnode/pkg/dataplane"
	"github.com/srv6pot/potnode/pkg/driver"
	"github.com/srv6pot/potnode/pkg/nexthop"
	"github.com/srv6pot/potnode/pkg/potcfg"
	"github.com/srv6pot/potnode/pkg/potcrypto"
	"github.com/srv6pot/potnode/pkg/stats"
	"github.com/srv6pot/potnode/pkg/wire"
)

const (
	numQueues       = 1
	statsDBPath     = "potnode-counters.db"
	persistInterval = 30 * time.Second
	defaultMgmtAddr = "127.0.0.1:4443"
)

func main() {
	roleFlag := flag.String("role", "", "node role: ingress, transit, or egress")
	configPath := flag.String("config", "", "path to the TOML deployment file")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warning, error")
	mgmtAddr := flag.String("mgmt-addr", defaultMgmtAddr, "management endpoint listen address")
	flag.Parse()

	logger, err := buildLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "potnode: log level: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := loadConfig(*configPath, *roleFlag, *mgmtAddr)
	if err != nil {
		logger.Error("config load failed", zap.Error(err))
		os.Exit(1)
	}
	logger = logger.With(zap.String("role", cfg.Role.String()))

	counters := stats.New()
	store, err := stats.OpenStore(statsDBPath)
	if err != nil {
		logger.Error("counters store open failed", zap.Error(err))
		os.Exit(1)
	}
	if err := store.Load(counters); err != nil {
		logger.Warn("counters reload failed, starting from zero", zap.Error(err))
	}

	// The dataplane's packet-buffer interface is consumed from an
	// external driver (DPDK-style poll-mode NIC, or equivalent); this
	// binary wires the in-memory reference Port for bring-up, matching
	// the --config-less fallback's own "bring-up only" framing. A
	// deployment with real hardware substitutes its own driver.Port; the
	// buffers it hands the dataplane already carry their own headroom
	// budget, so no separate driver.Pool is threaded through forwarding.
	port := &driver.TestPort{}

	mgmtServer, err := control.NewServer(cfg.MgmtAddr, cfg, counters)
	if err != nil {
		logger.Error("management endpoint init failed", zap.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	shutdown := &atomic.Bool{}

	var workers sync.WaitGroup
	for q := 0; q < numQueues; q++ {
		workers.Add(1)
		go func(queue int) {
			defer workers.Done()
			dataplane.Loop(cfg, counters, port, queue, shutdown)
		}(q)
	}

	var bgTasks sync.WaitGroup
	bgTasks.Add(2)
	go func() {
		defer bgTasks.Done()
		runPersistLoop(ctx, store, counters, logger)
	}()
	go func() {
		defer bgTasks.Done()
		if err := mgmtServer.ListenAndServe(); err != nil {
			logger.Warn("management endpoint stopped", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	shutdown.Store(true)
	workers.Wait()
	cancel()
	// ListenAndServe only returns once Close is called, so the endpoint is
	// closed before waiting on the background goroutines.
	closeErr := mgmtServer.Close()
	bgTasks.Wait()

	shutdownErr := multierr.Combine(
		closeErr,
		store.Persist(counters),
		store.Close(),
	)
	cfg.Zeroise()

	if shutdownErr != nil {
		logger.Error("shutdown completed with errors", zap.Error(shutdownErr))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// buildLogger constructs the role-tagged structured sink. DEBUG-level
// fields are never evaluated once the configured level excludes them,
// since zap's own level check gates construction of the log entry.
func buildLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("unrecognised log level %q", level)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	return cfg.Build()
}

// loadConfig reads the deployment file, or falls back to two hard-coded
// next-hop entries and compile-time constants when configPath is empty,
// for bring-up only.
func loadConfig(configPath, cliRole, mgmtAddr string) (*potcfg.Config, error) {
	if configPath != "" {
		return potcfg.Load(configPath, cliRole, mgmtAddr)
	}

	role, err := potcfg.ParseRole(cliRole)
	if err != nil {
		return nil, err
	}

	table := nexthop.New()
	if err := table.Add("2001:db8::10", "02:00:00:00:00:02"); err != nil {
		return nil, err
	}
	if err := table.Add("2001:db8::100", "02:00:00:00:00:03"); err != nil {
		return nil, err
	}

	var k0, k1 [potcrypto.KeyLen]byte
	return &potcfg.Config{
		Role:            role,
		Bypass:          potcfg.BypassNone,
		NumTransitNodes: 1,
		SIDs:            [wire.NumSegments]net.IP{net.ParseIP("2001:db8::10"), net.ParseIP("2001:db8::100")},
		Keys:            [][potcrypto.KeyLen]byte{k0, k1},
		NextHops:        table,
		MgmtAddr:        mgmtAddr,
	}, nil
}

// runPersistLoop writes a counters snapshot on a fixed interval until
// ctx is cancelled. This is the one goroutine in the system that observes
// a context.Context; the management endpoint is stopped by its Close.
func runPersistLoop(ctx context.Context, store *stats.Store, counters *stats.Counters, logger *zap.Logger) {
	ticker := time.NewTicker(persistInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Persist(counters); err != nil {
				logger.Warn("periodic counters persist failed", zap.Error(err))
			}
		}
	}
}
