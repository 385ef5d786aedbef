// Package app wires the treasury runtime: the persistence driver, the
// ledger engine, the settlement scheduler, and the HTTP gateway.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tavernworks/treasury/internal/api/httpapi"
	"github.com/tavernworks/treasury/internal/economy"
	"github.com/tavernworks/treasury/internal/platform/timeouts"
	"github.com/tavernworks/treasury/internal/settlement"
	"github.com/tavernworks/treasury/internal/shop"
	"github.com/tavernworks/treasury/internal/storage"
	"github.com/tavernworks/treasury/internal/storage/bbolt"
	"github.com/tavernworks/treasury/internal/storage/sqlite"
	"github.com/tavernworks/treasury/internal/telemetry"
)

// Storage driver names accepted by RuntimeConfig.DBDriver.
const (
	DriverSQLite = "sqlite"
	DriverBBolt  = "bbolt"
)

const (
	defaultPort     = 8095
	defaultDBDriver = DriverSQLite
	defaultDBPath   = "data/treasury.db"
)

// RuntimeConfig controls treasury startup, persistence, and the
// settlement loop cadence.
type RuntimeConfig struct {
	Port               int
	DBDriver           string
	DBPath             string
	SettlementInterval time.Duration
}

// closableStore is the persistence surface plus the lifetime hook the
// runtime needs from a driver.
type closableStore interface {
	storage.Store
	Close() error
}

func openStore(driver, path string) (closableStore, error) {
	switch driver {
	case DriverSQLite:
		return sqlite.Open(path)
	case DriverBBolt:
		return bbolt.Open(path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// Run starts runtime dependencies, the settlement worker, and the HTTP
// server. It blocks until ctx ends or the server fails.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	if strings.TrimSpace(cfg.DBDriver) == "" {
		cfg.DBDriver = defaultDBDriver
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultDBPath
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
	}

	store, err := openStore(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.DBDriver, err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close %s store: %v", cfg.DBDriver, closeErr)
		}
	}()

	ledger, err := economy.NewLedger(store, economy.SettingsFromEnv())
	if err != nil {
		return fmt.Errorf("build ledger: %w", err)
	}
	shopSvc, err := shop.NewService(store, ledger)
	if err != nil {
		return fmt.Errorf("build shop service: %w", err)
	}
	emitter := telemetry.NewEmitter(store)

	worker := settlement.New(ledger, emitter, settlement.Config{PassInterval: cfg.SettlementInterval})
	stopWorker := worker.Start(ctx)
	defer stopWorker()

	gateway, err := httpapi.NewServer(ledger, shopSvc, emitter)
	if err != nil {
		return fmt.Errorf("build http gateway: %w", err)
	}
	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	serveErr := make(chan error, 1)
	log.Printf("treasury listening on %s driver=%s db=%s", httpServer.Addr, cfg.DBDriver, cfg.DBPath)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
