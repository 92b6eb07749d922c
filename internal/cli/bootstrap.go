package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/SscSPs/schoolbooks/internal/audit"
	"github.com/SscSPs/schoolbooks/internal/chart"
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/schoolbooks/internal/core/ports/services"
	"github.com/SscSPs/schoolbooks/internal/core/services"
	"github.com/SscSPs/schoolbooks/internal/platform/config"
	"github.com/SscSPs/schoolbooks/internal/platform/metrics"
	"github.com/SscSPs/schoolbooks/internal/repositories/database/pgsql"
	"github.com/SscSPs/schoolbooks/internal/repositories/memory"
	"github.com/SscSPs/schoolbooks/pkg/database"
)

// app is everything a command needs once configuration has been loaded.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    portsrepo.Store
	services *portssvc.ServiceContainer
	close    func()
}

// newLogger builds the JSON logger used by every command.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

// loadConfig reads configuration and sets up logging.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	return cfg, newLogger(level), nil
}

func serviceOptions(logger *slog.Logger) []services.ServiceOption {
	return []services.ServiceOption{services.WithAuditSink(audit.NewSlogSink(logger))}
}

// openApp loads configuration from the environment and opens the store.
func openApp(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openStore(ctx, cfg, logger)
}

// openStore connects to the configured store, loads the chart of accounts and
// wires the ledger services. The postgres store must already be provisioned;
// the memory store is provisioned from the chart file on every start.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	metrics.Init()
	options := serviceOptions(logger)

	a := &app{cfg: cfg, logger: logger, close: func() {}}

	var chartSvc portssvc.ChartSvc
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		accounts, currencies, err := chart.Load(cfg.ChartFile)
		if err != nil {
			return nil, err
		}
		chartSvc, err = services.ProvisionChart(ctx, store, accounts, currencies, actingAs, options...)
		if err != nil {
			return nil, err
		}
		a.store = store
		logger.Warn("Using the in-memory store; ledger data is lost on exit")
	default:
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database pool: %w", err)
		}
		store := pgsql.NewStore(pool)
		chartSvc, err = services.LoadChartService(ctx, store.Repositories())
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("chart of accounts is not provisioned, run `schoolbooks provision`: %w", err)
		}
		a.store = store
		a.close = pool.Close
		logger.Info("Database connection pool established.")
	}

	a.services = services.NewServiceContainer(a.store, chartSvc, options...)
	return a, nil
}
