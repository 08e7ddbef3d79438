package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/protrade/protrade/internal/backtest"
	"github.com/protrade/protrade/internal/config"
	"github.com/protrade/protrade/internal/core"
	"github.com/protrade/protrade/internal/dataset"
	"github.com/protrade/protrade/internal/metrics"
	dsstore "github.com/protrade/protrade/internal/storage/dataset"
	"go.uber.org/zap"
)

// App wires the dataset store, the simulation engine and the business
// metrics together. The HTTP API and the CLI both run backtests through it.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   dsstore.Store
	engine  *backtest.Backtester
	metrics *metrics.Registry
}

// New creates a new App instance.
func New(cfg *config.Config, store dsstore.Store, reg *metrics.Registry, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &App{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		engine:  backtest.New(logger),
		metrics: reg,
	}
}

// OpenStore builds the dataset store selected by the storage configuration.
func OpenStore(cfg config.StorageConfig) (dsstore.Store, error) {
	switch cfg.Type {
	case "", "memory":
		return dsstore.NewMemory(cfg.MaxDatasets), nil
	case "localfs":
		return dsstore.NewFiles(cfg.Path)
	case "s3":
		return dsstore.NewS3(dsstore.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown storage type %q", cfg.Type))
	}
}

// Store returns the dataset store.
func (a *App) Store() dsstore.Store {
	return a.store
}

// Overrides carries optional per-run parameter overrides from an API
// request or CLI flags. Nil fields keep the configured defaults.
type Overrides struct {
	InitialCapital *float64
	Leverage       *float64
	RiskFreeRate   *float64
	PeriodsPerYear *int
	RegimeWindow   *int
}

func (a *App) runConfig(ov Overrides) backtest.Config {
	cfg := backtest.Config{
		InitialCapital: a.cfg.Backtest.InitialCapital,
		Leverage:       a.cfg.Backtest.Leverage,
		RiskFreeRate:   a.cfg.Backtest.RiskFreeRate,
		PeriodsPerYear: a.cfg.Backtest.PeriodsPerYear,
		RegimeWindow:   a.cfg.Backtest.RegimeWindow,
	}
	if ov.InitialCapital != nil {
		cfg.InitialCapital = *ov.InitialCapital
	}
	if ov.Leverage != nil {
		cfg.Leverage = *ov.Leverage
	}
	if ov.RiskFreeRate != nil {
		cfg.RiskFreeRate = *ov.RiskFreeRate
	}
	if ov.PeriodsPerYear != nil {
		cfg.PeriodsPerYear = *ov.PeriodsPerYear
	}
	if ov.RegimeWindow != nil {
		cfg.RegimeWindow = *ov.RegimeWindow
	}
	return cfg
}

// CheckOverrides validates the merged run parameters without running
// anything. The API uses it to reject bad requests before a job exists.
func (a *App) CheckOverrides(ov Overrides) error {
	return a.runConfig(ov).Validate()
}

// AddDataset parses a CSV upload and stores it under a fresh ID.
func (a *App) AddDataset(ctx context.Context, r io.Reader, name string) (*dataset.Dataset, error) {
	ds, err := dataset.Parse(r, name)
	if err != nil {
		return nil, err
	}
	if _, err := a.store.Put(ctx, ds); err != nil {
		return nil, err
	}
	a.metrics.RecordDatasetLoaded()
	a.logger.Info("dataset stored",
		zap.String("id", ds.ID),
		zap.String("name", ds.Name),
		zap.Int("rows", len(ds.Points)))
	return ds, nil
}

// RunBacktest loads a stored dataset and runs the engine on it.
func (a *App) RunBacktest(ctx context.Context, datasetID string, ov Overrides) (*backtest.Result, error) {
	ds, err := a.store.Get(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	return a.Run(ds, ov)
}

// Run executes a backtest against an already loaded dataset and records
// the business metrics for the run.
func (a *App) Run(ds *dataset.Dataset, ov Overrides) (*backtest.Result, error) {
	cfg := a.runConfig(ov)

	startedAt := time.Now()
	res, err := a.engine.Run(ds.Name, ds.Points, cfg)
	elapsed := time.Since(startedAt).Seconds()

	if err != nil {
		a.metrics.RecordBacktest("error", elapsed)
		return nil, err
	}
	a.metrics.RecordBacktest("ok", elapsed)

	a.logger.Info("backtest finished",
		zap.String("dataset", ds.Name),
		zap.Int("rows", len(res.Rows)),
		zap.Int("trades", len(res.Trades)),
		zap.Float64("seconds", elapsed))
	return res, nil
}
