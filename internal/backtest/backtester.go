package backtest

import (
	"github.com/protrade/protrade/internal/core"
	"go.uber.org/zap"
)

// Backtester runs the full pipeline: simulation, trade segmentation,
// metrics, calendar aggregates and regime breakdown.
type Backtester struct {
	log *zap.Logger
}

// New creates a Backtester.
func New(log *zap.Logger) *Backtester {
	return &Backtester{log: log}
}

// Run simulates the dataset under the given parameters and assembles the
// complete result. The error is a validation error for rejected input
// (bad parameters, no usable rows) and a computation error otherwise;
// partial results are never returned.
func (b *Backtester) Run(name string, points []core.PricePoint, cfg Config) (*Result, error) {
	rows, err := Simulate(points, cfg)
	if err != nil {
		return nil, err
	}

	trades := SegmentTrades(rows, cfg.InitialCapital)
	strategyReturns, assetReturns := returnColumns(rows)

	res := &Result{
		Dataset:         name,
		Rows:            rows,
		Trades:          trades,
		StrategyMetrics: CalculateMetrics(strategyReturns, cfg.RiskFreeRate, cfg.PeriodsPerYear),
		AssetMetrics:    CalculateMetrics(assetReturns, cfg.RiskFreeRate, cfg.PeriodsPerYear),
		TradeMetrics:    CalculateTradeMetrics(trades),
		Monthly:         MonthlyReturns(rows),
		Quarterly:       QuarterlyReturns(rows),
		Yearly:          YearlyReturns(rows),
		Regimes:         RegimePerformance(rows, cfg),
	}
	if rows[0].HasTime() {
		res.Start = rows[0].Time
		res.End = rows[len(rows)-1].Time
	}

	b.log.Info("backtest complete",
		zap.String("dataset", name),
		zap.Int("rows", len(rows)),
		zap.Int("trades", len(trades)),
		zap.Float64("total_return", res.StrategyMetrics.TotalReturn),
	)

	return res, nil
}

// returnColumns extracts the two return series from the simulation rows.
func returnColumns(rows []SimulationRow) (strategy, asset []float64) {
	strategy = make([]float64, len(rows))
	asset = make([]float64, len(rows))
	for i, r := range rows {
		strategy[i] = r.StrategyReturn
		asset[i] = r.AssetReturn
	}
	return strategy, asset
}
