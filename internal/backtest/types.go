package backtest

import (
	"fmt"
	"time"

	"github.com/protrade/protrade/internal/core"
)

// Config holds the simulation parameters for a single run.
type Config struct {
	InitialCapital float64
	Leverage       float64
	RiskFreeRate   float64 // annual, fractional
	PeriodsPerYear int
	RegimeWindow   int
}

// Validate checks the parameters against their allowed ranges.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return core.WrapError(core.ErrInvalidParams,
			fmt.Errorf("initial capital must be positive, got %g", c.InitialCapital))
	}
	if c.Leverage < 0.1 || c.Leverage > 10.0 {
		return core.WrapError(core.ErrInvalidParams,
			fmt.Errorf("leverage must be between 0.1 and 10.0, got %g", c.Leverage))
	}
	if c.PeriodsPerYear < 1 {
		return core.WrapError(core.ErrInvalidParams,
			fmt.Errorf("periods per year must be positive, got %d", c.PeriodsPerYear))
	}
	if c.RegimeWindow < 1 {
		return core.WrapError(core.ErrInvalidParams,
			fmt.Errorf("regime window must be positive, got %d", c.RegimeWindow))
	}
	return nil
}

// SimulationRow is one period of the simulation: the input point plus the
// derived return, position and equity columns. StrategyReturn[i] uses the
// position decided at i-1, so no row's return depends on its own forecast.
type SimulationRow struct {
	core.PricePoint
	AssetReturn     float64
	Position        float64
	ShiftedPosition float64
	StrategyReturn  float64
	AssetEquity     float64
	StrategyEquity  float64
}

// Trade is a maximal contiguous run of periods holding one direction,
// delimited by forecast sign flips or transitions to flat.
type Trade struct {
	StartIndex int
	EndIndex   int
	StartTime  time.Time
	EndTime    time.Time
	Direction  core.Direction
	PnL        float64 // fractional return on the equity basis
	PnLAbs     float64 // capital units
	Duration   int     // periods
}

// IsWin returns true if the trade was profitable
func (t Trade) IsWin() bool {
	return t.PnL > 0
}

// PeriodMetrics holds annualized risk/return statistics over a return
// series. MaxDrawdown and AvgDrawdown are negative fractions; CVaR95 is
// the 5th-percentile period return (a quantile, despite the name).
type PeriodMetrics struct {
	TotalReturn float64
	CAGR        float64
	Volatility  float64
	Sharpe      float64
	Sortino     float64
	Calmar      float64
	MaxDrawdown float64
	AvgDrawdown float64
	CVaR95      float64
}

// TradeMetrics holds statistics over the discrete trade list. The zero
// value is the result for an empty list. ProfitFactor is +Inf when there
// are trades but no losing ones.
type TradeMetrics struct {
	TotalTrades  int
	WinRate      float64
	AvgTrade     float64
	AvgWin       float64
	AvgLoss      float64
	AvgDuration  float64
	ProfitFactor float64
	Expectancy   float64
}

// PeriodReturn is the compounded strategy and asset return over one
// calendar bucket. Month is set for monthly buckets, Quarter for
// quarterly ones; yearly buckets set neither.
type PeriodReturn struct {
	Year     int
	Month    time.Month
	Quarter  int
	Strategy float64
	Asset    float64
}

// Label renders the bucket for display: "2024-03", "2024 Q1" or "2024".
func (p PeriodReturn) Label() string {
	switch {
	case p.Month != 0:
		return fmt.Sprintf("%d-%02d", p.Year, int(p.Month))
	case p.Quarter != 0:
		return fmt.Sprintf("%d Q%d", p.Year, p.Quarter)
	default:
		return fmt.Sprintf("%d", p.Year)
	}
}

// Regime classifies the prevailing market trend over a rolling window.
type Regime string

const (
	RegimeStrongBull Regime = "Strong Bull"
	RegimeBull       Regime = "Bull"
	RegimeSideways   Regime = "Sideways"
	RegimeBear       Regime = "Bear"
	RegimeStrongBear Regime = "Strong Bear"
)

// RegimeStat is the compounded performance of both series within one
// market regime.
type RegimeStat struct {
	Regime   Regime
	Strategy float64
	Asset    float64
	Periods  int
}

// Result holds the complete backtest output
type Result struct {
	Dataset         string
	Start           time.Time
	End             time.Time
	Rows            []SimulationRow
	Trades          []Trade
	StrategyMetrics PeriodMetrics
	AssetMetrics    PeriodMetrics
	TradeMetrics    TradeMetrics
	Monthly         []PeriodReturn
	Quarterly       []PeriodReturn
	Yearly          []PeriodReturn
	Regimes         []RegimeStat
}
