package backtest

import (
	"fmt"
	"math"
	"sort"

	"github.com/protrade/protrade/internal/core"
)

// Simulate derives the per-period return, position and equity columns from
// a price/forecast series. Rows without a forecast value are dropped before
// anything else, so row 0 of the output is the first period with a signal;
// surviving rows are re-indexed from 0.
//
// The position sizing is forecast/10 scaled by leverage, applied with a
// one-period lag: the return realized at row i uses the position decided
// at row i-1. Row 0 therefore always has a zero strategy return.
func Simulate(points []core.PricePoint, cfg Config) ([]SimulationRow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pts := make([]core.PricePoint, len(points))
	copy(pts, points)

	// Order by timestamp. Datasets without dates have all-zero times and
	// keep their input order (the sort is stable).
	sort.SliceStable(pts, func(i, j int) bool {
		return pts[i].Time.Before(pts[j].Time)
	})

	rows := make([]SimulationRow, 0, len(pts))
	for _, p := range pts {
		if !p.HasForecast() {
			continue
		}
		if !p.IsValid() {
			return nil, core.WrapError(core.ErrMalformedData,
				fmt.Errorf("non-finite close at row %d", p.Index))
		}
		p.Index = len(rows)
		rows = append(rows, SimulationRow{PricePoint: p})
	}
	if len(rows) == 0 {
		return nil, core.ErrNoUsableRows
	}

	assetEquity := cfg.InitialCapital
	strategyEquity := cfg.InitialCapital

	for i := range rows {
		if i > 0 {
			rows[i].AssetReturn = rows[i].Close/rows[i-1].Close - 1
			rows[i].ShiftedPosition = rows[i-1].Position
		}
		if !isFinite(rows[i].AssetReturn) {
			return nil, core.WrapError(core.ErrMalformedData,
				fmt.Errorf("non-finite asset return at row %d", i))
		}

		rows[i].Position = rows[i].Forecast / 10.0 * cfg.Leverage
		rows[i].StrategyReturn = rows[i].AssetReturn * rows[i].ShiftedPosition

		assetEquity *= 1 + rows[i].AssetReturn
		strategyEquity *= 1 + rows[i].StrategyReturn
		rows[i].AssetEquity = assetEquity
		rows[i].StrategyEquity = strategyEquity
	}

	return rows, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
