package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/protrade/protrade/internal/core"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func testConfig() Config {
	return Config{
		InitialCapital: 1000,
		Leverage:       1.0,
		RiskFreeRate:   0,
		PeriodsPerYear: 756,
		RegimeWindow:   21,
	}
}

// points builds a dated series with one bar every 8 hours.
func points(close, forecast []float64) []core.PricePoint {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]core.PricePoint, len(close))
	for i := range close {
		pts[i] = core.PricePoint{
			Index:    i,
			Time:     base.Add(time.Duration(i) * 8 * time.Hour),
			Close:    close[i],
			Forecast: forecast[i],
		}
	}
	return pts
}

func TestSimulate_WorkedScenario(t *testing.T) {
	rows, err := Simulate(points(
		[]float64{100, 101, 102, 99, 100},
		[]float64{10, 10, 10, -10, -10},
	), testConfig())
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}

	wantAssetReturn := []float64{0, 101.0/100 - 1, 102.0/101 - 1, 99.0/102 - 1, 100.0/99 - 1}
	wantShifted := []float64{0, 1, 1, 1, -1}
	wantStrategyReturn := []float64{0, 101.0/100 - 1, 102.0/101 - 1, 99.0/102 - 1, -(100.0/99 - 1)}
	wantStrategyEquity := []float64{1000, 1010, 1020, 990, 980}
	wantAssetEquity := []float64{1000, 1010, 1020, 990, 1000}

	for i, row := range rows {
		if !approxEqual(row.AssetReturn, wantAssetReturn[i]) {
			t.Errorf("row %d AssetReturn = %v, want %v", i, row.AssetReturn, wantAssetReturn[i])
		}
		if !approxEqual(row.ShiftedPosition, wantShifted[i]) {
			t.Errorf("row %d ShiftedPosition = %v, want %v", i, row.ShiftedPosition, wantShifted[i])
		}
		if !approxEqual(row.StrategyReturn, wantStrategyReturn[i]) {
			t.Errorf("row %d StrategyReturn = %v, want %v", i, row.StrategyReturn, wantStrategyReturn[i])
		}
		if !approxEqual(row.StrategyEquity, wantStrategyEquity[i]) {
			t.Errorf("row %d StrategyEquity = %v, want %v", i, row.StrategyEquity, wantStrategyEquity[i])
		}
		if !approxEqual(row.AssetEquity, wantAssetEquity[i]) {
			t.Errorf("row %d AssetEquity = %v, want %v", i, row.AssetEquity, wantAssetEquity[i])
		}
	}
}

// Changing the forecast at row i must leave that row's strategy return
// untouched; positions act one period later.
func TestSimulate_NoLookahead(t *testing.T) {
	close := []float64{100, 101, 102, 99, 100, 103}
	forecast := []float64{10, 10, 10, -10, -10, 5}

	base, err := Simulate(points(close, forecast), testConfig())
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	perturbed := make([]float64, len(forecast))
	copy(perturbed, forecast)
	perturbed[2] = -20

	mod, err := Simulate(points(close, perturbed), testConfig())
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	for i := 0; i <= 2; i++ {
		if !approxEqual(base[i].StrategyReturn, mod[i].StrategyReturn) {
			t.Errorf("row %d strategy return changed by a same-row forecast edit", i)
		}
	}
	if approxEqual(base[3].StrategyReturn, mod[3].StrategyReturn) {
		t.Error("row 3 strategy return should reflect the row 2 forecast change")
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	pts := points(
		[]float64{100, 101, 102, 99, 100},
		[]float64{10, 10, 10, -10, -10},
	)

	a, err := Simulate(pts, testConfig())
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	b, err := Simulate(pts, testConfig())
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("row %d differs between identical runs", i)
		}
	}
}

func TestSimulate_DropsMissingForecast(t *testing.T) {
	nan := math.NaN()
	rows, err := Simulate(points(
		[]float64{90, 95, 100, 101, 102, 103},
		[]float64{nan, nan, 10, 10, nan, 10},
	), testConfig())
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	if len(rows) != 4 {
		t.Fatalf("expected 4 rows after dropping missing forecasts, got %d", len(rows))
	}

	// Survivors are re-indexed and the first one restarts the series.
	for i, row := range rows {
		if row.Index != i {
			t.Errorf("row %d Index = %d, want %d", i, row.Index, i)
		}
	}
	if rows[0].Close != 100 {
		t.Errorf("first retained close = %v, want 100", rows[0].Close)
	}
	if rows[0].AssetReturn != 0 {
		t.Errorf("first retained row must have zero return, got %v", rows[0].AssetReturn)
	}

	// The gap row is gone: the return at the row after the gap spans it.
	if !approxEqual(rows[3].AssetReturn, 103.0/101-1) {
		t.Errorf("post-gap return = %v, want %v", rows[3].AssetReturn, 103.0/101-1)
	}
}

func TestSimulate_NoUsableRows(t *testing.T) {
	nan := math.NaN()
	_, err := Simulate(points(
		[]float64{100, 101},
		[]float64{nan, nan},
	), testConfig())
	if err == nil {
		t.Fatal("expected error for all-missing forecast")
	}
	if !core.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSimulate_EmptyInput(t *testing.T) {
	_, err := Simulate(nil, testConfig())
	if err == nil {
		t.Fatal("expected error for empty input")
	}
	if !core.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSimulate_NonFiniteClose(t *testing.T) {
	_, err := Simulate(points(
		[]float64{100, math.NaN(), 102},
		[]float64{10, 10, 10},
	), testConfig())
	if err == nil {
		t.Fatal("expected error for NaN close")
	}
	if core.IsValidation(err) {
		t.Error("malformed data is a computation failure, not a validation error")
	}
}

func TestSimulate_ZeroClose(t *testing.T) {
	// A zero close is finite but makes the next period's return blow up.
	_, err := Simulate(points(
		[]float64{100, 0, 102},
		[]float64{10, 10, 10},
	), testConfig())
	if err == nil {
		t.Fatal("expected error for zero close")
	}
	if core.IsValidation(err) {
		t.Error("malformed data is a computation failure, not a validation error")
	}
}

func TestSimulate_SortsByTime(t *testing.T) {
	pts := points(
		[]float64{100, 101, 102},
		[]float64{10, 10, 10},
	)
	shuffled := []core.PricePoint{pts[2], pts[0], pts[1]}

	rows, err := Simulate(shuffled, testConfig())
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	for i := 1; i < len(rows); i++ {
		if rows[i].Time.Before(rows[i-1].Time) {
			t.Fatal("rows not sorted by time")
		}
	}
	if rows[0].Close != 100 {
		t.Errorf("first row close = %v, want 100", rows[0].Close)
	}
}

func TestSimulate_LeverageScalesPosition(t *testing.T) {
	cfg := testConfig()
	cfg.Leverage = 2.5

	rows, err := Simulate(points(
		[]float64{100, 101},
		[]float64{10, 10},
	), cfg)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	// forecast/10 * leverage, with no clamping
	if !approxEqual(rows[0].Position, 2.5) {
		t.Errorf("Position = %v, want 2.5", rows[0].Position)
	}
	if !approxEqual(rows[1].StrategyReturn, 2.5*(101.0/100-1)) {
		t.Errorf("StrategyReturn = %v, want %v", rows[1].StrategyReturn, 2.5*0.01)
	}
}

func TestSimulate_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capital", func(c *Config) { c.InitialCapital = 0 }},
		{"negative capital", func(c *Config) { c.InitialCapital = -5 }},
		{"leverage too low", func(c *Config) { c.Leverage = 0.01 }},
		{"leverage too high", func(c *Config) { c.Leverage = 50 }},
		{"zero periods per year", func(c *Config) { c.PeriodsPerYear = 0 }},
		{"zero regime window", func(c *Config) { c.RegimeWindow = 0 }},
	}

	pts := points([]float64{100, 101}, []float64{10, 10})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := Simulate(pts, cfg)
			if err == nil {
				t.Fatal("expected parameter error")
			}
			if !core.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSimulate_DoesNotMutateInput(t *testing.T) {
	pts := points(
		[]float64{102, 100, 101},
		[]float64{10, 10, 10},
	)
	// Deliberately out of order; Simulate sorts a copy.
	pts[0].Time, pts[1].Time = pts[1].Time, pts[0].Time

	before := make([]core.PricePoint, len(pts))
	copy(before, pts)

	if _, err := Simulate(pts, testConfig()); err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	for i := range pts {
		if pts[i] != before[i] {
			t.Fatalf("input point %d mutated", i)
		}
	}
}
