package backtest

// Regime thresholds on the annualized rolling asset return.
const (
	regimeStrongBullMin = 0.30
	regimeBullMin       = 0.10
	regimeSidewaysMin   = -0.10
	regimeBearMin       = -0.30
)

var regimeOrder = []Regime{
	RegimeStrongBull,
	RegimeBull,
	RegimeSideways,
	RegimeBear,
	RegimeStrongBear,
}

// classifyRegime buckets an annualized rolling return into one of the
// five market regimes.
func classifyRegime(annualized float64) Regime {
	switch {
	case annualized > regimeStrongBullMin:
		return RegimeStrongBull
	case annualized > regimeBullMin:
		return RegimeBull
	case annualized > regimeSidewaysMin:
		return RegimeSideways
	case annualized > regimeBearMin:
		return RegimeBear
	default:
		return RegimeStrongBear
	}
}

// RegimePerformance compounds both return series within each market
// regime. A period's regime comes from the rolling mean of the asset
// return over the window ending at that period, annualized by the
// configured periods per year. Periods without a complete window carry no
// regime and are skipped. Regimes that never occur are omitted; the rest
// come out in bull-to-bear order.
func RegimePerformance(rows []SimulationRow, cfg Config) []RegimeStat {
	window := cfg.RegimeWindow
	if window < 1 || len(rows) < window {
		return nil
	}

	assetReturns := make([]float64, len(rows))
	for i, r := range rows {
		assetReturns[i] = r.AssetReturn
	}
	rolling := rollingMean(assetReturns, window)

	type acc struct {
		strategy float64
		asset    float64
		periods  int
	}
	buckets := make(map[Regime]*acc)

	// rolling[j] covers rows[j .. j+window-1]; the regime applies to the
	// window's last row.
	for j, m := range rolling {
		i := j + window - 1
		regime := classifyRegime(m * float64(cfg.PeriodsPerYear))

		b := buckets[regime]
		if b == nil {
			b = &acc{strategy: 1, asset: 1}
			buckets[regime] = b
		}
		b.strategy *= 1 + rows[i].StrategyReturn
		b.asset *= 1 + rows[i].AssetReturn
		b.periods++
	}

	var out []RegimeStat
	for _, regime := range regimeOrder {
		b := buckets[regime]
		if b == nil {
			continue
		}
		out = append(out, RegimeStat{
			Regime:   regime,
			Strategy: b.strategy - 1,
			Asset:    b.asset - 1,
			Periods:  b.periods,
		})
	}
	return out
}

// rollingMean computes the windowed average with a running sum.
// Returns len(values) - window + 1 results, one per complete window.
func rollingMean(values []float64, window int) []float64 {
	if len(values) < window {
		return []float64{}
	}

	result := make([]float64, 0, len(values)-window+1)

	var sum float64
	for i := 0; i < window; i++ {
		sum += values[i]
	}
	result = append(result, sum/float64(window))

	for i := window; i < len(values); i++ {
		sum = sum - values[i-window] + values[i]
		result = append(result, sum/float64(window))
	}

	return result
}
