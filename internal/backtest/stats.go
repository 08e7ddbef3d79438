package backtest

import (
	"math"
	"sort"
)

// CalculateMetrics computes the period risk/return statistics for a return
// series. riskFreeRate is an annual fraction; periodsPerYear scales the
// per-period mean and deviation to annual terms. Degenerate inputs (zero
// volatility, no losing periods, no drawdown) produce zero-valued ratios,
// never errors.
func CalculateMetrics(returns []float64, riskFreeRate float64, periodsPerYear int) PeriodMetrics {
	if len(returns) == 0 {
		return PeriodMetrics{}
	}

	ppy := float64(periodsPerYear)

	totalReturn := 1.0
	for _, r := range returns {
		totalReturn *= 1 + r
	}
	totalReturn -= 1

	var cagr float64
	if years := float64(len(returns)) / ppy; years > 0 {
		cagr = math.Pow(1+totalReturn, 1/years) - 1
	}

	meanAnnual := mean(returns) * ppy
	volatility := stddev(returns) * math.Sqrt(ppy)

	var sharpe float64
	if volatility != 0 {
		sharpe = (meanAnnual - riskFreeRate) / volatility
	}

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	downsideVol := stddev(downside) * math.Sqrt(ppy)
	var sortino float64
	if downsideVol != 0 {
		sortino = (meanAnnual - riskFreeRate) / downsideVol
	}

	maxDD, avgDD := drawdownStats(returns)

	var calmar float64
	if maxDD != 0 {
		calmar = cagr / math.Abs(maxDD)
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	return PeriodMetrics{
		TotalReturn: totalReturn,
		CAGR:        cagr,
		Volatility:  volatility,
		Sharpe:      sharpe,
		Sortino:     sortino,
		Calmar:      calmar,
		MaxDrawdown: maxDD,
		AvgDrawdown: avgDD,
		CVaR95:      percentile(sorted, 0.05),
	}
}

// CalculateTradeMetrics computes statistics over the discrete trade list.
// Wins and losses are classified by fractional PnL; the profit factor
// compares summed absolute PnL and is +Inf when there are trades but no
// losing capital. An empty list yields the zero value.
func CalculateTradeMetrics(trades []Trade) TradeMetrics {
	if len(trades) == 0 {
		return TradeMetrics{}
	}

	var (
		wins, losses []float64
		grossProfit  float64
		grossLoss    float64
		sumPnL       float64
		sumDuration  float64
	)

	for _, t := range trades {
		sumPnL += t.PnL
		sumDuration += float64(t.Duration)

		if t.PnL > 0 {
			wins = append(wins, t.PnL)
		} else if t.PnL < 0 {
			losses = append(losses, t.PnL)
		}

		if t.PnLAbs > 0 {
			grossProfit += t.PnLAbs
		} else if t.PnLAbs < 0 {
			grossLoss += t.PnLAbs
		}
	}

	n := float64(len(trades))
	winRate := float64(len(wins)) / n
	avgWin := mean(wins)
	avgLoss := mean(losses)

	profitFactor := math.Inf(1)
	if grossLoss != 0 {
		profitFactor = grossProfit / math.Abs(grossLoss)
	}

	return TradeMetrics{
		TotalTrades:  len(trades),
		WinRate:      winRate,
		AvgTrade:     sumPnL / n,
		AvgWin:       avgWin,
		AvgLoss:      avgLoss,
		AvgDuration:  sumDuration / n,
		ProfitFactor: profitFactor,
		Expectancy:   winRate*avgWin + (1-winRate)*avgLoss,
	}
}

// DrawdownSeries converts an equity curve into its fractional distance
// from the running peak. Zero means a fresh high.
func DrawdownSeries(equity []float64) []float64 {
	out := make([]float64, len(equity))
	peak := math.Inf(-1)
	for i, e := range equity {
		if e > peak {
			peak = e
		}
		out[i] = e/peak - 1
	}
	return out
}

// drawdownStats walks the cumulative product of the returns against its
// running peak. maxDD is the most negative drawdown; avgDD averages only
// the strictly negative values, so periods at a fresh high are excluded
// rather than counted as zero.
func drawdownStats(returns []float64) (maxDD, avgDD float64) {
	cumulative := 1.0
	peak := math.Inf(-1)
	var sumNeg float64
	var numNeg int

	for _, r := range returns {
		cumulative *= 1 + r
		if cumulative > peak {
			peak = cumulative
		}
		dd := cumulative/peak - 1
		if dd < maxDD {
			maxDD = dd
		}
		if dd < 0 {
			sumNeg += dd
			numNeg++
		}
	}

	if numNeg > 0 {
		avgDD = sumNeg / float64(numNeg)
	}
	return maxDD, avgDD
}

// mean is the arithmetic mean, 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the sample standard deviation (n-1 denominator). Fewer than
// two samples have no measurable spread and yield 0.
func stddev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	m := mean(values)
	sumSq := 0.0
	for _, v := range values {
		diff := v - m
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// percentile interpolates linearly over a pre-sorted ascending slice.
// p is a fraction (0.05 = 5th percentile).
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
