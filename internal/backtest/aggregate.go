package backtest

import "time"

// MonthlyReturns compounds both return series per calendar month, in
// chronological order. Datasets without real dates have no calendar and
// yield nil.
func MonthlyReturns(rows []SimulationRow) []PeriodReturn {
	return bucketReturns(rows,
		func(t time.Time) (int, int) { return t.Year(), int(t.Month()) },
		func(year, sub int) PeriodReturn { return PeriodReturn{Year: year, Month: time.Month(sub)} })
}

// QuarterlyReturns compounds both return series per calendar quarter.
func QuarterlyReturns(rows []SimulationRow) []PeriodReturn {
	return bucketReturns(rows,
		func(t time.Time) (int, int) { return t.Year(), (int(t.Month())-1)/3 + 1 },
		func(year, sub int) PeriodReturn { return PeriodReturn{Year: year, Quarter: sub} })
}

// YearlyReturns compounds both return series per calendar year.
func YearlyReturns(rows []SimulationRow) []PeriodReturn {
	return bucketReturns(rows,
		func(t time.Time) (int, int) { return t.Year(), 0 },
		func(year, _ int) PeriodReturn { return PeriodReturn{Year: year} })
}

// bucketReturns walks the rows in order, compounding both series within
// each (year, sub) bucket. Rows arrive chronologically sorted, so a bucket
// ends exactly when its key changes.
func bucketReturns(rows []SimulationRow, key func(time.Time) (int, int), newBucket func(int, int) PeriodReturn) []PeriodReturn {
	if len(rows) == 0 || !rows[0].HasTime() {
		return nil
	}

	var out []PeriodReturn
	curYear, curSub := key(rows[0].Time)
	cur := newBucket(curYear, curSub)
	strategy, asset := 1.0, 1.0

	flush := func() {
		cur.Strategy = strategy - 1
		cur.Asset = asset - 1
		out = append(out, cur)
	}

	for _, r := range rows {
		year, sub := key(r.Time)
		if year != curYear || sub != curSub {
			flush()
			curYear, curSub = year, sub
			cur = newBucket(year, sub)
			strategy, asset = 1.0, 1.0
		}
		strategy *= 1 + r.StrategyReturn
		asset *= 1 + r.AssetReturn
	}
	flush()

	return out
}
