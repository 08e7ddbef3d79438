package backtest

import "github.com/protrade/protrade/internal/core"

// segState is the segmenter's position state. The implicit state before
// row 0 is flat.
type segState int

const (
	stateFlat segState = iota
	stateLong
	stateShort
)

func stateOf(sign int) segState {
	switch {
	case sign > 0:
		return stateLong
	case sign < 0:
		return stateShort
	default:
		return stateFlat
	}
}

func (s segState) direction() core.Direction {
	if s == stateShort {
		return core.DirectionShort
	}
	return core.DirectionLong
}

// SegmentTrades splits a simulation into discrete directional trades: each
// trade is a maximal run of rows with the same non-zero forecast sign. A
// zero forecast is always flat, so trades never merge across a flat gap.
//
// The lag convention drives the accounting: the return realized at the
// closing row was earned by the position held through the previous row, so
// it still belongs to the closing trade. A trade's equity basis is the
// strategy equity of the row before it opens (the initial capital when it
// opens at row 0), and a direct long/short flip reopens at the exit equity
// with zero gap. A trade still open after the last row is closed at the
// final equity.
//
// Empty input yields an empty result, never an error.
func SegmentTrades(rows []SimulationRow, initialCapital float64) []Trade {
	var trades []Trade

	state := stateFlat
	startIdx := 0
	basis := initialCapital

	for i := range rows {
		next := stateOf(rows[i].ForecastSign())
		if next == state {
			continue
		}

		switch state {
		case stateFlat:
			startIdx = i
			if i == 0 {
				basis = initialCapital
			} else {
				basis = rows[i-1].StrategyEquity
			}
			state = next

		default:
			exit := rows[i].StrategyEquity
			trades = append(trades, Trade{
				StartIndex: startIdx,
				EndIndex:   i,
				StartTime:  rows[startIdx].Time,
				EndTime:    rows[i].Time,
				Direction:  state.direction(),
				PnL:        exit/basis - 1,
				PnLAbs:     exit - basis,
				Duration:   i - startIdx,
			})

			state = next
			if next != stateFlat {
				// Direct flip: the new trade compounds from the exit
				// equity of the old one.
				startIdx = i
				basis = exit
			}
		}
	}

	if state != stateFlat {
		last := len(rows) - 1
		exit := rows[last].StrategyEquity
		trades = append(trades, Trade{
			StartIndex: startIdx,
			EndIndex:   last,
			StartTime:  rows[startIdx].Time,
			EndTime:    rows[last].Time,
			Direction:  state.direction(),
			PnL:        exit/basis - 1,
			PnLAbs:     exit - basis,
			Duration:   len(rows) - startIdx,
		})
	}

	return trades
}
