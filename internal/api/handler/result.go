// internal/api/handler/result.go
package handler

import (
	"time"

	"github.com/protrade/protrade/internal/api/response"
	"github.com/protrade/protrade/internal/backtest"
	"github.com/protrade/protrade/internal/report"
)

// resultPayload is the JSON shape of a finished backtest. Every float
// travels as response.Float so non-finite metric values survive encoding.
type resultPayload struct {
	Dataset      string                `json:"dataset"`
	Rows         int                   `json:"rows"`
	Start        time.Time             `json:"start,omitzero"`
	End          time.Time             `json:"end,omitzero"`
	Series       seriesPayload         `json:"series"`
	Metrics      []metricRow           `json:"metrics"`
	TradeMetrics []tradeMetricRow      `json:"trade_metrics"`
	Trades       []tradePayload        `json:"trades"`
	Monthly      []periodReturnPayload `json:"monthly,omitempty"`
	Quarterly    []periodReturnPayload `json:"quarterly,omitempty"`
	Yearly       []periodReturnPayload `json:"yearly,omitempty"`
	Regimes      []regimePayload       `json:"regimes,omitempty"`
}

// seriesPayload carries the per-period columns for charting.
type seriesPayload struct {
	Times            []time.Time      `json:"times,omitempty"`
	Close            []response.Float `json:"close"`
	Forecast         []response.Float `json:"forecast"`
	StrategyEquity   []response.Float `json:"strategy_equity"`
	AssetEquity      []response.Float `json:"asset_equity"`
	StrategyDrawdown []response.Float `json:"strategy_drawdown"`
	AssetDrawdown    []response.Float `json:"asset_drawdown"`
}

// metricRow is one line of the strategy-vs-asset table, carrying both the
// raw value and the display rendering.
type metricRow struct {
	Metric       string         `json:"metric"`
	Strategy     response.Float `json:"strategy"`
	Asset        response.Float `json:"asset"`
	StrategyText string         `json:"strategy_text"`
	AssetText    string         `json:"asset_text"`
}

type tradeMetricRow struct {
	Metric string         `json:"metric"`
	Value  response.Float `json:"value"`
	Text   string         `json:"text"`
}

type tradePayload struct {
	StartIndex int            `json:"start_index"`
	EndIndex   int            `json:"end_index"`
	StartTime  time.Time      `json:"start_time,omitzero"`
	EndTime    time.Time      `json:"end_time,omitzero"`
	Direction  string         `json:"direction"`
	PnL        response.Float `json:"pnl"`
	PnLAbs     response.Float `json:"pnl_abs"`
	Duration   int            `json:"duration"`
}

type periodReturnPayload struct {
	Label    string         `json:"label"`
	Strategy response.Float `json:"strategy"`
	Asset    response.Float `json:"asset"`
}

type regimePayload struct {
	Regime   string         `json:"regime"`
	Strategy response.Float `json:"strategy"`
	Asset    response.Float `json:"asset"`
	Periods  int            `json:"periods"`
}

func buildResult(res *backtest.Result) resultPayload {
	n := len(res.Rows)

	series := seriesPayload{
		Close:          make([]response.Float, n),
		Forecast:       make([]response.Float, n),
		StrategyEquity: make([]response.Float, n),
		AssetEquity:    make([]response.Float, n),
	}
	strategyEquity := make([]float64, n)
	assetEquity := make([]float64, n)
	for i, row := range res.Rows {
		series.Close[i] = response.Float(row.Close)
		series.Forecast[i] = response.Float(row.Forecast)
		series.StrategyEquity[i] = response.Float(row.StrategyEquity)
		series.AssetEquity[i] = response.Float(row.AssetEquity)
		strategyEquity[i] = row.StrategyEquity
		assetEquity[i] = row.AssetEquity
	}
	series.StrategyDrawdown = response.Floats(backtest.DrawdownSeries(strategyEquity))
	series.AssetDrawdown = response.Floats(backtest.DrawdownSeries(assetEquity))
	if n > 0 && res.Rows[0].HasTime() {
		series.Times = make([]time.Time, n)
		for i, row := range res.Rows {
			series.Times[i] = row.Time
		}
	}

	periodRows := report.PeriodRows(res.StrategyMetrics, res.AssetMetrics)
	metricRows := make([]metricRow, len(periodRows))
	for i, row := range periodRows {
		metricRows[i] = metricRow{
			Metric:       row.Metric,
			Strategy:     response.Float(row.Strategy),
			Asset:        response.Float(row.Asset),
			StrategyText: report.FormatPeriodValue(row.Metric, row.Strategy),
			AssetText:    report.FormatPeriodValue(row.Metric, row.Asset),
		}
	}

	tradeRows := report.TradeRows(res.TradeMetrics)
	tradeMetricRows := make([]tradeMetricRow, len(tradeRows))
	for i, row := range tradeRows {
		tradeMetricRows[i] = tradeMetricRow{
			Metric: row.Metric,
			Value:  response.Float(row.Value),
			Text:   report.FormatTradeValue(row.Metric, row.Value),
		}
	}

	latest := report.LatestTrades(res.Trades, 0)
	trades := make([]tradePayload, len(latest))
	for i, t := range latest {
		trades[i] = tradePayload{
			StartIndex: t.StartIndex,
			EndIndex:   t.EndIndex,
			StartTime:  t.StartTime,
			EndTime:    t.EndTime,
			Direction:  string(t.Direction),
			PnL:        response.Float(t.PnL),
			PnLAbs:     response.Float(t.PnLAbs),
			Duration:   t.Duration,
		}
	}

	regimes := make([]regimePayload, len(res.Regimes))
	for i, reg := range res.Regimes {
		regimes[i] = regimePayload{
			Regime:   string(reg.Regime),
			Strategy: response.Float(reg.Strategy),
			Asset:    response.Float(reg.Asset),
			Periods:  reg.Periods,
		}
	}

	return resultPayload{
		Dataset:      res.Dataset,
		Rows:         n,
		Start:        res.Start,
		End:          res.End,
		Series:       series,
		Metrics:      metricRows,
		TradeMetrics: tradeMetricRows,
		Trades:       trades,
		Monthly:      periodReturns(res.Monthly),
		Quarterly:    periodReturns(res.Quarterly),
		Yearly:       periodReturns(res.Yearly),
		Regimes:      regimes,
	}
}

func periodReturns(buckets []backtest.PeriodReturn) []periodReturnPayload {
	if len(buckets) == 0 {
		return nil
	}
	out := make([]periodReturnPayload, len(buckets))
	for i, b := range buckets {
		out[i] = periodReturnPayload{
			Label:    b.Label(),
			Strategy: response.Float(b.Strategy),
			Asset:    response.Float(b.Asset),
		}
	}
	return out
}
