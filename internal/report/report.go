// Package report renders backtest results for display. The conventions
// follow the dashboard this service replaced: ratio metrics print as plain
// two-decimal numbers, counts and durations as whole numbers, everything
// else as a percentage.
package report

import (
	"fmt"
	"strings"

	"github.com/protrade/protrade/internal/backtest"
)

// PeriodRow is one line of the strategy-vs-asset metrics table.
type PeriodRow struct {
	Metric   string
	Strategy float64
	Asset    float64
}

// TradeRow is one line of the trade analysis table.
type TradeRow struct {
	Metric string
	Value  float64
}

// PeriodRows flattens the two metric sets into display order.
func PeriodRows(strategy, asset backtest.PeriodMetrics) []PeriodRow {
	return []PeriodRow{
		{"Total Return", strategy.TotalReturn, asset.TotalReturn},
		{"CAGR", strategy.CAGR, asset.CAGR},
		{"Volatility", strategy.Volatility, asset.Volatility},
		{"Sharpe Ratio", strategy.Sharpe, asset.Sharpe},
		{"Sortino Ratio", strategy.Sortino, asset.Sortino},
		{"Calmar Ratio", strategy.Calmar, asset.Calmar},
		{"Max Drawdown", strategy.MaxDrawdown, asset.MaxDrawdown},
		{"Avg Drawdown", strategy.AvgDrawdown, asset.AvgDrawdown},
		{"CVaR (95%)", strategy.CVaR95, asset.CVaR95},
	}
}

// TradeRows flattens the trade metrics into display order.
func TradeRows(tm backtest.TradeMetrics) []TradeRow {
	return []TradeRow{
		{"Total Trades", float64(tm.TotalTrades)},
		{"Win Rate", tm.WinRate},
		{"Avg Trade", tm.AvgTrade},
		{"Avg Win", tm.AvgWin},
		{"Avg Loss", tm.AvgLoss},
		{"Avg Duration", tm.AvgDuration},
		{"Profit Factor", tm.ProfitFactor},
		{"Expectancy", tm.Expectancy},
	}
}

// FormatPeriodValue renders a period metric value. Metrics named
// "... Ratio" are plain numbers, the rest are percentages.
func FormatPeriodValue(metric string, v float64) string {
	if strings.Contains(metric, "Ratio") {
		return fmt.Sprintf("%.2f", v)
	}
	return formatPercent(v)
}

// FormatTradeValue renders a trade metric value.
func FormatTradeValue(metric string, v float64) string {
	switch metric {
	case "Total Trades", "Avg Duration":
		return fmt.Sprintf("%.0f", v)
	case "Profit Factor":
		return fmt.Sprintf("%.2f", v)
	default:
		return formatPercent(v)
	}
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// LatestTrades returns up to n trades, newest first. n <= 0 means all.
func LatestTrades(trades []backtest.Trade, n int) []backtest.Trade {
	out := make([]backtest.Trade, len(trades))
	for i, t := range trades {
		out[len(trades)-1-i] = t
	}
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
