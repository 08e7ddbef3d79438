package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/protrade/protrade/internal/app"
	"github.com/protrade/protrade/internal/backtest"
	"github.com/protrade/protrade/internal/config"
	"github.com/protrade/protrade/internal/dataset"
	"github.com/protrade/protrade/internal/logger"
	"github.com/protrade/protrade/internal/report"
	"github.com/spf13/cobra"
)

var (
	backtestName     string
	backtestCapital  float64
	backtestLeverage float64
	backtestRiskFree float64
	backtestPeriods  int
	backtestRegime   int
	backtestTrades   int
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [csv file]",
	Short: "Run a backtest on a signal dataset",
	Long:  "Simulate the forecast column of a CSV file against its price series and show performance statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestName, "name", "", "Dataset name (defaults to the file name)")
	backtestCmd.Flags().Float64Var(&backtestCapital, "capital", 0, "Initial capital")
	backtestCmd.Flags().Float64Var(&backtestLeverage, "leverage", 0, "Leverage multiplier (0.1 to 10)")
	backtestCmd.Flags().Float64Var(&backtestRiskFree, "risk-free", 0, "Annual risk-free rate")
	backtestCmd.Flags().IntVar(&backtestPeriods, "periods-per-year", 0, "Periods per year for annualization")
	backtestCmd.Flags().IntVar(&backtestRegime, "regime-window", 0, "Rolling window for regime classification")
	backtestCmd.Flags().IntVar(&backtestTrades, "trades", 20, "Number of recent trades to list (0 hides the table)")

	rootCmd.AddCommand(backtestCmd)
}

// backtestOverrides collects only the flags the user actually set, so
// config file values survive for the rest.
func backtestOverrides(cmd *cobra.Command) app.Overrides {
	var ov app.Overrides
	if cmd.Flags().Changed("capital") {
		ov.InitialCapital = &backtestCapital
	}
	if cmd.Flags().Changed("leverage") {
		ov.Leverage = &backtestLeverage
	}
	if cmd.Flags().Changed("risk-free") {
		ov.RiskFreeRate = &backtestRiskFree
	}
	if cmd.Flags().Changed("periods-per-year") {
		ov.PeriodsPerYear = &backtestPeriods
	}
	if cmd.Flags().Changed("regime-window") {
		ov.RegimeWindow = &backtestRegime
	}
	return ov
}

func runBacktest(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug, "backtest")
	defer log.Sync()

	var cfg *config.Config
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
	}

	path := args[0]
	name := backtestName
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	ds, err := dataset.Parse(f, name)
	if err != nil {
		return fmt.Errorf("parsing dataset: %w", err)
	}

	// Single-run mode needs no dataset store.
	application := app.New(cfg, nil, nil, log)
	res, err := application.Run(ds, backtestOverrides(cmd))
	if err != nil {
		return fmt.Errorf("running backtest: %w", err)
	}

	printResult(res, backtestTrades)
	return nil
}

func printResult(res *backtest.Result, tradeCount int) {
	initial := res.Rows[0].StrategyEquity
	final := res.Rows[len(res.Rows)-1].StrategyEquity

	fmt.Printf("=== Backtest: %s ===\n", res.Dataset)
	fmt.Printf("Rows:          %d\n", len(res.Rows))
	if !res.Start.IsZero() {
		fmt.Printf("Period:        %s to %s\n",
			res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"))
	}
	fmt.Printf("Start Equity:  $%.2f\n", initial)
	fmt.Printf("Final Equity:  $%.2f\n", final)
	fmt.Println()

	fmt.Println("Performance")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tSTRATEGY\tASSET\t")
	fmt.Fprintln(w, "------\t--------\t-----\t")
	for _, row := range report.PeriodRows(res.StrategyMetrics, res.AssetMetrics) {
		fmt.Fprintf(w, "%s\t%s\t%s\t\n",
			row.Metric,
			report.FormatPeriodValue(row.Metric, row.Strategy),
			report.FormatPeriodValue(row.Metric, row.Asset))
	}
	w.Flush()
	fmt.Println()

	fmt.Println("Trade Analysis")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE\t")
	fmt.Fprintln(w, "------\t-----\t")
	for _, row := range report.TradeRows(res.TradeMetrics) {
		fmt.Fprintf(w, "%s\t%s\t\n", row.Metric, report.FormatTradeValue(row.Metric, row.Value))
	}
	w.Flush()
	fmt.Println()

	if tradeCount != 0 && len(res.Trades) > 0 {
		fmt.Println("Recent Trades")
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DIRECTION\tSTART\tEND\tPERIODS\tRETURN\tP&L\t")
		fmt.Fprintln(w, "---------\t-----\t---\t-------\t------\t---\t")

		for _, tr := range report.LatestTrades(res.Trades, tradeCount) {
			plSign := ""
			if tr.PnLAbs >= 0 {
				plSign = "+"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s%.2f%%\t%s%.2f\t\n",
				tr.Direction,
				tradeBound(tr.StartTime, tr.StartIndex),
				tradeBound(tr.EndTime, tr.EndIndex),
				tr.Duration, plSign, tr.PnL*100, plSign, tr.PnLAbs)
		}
		w.Flush()
		fmt.Println()
	}

	if len(res.Yearly) > 0 {
		fmt.Println("Yearly Returns")
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "YEAR\tSTRATEGY\tASSET\t")
		fmt.Fprintln(w, "----\t--------\t-----\t")
		for _, p := range res.Yearly {
			fmt.Fprintf(w, "%s\t%.2f%%\t%.2f%%\t\n", p.Label(), p.Strategy*100, p.Asset*100)
		}
		w.Flush()
		fmt.Println()
	}

	if len(res.Regimes) > 0 {
		fmt.Println("Regime Performance")
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "REGIME\tSTRATEGY\tASSET\tPERIODS\t")
		fmt.Fprintln(w, "------\t--------\t-----\t-------\t")
		for _, rg := range res.Regimes {
			fmt.Fprintf(w, "%s\t%.2f%%\t%.2f%%\t%d\t\n",
				rg.Regime, rg.Strategy*100, rg.Asset*100, rg.Periods)
		}
		w.Flush()
	}
}

// tradeBound renders a trade boundary as a date when the dataset carries
// timestamps and as a row number otherwise.
func tradeBound(ts time.Time, index int) string {
	if ts.IsZero() {
		return fmt.Sprintf("#%d", index)
	}
	return ts.Format("2006-01-02")
}
