package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/protrade/protrade/internal/config"
	"github.com/protrade/protrade/internal/core"
	dsstore "github.com/protrade/protrade/internal/storage/dataset"
	"go.uber.org/zap"
)

const sampleCSV = `date,close,forecast
2024-01-01,100,10
2024-01-02,101,10
2024-01-03,102,-10
2024-01-04,100,-10
`

func newTestApp(t *testing.T) *App {
	t.Helper()
	return New(config.Defaults(), dsstore.NewMemory(10), nil, zap.NewNop())
}

func TestApp_AddDataset(t *testing.T) {
	a := newTestApp(t)

	ds, err := a.AddDataset(context.Background(), strings.NewReader(sampleCSV), "btc-daily")
	if err != nil {
		t.Fatalf("AddDataset failed: %v", err)
	}
	if ds.ID == "" {
		t.Error("expected dataset ID to be assigned")
	}
	if len(ds.Points) != 4 {
		t.Errorf("expected 4 points, got %d", len(ds.Points))
	}

	stored, err := a.Store().Get(context.Background(), ds.ID)
	if err != nil {
		t.Fatalf("Get after AddDataset failed: %v", err)
	}
	if stored.Name != "btc-daily" {
		t.Errorf("expected name btc-daily, got %s", stored.Name)
	}
}

func TestApp_AddDataset_Malformed(t *testing.T) {
	a := newTestApp(t)

	_, err := a.AddDataset(context.Background(), strings.NewReader("close,forecast\nabc,10\n"), "bad")
	if !errors.Is(err, core.ErrMalformedData) {
		t.Errorf("expected ErrMalformedData, got %v", err)
	}

	infos, err := a.Store().List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("expected nothing stored after failed upload, got %d", len(infos))
	}
}

func TestApp_RunBacktest(t *testing.T) {
	a := newTestApp(t)

	ds, err := a.AddDataset(context.Background(), strings.NewReader(sampleCSV), "btc-daily")
	if err != nil {
		t.Fatalf("AddDataset failed: %v", err)
	}

	res, err := a.RunBacktest(context.Background(), ds.ID, Overrides{})
	if err != nil {
		t.Fatalf("RunBacktest failed: %v", err)
	}
	if res.Dataset != "btc-daily" {
		t.Errorf("expected dataset name btc-daily, got %s", res.Dataset)
	}
	if len(res.Rows) != 4 {
		t.Errorf("expected 4 rows, got %d", len(res.Rows))
	}
	if len(res.Trades) != 2 {
		t.Errorf("expected 2 trades, got %d", len(res.Trades))
	}
	if res.Rows[0].StrategyEquity != config.Defaults().Backtest.InitialCapital {
		t.Errorf("expected first equity to equal configured capital, got %g",
			res.Rows[0].StrategyEquity)
	}
}

func TestApp_RunBacktest_NotFound(t *testing.T) {
	a := newTestApp(t)

	_, err := a.RunBacktest(context.Background(), "nope", Overrides{})
	if !core.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestApp_RunBacktest_Overrides(t *testing.T) {
	a := newTestApp(t)

	ds, err := a.AddDataset(context.Background(), strings.NewReader(sampleCSV), "btc-daily")
	if err != nil {
		t.Fatalf("AddDataset failed: %v", err)
	}

	capital := 2500.0
	res, err := a.RunBacktest(context.Background(), ds.ID, Overrides{InitialCapital: &capital})
	if err != nil {
		t.Fatalf("RunBacktest failed: %v", err)
	}
	if res.Rows[0].StrategyEquity != capital {
		t.Errorf("expected first equity %g, got %g", capital, res.Rows[0].StrategyEquity)
	}
}

func TestApp_RunBacktest_InvalidOverride(t *testing.T) {
	a := newTestApp(t)

	ds, err := a.AddDataset(context.Background(), strings.NewReader(sampleCSV), "btc-daily")
	if err != nil {
		t.Fatalf("AddDataset failed: %v", err)
	}

	leverage := 50.0
	_, err = a.RunBacktest(context.Background(), ds.ID, Overrides{Leverage: &leverage})
	if !core.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestOpenStore(t *testing.T) {
	if _, err := OpenStore(config.StorageConfig{Type: "memory", MaxDatasets: 10}); err != nil {
		t.Errorf("memory store failed: %v", err)
	}

	if _, err := OpenStore(config.StorageConfig{Type: "localfs", Path: t.TempDir()}); err != nil {
		t.Errorf("localfs store failed: %v", err)
	}

	_, err := OpenStore(config.StorageConfig{Type: "cassandra"})
	if !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected ErrConfigInvalid for unknown type, got %v", err)
	}
}
