// Package dataset parses uploaded CSV files into price/forecast series.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/protrade/protrade/internal/core"
)

// Dataset is an uploaded series ready for simulation. ID is assigned by
// the store on Put. Points are time-sorted when HasDates is true, with a
// leading run of forecast-less warmup rows already removed.
type Dataset struct {
	ID         string
	Name       string
	HasDates   bool
	Points     []core.PricePoint
	UploadedAt time.Time
}

// Span returns the timestamps of the first and last point, or zero times
// for a dataset without dates.
func (d *Dataset) Span() (start, end time.Time) {
	if !d.HasDates || len(d.Points) == 0 {
		return start, end
	}
	return d.Points[0].Time, d.Points[len(d.Points)-1].Time
}

// dateLayouts are tried in order for every date cell.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
}

// dateColumns are the header names, checked in order, that carry the
// timestamp. The column is optional: without one the series runs on bare
// period indices.
var dateColumns = []string{"date", "time", "timestamp"}

// Parse reads a CSV stream into a Dataset. The header must contain close
// and forecast columns (matched case-insensitively). Empty, na, nan and
// null forecast cells mark periods without a signal; close and date cells
// must always parse.
func Parse(r io.Reader, name string) (*Dataset, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, core.WrapError(core.ErrMalformedData, fmt.Errorf("reading header: %w", err))
	}

	cols := mapColumns(header)

	closeIdx, ok := cols["close"]
	if !ok {
		return nil, core.WrapError(core.ErrMissingColumn, fmt.Errorf("no close column in %v", header))
	}
	forecastIdx, ok := cols["forecast"]
	if !ok {
		return nil, core.WrapError(core.ErrMissingColumn, fmt.Errorf("no forecast column in %v", header))
	}

	dateIdx := -1
	for _, col := range dateColumns {
		if idx, ok := cols[col]; ok {
			dateIdx = idx
			break
		}
	}

	var points []core.PricePoint
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, core.WrapError(core.ErrMalformedData, fmt.Errorf("row %d: %w", row, err))
		}

		closeCell := strings.TrimSpace(record[closeIdx])
		if closeCell == "" {
			return nil, core.WrapError(core.ErrMalformedData, fmt.Errorf("row %d: empty close", row))
		}
		closeVal, err := strconv.ParseFloat(closeCell, 64)
		if err != nil || math.IsNaN(closeVal) || math.IsInf(closeVal, 0) {
			return nil, core.WrapError(core.ErrMalformedData, fmt.Errorf("row %d: close %q is not a finite number", row, closeCell))
		}

		forecast := math.NaN()
		if cell := strings.TrimSpace(record[forecastIdx]); !missingCell(cell) {
			forecast, err = strconv.ParseFloat(cell, 64)
			if err != nil || math.IsInf(forecast, 0) {
				return nil, core.WrapError(core.ErrMalformedData, fmt.Errorf("row %d: forecast %q is not a finite number", row, cell))
			}
		}

		var ts time.Time
		if dateIdx >= 0 {
			ts, err = parseTime(strings.TrimSpace(record[dateIdx]))
			if err != nil {
				return nil, core.WrapError(core.ErrMalformedData, fmt.Errorf("row %d: %w", row, err))
			}
		}

		points = append(points, core.PricePoint{
			Time:     ts,
			Close:    closeVal,
			Forecast: forecast,
		})
	}

	if dateIdx >= 0 {
		sort.SliceStable(points, func(i, j int) bool {
			return points[i].Time.Before(points[j].Time)
		})
	}

	// Indicator warmup leaves a forecast-less prefix; it carries no
	// signal, so it never reaches the simulation.
	trim := 0
	for trim < len(points) && !points[trim].HasForecast() {
		trim++
	}
	points = points[trim:]

	if len(points) == 0 {
		return nil, core.WrapError(core.ErrNoUsableRows, fmt.Errorf("%s has no rows with a forecast", name))
	}

	for i := range points {
		points[i].Index = i
	}

	return &Dataset{
		Name:       name,
		HasDates:   dateIdx >= 0,
		Points:     points,
		UploadedAt: time.Now().UTC(),
	}, nil
}

// mapColumns indexes the header by trimmed, lower-cased column name.
func mapColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, column := range header {
		cols[strings.ToLower(strings.TrimSpace(column))] = i
	}
	return cols
}

// missingCell reports whether a forecast cell means "no signal".
func missingCell(cell string) bool {
	switch strings.ToLower(cell) {
	case "", "na", "nan", "null":
		return true
	}
	return false
}

// parseTime tries the supported layouts, then unix seconds or
// milliseconds.
func parseTime(cell string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, nil
		}
	}

	if unix, err := strconv.ParseInt(cell, 10, 64); err == nil {
		if unix > 1e12 { // milliseconds
			return time.Unix(0, unix*int64(time.Millisecond)).UTC(), nil
		}
		return time.Unix(unix, 0).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("unparseable date %q", cell)
}
