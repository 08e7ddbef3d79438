package core

import (
	"math"
	"time"
)

// Direction represents the side of a position.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// PricePoint is one normalized period of input data: a closing price and
// the forecast signal active for that period. Forecast is NaN when the
// source row carried no signal value.
type PricePoint struct {
	Index    int       // period counter, used when no date column exists
	Time     time.Time // zero when the dataset has no dates
	Close    float64
	Forecast float64
}

// IsValid checks that the close price is a usable finite number.
func (p PricePoint) IsValid() bool {
	return !math.IsNaN(p.Close) && !math.IsInf(p.Close, 0)
}

// HasForecast reports whether the period carries a signal value.
func (p PricePoint) HasForecast() bool {
	return !math.IsNaN(p.Forecast)
}

// HasTime reports whether the period has a real timestamp rather than a
// synthetic index.
func (p PricePoint) HasTime() bool {
	return !p.Time.IsZero()
}

// ForecastSign collapses the forecast into the position direction it
// implies: +1 long, -1 short, 0 flat.
func (p PricePoint) ForecastSign() int {
	switch {
	case p.Forecast > 0:
		return 1
	case p.Forecast < 0:
		return -1
	default:
		return 0
	}
}
