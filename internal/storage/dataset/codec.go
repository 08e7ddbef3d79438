package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/protrade/protrade/internal/core"
	"github.com/protrade/protrade/internal/dataset"
)

// storedDataset is the JSON document written by the blob-backed stores.
// Points are stored as parallel columns; Times is only present for dated
// datasets.
type storedDataset struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	HasDates   bool        `json:"has_dates"`
	UploadedAt time.Time   `json:"uploaded_at"`
	Times      []time.Time `json:"times,omitempty"`
	Closes     []float64   `json:"closes"`
	Forecasts  []nullFloat `json:"forecasts"`
}

// nullFloat is a forecast value. Missing forecasts are NaN in memory,
// which encoding/json cannot represent, so they round-trip as null.
type nullFloat float64

func (f nullFloat) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

func (f *nullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = nullFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = nullFloat(v)
	return nil
}

func encode(ds *dataset.Dataset) ([]byte, error) {
	doc := storedDataset{
		ID:         ds.ID,
		Name:       ds.Name,
		HasDates:   ds.HasDates,
		UploadedAt: ds.UploadedAt,
		Closes:     make([]float64, len(ds.Points)),
		Forecasts:  make([]nullFloat, len(ds.Points)),
	}
	if ds.HasDates {
		doc.Times = make([]time.Time, len(ds.Points))
	}

	for i, p := range ds.Points {
		doc.Closes[i] = p.Close
		doc.Forecasts[i] = nullFloat(p.Forecast)
		if ds.HasDates {
			doc.Times[i] = p.Time
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return data, nil
}

func decode(data []byte) (*dataset.Dataset, error) {
	var doc storedDataset
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	if len(doc.Forecasts) != len(doc.Closes) || (doc.HasDates && len(doc.Times) != len(doc.Closes)) {
		return nil, core.WrapError(core.ErrStorageFailed,
			fmt.Errorf("column lengths disagree in stored dataset %s", doc.ID))
	}

	points := make([]core.PricePoint, len(doc.Closes))
	for i := range doc.Closes {
		points[i] = core.PricePoint{
			Index:    i,
			Close:    doc.Closes[i],
			Forecast: float64(doc.Forecasts[i]),
		}
		if doc.HasDates {
			points[i].Time = doc.Times[i]
		}
	}

	return &dataset.Dataset{
		ID:         doc.ID,
		Name:       doc.Name,
		HasDates:   doc.HasDates,
		Points:     points,
		UploadedAt: doc.UploadedAt,
	}, nil
}
