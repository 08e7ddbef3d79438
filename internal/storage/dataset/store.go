// Package dataset provides persistence backends for uploaded datasets.
package dataset

import (
	"context"
	"time"

	"github.com/protrade/protrade/internal/dataset"
)

// Store defines the interface for dataset persistence backends.
type Store interface {
	// Put persists a dataset, assigns its ID and returns it.
	Put(ctx context.Context, ds *dataset.Dataset) (string, error)

	// Get retrieves a dataset by its ID.
	Get(ctx context.Context, id string) (*dataset.Dataset, error)

	// List returns summaries of all stored datasets, newest first.
	List(ctx context.Context) ([]Info, error)

	// Delete removes the dataset with the given ID.
	Delete(ctx context.Context, id string) error
}

// Info is the listing summary of a stored dataset.
type Info struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Rows       int       `json:"rows"`
	HasDates   bool      `json:"has_dates"`
	Start      time.Time `json:"start,omitzero"`
	End        time.Time `json:"end,omitzero"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// InfoOf builds the listing summary for a dataset.
func InfoOf(ds *dataset.Dataset) Info {
	start, end := ds.Span()
	return Info{
		ID:         ds.ID,
		Name:       ds.Name,
		Rows:       len(ds.Points),
		HasDates:   ds.HasDates,
		Start:      start,
		End:        end,
		UploadedAt: ds.UploadedAt,
	}
}
