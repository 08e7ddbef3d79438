package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/protrade/protrade/internal/core"
	"github.com/protrade/protrade/internal/dataset"
)

// Files is a dataset store backed by a directory of JSON documents, one
// file per dataset.
type Files struct {
	basePath string
}

// NewFiles creates a file-backed store rooted at basePath.
func NewFiles(basePath string) (*Files, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("creating base path: %w", err))
	}
	return &Files{basePath: basePath}, nil
}

func (f *Files) path(id string) string {
	return filepath.Join(f.basePath, id+".json")
}

// Put writes the dataset to disk and assigns it a fresh ID.
func (f *Files) Put(ctx context.Context, ds *dataset.Dataset) (string, error) {
	id := uuid.NewString()
	ds.ID = id

	data, err := encode(ds)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(f.path(id), data, 0644); err != nil {
		return "", core.WrapError(core.ErrStorageFailed, err)
	}
	return id, nil
}

// Get reads a dataset back from disk.
func (f *Files) Get(ctx context.Context, id string) (*dataset.Dataset, error) {
	data, err := os.ReadFile(f.path(id))
	if os.IsNotExist(err) {
		return nil, core.ErrDatasetNotFound
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return decode(data)
}

// List reads every stored document and returns summaries, newest first.
// Entries that no longer decode are skipped rather than failing the
// listing.
func (f *Files) List(ctx context.Context) ([]Info, error) {
	entries, err := os.ReadDir(f.basePath)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.basePath, entry.Name()))
		if err != nil {
			continue
		}
		ds, err := decode(data)
		if err != nil {
			continue
		}
		infos = append(infos, InfoOf(ds))
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UploadedAt.After(infos[j].UploadedAt)
	})
	return infos, nil
}

// Delete removes the dataset file.
func (f *Files) Delete(ctx context.Context, id string) error {
	err := os.Remove(f.path(id))
	if os.IsNotExist(err) {
		return core.ErrDatasetNotFound
	}
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}
