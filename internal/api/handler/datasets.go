// internal/api/handler/datasets.go
package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/protrade/protrade/internal/api/response"
	"github.com/protrade/protrade/internal/app"
	"github.com/protrade/protrade/internal/core"
	dsstore "github.com/protrade/protrade/internal/storage/dataset"
	"go.uber.org/zap"
)

const maxUploadBytes = 32 << 20 // 32 MiB

// DatasetHandler serves dataset upload and lookup requests.
type DatasetHandler struct {
	app *app.App
	log *zap.Logger
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(a *app.App, log *zap.Logger) *DatasetHandler {
	return &DatasetHandler{app: a, log: log}
}

// statusFor maps service errors onto HTTP status codes. Malformed input
// counts as a client error on this surface: the data came straight from
// the request body.
func statusFor(err error) int {
	switch {
	case core.IsValidation(err) || errors.Is(err, core.ErrMalformedData):
		return http.StatusBadRequest
	case core.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Upload handles POST /api/v1/datasets. The CSV arrives as the multipart
// field "file"; an optional "name" field overrides the file name.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrMalformedData, err))
		return
	}
	defer file.Close()

	name := r.FormValue("name")
	if name == "" {
		name = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}
	if name == "" {
		name = "dataset"
	}

	ds, err := h.app.AddDataset(r.Context(), file, name)
	if err != nil {
		h.log.Warn("dataset upload rejected", zap.String("name", name), zap.Error(err))
		response.Error(w, statusFor(err), err)
		return
	}

	response.JSON(w, http.StatusCreated, dsstore.InfoOf(ds))
}

// List handles GET /api/v1/datasets.
func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.app.Store().List(r.Context())
	if err != nil {
		response.Error(w, statusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, infos)
}

// Get handles GET /api/v1/datasets/{id}.
func (h *DatasetHandler) Get(w http.ResponseWriter, r *http.Request) {
	ds, err := h.app.Store().Get(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Error(w, statusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, dsstore.InfoOf(ds))
}

// Delete handles DELETE /api/v1/datasets/{id}.
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.app.Store().Delete(r.Context(), id); err != nil {
		response.Error(w, statusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}
