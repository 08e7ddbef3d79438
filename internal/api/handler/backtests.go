// internal/api/handler/backtests.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/protrade/protrade/internal/api/job"
	"github.com/protrade/protrade/internal/api/response"
	"github.com/protrade/protrade/internal/app"
	"github.com/protrade/protrade/internal/core"
	"github.com/protrade/protrade/internal/metrics"
	"go.uber.org/zap"
)

const jobTimeout = 5 * time.Minute

// BacktestRequest is the request body for starting a backtest. Omitted
// parameters fall back to the configured defaults.
type BacktestRequest struct {
	DatasetID      string   `json:"dataset_id"`
	InitialCapital *float64 `json:"initial_capital,omitempty"`
	Leverage       *float64 `json:"leverage,omitempty"`
	RiskFreeRate   *float64 `json:"risk_free_rate,omitempty"`
	PeriodsPerYear *int     `json:"periods_per_year,omitempty"`
	RegimeWindow   *int     `json:"regime_window,omitempty"`
}

func (r BacktestRequest) overrides() app.Overrides {
	return app.Overrides{
		InitialCapital: r.InitialCapital,
		Leverage:       r.Leverage,
		RiskFreeRate:   r.RiskFreeRate,
		PeriodsPerYear: r.PeriodsPerYear,
		RegimeWindow:   r.RegimeWindow,
	}
}

// BacktestHandler runs backtests as async jobs.
type BacktestHandler struct {
	app     *app.App
	jobs    *job.Store
	metrics *metrics.Registry
	log     *zap.Logger
}

// NewBacktestHandler creates a new backtest handler.
func NewBacktestHandler(a *app.App, jobs *job.Store, reg *metrics.Registry, log *zap.Logger) *BacktestHandler {
	return &BacktestHandler{app: a, jobs: jobs, metrics: reg, log: log}
}

// Create handles POST /api/v1/backtests. Bad parameters and unknown
// datasets are rejected here so a job only ever exists for a run that can
// start; the run itself happens in the background.
func (h *BacktestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrMalformedData, err))
		return
	}
	if req.DatasetID == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidParams, fmt.Errorf("dataset_id is required")))
		return
	}
	if err := h.app.CheckOverrides(req.overrides()); err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}
	if _, err := h.app.Store().Get(r.Context(), req.DatasetID); err != nil {
		response.Error(w, statusFor(err), err)
		return
	}

	j := h.jobs.Create("backtest")
	h.metrics.SetJobsActive("backtest", h.jobs.Active())

	go h.runBacktest(j.ID, req)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	})
}

// runBacktest executes the run and moves the job to a terminal state.
func (h *BacktestHandler) runBacktest(jobID string, req BacktestRequest) {
	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	res, err := h.app.RunBacktest(ctx, req.DatasetID, req.overrides())
	if err != nil {
		h.log.Error("backtest job failed",
			zap.String("job_id", jobID),
			zap.String("dataset_id", req.DatasetID),
			zap.Error(err))
		h.jobs.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = asCoreError(err)
		})
	} else {
		h.jobs.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusComplete
			j.Result = buildResult(res)
		})
	}

	h.metrics.SetJobsActive("backtest", h.jobs.Active())
}

// Get handles GET /api/v1/backtests/{id}. Completed jobs carry the full
// result payload, failed ones the error that stopped them.
func (h *BacktestHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, statusFor(err), err)
		return
	}

	resp := map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	}
	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}

	response.JSON(w, http.StatusOK, resp)
}

func asCoreError(err error) *core.Error {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return coreErr
	}
	return &core.Error{Code: "INTERNAL_ERROR", Message: err.Error()}
}
