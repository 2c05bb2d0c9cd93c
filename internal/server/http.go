// Package server exposes run history and health over HTTP and gRPC health.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/n42-extract/internal/common"
	"github.com/joseph-ayodele/n42-extract/internal/entity"
	"github.com/joseph-ayodele/n42-extract/internal/export"
	"github.com/joseph-ayodele/n42-extract/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

// API serves the daemon's HTTP surface.
type API struct {
	runs     repository.RunRepository
	results  repository.ResultRepository
	db       Pinger
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

func NewAPI(
	runs repository.RunRepository,
	results repository.ResultRepository,
	db Pinger,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) *API {
	if logger == nil {
		logger = slog.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &API{runs: runs, results: results, db: db, gatherer: gatherer, logger: logger}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type runsResponse struct {
	Runs []*entity.Run `json:"runs"`
}

type resultsResponse struct {
	Run     *entity.Run              `json:"run"`
	Results []*entity.DocumentResult `json:"results"`
}

// Router builds the chi router for the API.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/healthz", a.health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/runs", func(r chi.Router) {
		r.Get("/", a.listRuns)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", a.getRun)
			r.Get("/results", a.listResults)
			r.Get("/export.xlsx", a.exportRun)
		})
	})
	return r
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	if a.db != nil {
		if err := a.db.HealthCheck(r.Context(), 2*time.Second); err != nil {
			a.fail(w, r, http.StatusServiceUnavailable, "DB_UNAVAILABLE", err)
			return
		}
	}
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (a *API) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			a.fail(w, r, http.StatusBadRequest, "INVALID_LIMIT", fmt.Errorf("limit must be a positive integer"))
			return
		}
		limit = min(n, maxListLimit)
	}
	runs, err := a.runs.List(r.Context(), limit)
	if err != nil {
		a.fail(w, r, http.StatusInternalServerError, "LIST_RUNS_FAILED", err)
		return
	}
	if runs == nil {
		runs = []*entity.Run{}
	}
	render.JSON(w, r, runsResponse{Runs: runs})
}

func (a *API) getRun(w http.ResponseWriter, r *http.Request) {
	run, ok := a.loadRun(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, run)
}

func (a *API) listResults(w http.ResponseWriter, r *http.Request) {
	run, ok := a.loadRun(w, r)
	if !ok {
		return
	}
	results, err := a.results.ListByRun(r.Context(), run.ID)
	if err != nil {
		a.fail(w, r, http.StatusInternalServerError, "LIST_RESULTS_FAILED", err)
		return
	}
	if results == nil {
		results = []*entity.DocumentResult{}
	}
	render.JSON(w, r, resultsResponse{Run: run, Results: results})
}

func (a *API) exportRun(w http.ResponseWriter, r *http.Request) {
	run, ok := a.loadRun(w, r)
	if !ok {
		return
	}
	results, err := a.results.ListByRun(r.Context(), run.ID)
	if err != nil {
		a.fail(w, r, http.StatusInternalServerError, "LIST_RESULTS_FAILED", err)
		return
	}
	rows := make([]entity.Row, 0, len(results))
	for _, res := range results {
		if res.OK() {
			rows = append(rows, *res.Row)
		}
	}
	b, err := export.XLSXBytes(rows)
	if err != nil {
		a.fail(w, r, http.StatusInternalServerError, "EXPORT_FAILED", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "n42_extract_"+run.ID.String()+".xlsx"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(b); err != nil {
		a.logger.Warn("export write failed", "run_id", run.ID, "error", err)
	}
}

func (a *API) loadRun(w http.ResponseWriter, r *http.Request) (*entity.Run, bool) {
	raw := chi.URLParam(r, "id")
	v := common.NewValidator().Field("id", raw, common.UUID)
	if v.HasErrors() {
		a.fail(w, r, http.StatusBadRequest, "INVALID_ID", v.Error())
		return nil, false
	}
	run, err := a.runs.Get(r.Context(), uuid.MustParse(raw))
	switch {
	case repository.IsNotFound(err):
		a.fail(w, r, http.StatusNotFound, "RUN_NOT_FOUND", err)
		return nil, false
	case err != nil:
		a.fail(w, r, http.StatusInternalServerError, "GET_RUN_FAILED", err)
		return nil, false
	}
	return run, true
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	a.logger.Log(r.Context(), level, "request failed",
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"code", code,
		"error", err,
	)
	msg := err.Error()
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Code: code, Message: msg})
}
