package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"hotfire/internal/analysis"
	"hotfire/internal/burn"
	"hotfire/internal/columns"
	"hotfire/internal/config"
	"hotfire/internal/infrastructure"
	"hotfire/internal/performance"
	"hotfire/internal/plot"
	"hotfire/internal/report"
	"hotfire/internal/services"
	api "hotfire/pkg/contracts/api/v1"

	apierrors "hotfire/internal/errors"
	customMiddleware "hotfire/internal/middleware"
)

const (
	maxDownsample   = 10000
	defaultUploadAs = "upload.csv"
	multipartSlack  = 1 << 20
)

// AnalysisHandler exposes analysis sessions over HTTP with RFC 7807 errors
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	cfg          config.AnalysisConfig
	validator    *customMiddleware.ValidationMiddleware
	query        *customMiddleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	stream       http.HandlerFunc
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(
	service AnalysisServiceInterface,
	cfg config.AnalysisConfig,
	validator *customMiddleware.ValidationMiddleware,
	logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler,
) *AnalysisHandler {
	return &AnalysisHandler{
		service:      service,
		cfg:          cfg,
		validator:    validator,
		query:        customMiddleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
	}
}

// WithStream serves fn at /{id}/ws.
func (h *AnalysisHandler) WithStream(fn http.HandlerFunc) *AnalysisHandler {
	h.stream = fn
	return h
}

// Routes returns the session routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateSession)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.SessionCtx)

		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)

		r.Put("/columns", h.AssignColumns)
		r.Put("/window", h.SetWindow)
		r.Put("/padding", h.SetPadding)

		r.Get("/series/{name}", h.GetSeries)
		r.Post("/average", h.Average)
		r.Post("/performance", h.Performance)
		r.Get("/statistics", h.Statistics)

		r.Get("/plots/{name}.png", h.Plot)
		r.Post("/plots/custom", h.CustomPlot)

		r.Get("/export.csv", h.ExportCSV)
		r.Get("/export.xlsx", h.ExportXLSX)
		r.Get("/report.pdf", h.ReportPDF)

		if h.stream != nil {
			r.Get("/ws", h.stream)
		}
	})

	return r
}

// SessionCtx rejects blank session ids and tags the request context with
// the id so every log line of the request carries it.
func (h *AnalysisHandler) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "Session id is required"))
			return
		}
		next.ServeHTTP(w, r.WithContext(infrastructure.WithSessionID(r.Context(), id)))
	})
}

func (h *AnalysisHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.WarnContext(r.Context(), op+" failed",
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	h.errorHandler.HandleError(w, r, toAPIError(err))
}

func (h *AnalysisHandler) respondState(w http.ResponseWriter, r *http.Request, id string, st *analysis.State) {
	render.JSON(w, r, services.NewStateResponse(id, st))
}

// CreateSession handles POST /api/sessions. The dataset is read from the
// multipart "file" field, or from the raw body named by ?name=.
func (h *AnalysisHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+multipartSlack)

	name, body, err := h.upload(r)
	if err != nil {
		h.fail(w, r, "upload", err)
		return
	}
	defer body.Close()

	sess, st, err := h.service.Create(ctx, name, body)
	if err != nil {
		h.fail(w, r, "create session", err)
		return
	}

	h.logger.InfoContext(ctx, "session created",
		slog.String("session_id", sess.ID),
		slog.String("dataset", name),
		slog.String("request_id", middleware.GetReqID(ctx)),
	)
	w.Header().Set("Location", fmt.Sprintf("%s/%s", strings.TrimSuffix(r.URL.Path, "/"), sess.ID))
	render.Status(r, http.StatusCreated)
	h.respondState(w, r, sess.ID, st)
}

func (h *AnalysisHandler) upload(r *http.Request) (string, io.ReadCloser, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		name := r.URL.Query().Get("name")
		if name == "" {
			name = defaultUploadAs
		}
		return filepath.Base(name), r.Body, nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", nil, fmt.Errorf("%w: %v", services.ErrPayloadTooLarge, err)
		}
		return "", nil, apierrors.ErrValidation("file", "multipart field 'file' is required")
	}
	return filepath.Base(header.Filename), file, nil
}

// GetSession handles GET /api/sessions/{id}
func (h *AnalysisHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, err := h.service.State(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get session", err)
		return
	}
	h.respondState(w, r, id, st)
}

// DeleteSession handles DELETE /api/sessions/{id}
func (h *AnalysisHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignColumns handles PUT /api/sessions/{id}/columns
func (h *AnalysisHandler) AssignColumns(w http.ResponseWriter, r *http.Request) {
	var req api.ColumnsRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	st, err := h.service.AssignColumns(r.Context(), id, columns.Assignment{
		Time:            req.Time,
		Thrust:          req.Thrust,
		ChamberPressure: req.ChamberPressure,
		FuelWeight:      req.FuelWeight,
		OxidizerWeight:  req.OxidizerWeight,
	})
	if err != nil {
		h.fail(w, r, "assign columns", err)
		return
	}
	h.respondState(w, r, id, st)
}

// SetWindow handles PUT /api/sessions/{id}/window
func (h *AnalysisHandler) SetWindow(w http.ResponseWriter, r *http.Request) {
	var req api.WindowRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var mode burn.Mode
	if req.TargetThrust != nil {
		mode = burn.TargetThrust{Value: *req.TargetThrust}
	} else {
		mode = burn.CustomRange{Start: *req.CustomRange.Start, End: *req.CustomRange.End}
	}

	id := chi.URLParam(r, "id")
	st, err := h.service.SetWindow(r.Context(), id, mode)
	if err != nil {
		h.fail(w, r, "set window", err)
		return
	}
	h.respondState(w, r, id, st)
}

// SetPadding handles PUT /api/sessions/{id}/padding
func (h *AnalysisHandler) SetPadding(w http.ResponseWriter, r *http.Request) {
	var req api.PaddingRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	st, err := h.service.SetPadding(r.Context(), id, *req.Fraction)
	if err != nil {
		h.fail(w, r, "set padding", err)
		return
	}
	h.respondState(w, r, id, st)
}

// seriesOptions reads padded, downsample and smooth from the query string.
// It writes the error response itself and reports false on bad input.
func (h *AnalysisHandler) seriesOptions(w http.ResponseWriter, r *http.Request) (analysis.SeriesOptions, bool) {
	padded, ok := h.query.ValidateBool(w, r, "padded", true)
	if !ok {
		return analysis.SeriesOptions{}, false
	}
	downsample, ok := h.query.ValidateInt(w, r, "downsample", 1, maxDownsample, max(h.cfg.DefaultDownsample, 1))
	if !ok {
		return analysis.SeriesOptions{}, false
	}
	smooth, ok := h.query.ValidateInt(w, r, "smooth", 0, config.MaxSmoothWindow, 0)
	if !ok {
		return analysis.SeriesOptions{}, false
	}
	return analysis.SeriesOptions{Core: !padded, Downsample: downsample, Smooth: smooth}, true
}

// GetSeries handles GET /api/sessions/{id}/series/{name}
func (h *AnalysisHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.seriesOptions(w, r)
	if !ok {
		return
	}
	name := analysis.SeriesName(chi.URLParam(r, "name"))
	series, err := h.service.Series(r.Context(), chi.URLParam(r, "id"), name, opts)
	if err != nil {
		h.fail(w, r, "get series", err)
		return
	}
	render.JSON(w, r, services.NewSeriesResponse(series))
}

// Average handles POST /api/sessions/{id}/average
func (h *AnalysisHandler) Average(w http.ResponseWriter, r *http.Request) {
	var req api.AverageRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	avg, err := h.service.Average(r.Context(), chi.URLParam(r, "id"), analysis.SeriesName(req.Series), *req.T1, *req.T2)
	if err != nil {
		h.fail(w, r, "average", err)
		return
	}
	render.JSON(w, r, api.AverageResponse{Series: req.Series, T1: *req.T1, T2: *req.T2, Average: avg})
}

// Performance handles POST /api/sessions/{id}/performance
func (h *AnalysisHandler) Performance(w http.ResponseWriter, r *http.Request) {
	var req api.PerformanceRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	opts, ok := h.seriesOptions(w, r)
	if !ok {
		return
	}

	in := performance.Inputs{
		FuelMassFlow:     req.FuelMassFlow,
		OxidizerMassFlow: req.OxidizerMassFlow,
		ThroatArea:       req.ThroatArea,
	}
	series, err := h.service.Performance(r.Context(), chi.URLParam(r, "id"), in, opts)
	if err != nil {
		h.fail(w, r, "performance", err)
		return
	}

	out := make([]api.SeriesResponse, 0, len(series))
	for _, s := range series {
		out = append(out, services.NewSeriesResponse(s))
	}
	render.JSON(w, r, out)
}

// Statistics handles GET /api/sessions/{id}/statistics
func (h *AnalysisHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "statistics", err)
		return
	}
	render.JSON(w, r, services.NewStatisticsResponse(stats))
}

// Plot handles GET /api/sessions/{id}/plots/{name}.png
func (h *AnalysisHandler) Plot(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.seriesOptions(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	name := analysis.SeriesName(chi.URLParam(r, "name"))
	if err := h.service.Plot(r.Context(), chi.URLParam(r, "id"), name, opts, &buf); err != nil {
		h.fail(w, r, "plot", err)
		return
	}
	writeBinary(w, "image/png", "", buf.Bytes())
}

// CustomPlot handles POST /api/sessions/{id}/plots/custom
func (h *AnalysisHandler) CustomPlot(w http.ResponseWriter, r *http.Request) {
	var req api.CustomPlotRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	names := make([]analysis.SeriesName, len(req.Series))
	for i, s := range req.Series {
		names[i] = analysis.SeriesName(s)
	}
	constants := make([]plot.Constant, len(req.Constants))
	for i, c := range req.Constants {
		constants[i] = plot.Constant{Name: c.Name, Value: c.Value}
	}
	opts := analysis.SeriesOptions{Core: req.Core, Downsample: max(h.cfg.DefaultDownsample, 1), Smooth: req.Smooth}

	var buf bytes.Buffer
	if err := h.service.CustomPlot(r.Context(), chi.URLParam(r, "id"), req.Title, names, constants, opts, &buf); err != nil {
		h.fail(w, r, "custom plot", err)
		return
	}
	writeBinary(w, "image/png", "", buf.Bytes())
}

// ExportCSV handles GET /api/sessions/{id}/export.csv
func (h *AnalysisHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	padded, ok := h.query.ValidateBool(w, r, "padded", false)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	var buf bytes.Buffer
	if err := h.service.ExportCSV(r.Context(), id, padded, &buf); err != nil {
		h.fail(w, r, "export csv", err)
		return
	}
	writeBinary(w, "text/csv; charset=utf-8", h.filename(r, id, "window.csv"), buf.Bytes())
}

// ExportXLSX handles GET /api/sessions/{id}/export.xlsx
func (h *AnalysisHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var buf bytes.Buffer
	if err := h.service.ExportXLSX(r.Context(), id, &buf); err != nil {
		h.fail(w, r, "export xlsx", err)
		return
	}
	writeBinary(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		h.filename(r, id, "metrics.xlsx"), buf.Bytes())
}

// ReportPDF handles GET /api/sessions/{id}/report.pdf
func (h *AnalysisHandler) ReportPDF(w http.ResponseWriter, r *http.Request) {
	smooth, ok := h.query.ValidateInt(w, r, "smooth", 0, config.MaxSmoothWindow, 0)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	data, err := h.service.ExportPDF(r.Context(), id, report.Options{
		Downsample: max(h.cfg.DefaultDownsample, 1),
		Smooth:     smooth,
	})
	if err != nil {
		h.fail(w, r, "report pdf", err)
		return
	}
	writeBinary(w, "application/pdf", h.filename(r, id, "report.pdf"), data)
}

// filename derives an attachment name from the session's dataset.
func (h *AnalysisHandler) filename(r *http.Request, id, suffix string) string {
	stem := "hotfire"
	if st, err := h.service.State(r.Context(), id); err == nil && st.Dataset != nil {
		base := filepath.Base(st.Dataset.Name())
		stem = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return fmt.Sprintf("%s_%s", stem, suffix)
}

func writeBinary(w http.ResponseWriter, contentType, attachment string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	if attachment != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": attachment}))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
