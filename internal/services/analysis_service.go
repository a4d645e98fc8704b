package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hotfire/internal/analysis"
	"hotfire/internal/burn"
	"hotfire/internal/columns"
	"hotfire/internal/config"
	"hotfire/internal/dataset"
	"hotfire/internal/exporter"
	"hotfire/internal/infrastructure"
	"hotfire/internal/performance"
	"hotfire/internal/plot"
	"hotfire/internal/report"
	ws "hotfire/internal/websocket"
)

// PDFRenderer prints a report document.
type PDFRenderer interface {
	Render(ctx context.Context, doc *report.Document) ([]byte, error)
}

// AnalysisService owns the analysis sessions of the server.
type AnalysisService struct {
	cfg       config.AnalysisConfig
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *infrastructure.BusinessMetrics
	publisher ws.Publisher
	pdf       PDFRenderer

	mu       sync.RWMutex
	sessions map[string]*analysis.Session
	closed   bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// Option customises an AnalysisService.
type Option func(*AnalysisService)

// WithTracer sets the tracer used for transition spans.
func WithTracer(t trace.Tracer) Option { return func(s *AnalysisService) { s.tracer = t } }

// WithMetrics records business metrics.
func WithMetrics(m *infrastructure.BusinessMetrics) Option {
	return func(s *AnalysisService) { s.metrics = m }
}

// WithPublisher pushes every state change to the session's websocket clients.
func WithPublisher(p ws.Publisher) Option { return func(s *AnalysisService) { s.publisher = p } }

// WithPDFRenderer enables PDF export.
func WithPDFRenderer(r PDFRenderer) Option { return func(s *AnalysisService) { s.pdf = r } }

// NewAnalysisService creates an analysis service with injected dependencies
func NewAnalysisService(cfg config.AnalysisConfig, logger *slog.Logger, opts ...Option) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AnalysisService{
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "analysis_service")),
		tracer:   otel.Tracer("hotfire/services"),
		sessions: make(map[string]*analysis.Session),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger.Info("AnalysisService initialized",
		slog.Int("max_sessions", cfg.MaxSessions),
		slog.Duration("session_ttl", cfg.SessionTTL),
		slog.Int64("max_upload_bytes", cfg.MaxUploadBytes),
		slog.Bool("pdf_enabled", s.pdf != nil))
	return s
}

// Start runs the idle-session sweeper until Close is called.
func (s *AnalysisService) Start() {
	interval := s.cfg.SweepInterval
	if interval <= 0 || s.cfg.SessionTTL <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case now := <-ticker.C:
				if n := s.Sweep(now); n > 0 {
					s.logger.Info("Expired idle sessions", slog.Int("count", n))
				}
			}
		}
	}()
}

// Close stops the sweeper and drops every session.
func (s *AnalysisService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.stop)
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
	for _, id := range ids {
		s.Delete(context.Background(), id)
	}
}

// Count returns the number of live sessions.
func (s *AnalysisService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Create parses an uploaded dataset and opens a session for it. The file
// name picks the format; unknown extensions are rejected.
func (s *AnalysisService) Create(ctx context.Context, name string, r io.Reader) (*analysis.Session, *analysis.State, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.create", trace.WithAttributes(attribute.String("dataset.name", name)))
	defer span.End()

	format, err := formatOf(name)
	if err != nil {
		return nil, nil, s.fail(span, err)
	}
	if s.Count() >= s.cfg.MaxSessions {
		return nil, nil, s.fail(span, ErrSessionLimit)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, nil, s.fail(span, fmt.Errorf("read upload: %w", err))
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, nil, s.fail(span, fmt.Errorf("%w: limit is %d bytes", ErrPayloadTooLarge, s.cfg.MaxUploadBytes))
	}

	ds, err := dataset.Read(name, bytes.NewReader(data), format)
	if err != nil {
		if !errors.Is(err, dataset.ErrEmptyDataset) {
			err = fmt.Errorf("%w: %v", ErrUnreadableData, err)
		}
		return nil, nil, s.fail(span, err)
	}

	sess := analysis.NewSession(uuid.New().String())
	span.SetAttributes(attribute.String("session.id", sess.ID), attribute.Int("dataset.rows", ds.Len()))

	if s.cfg.DefaultPadding > 0 {
		if _, err := sess.SetPadding(s.cfg.DefaultPadding); err != nil {
			return nil, nil, s.fail(span, err)
		}
	}
	if s.publisher != nil {
		id := sess.ID
		sess.Subscribe(func(trigger analysis.Trigger, st *analysis.State) {
			s.publisher.Publish(id, ws.TypeState, NewStateEvent(id, trigger, st), "")
		})
	}

	st, err := sess.Load(ds)
	if err != nil {
		return nil, nil, s.fail(span, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil, s.fail(span, ErrServiceClosed)
	}
	if len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		return nil, nil, s.fail(span, ErrSessionLimit)
	}
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.DatasetRowsLoaded.Add(ctx, int64(ds.Len()))
	}
	infrastructure.RecordActiveSessionChange(ctx, s.metrics, 1)

	s.logger.InfoContext(ctx, "Analysis session created",
		slog.String("session_id", sess.ID),
		slog.String("dataset", ds.Name()),
		slog.Int("rows", ds.Len()),
		slog.Int("fields", len(ds.Fields())),
		slog.String("phase", st.Phase.String()))
	return sess, st, nil
}

func formatOf(name string) (dataset.Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case "", ".csv", ".txt":
		return dataset.FormatCSV, nil
	case ".xlsx", ".xlsm":
		return dataset.FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// Get returns the session with id.
func (s *AnalysisService) Get(id string) (*analysis.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// State returns the current snapshot of session id.
func (s *AnalysisService) State(ctx context.Context, id string) (*analysis.State, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.Snapshot(), nil
}

// Delete closes session id and disconnects its websocket clients.
func (s *AnalysisService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	if s.publisher != nil {
		s.publisher.CloseSession(id)
	}
	infrastructure.RecordActiveSessionChange(ctx, s.metrics, -1)
	s.logger.InfoContext(ctx, "Analysis session closed", slog.String("session_id", id))
	return nil
}

// Sweep deletes sessions idle since before now minus the TTL.
func (s *AnalysisService) Sweep(now time.Time) int {
	cutoff := now.Add(-s.cfg.SessionTTL)
	s.mu.RLock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.LastAccess().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	n := 0
	for _, id := range expired {
		if s.Delete(context.Background(), id) == nil {
			n++
		}
	}
	return n
}

// Subscribe registers fn for state changes of session id.
func (s *AnalysisService) Subscribe(id string, fn analysis.Observer) (func(), error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.Subscribe(fn), nil
}

// AssignColumns replaces the column assignment of session id.
func (s *AnalysisService) AssignColumns(ctx context.Context, id string, a columns.Assignment) (*analysis.State, error) {
	return s.transition(ctx, id, analysis.TriggerColumns, func(sess *analysis.Session) (*analysis.State, error) {
		return sess.AssignColumns(a)
	})
}

// SetWindow selects the windowing mode of session id and recomputes.
func (s *AnalysisService) SetWindow(ctx context.Context, id string, mode burn.Mode) (*analysis.State, error) {
	return s.transition(ctx, id, analysis.TriggerWindow, func(sess *analysis.Session) (*analysis.State, error) {
		return sess.SetMode(mode)
	})
}

// SetPadding changes the padding fraction of session id.
func (s *AnalysisService) SetPadding(ctx context.Context, id string, fraction float64) (*analysis.State, error) {
	return s.transition(ctx, id, analysis.TriggerPadding, func(sess *analysis.Session) (*analysis.State, error) {
		return sess.SetPadding(fraction)
	})
}

func (s *AnalysisService) transition(ctx context.Context, id string, trigger analysis.Trigger, fn func(*analysis.Session) (*analysis.State, error)) (*analysis.State, error) {
	ctx, span := s.tracer.Start(ctx, "analysis."+string(trigger),
		trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	sess, err := s.Get(id)
	if err != nil {
		return nil, s.fail(span, err)
	}

	start := time.Now()
	st, err := fn(sess)
	if err != nil {
		s.logger.WarnContext(ctx, "Transition rejected",
			slog.String("session_id", id),
			slog.String("trigger", string(trigger)),
			slog.String("error", err.Error()))
		return nil, s.fail(span, err)
	}

	span.SetAttributes(
		attribute.String("analysis.phase", st.Phase.String()),
		attribute.Int64("analysis.version", int64(st.Version)),
	)
	if st.Phase == analysis.Computed {
		kind := ""
		if st.Err != nil {
			kind = st.ErrorKind().String()
			span.AddEvent("engine error", trace.WithAttributes(
				attribute.String("kind", kind),
				attribute.String("reason", burn.ReasonOf(st.Err)),
			))
		}
		infrastructure.RecordRecompute(ctx, s.metrics, string(trigger), time.Since(start), kind)
	}

	attrs := []any{
		slog.String("session_id", id),
		slog.String("trigger", string(trigger)),
		slog.String("phase", st.Phase.String()),
		slog.Uint64("version", st.Version),
	}
	if st.Err != nil {
		attrs = append(attrs, slog.String("engine_error", st.ErrorKind().String()))
	}
	s.logger.InfoContext(ctx, "Analysis state updated", attrs...)
	return st, nil
}

func (s *AnalysisService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Series builds one plottable series from the current snapshot.
func (s *AnalysisService) Series(ctx context.Context, id string, name analysis.SeriesName, opts analysis.SeriesOptions) (analysis.Series, error) {
	st, err := s.State(ctx, id)
	if err != nil {
		return analysis.Series{}, err
	}
	return st.Series(name, opts)
}

// Average returns the mean of series name between t1 and t2 over the
// padded window, at full resolution.
func (s *AnalysisService) Average(ctx context.Context, id string, name analysis.SeriesName, t1, t2 float64) (float64, error) {
	series, err := s.Series(ctx, id, name, analysis.SeriesOptions{})
	if err != nil {
		return 0, err
	}
	avg, err := performance.AverageBetween(series.Time, series.Values, t1, t2)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(avg) || math.IsInf(avg, 0) {
		return 0, fmt.Errorf("%w: selection contains missing samples", performance.ErrEmptyRange)
	}
	return avg, nil
}

// Performance derives Isp and exhaust velocity, plus c* when a throat area
// is given and a chamber pressure column is assigned.
func (s *AnalysisService) Performance(ctx context.Context, id string, in performance.Inputs, opts analysis.SeriesOptions) ([]analysis.Series, error) {
	if _, err := in.MassFlowSlugs(); err != nil {
		return nil, err
	}
	st, err := s.State(ctx, id)
	if err != nil {
		return nil, err
	}

	names := []analysis.SeriesName{analysis.SeriesSpecificImpulse, analysis.SeriesExhaustVelocity}
	if in.ThroatArea > 0 && st.Assignment.ChamberPressure != "" {
		names = append(names, analysis.SeriesCharacteristicVc)
	}

	opts.Inputs = &in
	out := make([]analysis.Series, 0, len(names))
	for _, name := range names {
		series, err := st.Series(name, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, series)
	}
	return out, nil
}

// Statistics summarises every channel over the core window.
func (s *AnalysisService) Statistics(ctx context.Context, id string) ([]analysis.ChannelStats, error) {
	st, err := s.State(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.Phase != analysis.Computed {
		return nil, exporter.ErrNotComputed
	}
	return st.Statistics(), nil
}

// Plot renders series name as a PNG to w.
func (s *AnalysisService) Plot(ctx context.Context, id string, name analysis.SeriesName, opts analysis.SeriesOptions, w io.Writer) error {
	series, err := s.Series(ctx, id, name, opts)
	if err != nil {
		return err
	}
	if err := plot.Render(w, plot.FromSeries(series)); err != nil {
		return &RenderError{Output: string(name) + " plot", Err: err}
	}
	infrastructure.RecordExport(ctx, s.metrics, "png")
	return nil
}

// CustomPlot overlays several series with optional constant lines.
func (s *AnalysisService) CustomPlot(ctx context.Context, id, title string, names []analysis.SeriesName, constants []plot.Constant, opts analysis.SeriesOptions, w io.Writer) error {
	st, err := s.State(ctx, id)
	if err != nil {
		return err
	}
	series := make([]analysis.Series, 0, len(names))
	for _, name := range names {
		sr, err := st.Series(name, opts)
		if err != nil {
			return err
		}
		series = append(series, sr)
	}
	if title == "" {
		title = "Custom Plot"
	}
	if err := plot.Render(w, plot.Custom(title, series, constants)); err != nil {
		return &RenderError{Output: "custom plot", Err: err}
	}
	infrastructure.RecordExport(ctx, s.metrics, "png")
	return nil
}

// ExportCSV writes the window samples of session id. padded selects the
// padded mask.
func (s *AnalysisService) ExportCSV(ctx context.Context, id string, padded bool, w io.Writer) error {
	st, err := s.State(ctx, id)
	if err != nil {
		return err
	}
	table, err := exporter.WindowTable(st, padded)
	if err != nil {
		return err
	}
	if err := table.WriteCSV(w); err != nil {
		return err
	}
	infrastructure.RecordExport(ctx, s.metrics, "csv")
	return nil
}

// ExportXLSX writes the metrics workbook of session id.
func (s *AnalysisService) ExportXLSX(ctx context.Context, id string, w io.Writer) error {
	st, err := s.State(ctx, id)
	if err != nil {
		return err
	}
	if err := exporter.WriteWorkbook(w, st); err != nil {
		if errors.Is(err, exporter.ErrNotComputed) {
			return err
		}
		return &RenderError{Output: "workbook", Err: err}
	}
	infrastructure.RecordExport(ctx, s.metrics, "xlsx")
	return nil
}

// ExportPDF renders the full report of session id.
func (s *AnalysisService) ExportPDF(ctx context.Context, id string, opts report.Options) ([]byte, error) {
	if s.pdf == nil {
		return nil, ErrRendererUnavailable
	}
	ctx, span := s.tracer.Start(ctx, "analysis.export_pdf", trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	st, err := s.State(ctx, id)
	if err != nil {
		return nil, s.fail(span, err)
	}
	if st.Phase != analysis.Computed {
		return nil, s.fail(span, exporter.ErrNotComputed)
	}
	doc, err := report.Build(ctx, st, opts)
	if err != nil {
		return nil, s.fail(span, err)
	}
	data, err := s.pdf.Render(ctx, doc)
	if err != nil {
		return nil, s.fail(span, &RenderError{Output: "PDF report", Err: err})
	}
	infrastructure.RecordExport(ctx, s.metrics, "pdf")
	s.logger.InfoContext(ctx, "PDF report rendered",
		slog.String("session_id", id),
		slog.Int("figures", len(doc.Figures)),
		slog.Int("bytes", len(data)))
	return data, nil
}
