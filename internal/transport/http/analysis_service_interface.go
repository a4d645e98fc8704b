package http

import (
	"context"
	"io"

	"hotfire/internal/analysis"
	"hotfire/internal/burn"
	"hotfire/internal/columns"
	"hotfire/internal/performance"
	"hotfire/internal/plot"
	"hotfire/internal/report"
)

// AnalysisServiceInterface defines the session operations used by the HTTP layer
type AnalysisServiceInterface interface {
	Create(ctx context.Context, name string, r io.Reader) (*analysis.Session, *analysis.State, error)
	State(ctx context.Context, id string) (*analysis.State, error)
	Delete(ctx context.Context, id string) error

	AssignColumns(ctx context.Context, id string, a columns.Assignment) (*analysis.State, error)
	SetWindow(ctx context.Context, id string, mode burn.Mode) (*analysis.State, error)
	SetPadding(ctx context.Context, id string, fraction float64) (*analysis.State, error)

	Series(ctx context.Context, id string, name analysis.SeriesName, opts analysis.SeriesOptions) (analysis.Series, error)
	Average(ctx context.Context, id string, name analysis.SeriesName, t1, t2 float64) (float64, error)
	Performance(ctx context.Context, id string, in performance.Inputs, opts analysis.SeriesOptions) ([]analysis.Series, error)
	Statistics(ctx context.Context, id string) ([]analysis.ChannelStats, error)

	Plot(ctx context.Context, id string, name analysis.SeriesName, opts analysis.SeriesOptions, w io.Writer) error
	CustomPlot(ctx context.Context, id, title string, names []analysis.SeriesName, constants []plot.Constant, opts analysis.SeriesOptions, w io.Writer) error
	ExportCSV(ctx context.Context, id string, padded bool, w io.Writer) error
	ExportXLSX(ctx context.Context, id string, w io.Writer) error
	ExportPDF(ctx context.Context, id string, opts report.Options) ([]byte, error)
}
