// Package plot renders analysis series to PNG line charts.
package plot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/sync/errgroup"

	"hotfire/internal/analysis"
	"hotfire/internal/config"
)

// ErrNoData is returned when no line has a finite point.
var ErrNoData = errors.New("plot has no finite data points")

var (
	colorPurple = drawing.Color{R: 128, G: 0, B: 128, A: 255}
	colorBrown  = drawing.Color{R: 140, G: 86, B: 75, A: 255}
	colorTeal   = drawing.Color{R: 23, G: 190, B: 207, A: 255}
	colorGray   = drawing.Color{R: 110, G: 110, B: 110, A: 255}

	// palette cycles for custom plots.
	palette = []drawing.Color{
		chart.ColorBlue, chart.ColorRed, chart.ColorOrange, chart.ColorGreen,
		colorPurple, colorBrown, colorTeal, colorGray,
	}

	seriesColors = map[analysis.SeriesName]drawing.Color{
		analysis.SeriesThrust:           chart.ColorBlue,
		analysis.SeriesTotalThrustRaw:   chart.ColorBlue,
		analysis.SeriesChamberPressure:  chart.ColorRed,
		analysis.SeriesOxidizerWeight:   chart.ColorOrange,
		analysis.SeriesFuelWeight:       chart.ColorGreen,
		analysis.SeriesOFRatio:          colorPurple,
		analysis.SeriesSpecificImpulse:  colorBrown,
		analysis.SeriesExhaustVelocity:  colorTeal,
		analysis.SeriesCharacteristicVc: chart.ColorRed,
	}
)

// Line is one polyline on a chart.
type Line struct {
	Name   string
	X      []float64
	Y      []float64
	Color  drawing.Color
	Dashed bool
}

// Constant is a horizontal reference line spanning the plot.
type Constant struct {
	Name  string
	Value float64
}

// Request describes one chart.
type Request struct {
	Title     string
	XLabel    string
	YLabel    string
	Lines     []Line
	Constants []Constant
	Width     int
	Height    int
}

// FromSeries builds a single-series request. A smoothed overlay is added
// as a second, darker line when present.
func FromSeries(s analysis.Series) Request {
	col, ok := seriesColors[s.Name]
	if !ok {
		col = chart.ColorBlue
	}
	req := Request{
		Title:  s.Title,
		XLabel: s.XLabel,
		YLabel: s.YLabel,
		Lines:  []Line{{Name: s.YLabel, X: s.Time, Y: s.Values, Color: col}},
	}
	if len(s.Smoothed) > 0 {
		req.Lines[0].Color = col.WithAlpha(110)
		req.Lines = append(req.Lines, Line{Name: "Smoothed", X: s.Time, Y: s.Smoothed, Color: col})
	}
	return req
}

// Custom overlays several series on one chart, cycling through the palette.
func Custom(title string, series []analysis.Series, constants []Constant) Request {
	req := Request{Title: title, Constants: constants}
	for i, s := range series {
		if i == 0 {
			req.XLabel = s.XLabel
			req.YLabel = s.YLabel
		} else if req.YLabel != s.YLabel {
			req.YLabel = "Value"
		}
		req.Lines = append(req.Lines, Line{
			Name:  string(s.Name),
			X:     s.Time,
			Y:     s.Values,
			Color: palette[i%len(palette)],
		})
	}
	return req
}

// Render draws req as a PNG to w.
func Render(w io.Writer, req Request) error {
	ch, err := build(req)
	if err != nil {
		return err
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %q: %w", req.Title, err)
	}
	return nil
}

// RenderAll renders every request concurrently and returns the PNGs in
// request order. The first failure cancels the rest.
func RenderAll(ctx context.Context, reqs []Request) ([][]byte, error) {
	out := make([][]byte, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := Render(&buf, req); err != nil {
				return err
			}
			out[i] = buf.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func build(req Request) (chart.Chart, error) {
	xr, yr := newBounds(), newBounds()
	var series []chart.Series

	for _, l := range req.Lines {
		xs, ys := finitePairs(l.X, l.Y)
		if len(xs) == 0 {
			continue
		}
		if len(xs) == 1 {
			// single points give a zero x-range
			xs = []float64{xs[0], xs[0] + 1}
			ys = []float64{ys[0], ys[0]}
		}
		for i := range xs {
			xr.add(xs[i])
			yr.add(ys[i])
		}
		st := chart.Style{StrokeWidth: 1.5, StrokeColor: l.Color}
		if l.Dashed {
			st.StrokeDashArray = []float64{5, 5}
		}
		series = append(series, chart.ContinuousSeries{Name: l.Name, XValues: xs, YValues: ys, Style: st})
	}
	if len(series) == 0 {
		return chart.Chart{}, ErrNoData
	}

	for i, c := range req.Constants {
		if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
			continue
		}
		yr.add(c.Value)
		series = append(series, chart.ContinuousSeries{
			Name:    c.Name,
			XValues: []float64{xr.min, xr.max},
			YValues: []float64{c.Value, c.Value},
			Style: chart.Style{
				StrokeWidth:     1,
				StrokeColor:     palette[(i+len(req.Lines))%len(palette)],
				StrokeDashArray: []float64{6, 4},
			},
		})
	}

	width, height := req.Width, req.Height
	if width <= 0 {
		width = config.PlotWidth
	}
	if height <= 0 {
		height = config.PlotHeight
	}

	ch := chart.Chart{
		Title:      req.Title,
		Background: chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 48}},
		Width:      width,
		Height:     height,
		XAxis:      chart.XAxis{Name: req.XLabel, Range: xr.rangeOf(0)},
		YAxis:      chart.YAxis{Name: req.YLabel, Range: yr.rangeOf(0.05)},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch, nil
}

type bounds struct{ min, max float64 }

func newBounds() *bounds { return &bounds{min: math.Inf(1), max: math.Inf(-1)} }

func (b *bounds) add(v float64) {
	b.min = math.Min(b.min, v)
	b.max = math.Max(b.max, v)
}

// rangeOf widens the bounds by margin of their span. A flat span is
// widened by one unit each way.
func (b *bounds) rangeOf(margin float64) *chart.ContinuousRange {
	lo, hi := b.min, b.max
	if hi-lo == 0 {
		return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	pad := (hi - lo) * margin
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func finitePairs(x, y []float64) ([]float64, []float64) {
	n := min(len(x), len(y))
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if isFinite(x[i]) && isFinite(y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	return xs, ys
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
