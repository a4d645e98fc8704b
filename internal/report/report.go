// Package report assembles an analysis snapshot into an HTML document and
// prints it to PDF through headless Chrome.
package report

import (
	"context"
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"time"

	"hotfire/internal/analysis"
	"hotfire/internal/burn"
	"hotfire/internal/config"
	"hotfire/internal/performance"
	"hotfire/internal/plot"
)

//go:embed report.html.tmpl
var reportTemplate string

var tmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"fixed": func(prec int, v float64) string { return fmt.Sprintf("%.*f", prec, v) },
}).Parse(reportTemplate))

// Figure is one rendered chart.
type Figure struct {
	Title string
	PNG   []byte
}

// DataURI embeds the PNG for an img src attribute.
func (f Figure) DataURI() template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(f.PNG))
}

// Document is everything a report page shows.
type Document struct {
	Title      string
	Dataset    string
	Generated  time.Time
	Window     string
	Padding    float64
	Metrics    []burn.Entry
	Failed     bool
	Statistics []analysis.ChannelStats
	Figures    []Figure
}

// Options control which figures are rendered.
type Options struct {
	Downsample int
	Smooth     int
	Inputs     *performance.Inputs
}

// Build renders every available series of st and collects the metrics.
func Build(ctx context.Context, st *analysis.State, opts Options) (*Document, error) {
	if st == nil || st.Phase != analysis.Computed {
		return nil, fmt.Errorf("report: analysis has not been computed")
	}

	doc := &Document{
		Title:      config.AppName + " Report",
		Dataset:    st.Dataset.Name(),
		Generated:  time.Now(),
		Window:     fmt.Sprint(st.Mode),
		Padding:    st.Padding,
		Metrics:    st.Metrics.Entries(),
		Failed:     st.Failed(),
		Statistics: st.Statistics(),
	}

	var reqs []plot.Request
	var titles []string
	for _, name := range st.AvailableSeries(opts.Inputs) {
		s, err := st.Series(name, analysis.SeriesOptions{
			Downsample: opts.Downsample,
			Smooth:     opts.Smooth,
			Inputs:     opts.Inputs,
		})
		if err != nil {
			return nil, fmt.Errorf("report: series %s: %w", name, err)
		}
		reqs = append(reqs, plot.FromSeries(s))
		titles = append(titles, s.Title)
	}

	pngs, err := plot.RenderAll(ctx, reqs)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	for i, data := range pngs {
		doc.Figures = append(doc.Figures, Figure{Title: titles[i], PNG: data})
	}
	return doc, nil
}

// WriteHTML renders doc as a standalone HTML page.
func (d *Document) WriteHTML(w io.Writer) error {
	if err := tmpl.Execute(w, d); err != nil {
		return fmt.Errorf("report: execute template: %w", err)
	}
	return nil
}
