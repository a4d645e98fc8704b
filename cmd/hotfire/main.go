// Command hotfire analyzes a single hotfire test log without the web UI.
//
//	hotfire -file run.csv -target 500 -pad 0.1 -format yaml -xlsx out.xlsx
//
// The exit status is 1 when the log cannot be loaded or an export fails,
// 2 when the time and thrust columns need to be named on the command line,
// and 0 otherwise. An empty or invalid window is not a failure: it is
// reported as the Error metric.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"gopkg.in/yaml.v2"

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
	"hotfire/internal/validation"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitColumns = 2
)

type options struct {
	file       string
	target     float64
	start      float64
	end        float64
	pad        float64
	downsample int
	smooth     int
	format     string
	logLevel   string

	manual  bool
	columns columns.Assignment

	xlsxPath string
	csvPath  string
	csvCore  bool
	plotDir  string
	pdfPath  string

	inputs *performance.Inputs

	hasTarget bool
	hasRange  bool
}

// summary is the machine-readable result printed by -format json|yaml.
type summary struct {
	Dataset       string             `json:"dataset" yaml:"dataset"`
	Rows          int                `json:"rows" yaml:"rows"`
	Columns       columns.Assignment `json:"columns" yaml:"columns"`
	Manual        bool               `json:"manual_columns" yaml:"manual_columns"`
	Window        string             `json:"window" yaml:"window"`
	Padding       float64            `json:"padding" yaml:"padding"`
	CoreSamples   int                `json:"core_samples" yaml:"core_samples"`
	PaddedSamples int                `json:"padded_samples" yaml:"padded_samples"`
	StartTime     *float64           `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime       *float64           `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Metrics       []burn.Entry       `json:"metrics" yaml:"metrics"`
	Error         string             `json:"error,omitempty" yaml:"error,omitempty"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "warning: %v, using defaults\n", err)
		cfg = config.Default()
	}

	opts, err := parseArgs(args, cfg.Analysis, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	}

	logger := infrastructure.NewLogger(stderr, "text", opts.logLevel)
	files := validation.NewFileValidator(logger)

	if err := files.ValidateLogFile(opts.file); err != nil {
		logger.Error("Failed to load dataset", slog.String("file", opts.file), slog.String("error", err.Error()))
		return exitFailure
	}
	ds, err := dataset.Load(opts.file)
	if err != nil {
		logger.Error("Failed to load dataset", slog.String("file", opts.file), slog.String("error", err.Error()))
		return exitFailure
	}
	logger.Debug("Dataset loaded",
		slog.String("file", opts.file),
		slog.Int("rows", ds.Len()),
		slog.Int("fields", len(ds.Fields())))

	st, err := analysis.Empty().WithPadding(opts.pad)
	if err == nil {
		st, err = st.Load(ds)
	}
	if err != nil {
		logger.Error("Failed to start analysis", slog.String("error", err.Error()))
		return exitFailure
	}

	if opts.manual {
		st, err = st.WithColumns(opts.columns)
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			printFields(stderr, ds.Fields())
			return exitColumns
		}
	}
	if st.Phase == analysis.NeedsColumns {
		fmt.Fprintln(stderr, "time and thrust columns could not be identified; name them with -time and -thrust")
		printFields(stderr, ds.Fields())
		return exitColumns
	}

	st, err = st.WithMode(opts.mode())
	if err != nil {
		logger.Error("Failed to compute window", slog.String("error", err.Error()))
		return exitFailure
	}
	if st.Failed() {
		logger.Warn("Analysis finished with an error",
			slog.String("kind", st.ErrorKind().String()),
			slog.String("reason", burn.ReasonOf(st.Err)))
	}

	if err := printSummary(stdout, opts.format, summarize(st)); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	}

	if err := writeExports(ctx, st, opts, cfg, files, logger); err != nil {
		logger.Error("Export failed", slog.String("error", err.Error()))
		return exitFailure
	}
	return exitOK
}

func parseArgs(args []string, defaults config.AnalysisConfig, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("hotfire", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	var thrust string
	var fuelMdot, oxMdot, throatArea float64

	fs.StringVar(&opts.file, "file", "", "hotfire log to analyze (.csv or .xlsx)")
	fs.Float64Var(&opts.target, "target", 0, "target thrust; keeps samples within 0.5x to 1.5x of it")
	fs.Float64Var(&opts.start, "start", 0, "custom window start time")
	fs.Float64Var(&opts.end, "end", 0, "custom window end time")
	fs.Float64Var(&opts.pad, "pad", defaults.DefaultPadding, "padding fraction of the core window length, 0 to 3")
	fs.IntVar(&opts.downsample, "downsample", max(defaults.DefaultDownsample, 1), "plot every Nth sample")
	fs.IntVar(&opts.smooth, "smooth", 0, "moving average window for plotted series")
	fs.StringVar(&opts.format, "format", "text", "summary format: text | json | yaml")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "debug | info | warn | error")

	fs.StringVar(&opts.columns.Time, "time", "", "time column (disables automatic column detection)")
	fs.StringVar(&thrust, "thrust", "", "comma separated thrust columns")
	fs.StringVar(&opts.columns.ChamberPressure, "chamber", "", "chamber pressure column")
	fs.StringVar(&opts.columns.FuelWeight, "fuel", "", "fuel weight column")
	fs.StringVar(&opts.columns.OxidizerWeight, "ox", "", "oxidizer weight column")

	fs.StringVar(&opts.xlsxPath, "xlsx", "", "write the metrics workbook here")
	fs.StringVar(&opts.csvPath, "csv", "", "write the padded window samples here")
	fs.BoolVar(&opts.csvCore, "csv-core", false, "write the core window instead of the padded one")
	fs.StringVar(&opts.plotDir, "plots", "", "write one PNG per series into this directory")
	fs.StringVar(&opts.pdfPath, "pdf", "", "write the PDF report here (needs Chrome)")

	fs.Float64Var(&fuelMdot, "fuel-mdot", 0, "fuel mass flow in lb/s")
	fs.Float64Var(&oxMdot, "ox-mdot", 0, "oxidizer mass flow in lb/s")
	fs.Float64Var(&throatArea, "throat-area", 0, "nozzle throat area in ft²")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if opts.file == "" {
		return nil, errors.New("-file is required")
	}
	opts.hasTarget = set["target"]
	opts.hasRange = set["start"] || set["end"]
	switch {
	case opts.hasTarget && opts.hasRange:
		return nil, errors.New("-target cannot be combined with -start/-end")
	case opts.hasRange && !(set["start"] && set["end"]):
		return nil, errors.New("-start and -end must be given together")
	case !opts.hasTarget && !opts.hasRange:
		return nil, errors.New("either -target or -start/-end is required")
	}

	switch opts.format {
	case "text", "json", "yaml":
	default:
		return nil, fmt.Errorf("unknown format %q", opts.format)
	}
	if opts.downsample < 1 {
		return nil, errors.New("-downsample must be at least 1")
	}
	if opts.smooth < 0 || opts.smooth > config.MaxSmoothWindow {
		return nil, fmt.Errorf("-smooth must be between 0 and %d", config.MaxSmoothWindow)
	}

	for _, name := range []string{"time", "thrust", "chamber", "fuel", "ox"} {
		if set[name] {
			opts.manual = true
		}
	}
	if thrust != "" {
		for _, name := range strings.Split(thrust, ",") {
			if name = strings.TrimSpace(name); name != "" {
				opts.columns.Thrust = append(opts.columns.Thrust, name)
			}
		}
	}

	if set["fuel-mdot"] || set["ox-mdot"] {
		opts.inputs = &performance.Inputs{
			FuelMassFlow:     fuelMdot,
			OxidizerMassFlow: oxMdot,
			ThroatArea:       throatArea,
		}
		if _, err := opts.inputs.MassFlowSlugs(); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

func (o *options) mode() burn.Mode {
	if o.hasTarget {
		return burn.TargetThrust{Value: o.target}
	}
	return burn.CustomRange{Start: o.start, End: o.end}
}

func summarize(st *analysis.State) summary {
	s := summary{
		Dataset:       st.Dataset.Name(),
		Rows:          st.Dataset.Len(),
		Columns:       st.Assignment,
		Manual:        st.ManualColumns,
		Window:        fmt.Sprint(st.Mode),
		Padding:       st.Padding,
		CoreSamples:   st.Core.Mask.Count(),
		PaddedSamples: st.Padded.Count(),
		Metrics:       st.Metrics.Entries(),
		Error:         st.Metrics.Error,
	}
	if !st.Failed() {
		s.StartTime = finite(st.Dataset.At(st.Assignment.Time, st.Core.First))
		s.EndTime = finite(st.Dataset.At(st.Assignment.Time, st.Core.Last))
	}
	return s
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func printSummary(w io.Writer, format string, s summary) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml":
		out, err := yaml.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Dataset\t%s (%d rows)\n", s.Dataset, s.Rows)
	fmt.Fprintf(tw, "Time\t%s\n", s.Columns.Time)
	fmt.Fprintf(tw, "Thrust\t%s\n", strings.Join(s.Columns.Thrust, ", "))
	fmt.Fprintf(tw, "Window\t%s, padding %g\n", s.Window, s.Padding)
	if s.StartTime != nil && s.EndTime != nil {
		fmt.Fprintf(tw, "Selected\t%g to %g (%d core, %d padded samples)\n",
			*s.StartTime, *s.EndTime, s.CoreSamples, s.PaddedSamples)
	}
	fmt.Fprintln(tw)
	for _, e := range s.Metrics {
		fmt.Fprintf(tw, "%s\t%s\n", e.Label, e.Value)
	}
	return tw.Flush()
}

func printFields(w io.Writer, fields []string) {
	fmt.Fprintln(w, "available columns:")
	for _, f := range fields {
		fmt.Fprintf(w, "  %q\n", f)
	}
}

func writeExports(ctx context.Context, st *analysis.State, opts *options, cfg *config.Config, files *validation.FileValidator, logger *slog.Logger) error {
	for _, path := range []string{opts.csvPath, opts.xlsxPath, opts.pdfPath} {
		if path == "" {
			continue
		}
		if err := files.ValidateOutputFile(path); err != nil {
			return err
		}
	}
	if opts.plotDir != "" {
		if err := files.ValidateOutputDirectory(opts.plotDir); err != nil {
			return err
		}
	}

	if opts.csvPath != "" {
		t, err := exporter.WindowTable(st, !opts.csvCore)
		if err != nil {
			return err
		}
		if err := exporter.WriteFile(opts.csvPath, t.WriteCSV); err != nil {
			return err
		}
		logger.Info("Window exported", slog.String("path", opts.csvPath), slog.Int("rows", t.Len()))
	}

	if opts.xlsxPath != "" {
		if err := exporter.WriteFile(opts.xlsxPath, func(w io.Writer) error {
			return exporter.WriteWorkbook(w, st)
		}); err != nil {
			return err
		}
		logger.Info("Workbook exported", slog.String("path", opts.xlsxPath))
	}

	if opts.plotDir != "" {
		if err := writePlots(ctx, st, opts); err != nil {
			return err
		}
		logger.Info("Plots exported", slog.String("dir", opts.plotDir))
	}

	if opts.pdfPath != "" {
		doc, err := report.Build(ctx, st, report.Options{
			Downsample: opts.downsample,
			Smooth:     opts.smooth,
			Inputs:     opts.inputs,
		})
		if err != nil {
			return err
		}
		pdf := report.NewPDFRenderer(cfg.Paths.ChromePath, logger)
		pdf.NoSandbox = os.Geteuid() == 0
		data, err := pdf.Render(ctx, doc)
		if err != nil {
			return fmt.Errorf("render pdf: %w", err)
		}
		if err := os.WriteFile(opts.pdfPath, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", opts.pdfPath, err)
		}
		logger.Info("Report exported", slog.String("path", opts.pdfPath), slog.Int("bytes", len(data)))
	}
	return nil
}

func writePlots(ctx context.Context, st *analysis.State, opts *options) error {
	var names []analysis.SeriesName
	var reqs []plot.Request
	for _, name := range st.AvailableSeries(opts.inputs) {
		s, err := st.Series(name, analysis.SeriesOptions{
			Downsample: opts.downsample,
			Smooth:     opts.smooth,
			Inputs:     opts.inputs,
		})
		if err != nil {
			return fmt.Errorf("series %s: %w", name, err)
		}
		names = append(names, name)
		reqs = append(reqs, plot.FromSeries(s))
	}

	pngs, err := plot.RenderAll(ctx, reqs)
	if err != nil {
		return err
	}
	for i, data := range pngs {
		path := filepath.Join(opts.plotDir, string(names[i])+".png")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
