package report

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotfire/internal/analysis"
	"hotfire/internal/burn"
	"hotfire/internal/dataset"
	"hotfire/internal/performance"
)

func computedState(t *testing.T, mode burn.Mode) *analysis.State {
	t.Helper()
	ds, err := dataset.FromColumns("run.csv",
		[]string{"Time (s)", "Thrust (lbf)", "Chamber Pressure (psi)"},
		[][]float64{
			{0, 1, 2, 3, 4, 5, 6},
			{0, 40, 60, 100, 60, 40, 0},
			{0, 100, 200, 300, 200, 100, 0},
		})
	require.NoError(t, err)
	st, err := analysis.Empty().Load(ds)
	require.NoError(t, err)
	st, err = st.WithMode(mode)
	require.NoError(t, err)
	return st
}

func TestBuildAndWriteHTML(t *testing.T) {
	st := computedState(t, burn.TargetThrust{Value: 100})

	doc, err := Build(context.Background(), st, Options{Downsample: 1})
	require.NoError(t, err)
	assert.Equal(t, "run.csv", doc.Dataset)
	assert.False(t, doc.Failed)
	// thrust, chamber pressure, raw total thrust
	require.Len(t, doc.Figures, 3)
	assert.Equal(t, "Thrust vs Time", doc.Figures[0].Title)

	var buf bytes.Buffer
	require.NoError(t, doc.WriteHTML(&buf))
	html := buf.String()
	assert.Contains(t, html, "Burn Time (s)")
	assert.Contains(t, html, "2.000")
	assert.Contains(t, html, `src="data:image/png;base64,`)
	assert.Equal(t, 3, strings.Count(html, "<figure>"))
}

func TestBuildWithPerformanceInputs(t *testing.T) {
	st := computedState(t, burn.TargetThrust{Value: 100})

	doc, err := Build(context.Background(), st, Options{
		Inputs: &performance.Inputs{FuelMassFlow: 1, OxidizerMassFlow: 2, ThroatArea: 0.01},
	})
	require.NoError(t, err)
	assert.Len(t, doc.Figures, 6)
}

func TestBuildErrorState(t *testing.T) {
	st := computedState(t, burn.CustomRange{Start: 40, End: 50})

	doc, err := Build(context.Background(), st, Options{})
	require.NoError(t, err)
	assert.True(t, doc.Failed)
	assert.Empty(t, doc.Statistics)

	var buf bytes.Buffer
	require.NoError(t, doc.WriteHTML(&buf))
	assert.Contains(t, buf.String(), burn.ReasonEmptyWindow)
	assert.Contains(t, buf.String(), `class="error"`)
}

func TestBuildRequiresComputedState(t *testing.T) {
	_, err := Build(context.Background(), analysis.Empty(), Options{})
	assert.Error(t, err)
}

func chromePath(t *testing.T) string {
	t.Helper()
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	t.Skip("chrome not installed")
	return ""
}

func TestPDFRenderer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	path := chromePath(t)

	st := computedState(t, burn.TargetThrust{Value: 100})
	doc, err := Build(context.Background(), st, Options{})
	require.NoError(t, err)

	r := NewPDFRenderer(path, nil)
	r.NoSandbox = true
	pdf, err := r.Render(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}
