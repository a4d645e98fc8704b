package services

import (
	"math"

	"hotfire/internal/analysis"
	"hotfire/internal/burn"
	api "hotfire/pkg/contracts/api/v1"
)

// NewStateResponse converts a snapshot to its API representation.
func NewStateResponse(sessionID string, st *analysis.State) *api.StateResponse {
	resp := &api.StateResponse{
		SessionID:   sessionID,
		Version:     st.Version,
		Phase:       st.Phase.String(),
		Padding:     st.Padding,
		UpdatedAt:   st.UpdatedAt,
		NeedsManual: st.Phase == analysis.NeedsColumns,
	}
	if st.Dataset == nil {
		return resp
	}

	resp.Dataset = st.Dataset.Name()
	resp.Rows = st.Dataset.Len()
	resp.Fields = st.Dataset.Fields()

	a := st.Assignment
	resp.Columns = &api.ColumnsResponse{
		Time:            a.Time,
		Thrust:          append([]string{}, a.Thrust...),
		ChamberPressure: a.ChamberPressure,
		FuelWeight:      a.FuelWeight,
		OxidizerWeight:  a.OxidizerWeight,
		Manual:          st.ManualColumns,
	}

	if st.Mode != nil {
		resp.Window = windowResponse(st)
	}
	if st.Phase == analysis.Computed {
		for _, e := range st.Metrics.Entries() {
			resp.Metrics = append(resp.Metrics, api.MetricEntry{Label: e.Label, Value: e.Value})
		}
	}
	if st.Err != nil {
		resp.Error = &api.ErrorResponse{
			Kind:   st.ErrorKind().String(),
			Reason: burn.ReasonOf(st.Err),
		}
	}
	for _, name := range st.AvailableSeries(nil) {
		resp.Series = append(resp.Series, string(name))
	}
	return resp
}

func windowResponse(st *analysis.State) *api.WindowResponse {
	w := &api.WindowResponse{Mode: "unknown"}
	switch m := st.Mode.(type) {
	case burn.TargetThrust:
		w.Mode = "target_thrust"
		w.TargetThrust = finite(m.Value)
	case burn.CustomRange:
		w.Mode = "custom_range"
		w.Start = finite(m.Start)
		w.End = finite(m.End)
	}
	if st.Phase != analysis.Computed {
		return w
	}

	w.First, w.Last = st.Core.First, st.Core.Last
	w.CoreSamples = st.Core.Mask.Count()
	w.PadSamples = st.Padded.Count()
	if st.Err == nil && st.Assignment.Time != "" {
		w.StartTime = finite(st.Dataset.At(st.Assignment.Time, st.Core.First))
		w.EndTime = finite(st.Dataset.At(st.Assignment.Time, st.Core.Last))
	}
	return w
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NewStateEvent wraps a snapshot for the session websocket.
func NewStateEvent(sessionID string, trigger analysis.Trigger, st *analysis.State) api.StateEvent {
	return api.StateEvent{Trigger: string(trigger), State: NewStateResponse(sessionID, st)}
}

// NewSeriesResponse converts a series to its API representation.
func NewSeriesResponse(s analysis.Series) api.SeriesResponse {
	return api.SeriesResponse{
		Name:     string(s.Name),
		Title:    s.Title,
		XLabel:   s.XLabel,
		YLabel:   s.YLabel,
		Time:     api.Values(s.Time),
		Values:   api.Values(s.Values),
		Smoothed: api.Values(s.Smoothed),
	}
}

// NewStatisticsResponse flattens per-channel statistics.
func NewStatisticsResponse(stats []analysis.ChannelStats) []api.StatisticsResponse {
	out := make([]api.StatisticsResponse, 0, len(stats))
	for _, cs := range stats {
		if cs.Stats == nil {
			continue
		}
		out = append(out, api.StatisticsResponse{
			Channel:  cs.Channel,
			Count:    cs.Stats.Count,
			Mean:     cs.Stats.Mean,
			Variance: cs.Stats.Variance,
			StdDev:   cs.Stats.StdDev,
			Min:      cs.Stats.Min,
			Max:      cs.Stats.Max,
			Range:    cs.Stats.Range,
			Median:   cs.Stats.Median,
		})
	}
	return out
}
