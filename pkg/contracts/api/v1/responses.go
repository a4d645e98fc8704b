package api

import (
	"math"
	"strconv"
	"time"
)

// Values is a sample array whose missing (non-finite) samples encode as null.
type Values []float64

// MarshalJSON implements json.Marshaler.
func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	buf := make([]byte, 0, 2+len(v)*8)
	buf = append(buf, '[')
	for i, x := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, x, 'g', -1, 64)
	}
	return append(buf, ']'), nil
}

// ColumnsResponse mirrors the active column assignment.
type ColumnsResponse struct {
	Time            string   `json:"time"`
	Thrust          []string `json:"thrust"`
	ChamberPressure string   `json:"chamber_pressure,omitempty"`
	FuelWeight      string   `json:"fuel_weight,omitempty"`
	OxidizerWeight  string   `json:"oxidizer_weight,omitempty"`
	Manual          bool     `json:"manual"`
}

// WindowResponse describes the active windowing mode and its core span.
type WindowResponse struct {
	Mode         string   `json:"mode"`
	TargetThrust *float64 `json:"target_thrust,omitempty"`
	Start        *float64 `json:"start,omitempty"`
	End          *float64 `json:"end,omitempty"`
	First        int      `json:"first"`
	Last         int      `json:"last"`
	CoreSamples  int      `json:"core_samples"`
	PadSamples   int      `json:"padded_samples"`
	StartTime    *float64 `json:"start_time,omitempty"`
	EndTime      *float64 `json:"end_time,omitempty"`
}

// MetricEntry is one labelled metric as shown to operators.
type MetricEntry struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ErrorResponse describes an engine error state.
type ErrorResponse struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// StateResponse is the snapshot of one analysis session.
type StateResponse struct {
	SessionID   string           `json:"session_id"`
	Version     uint64           `json:"version"`
	Phase       string           `json:"phase"`
	Dataset     string           `json:"dataset,omitempty"`
	Rows        int              `json:"rows"`
	Fields      []string         `json:"fields,omitempty"`
	Columns     *ColumnsResponse `json:"columns,omitempty"`
	Window      *WindowResponse  `json:"window,omitempty"`
	Padding     float64          `json:"padding"`
	Metrics     []MetricEntry    `json:"metrics,omitempty"`
	Error       *ErrorResponse   `json:"error,omitempty"`
	Series      []string         `json:"series,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at"`
	NeedsManual bool             `json:"needs_manual_columns"`
}

// SeriesResponse is a plottable series.
type SeriesResponse struct {
	Name     string    `json:"name"`
	Title    string    `json:"title"`
	XLabel   string    `json:"x_label"`
	YLabel   string    `json:"y_label"`
	Time     Values `json:"time"`
	Values   Values `json:"values"`
	Smoothed Values `json:"smoothed,omitempty"`
}

// AverageResponse is the result of a two-point average.
type AverageResponse struct {
	Series  string  `json:"series"`
	T1      float64 `json:"t1"`
	T2      float64 `json:"t2"`
	Average float64 `json:"average"`
}

// StatisticsResponse holds per-channel summary statistics over the burn window.
type StatisticsResponse struct {
	Channel  string  `json:"channel"`
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Range    float64 `json:"range"`
	Median   float64 `json:"median"`
}

// StateEvent is pushed over the session websocket after every transition.
type StateEvent struct {
	Trigger string         `json:"trigger"`
	State   *StateResponse `json:"state"`
}
