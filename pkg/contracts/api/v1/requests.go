// Package api contains the HTTP contract of the hotfire analyzer.
// Version v1 represents the current stable API version.
package api

// ColumnsRequest replaces the column assignment wholesale.
type ColumnsRequest struct {
	Time            string   `json:"time" validate:"required,column"`
	Thrust          []string `json:"thrust" validate:"required,min=1,dive,column"`
	ChamberPressure string   `json:"chamber_pressure,omitempty" validate:"omitempty,column"`
	FuelWeight      string   `json:"fuel_weight,omitempty" validate:"omitempty,column"`
	OxidizerWeight  string   `json:"oxidizer_weight,omitempty" validate:"omitempty,column"`
}

// RangeRequest is an inclusive time range in seconds.
type RangeRequest struct {
	Start *float64 `json:"start" validate:"required"`
	End   *float64 `json:"end" validate:"required"`
}

// WindowRequest selects exactly one windowing mode. Range ordering is
// checked by the engine so that an inverted range becomes an error state
// rather than a rejected request.
type WindowRequest struct {
	TargetThrust *float64     `json:"target_thrust,omitempty" validate:"required_without=CustomRange,excluded_with=CustomRange"`
	CustomRange  *RangeRequest `json:"custom_range,omitempty" validate:"required_without=TargetThrust"`
}

// PaddingRequest sets the padded mask fraction.
type PaddingRequest struct {
	Fraction *float64 `json:"fraction" validate:"required,gte=0,lte=3"`
}

// AverageRequest asks for the mean of a series between two picked times.
type AverageRequest struct {
	Series string   `json:"series" validate:"required"`
	T1     *float64 `json:"t1" validate:"required"`
	T2     *float64 `json:"t2" validate:"required"`
}

// PerformanceRequest carries the mass flows (lb/s) and throat area (ft²)
// used for Isp, exhaust velocity and c* curves.
type PerformanceRequest struct {
	FuelMassFlow     float64 `json:"fuel_mdot" validate:"gte=0"`
	OxidizerMassFlow float64 `json:"ox_mdot" validate:"gte=0"`
	ThroatArea       float64 `json:"throat_area,omitempty" validate:"gte=0"`
}

// ConstantLine is a labelled horizontal reference line.
type ConstantLine struct {
	Name  string  `json:"name" validate:"required"`
	Value float64 `json:"value"`
}

// CustomPlotRequest overlays several series on one chart.
type CustomPlotRequest struct {
	Title     string         `json:"title" validate:"max=120"`
	Series    []string       `json:"series" validate:"required,min=1,max=8,dive,required"`
	Constants []ConstantLine `json:"constants,omitempty" validate:"max=8,dive"`
	Core      bool           `json:"core"`
	Smooth    int            `json:"smooth" validate:"gte=0,lte=501"`
}
