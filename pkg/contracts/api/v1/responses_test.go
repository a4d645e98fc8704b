package api

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuesMarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   Values
		want string
	}{
		{"nil", nil, `null`},
		{"empty", Values{}, `[]`},
		{"finite", Values{0, 1.5, -2}, `[0,1.5,-2]`},
		{"missing samples", Values{1, math.NaN(), math.Inf(1)}, `[1,null,null]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.in)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestSeriesResponseOmitsSmoothed(t *testing.T) {
	data, err := json.Marshal(SeriesResponse{Name: "thrust", Time: Values{0}, Values: Values{math.NaN()}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "smoothed")
	assert.Contains(t, string(data), `"values":[null]`)
}
