package performance

import (
	"errors"
	"math"
	"sort"
)

// ErrEmptyRange is returned when a two-point average selects no samples.
var ErrEmptyRange = errors.New("no samples between the selected points")

// Downsample keeps every step-th sample starting at the first. A step
// below one keeps every sample.
func Downsample(xs []float64, step int) []float64 {
	if step < 1 {
		step = 1
	}
	out := make([]float64, 0, (len(xs)+step-1)/step)
	for i := 0; i < len(xs); i += step {
		out = append(out, xs[i])
	}
	return out
}

// Smooth applies a centred moving average of width window and returns a
// series of the same length. Samples beyond either edge count as zero, so
// the first and last window/2 points are pulled toward zero. A window of
// one or less returns a copy; a window wider than the series is narrowed
// to its length.
func Smooth(xs []float64, window int) []float64 {
	out := append([]float64(nil), xs...)
	n := len(xs)
	if window <= 1 || n == 0 {
		return out
	}
	if window > n {
		window = n
	}

	offset := (window - 1) / 2
	w := 1 / float64(window)
	for i := 0; i < n; i++ {
		sum := 0.0
		// out[i] = sum_j xs[i+offset-j] / window for j in [0, window)
		for j := 0; j < window; j++ {
			k := i + offset - j
			if k >= 0 && k < n {
				sum += xs[k]
			}
		}
		out[i] = sum * w
	}
	return out
}

// AverageBetween returns the mean of values between the samples nearest
// to t1 and t2 on the sorted time axis. Each point maps to the first index
// whose time is not less than it; the mean covers both indices inclusive.
func AverageBetween(time, values []float64, t1, t2 float64) (float64, error) {
	n := min(len(time), len(values))
	if n == 0 {
		return 0, ErrEmptyRange
	}
	i1 := sort.SearchFloat64s(time[:n], t1)
	i2 := sort.SearchFloat64s(time[:n], t2)
	lo, hi := min(i1, i2), max(i1, i2)
	hi = min(hi+1, n)
	if lo >= hi {
		return 0, ErrEmptyRange
	}

	sum := 0.0
	for _, v := range values[lo:hi] {
		sum += v
	}
	return sum / float64(hi-lo), nil
}

// Stats summarises a series.
type Stats struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Range    float64 `json:"range"`
	Median   float64 `json:"median"`
}

// Describe computes population statistics over the finite values of xs.
// It returns nil when there are none.
func Describe(xs []float64) *Stats {
	data := make([]float64, 0, len(xs))
	for _, v := range xs {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			data = append(data, v)
		}
	}
	if len(data) == 0 {
		return nil
	}
	sort.Float64s(data)

	count := len(data)
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(count)

	sq := 0.0
	for _, v := range data {
		d := v - mean
		sq += d * d
	}
	variance := sq / float64(count)

	median := data[count/2]
	if count%2 == 0 {
		median = (data[count/2-1] + data[count/2]) / 2
	}

	return &Stats{
		Count:    count,
		Mean:     mean,
		Variance: variance,
		StdDev:   math.Sqrt(variance),
		Min:      data[0],
		Max:      data[count-1],
		Range:    data[count-1] - data[0],
		Median:   median,
	}
}
