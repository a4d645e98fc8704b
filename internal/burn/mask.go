package burn

import (
	"math"

	"hotfire/internal/config"
)

// Mask selects samples of a dataset. It always has the dataset's length.
type Mask []bool

// AllTrue returns a mask selecting all n samples.
func AllTrue(n int) Mask {
	m := make(Mask, n)
	for i := range m {
		m[i] = true
	}
	return m
}

// Count returns the number of selected samples.
func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Span returns the first and last selected index. ok is false when
// nothing is selected.
func (m Mask) Span() (first, last int, ok bool) {
	first = -1
	for i, v := range m {
		if v {
			first = i
			break
		}
	}
	if first < 0 {
		return -1, -1, false
	}
	for i := len(m) - 1; i >= first; i-- {
		if m[i] {
			last = i
			break
		}
	}
	return first, last, true
}

// Clone returns an independent copy.
func (m Mask) Clone() Mask {
	return append(Mask(nil), m...)
}

// Select returns the values at selected positions. values shorter than the
// mask are treated as unselected past their end.
func (m Mask) Select(values []float64) []float64 {
	out := make([]float64, 0, m.Count())
	for i, v := range m {
		if v && i < len(values) {
			out = append(out, values[i])
		}
	}
	return out
}

// Indices returns the selected positions.
func (m Mask) Indices() []int {
	out := make([]int, 0, m.Count())
	for i, v := range m {
		if v {
			out = append(out, i)
		}
	}
	return out
}

// ComputePaddedMask widens the span of core by a fraction of the mask
// length on each side. fraction is clamped to [0, 3]; at least one sample
// is added per side unless the span already touches the edge. Samples
// between the original first and last selected index become selected.
// A mask with nothing selected is returned as a copy.
func ComputePaddedMask(core Mask, fraction float64) Mask {
	out := core.Clone()
	first, last, ok := core.Span()
	if !ok {
		return out
	}

	if math.IsNaN(fraction) || fraction < config.MinPaddingFraction {
		fraction = config.MinPaddingFraction
	}
	if fraction > config.MaxPaddingFraction {
		fraction = config.MaxPaddingFraction
	}

	extra := int(math.Floor(float64(len(core)) * fraction))
	if extra < 1 {
		extra = 1
	}

	start := max(0, first-extra)
	end := min(len(core)-1, last+extra)
	for i := start; i <= end; i++ {
		out[i] = true
	}
	return out
}
