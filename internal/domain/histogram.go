package domain

import (
	"github.com/juju/errors"
	"gonum.org/v1/gonum/floats"
)

// Hist bins values into n evenly spaced bins between min and max. Values
// outside the range are clamped. When min == max the range is taken from
// the data.
func Hist(values []float64, min, max float64, n int) (Histogram, error) {
	if len(values) == 0 {
		return Histogram{}, ErrEmptyBatch
	}
	if n < 2 {
		return Histogram{}, errors.NotValidf("histogram with %d bins", n)
	}

	if min == max {
		min = floats.Min(values)
		max = floats.Max(values)
	}
	binWidth := (max - min) / float64(n-1)
	histogram := make([]int, n)
	bins := make([]float64, n)

	for i := range n {
		bins[i] = min + float64(i)*binWidth
	}

	for _, value := range values {
		if binWidth == 0 {
			histogram[0]++
			continue
		}
		if value < min {
			value = min
		} else if value > max {
			value = max
		}
		binIndex := int((value - min) / binWidth)
		histogram[binIndex]++
	}

	return Histogram{
		Bins: bins,
		Vals: histogram,
		Len:  n,
	}, nil
}
