package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary captures the descriptive statistics of one numeric column.
type Summary struct {
	// Rows is the number of rows considered, including missing values.
	Rows int
	// Count is the number of numeric values.
	Count  int
	Mean   float64
	Median float64
	// Std is the sample standard deviation (n-1); NaN below two values.
	Std   float64
	Zeros int
}

// ZeroPercent returns the share of rows whose value is exactly zero, in percent.
func (s Summary) ZeroPercent() float64 {
	if s.Rows == 0 {
		return math.NaN()
	}
	return float64(s.Zeros) * 100.0 / float64(s.Rows)
}

// Summarize computes statistics over values. rows is the total row count the values came
// from, used for the zero percentage.
func Summarize(values []float64, rows int) Summary {
	s := Summary{Rows: rows, Count: len(values)}
	for _, v := range values {
		if v == 0 {
			s.Zeros++
		}
	}
	s.Mean = Mean(values)
	s.Median = Median(values)
	s.Std = StdDev(values)
	return s
}

// Mean returns the arithmetic mean, or NaN for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

// Median returns the middle value, averaging the two middle values for even counts.
// NaN for no values. values is not modified.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	sort.Float64s(cp)
	return quantile(cp, 0.5)
}

// StdDev returns the sample standard deviation, or NaN for fewer than two values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	return stat.StdDev(values, nil)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
