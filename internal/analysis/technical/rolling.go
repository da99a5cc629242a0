package technical

import "math"

// Rolling statistics return one value per input element. NaN marks positions where the
// window is not full yet or contains an undefined input, so callers can tell warm-up
// bars from real values.

// PctChange calculates one-bar percentage returns: out[i] = v[i]/v[i-1] - 1.
func PctChange(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i == 0 || math.IsNaN(values[i]) || math.IsNaN(values[i-1]) || values[i-1] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i]/values[i-1] - 1
	}
	return out
}

// SMA calculates the simple moving average over a trailing window.
func SMA(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	for i := window - 1; i >= 0 && i < len(values); i++ {
		w := values[i-window+1 : i+1]
		if hasNaN(w) {
			continue
		}
		out[i] = Mean(w)
	}
	return out
}

// RollingStdDev calculates the sample standard deviation over a trailing window.
func RollingStdDev(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	for i := window - 1; i >= 0 && i < len(values); i++ {
		w := values[i-window+1 : i+1]
		if hasNaN(w) {
			continue
		}
		out[i] = StdDev(w)
	}
	return out
}

// Mean calculates the arithmetic mean. Deviations are summed around the first element so
// a constant input yields exactly that constant.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	base := values[0]
	var sum float64
	for _, v := range values {
		sum += v - base
	}
	return base + sum/float64(len(values))
}

// StdDev calculates the sample standard deviation (n-1 denominator). It is NaN for fewer
// than two values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	mean := Mean(values)
	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}
	return math.Sqrt(sumSquaredDiff / float64(len(values)-1))
}

// Last returns the final element, or NaN for an empty slice.
func Last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func hasNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
