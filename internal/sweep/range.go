package sweep

import "fmt"

// MaxRangeValues bounds the number of values a stepped range may produce.
const MaxRangeValues = 1_000_000

// StepRange returns the values first, first+step, first+2*step, ... that do
// not exceed last.
//
// Each value is recomputed as first + n*step rather than accumulated, which
// matches BehaviorSpace's stepped value sets. Whether last itself is included
// depends on how first + n*step rounds; StepRange(0, 0.1, 0.3) stops at 0.2.
func StepRange(first, step, last float64) ([]float64, error) {
	if !isFinite(first) || !isFinite(step) || !isFinite(last) {
		return nil, &InvalidRangeError{First: first, Step: step, Last: last, Reason: "bounds and step must be finite"}
	}
	if step == 0 {
		return nil, &InvalidRangeError{First: first, Step: step, Last: last, Reason: "step must not be zero"}
	}
	if last < first {
		return nil, &InvalidRangeError{First: first, Step: step, Last: last, Reason: "last must not be less than first"}
	}
	if step < 0 {
		return nil, &InvalidRangeError{First: first, Step: step, Last: last, Reason: "step must be positive"}
	}
	if (last-first)/step >= MaxRangeValues {
		return nil, &InvalidRangeError{First: first, Step: step, Last: last, Reason: fmt.Sprintf("range holds more than %d values", MaxRangeValues)}
	}

	values := []float64{}
	for n, val := 0, first; val <= last; {
		values = append(values, val)
		n++
		val = first + float64(n)*step
	}
	return values, nil
}
