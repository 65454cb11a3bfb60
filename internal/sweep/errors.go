package sweep

import "fmt"

// InvalidRangeError reports a stepped range that cannot make progress
// from first towards last.
type InvalidRangeError struct {
	First  float64
	Step   float64
	Last   float64
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid stepped range [first=%v step=%v last=%v]: %s", e.First, e.Step, e.Last, e.Reason)
}

// RepetitionMismatch is a non-fatal warning raised when the requested
// repetitions per run do not divide the original repetition count.
type RepetitionMismatch struct {
	Original   int
	RepsPerRun int
	Copies     int
}

// Total is the number of repetitions actually performed after splitting.
func (w *RepetitionMismatch) Total() int {
	return w.RepsPerRun * w.Copies
}

func (w *RepetitionMismatch) Error() string {
	return fmt.Sprintf("repetitions per run (%d) does not divide original repetitions (%d): new total is %d (%d per run in %d run(s))",
		w.RepsPerRun, w.Original, w.Total(), w.RepsPerRun, w.Copies)
}
