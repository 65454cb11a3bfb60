package sweep

// Split divides an experiment's repetitions into RepsPerRun repetitions per
// generated run, produced Copies times for every combination.
type Split struct {
	RepsPerRun int `json:"reps_per_run" yaml:"reps_per_run" toml:"reps_per_run"`
	Copies     int `json:"copies" yaml:"copies" toml:"copies"`
}

// Total is the number of repetitions covered by the split.
func (s Split) Total() int {
	return s.RepsPerRun * s.Copies
}

// SplitRepetitions splits original repetitions into runs of requested
// repetitions each. A requested value <= 0 means unset, and a request larger
// than original disables splitting; both keep all repetitions in one run.
//
// When requested does not divide original the split is truncated and a
// RepetitionMismatch describing the reduced total is returned alongside it.
func SplitRepetitions(original, requested int) (Split, *RepetitionMismatch) {
	if requested <= 0 || requested > original {
		return Split{RepsPerRun: original, Copies: 1}, nil
	}

	split := Split{RepsPerRun: requested, Copies: original / requested}
	if original%requested != 0 {
		return split, &RepetitionMismatch{
			Original:   original,
			RepsPerRun: split.RepsPerRun,
			Copies:     split.Copies,
		}
	}
	return split, nil
}
