package sweep

import (
	"iter"
	"math"
	"math/bits"
)

// CombinationCount returns the number of combinations Combinations will
// yield, without generating them. The result saturates at math.MaxInt.
func CombinationCount(vars []Variable) int {
	total := 1
	for _, v := range vars {
		total = SaturatingMul(total, len(v.Values))
	}
	return total
}

// SaturatingMul returns a*b for non-negative a and b, or math.MaxInt when
// the product does not fit.
func SaturatingMul(a, b int) int {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 || lo > math.MaxInt {
		return math.MaxInt
	}
	return int(lo)
}

// Combinations yields the cross product of vars in lexicographic order: the
// first variable is the outermost loop and the last variable changes
// fastest. With no variables it yields a single empty combination. A
// variable without values makes the product empty.
//
// The sequence is restartable; every range over it starts from the first
// combination. Yielded combinations are fresh slices owned by the caller.
func Combinations(vars []Variable) iter.Seq[Combination] {
	return func(yield func(Combination) bool) {
		for _, v := range vars {
			if len(v.Values) == 0 {
				return
			}
		}

		odometer := make([]int, len(vars))
		for {
			combo := make(Combination, len(vars))
			for i, v := range vars {
				combo[i] = Assignment{Name: v.Name, Value: v.Values[odometer[i]]}
			}
			if !yield(combo) {
				return
			}

			// Advance from the last position, carrying leftwards.
			pos := len(vars) - 1
			for ; pos >= 0; pos-- {
				odometer[pos]++
				if odometer[pos] < len(vars[pos].Values) {
					break
				}
				odometer[pos] = 0
			}
			if pos < 0 {
				return
			}
		}
	}
}
