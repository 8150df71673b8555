package distribution

import (
	"fmt"
	"math"

	"gorgonia.org/tensor"
)

// matrixFromDense copies a 2-D Float64 tensor into a slice of rows.
// Inputs may be views, so elements are read through At rather than
// through the backing slice.
func matrixFromDense(x *tensor.Dense) ([][]float64, error) {
	if x == nil {
		return nil, fmt.Errorf("expected a tensor but got nil")
	}

	if x.Dtype() != tensor.Float64 {
		return nil, fmt.Errorf("data type %v unsupported, expected %v",
			x.Dtype(), tensor.Float64)
	}

	if x.Dims() != 2 {
		return nil, fmt.Errorf("expected a 2-D tensor but got shape %v",
			x.Shape())
	}

	rows, cols := x.Shape()[0], x.Shape()[1]
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("expected a non-empty tensor but got shape %v",
			x.Shape())
	}

	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			v, err := x.At(i, j)
			if err != nil {
				return nil, fmt.Errorf("could not read element (%d, %d): %v",
					i, j, err)
			}
			out[i][j] = v.(float64)
		}
	}

	return out, nil
}

// checkConcentrations ensures every concentration parameter is finite
// and strictly positive.
func checkConcentrations(conc [][]float64) error {
	for i, row := range conc {
		for j, a := range row {
			if math.IsNaN(a) || math.IsInf(a, 0) || a <= 0 {
				return fmt.Errorf("concentration must be finite and "+
					"positive but item %d answer %d is %v", i, j, a)
			}
		}
	}
	return nil
}

// expandTotalVotes broadcasts a length-1 vote count to every item,
// mirroring a scalar total vote count, and validates alignment and
// non-negativity otherwise.
func expandTotalVotes(totalVotes []float64, items int) ([]float64, error) {
	switch len(totalVotes) {
	case items:
		// Copy so later caller mutation cannot change the distribution
		expanded := make([]float64, items)
		copy(expanded, totalVotes)
		totalVotes = expanded

	case 1:
		expanded := make([]float64, items)
		for i := range expanded {
			expanded[i] = totalVotes[0]
		}
		totalVotes = expanded

	default:
		return nil, fmt.Errorf("expected total votes of length %d or 1 "+
			"but got %d", items, len(totalVotes))
	}

	for i, n := range totalVotes {
		if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
			return nil, fmt.Errorf("total votes must be finite and "+
				"non-negative but item %d has %v", i, n)
		}
	}

	return totalVotes, nil
}

// lgamma is math.Lgamma restricted to the positive arguments used here,
// where the sign is always +1.
func lgamma(x float64) float64 {
	lg, _ := math.Lgamma(x)
	return lg
}
