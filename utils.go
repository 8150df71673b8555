package dirmix

import (
	"fmt"

	"gorgonia.org/tensor"
)

// vectorFromDense copies a 1-D Float64 tensor of the given length into
// a slice.
func vectorFromDense(x *tensor.Dense, length int) ([]float64, error) {
	if x == nil {
		return nil, fmt.Errorf("expected a tensor but got nil")
	}

	if x.Dtype() != tensor.Float64 {
		return nil, fmt.Errorf("data type %v unsupported, expected %v",
			x.Dtype(), tensor.Float64)
	}

	if x.Dims() != 1 || x.Shape()[0] != length {
		return nil, fmt.Errorf("expected a 1-D tensor of length %d but got "+
			"shape %v", length, x.Shape())
	}

	out := make([]float64, length)
	for i := 0; i < length; i++ {
		v, err := x.At(i)
		if err != nil {
			return nil, fmt.Errorf("could not read element %d: %v", i, err)
		}
		out[i] = v.(float64)
	}

	return out, nil
}

// matrixFromDense copies a 2-D Float64 tensor into a slice of rows.
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

// cubeFromDense copies a 3-D Float64 tensor of shape
// (items, answers, members) into nested slices with the same index
// order.
func cubeFromDense(x *tensor.Dense) ([][][]float64, error) {
	if x == nil {
		return nil, fmt.Errorf("expected a tensor but got nil")
	}

	if x.Dtype() != tensor.Float64 {
		return nil, fmt.Errorf("data type %v unsupported, expected %v",
			x.Dtype(), tensor.Float64)
	}

	if x.Dims() != 3 {
		return nil, fmt.Errorf("expected a 3-D (items, answers, members) "+
			"tensor but got shape %v", x.Shape())
	}

	items, answers, members := x.Shape()[0], x.Shape()[1], x.Shape()[2]
	if items == 0 || answers == 0 || members == 0 {
		return nil, fmt.Errorf("expected a non-empty tensor but got shape %v",
			x.Shape())
	}

	out := make([][][]float64, items)
	for i := 0; i < items; i++ {
		out[i] = make([][]float64, answers)
		for j := 0; j < answers; j++ {
			out[i][j] = make([]float64, members)
			for n := 0; n < members; n++ {
				v, err := x.At(i, j, n)
				if err != nil {
					return nil, fmt.Errorf("could not read element "+
						"(%d, %d, %d): %v", i, j, n, err)
				}
				out[i][j][n] = v.(float64)
			}
		}
	}

	return out, nil
}

// memberSlice builds the (items, answers) concentration tensor of
// member n from the (items, answers, members) cube.
func memberSlice(cube [][][]float64, n int) *tensor.Dense {
	items, answers := len(cube), len(cube[0])

	backing := make([]float64, items*answers)
	for i := 0; i < items; i++ {
		for j := 0; j < answers; j++ {
			backing[i*answers+j] = cube[i][j][n]
		}
	}

	return tensor.New(
		tensor.WithShape(items, answers),
		tensor.WithBacking(backing),
	)
}

// uniformWeights returns the equal mixture weights 1/n.
func uniformWeights(n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1 / float64(n)
	}
	return weights
}
