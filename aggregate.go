package dirmix

import (
	"encoding/json"
	"fmt"
	"math"

	"gorgonia.org/tensor"
)

// Question is one categorical question of a schema: a contiguous,
// inclusive range of indices into the answer axis of a concentration
// tensor.
type Question struct {
	StartIndex int
	EndIndex   int
}

// width returns the number of answers the question spans.
func (q Question) width() int {
	return q.EndIndex - q.StartIndex + 1
}

// Schema is an ordered set of questions over a shared answer axis.
type Schema struct {
	Questions []Question
}

// LoadAllConcentrations reassembles serialized per-answer concentration
// columns into a single (items, answers, members) tensor.
// columns[answer][item] is a JSON array with one concentration value
// per ensemble member, e.g. "[0.7, 1.2]" for a two-member ensemble.
// Every cell must decode to the same number of members, every column
// must have the same number of items, and every value must be finite
// and strictly positive.
func LoadAllConcentrations(columns [][]string) (*tensor.Dense, error) {
	answers := len(columns)
	if answers == 0 {
		return nil, fmt.Errorf("loadAllConcentrations: expected at least " +
			"1 answer column but got 0")
	}

	items := len(columns[0])
	if items == 0 {
		return nil, fmt.Errorf("loadAllConcentrations: expected at least " +
			"1 item per column but got 0")
	}

	var members int
	var backing []float64
	for a, column := range columns {
		if len(column) != items {
			return nil, fmt.Errorf("loadAllConcentrations: answer column "+
				"%d has %d items but column 0 has %d", a, len(column), items)
		}

		for i, cell := range column {
			var values []float64
			if err := json.Unmarshal([]byte(cell), &values); err != nil {
				return nil, fmt.Errorf("loadAllConcentrations: could not "+
					"decode answer %d item %d: %v", a, i, err)
			}

			if members == 0 {
				if len(values) == 0 {
					return nil, fmt.Errorf("loadAllConcentrations: answer "+
						"%d item %d has 0 members", a, i)
				}
				members = len(values)
				backing = make([]float64, items*answers*members)
			} else if len(values) != members {
				return nil, fmt.Errorf("loadAllConcentrations: answer %d "+
					"item %d has %d members but expected %d", a, i,
					len(values), members)
			}

			for n, v := range values {
				if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
					return nil, fmt.Errorf("loadAllConcentrations: "+
						"concentration must be finite and positive but "+
						"answer %d item %d member %d is %v", a, i, n, v)
				}
				backing[(i*answers+a)*members+n] = v
			}
		}
	}

	return tensor.New(
		tensor.WithShape(items, answers, members),
		tensor.WithBacking(backing),
	), nil
}

// ProbOfAnswers returns the mean predicted probability that an average
// voter picks each answer, under the ensemble mixture. For each
// question of the schema it slices the (items, answers, members)
// concentration tensor to the question's answers, builds a
// Dirichlet-Multinomial mixture with a single vote, and takes the
// mixture mean; the per-question results are concatenated in schema
// order into a tensor of shape (items, total question answers).
//
// Questions are processed independently: no normalization is applied
// across questions.
func ProbOfAnswers(conc *tensor.Dense, schema Schema) (*tensor.Dense, error) {
	cube, err := cubeFromDense(conc)
	if err != nil {
		return nil, fmt.Errorf("probOfAnswers: %v", err)
	}

	items, answers := len(cube), len(cube[0])

	if len(schema.Questions) == 0 {
		return nil, fmt.Errorf("probOfAnswers: expected at least 1 " +
			"question but got 0")
	}

	var total int
	for qi, q := range schema.Questions {
		if q.StartIndex < 0 || q.EndIndex >= answers ||
			q.StartIndex >= q.EndIndex {
			return nil, fmt.Errorf("probOfAnswers: question %d range "+
				"[%d, %d] invalid for %d answers", qi, q.StartIndex,
				q.EndIndex, answers)
		}
		total += q.width()
	}

	backing := make([]float64, items*total)
	offset := 0
	for qi, q := range schema.Questions {
		mixture, err := NewDirichletMultinomialEqualMixture(
			[]float64{1}, questionSlice(cube, q))
		if err != nil {
			return nil, fmt.Errorf("probOfAnswers: question %d: %v", qi, err)
		}

		mean, err := mixture.Mean()
		if err != nil {
			return nil, fmt.Errorf("probOfAnswers: question %d: %v", qi, err)
		}

		rows, err := matrixFromDense(mean)
		if err != nil {
			return nil, fmt.Errorf("probOfAnswers: question %d: %v", qi, err)
		}

		for i := 0; i < items; i++ {
			copy(backing[i*total+offset:i*total+offset+q.width()], rows[i])
		}
		offset += q.width()
	}

	return tensor.New(
		tensor.WithShape(items, total),
		tensor.WithBacking(backing),
	), nil
}

// questionSlice copies a question's answer range out of the
// (items, answers, members) cube into a (items, width, members) tensor.
func questionSlice(cube [][][]float64, q Question) *tensor.Dense {
	items, members := len(cube), len(cube[0][0])
	width := q.width()

	backing := make([]float64, items*width*members)
	for i := 0; i < items; i++ {
		for j := 0; j < width; j++ {
			for n := 0; n < members; n++ {
				backing[(i*width+j)*members+n] = cube[i][q.StartIndex+j][n]
			}
		}
	}

	return tensor.New(
		tensor.WithShape(items, width, members),
		tensor.WithBacking(backing),
	)
}
