package dirmix

import (
	"fmt"

	"github.com/samuelfneumann/dirmix/distribution"
	"gorgonia.org/tensor"
)

// DirichletMultinomialEqualMixture is an equally-weighted mixture of
// Dirichlet-Multinomial distributions per item, used to interpret the
// aggregate predictions of an ensemble in terms of expected vote
// counts. All members share the per-item total vote counts; each member
// contributes its own concentration slice of the
// (items, answers, members) tensor.
//
// Entropy bounds are not provided: unlike the Dirichlet case, the
// Dirichlet-Multinomial entropy has no closed form to average.
type DirichletMultinomialEqualMixture struct {
	*EqualMixture
}

// NewDirichletMultinomialEqualMixture returns a new
// DirichletMultinomialEqualMixture. The concentration tensor must be
// 3-D with shape (items, answers, members) and every value finite and
// strictly positive. totalVotes must have one non-negative entry per
// item, or a single entry which is broadcast to every item.
func NewDirichletMultinomialEqualMixture(totalVotes []float64,
	conc *tensor.Dense) (*DirichletMultinomialEqualMixture, error) {
	cube, err := cubeFromDense(conc)
	if err != nil {
		return nil, fmt.Errorf("newDirichletMultinomialEqualMixture: %v", err)
	}

	members := len(cube[0][0])
	dists := make([]distribution.Distribution, members)
	for n := 0; n < members; n++ {
		d, err := distribution.NewDirichletMultinomial(totalVotes,
			memberSlice(cube, n), uint64(n))
		if err != nil {
			return nil, fmt.Errorf("newDirichletMultinomialEqualMixture: "+
				"member %d: %v", n, err)
		}
		dists[n] = d
	}

	mixture, err := newEqualMixture(dists)
	if err != nil {
		return nil, fmt.Errorf("newDirichletMultinomialEqualMixture: %v", err)
	}

	return &DirichletMultinomialEqualMixture{EqualMixture: mixture}, nil
}
