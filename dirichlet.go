package dirmix

import (
	"fmt"

	"github.com/samuelfneumann/dirmix/distribution"
	"gorgonia.org/tensor"
)

// DirichletEqualMixture is an equally-weighted mixture of Dirichlet
// distributions per item: the Dirichlet version of a Gaussian mixture
// model. It combines the concentration predictions of M ensemble
// members for the same items, stored as a tensor of shape
// (items, answers, members).
type DirichletEqualMixture struct {
	*EqualMixture
	conc    [][][]float64 // (items, answers, members)
	items   int
	answers int
	numDist int
}

// NewDirichletEqualMixture returns a new DirichletEqualMixture. The
// concentration tensor must be 3-D with shape (items, answers, members)
// and every value finite and strictly positive.
func NewDirichletEqualMixture(conc *tensor.Dense) (*DirichletEqualMixture,
	error) {
	cube, err := cubeFromDense(conc)
	if err != nil {
		return nil, fmt.Errorf("newDirichletEqualMixture: %v", err)
	}

	members := len(cube[0][0])
	dists := make([]distribution.Distribution, members)
	for n := 0; n < members; n++ {
		d, err := distribution.NewDirichlet(memberSlice(cube, n), uint64(n))
		if err != nil {
			return nil, fmt.Errorf("newDirichletEqualMixture: member %d: %v",
				n, err)
		}
		dists[n] = d
	}

	mixture, err := newEqualMixture(dists)
	if err != nil {
		return nil, fmt.Errorf("newDirichletEqualMixture: %v", err)
	}

	return &DirichletEqualMixture{
		EqualMixture: mixture,
		conc:         cube,
		items:        len(cube),
		answers:      len(cube[0]),
		numDist:      members,
	}, nil
}

// EntropyUpperBound returns an upper bound on the mixture entropy of
// each item, computed independently per item from the item's
// (answers, members) concentration slice under uniform weights. The
// returned tensor has shape (items).
func (d *DirichletEqualMixture) EntropyUpperBound() (*tensor.Dense, error) {
	return d.entropyBound(MixtureEntropyUpperBound, "entropyUpperBound")
}

// EntropyLowerBound returns a lower bound on the mixture entropy of
// each item; see EntropyUpperBound for the shape conventions.
func (d *DirichletEqualMixture) EntropyLowerBound() (*tensor.Dense, error) {
	return d.entropyBound(MixtureEntropyLowerBound, "entropyLowerBound")
}

// EntropyEstimate returns the midpoint between the entropy bounds of
// each item, lower + (upper-lower)/2. This is a heuristic point
// estimate, not an expectation: the true mixture entropy may lie
// anywhere between the bounds. For a single-member mixture the bounds
// coincide and the estimate equals the member's closed-form entropy.
func (d *DirichletEqualMixture) EntropyEstimate() (*tensor.Dense, error) {
	upper, err := d.EntropyUpperBound()
	if err != nil {
		return nil, fmt.Errorf("entropyEstimate: %v", err)
	}
	lower, err := d.EntropyLowerBound()
	if err != nil {
		return nil, fmt.Errorf("entropyEstimate: %v", err)
	}

	up := upper.Data().([]float64)
	lo := lower.Data().([]float64)
	for i := range lo {
		lo[i] += (up[i] - lo[i]) / 2
	}

	return lower, nil
}

// entropyBound runs one of the mixture entropy bounds independently on
// each item with uniform weights.
func (d *DirichletEqualMixture) entropyBound(
	bound func([]Component, []float64) (float64, error),
	method string) (*tensor.Dense, error) {
	weights := uniformWeights(d.numDist)

	out := make([]float64, d.items)
	for i := 0; i < d.items; i++ {
		h, err := bound(d.itemComponents(i), weights)
		if err != nil {
			return nil, fmt.Errorf("%v: item %d: %v", method, i, err)
		}
		out[i] = h
	}

	return tensor.New(tensor.WithShape(d.items), tensor.WithBacking(out)), nil
}

// itemComponents gathers item i's per-member concentration vectors as
// mixture components.
func (d *DirichletEqualMixture) itemComponents(i int) []Component {
	components := make([]Component, d.numDist)
	for n := 0; n < d.numDist; n++ {
		alpha := make(dirichletComponent, d.answers)
		for j := 0; j < d.answers; j++ {
			alpha[j] = d.conc[i][j][n]
		}
		components[n] = alpha
	}
	return components
}

// dirichletComponent is a single Dirichlet concentration vector viewed
// as a mixture component.
type dirichletComponent []float64

// Entropy returns the closed-form entropy of the Dirichlet with this
// concentration vector.
func (c dirichletComponent) Entropy() float64 {
	return distribution.DirichletEntropy(c)
}
