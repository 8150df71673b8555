// Package dirmix computes statistics over equally-weighted mixtures of
// Dirichlet and Dirichlet-Multinomial distributions. Mixtures aggregate
// the predictions of an ensemble of models (or repeated stochastic
// forward passes of one model) for the same items into a single
// posterior: each ensemble member contributes one component
// distribution per item, and mixture statistics broadcast along a
// trailing "member" axis.
//
// Exact mixture entropy has no closed form, so DirichletEqualMixture
// exposes upper and lower bounds derived from the component entropies,
// plus their midpoint as a point estimate.
package dirmix

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/dirmix/distribution"
	"gorgonia.org/tensor"
)

// EqualMixture is an equally-weighted mixture of member distributions
// sharing batch and event shapes. Statistics that are linear in the
// component densities (MeanProb, Mean, MeanCdf) are exact mixture
// statistics; LogProb and Prob expose the per-member values along a
// trailing member axis for the caller to reduce.
//
// EqualMixture cannot be constructed directly: concrete mixtures such
// as DirichletEqualMixture build one, which guarantees at least one
// member and identical member shapes.
type EqualMixture struct {
	members []distribution.Distribution
}

// newEqualMixture validates and wraps the member distributions.
func newEqualMixture(members []distribution.Distribution) (*EqualMixture,
	error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("newEqualMixture: expected at least 1 " +
			"member distribution but got 0")
	}

	batch, event := members[0].BatchShape(), members[0].EventShape()
	for i, m := range members[1:] {
		if !m.BatchShape().Eq(batch) || !m.EventShape().Eq(event) {
			return nil, fmt.Errorf("newEqualMixture: member %d has batch "+
				"shape %v and event shape %v but member 0 has %v and %v",
				i+1, m.BatchShape(), m.EventShape(), batch, event)
		}
	}

	return &EqualMixture{members: members}, nil
}

// NumMembers returns the number of member distributions in the mixture
func (e *EqualMixture) NumMembers() int {
	return len(e.members)
}

// BatchShape returns the number of items held by each member
func (e *EqualMixture) BatchShape() tensor.Shape {
	return e.members[0].BatchShape()
}

// EventShape returns the shape of a single event of each member
func (e *EqualMixture) EventShape() tensor.Shape {
	return e.members[0].EventShape()
}

// LogProb returns each member's log density or mass at x, stacked along
// a trailing member axis: the returned tensor has shape (items, N) and
// entry (i, n) is member n's log probability for item i. This is NOT
// the mixture log density; see MeanLogProb.
func (e *EqualMixture) LogProb(x *tensor.Dense) (*tensor.Dense, error) {
	items := e.BatchShape()[0]
	n := len(e.members)

	backing := make([]float64, items*n)
	for j, member := range e.members {
		logProb, err := member.LogProb(x)
		if err != nil {
			return nil, fmt.Errorf("logProb: member %d: %v", j, err)
		}

		col, err := vectorFromDense(logProb, items)
		if err != nil {
			return nil, fmt.Errorf("logProb: member %d: %v", j, err)
		}

		for i := 0; i < items; i++ {
			backing[i*n+j] = col[i]
		}
	}

	return tensor.New(tensor.WithShape(items, n),
		tensor.WithBacking(backing)), nil
}

// Prob returns each member's density or mass at x, stacked along a
// trailing member axis. The returned tensor has shape (items, N).
func (e *EqualMixture) Prob(x *tensor.Dense) (*tensor.Dense, error) {
	logProb, err := e.LogProb(x)
	if err != nil {
		return nil, fmt.Errorf("prob: %v", err)
	}

	data := logProb.Data().([]float64)
	for i := range data {
		data[i] = math.Exp(data[i])
	}

	return logProb, nil
}

// MeanProb returns the arithmetic mean of the member densities at x,
// which is the mixture's density or mass at x under equal weights. The
// returned tensor has shape (items).
func (e *EqualMixture) MeanProb(x *tensor.Dense) (*tensor.Dense, error) {
	prob, err := e.Prob(x)
	if err != nil {
		return nil, fmt.Errorf("meanProb: %v", err)
	}

	items := e.BatchShape()[0]
	n := len(e.members)
	data := prob.Data().([]float64)

	out := make([]float64, items)
	for i := 0; i < items; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			sum += data[i*n+j]
		}
		out[i] = sum / float64(n)
	}

	return tensor.New(tensor.WithShape(items), tensor.WithBacking(out)), nil
}

// MeanLogProb returns the log of the mixture density at x, one value
// per item. Note this is log(mean(prob)), not mean(log(prob)).
//
// Where the mixture density underflows to exactly zero the result is
// -Inf; this is passed through to the caller, never trapped.
func (e *EqualMixture) MeanLogProb(x *tensor.Dense) (*tensor.Dense, error) {
	meanProb, err := e.MeanProb(x)
	if err != nil {
		return nil, fmt.Errorf("meanLogProb: %v", err)
	}

	data := meanProb.Data().([]float64)
	for i := range data {
		data[i] = math.Log(data[i])
	}

	return meanProb, nil
}

// Mean returns the arithmetic mean, across members, of each member's
// mean. The expectation of a mixture is the weighted average of the
// component expectations, so this is the exact mixture mean. The
// returned tensor has shape (items, answers).
func (e *EqualMixture) Mean() (*tensor.Dense, error) {
	items := e.BatchShape()[0]
	answers := e.EventShape()[0]
	n := float64(len(e.members))

	backing := make([]float64, items*answers)
	for j, member := range e.members {
		mean, err := matrixFromDense(member.Mean())
		if err != nil {
			return nil, fmt.Errorf("mean: member %d: %v", j, err)
		}

		for i := 0; i < items; i++ {
			for k := 0; k < answers; k++ {
				backing[i*answers+k] += mean[i][k] / n
			}
		}
	}

	return tensor.New(tensor.WithShape(items, answers),
		tensor.WithBacking(backing)), nil
}

// MeanCdf returns the arithmetic mean of the member CDFs at x, which is
// the mixture CDF since integration is separable under mixing. It fails
// with ErrCdfUnsupported when the member distributions have no
// tractable CDF, as is the case for both Dirichlet and
// Dirichlet-Multinomial members.
func (e *EqualMixture) MeanCdf(x *tensor.Dense) (*tensor.Dense, error) {
	items := e.BatchShape()[0]
	n := float64(len(e.members))

	out := make([]float64, items)
	for j, member := range e.members {
		cdf, err := member.Cdf(x)
		if err != nil {
			return nil, fmt.Errorf("meanCdf: member %d: %w", j, err)
		}

		col, err := vectorFromDense(cdf, items)
		if err != nil {
			return nil, fmt.Errorf("meanCdf: member %d: %v", j, err)
		}

		for i := 0; i < items; i++ {
			out[i] += col[i] / n
		}
	}

	return tensor.New(tensor.WithShape(items), tensor.WithBacking(out)), nil
}

// Cdf always fails with ErrCdfUnsupported: per-member CDFs cannot be
// generically stacked the way densities can, since CDF evaluation
// requires specific parameter and input alignment. Use MeanCdf with
// batch-shaped input instead.
func (e *EqualMixture) Cdf(x *tensor.Dense) (*tensor.Dense, error) {
	return nil, fmt.Errorf("cdf: per-member cdfs cannot be stacked for a "+
		"mixture, use MeanCdf with batch-shaped input: %w",
		distribution.ErrCdfUnsupported)
}
