// Package distribution provides batches of probability distributions
// over gorgonia tensors. Each distribution in this package holds one
// distribution per item of a batch: for example, a Dirichlet constructed
// from a concentration tensor of shape (items, answers) holds items
// separate Dirichlet distributions, each over answers categories.
// Methods operate on the whole batch at once and return one value per
// item.
package distribution

import (
	"errors"

	"gorgonia.org/tensor"
)

// ErrCdfUnsupported is returned by the Cdf method of distributions that
// have no tractable cumulative distribution function. Callers can test
// for it with errors.Is.
var ErrCdfUnsupported = errors.New("cdf is not implemented for this " +
	"distribution")

// Distribution is a batch of probability distributions sharing an event
// shape. Inputs to LogProb, Prob, and Cdf must have shape
// (BatchShape[0], EventShape[0]): one event per item in the batch.
type Distribution interface {
	// LogProb returns the log of the probability density or mass
	// of x, one value per item. The returned tensor has shape
	// BatchShape.
	LogProb(x *tensor.Dense) (*tensor.Dense, error)

	// Prob returns the probability density or mass of x, one value
	// per item. The returned tensor has shape BatchShape.
	Prob(x *tensor.Dense) (*tensor.Dense, error)

	// Cdf returns the cumulative probability of x, one value per
	// item, or ErrCdfUnsupported if the distribution has no
	// tractable CDF.
	Cdf(x *tensor.Dense) (*tensor.Dense, error)

	// Mean returns the mean of each item's distribution. The
	// returned tensor has shape (BatchShape[0], EventShape[0]).
	Mean() *tensor.Dense

	// BatchShape returns the number of items held by the batch
	BatchShape() tensor.Shape

	// EventShape returns the shape of a single event
	EventShape() tensor.Shape
}
