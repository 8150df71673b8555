package distribution

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
	"gorgonia.org/tensor"
)

// countTolerance is the slack allowed between a count vector's sum and
// an item's total votes. Counts are conceptually integers but stored as
// floating point.
const countTolerance float64 = 1e-6

// DirichletMultinomial is a batch of Dirichlet-Multinomial
// distributions, one per item of a concentration tensor of shape
// (items, answers). Item i's distribution is over vote-count vectors of
// answers non-negative entries summing to totalVotes[i].
//
// DirichletMultinomial supports the following data types:
// - tensor.Float64
type DirichletMultinomial struct {
	conc       [][]float64
	totalVotes []float64
	items      int
	answers    int
	src        rand.Source
}

// NewDirichletMultinomial returns a new DirichletMultinomial. The
// concentration tensor must be 2-D with shape (items, answers),
// answers >= 2, and every value finite and strictly positive.
// totalVotes must have one non-negative entry per item, or a single
// entry which is broadcast to every item. The seed is used for
// sampling.
func NewDirichletMultinomial(totalVotes []float64, conc *tensor.Dense,
	seed uint64) (*DirichletMultinomial, error) {
	m, err := matrixFromDense(conc)
	if err != nil {
		return nil, fmt.Errorf("newDirichletMultinomial: %v", err)
	}

	if len(m[0]) < 2 {
		return nil, fmt.Errorf("newDirichletMultinomial: expected at "+
			"least 2 answers per item but got %d", len(m[0]))
	}

	if err := checkConcentrations(m); err != nil {
		return nil, fmt.Errorf("newDirichletMultinomial: %v", err)
	}

	votes, err := expandTotalVotes(totalVotes, len(m))
	if err != nil {
		return nil, fmt.Errorf("newDirichletMultinomial: %v", err)
	}

	return &DirichletMultinomial{
		conc:       m,
		totalVotes: votes,
		items:      len(m),
		answers:    len(m[0]),
		src:        rand.NewSource(seed),
	}, nil
}

// LogProb returns the log probability mass at the count tensor x, one
// value per item. Row i of x must be a vector of non-negative counts
// summing to item i's total votes. The returned tensor has shape
// (items).
func (d *DirichletMultinomial) LogProb(x *tensor.Dense) (*tensor.Dense,
	error) {
	xm, err := d.batch(x)
	if err != nil {
		return nil, fmt.Errorf("logProb: %v", err)
	}

	out := make([]float64, d.items)
	for i, counts := range xm {
		n := d.totalVotes[i]
		var sum float64
		for j, c := range counts {
			if c < 0 {
				return nil, fmt.Errorf("logProb: counts must be "+
					"non-negative but item %d answer %d is %v", i, j, c)
			}
			sum += c
		}
		if math.Abs(sum-n) > countTolerance {
			return nil, fmt.Errorf("logProb: item %d counts sum to %v but "+
				"total votes is %v", i, sum, n)
		}

		out[i] = dirichletMultinomialLogProb(n, d.conc[i], counts)
	}

	return tensor.New(tensor.WithShape(d.items), tensor.WithBacking(out)), nil
}

// Prob returns the probability mass at the count tensor x, one value
// per item. The returned tensor has shape (items).
func (d *DirichletMultinomial) Prob(x *tensor.Dense) (*tensor.Dense, error) {
	logProb, err := d.LogProb(x)
	if err != nil {
		return nil, fmt.Errorf("prob: %v", err)
	}

	data := logProb.Data().([]float64)
	for i := range data {
		data[i] = math.Exp(data[i])
	}

	return logProb, nil
}

// Cdf always returns ErrCdfUnsupported: the Dirichlet-Multinomial CDF
// has no tractable form.
func (d *DirichletMultinomial) Cdf(x *tensor.Dense) (*tensor.Dense, error) {
	return nil, fmt.Errorf("cdf: %w", ErrCdfUnsupported)
}

// Mean returns the expected vote-count vector of each item,
// n·αⱼ/α₀. The returned tensor has shape (items, answers).
func (d *DirichletMultinomial) Mean() *tensor.Dense {
	backing := make([]float64, d.items*d.answers)
	for i, row := range d.conc {
		sum := floats.Sum(row)
		for j, a := range row {
			backing[i*d.answers+j] = d.totalVotes[i] * a / sum
		}
	}

	return tensor.New(
		tensor.WithShape(d.items, d.answers),
		tensor.WithBacking(backing),
	)
}

// Variance returns the variance of each answer's vote count under each
// item's distribution, n·pⱼ(1-pⱼ)·(α₀+n)/(α₀+1) with pⱼ = αⱼ/α₀. The
// returned tensor has shape (items, answers).
func (d *DirichletMultinomial) Variance() *tensor.Dense {
	backing := make([]float64, d.items*d.answers)
	for i, row := range d.conc {
		sum := floats.Sum(row)
		n := d.totalVotes[i]
		for j, a := range row {
			p := a / sum
			backing[i*d.answers+j] = n * p * (1 - p) * (sum + n) / (sum + 1)
		}
	}

	return tensor.New(
		tensor.WithShape(d.items, d.answers),
		tensor.WithBacking(backing),
	)
}

// Sample returns samples draws from each item's distribution. Each draw
// first samples answer probabilities from the item's Dirichlet, then
// distributes the item's total votes over answers categorically. The
// returned tensor has shape (samples, items, answers); each
// (item, answer) row sums to the item's total votes.
func (d *DirichletMultinomial) Sample(samples int) (*tensor.Dense, error) {
	if samples < 1 {
		return nil, fmt.Errorf("sample: expected at least 1 sample but "+
			"got %d", samples)
	}

	backing := make([]float64, samples*d.items*d.answers)
	probs := make([]float64, d.answers)
	for s := 0; s < samples; s++ {
		for i, row := range d.conc {
			dir := distmv.NewDirichlet(row, d.src)
			dir.Rand(probs)
			categorical := distuv.NewCategorical(probs, d.src)

			counts := backing[(s*d.items+i)*d.answers : (s*d.items+i+1)*d.answers]
			votes := int(math.Round(d.totalVotes[i]))
			for v := 0; v < votes; v++ {
				counts[int(categorical.Rand())]++
			}
		}
	}

	return tensor.New(
		tensor.WithShape(samples, d.items, d.answers),
		tensor.WithBacking(backing),
	), nil
}

// TotalVotes returns the total vote count of each item
func (d *DirichletMultinomial) TotalVotes() []float64 {
	votes := make([]float64, d.items)
	copy(votes, d.totalVotes)
	return votes
}

// BatchShape returns the number of items held by the batch
func (d *DirichletMultinomial) BatchShape() tensor.Shape {
	return tensor.Shape{d.items}
}

// EventShape returns the number of answers of each item's distribution
func (d *DirichletMultinomial) EventShape() tensor.Shape {
	return tensor.Shape{d.answers}
}

// batch validates that x matches the concentration tensor's shape and
// copies it into rows.
func (d *DirichletMultinomial) batch(x *tensor.Dense) ([][]float64, error) {
	m, err := matrixFromDense(x)
	if err != nil {
		return nil, err
	}

	if len(m) != d.items || len(m[0]) != d.answers {
		return nil, fmt.Errorf("expected shape (%d, %d) to match "+
			"distribution shape but got %v", d.items, d.answers, x.Shape())
	}

	return m, nil
}

// dirichletMultinomialLogProb is the closed-form log probability mass
// of counts x under a Dirichlet-Multinomial with concentration alpha
// and total count n:
//
//	log P(x) = lgΓ(n+1) - Σⱼ lgΓ(xⱼ+1)
//	         + lgΓ(α₀) - lgΓ(n+α₀)
//	         + Σⱼ (lgΓ(xⱼ+αⱼ) - lgΓ(αⱼ))
func dirichletMultinomialLogProb(n float64, alpha, x []float64) float64 {
	logProb := lgamma(n + 1)

	var alpha0 float64
	for j := range x {
		logProb -= lgamma(x[j] + 1)
		logProb += lgamma(x[j]+alpha[j]) - lgamma(alpha[j])
		alpha0 += alpha[j]
	}

	return logProb + lgamma(alpha0) - lgamma(n+alpha0)
}
