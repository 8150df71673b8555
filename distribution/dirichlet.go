package distribution

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distmv"
	"gorgonia.org/tensor"
)

// Dirichlet is a batch of Dirichlet distributions, one per item of a
// concentration tensor of shape (items, answers). Row i of the tensor
// is the concentration vector of item i's distribution.
//
// Inputs to LogProb and Prob must have the same shape as the
// concentration tensor, with each row a point on the probability
// simplex. Points on the simplex boundary may have zero density, in
// which case LogProb returns -Inf for that item.
//
// Dirichlet supports the following data types:
// - tensor.Float64
type Dirichlet struct {
	conc    [][]float64
	items   int
	answers int
	dists   []*distmv.Dirichlet
}

// NewDirichlet returns a new Dirichlet. The concentration tensor must
// be 2-D with shape (items, answers), answers >= 2, and every value
// finite and strictly positive. The seed is used for sampling.
func NewDirichlet(conc *tensor.Dense, seed uint64) (*Dirichlet, error) {
	m, err := matrixFromDense(conc)
	if err != nil {
		return nil, fmt.Errorf("newDirichlet: %v", err)
	}

	if len(m[0]) < 2 {
		return nil, fmt.Errorf("newDirichlet: expected at least 2 answers "+
			"per item but got %d", len(m[0]))
	}

	if err := checkConcentrations(m); err != nil {
		return nil, fmt.Errorf("newDirichlet: %v", err)
	}

	src := rand.NewSource(seed)
	dists := make([]*distmv.Dirichlet, len(m))
	for i, row := range m {
		dists[i] = distmv.NewDirichlet(row, src)
	}

	return &Dirichlet{
		conc:    m,
		items:   len(m),
		answers: len(m[0]),
		dists:   dists,
	}, nil
}

// LogProb returns the log probability density at x, one value per item.
// The returned tensor has shape (items).
func (d *Dirichlet) LogProb(x *tensor.Dense) (*tensor.Dense, error) {
	xm, err := d.batch(x)
	if err != nil {
		return nil, fmt.Errorf("logProb: %v", err)
	}

	out := make([]float64, d.items)
	for i, row := range xm {
		out[i] = d.dists[i].LogProb(row)
	}

	return tensor.New(tensor.WithShape(d.items), tensor.WithBacking(out)), nil
}

// Prob returns the probability density at x, one value per item. The
// returned tensor has shape (items).
func (d *Dirichlet) Prob(x *tensor.Dense) (*tensor.Dense, error) {
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

// Cdf always returns ErrCdfUnsupported: the Dirichlet CDF has no
// tractable form.
func (d *Dirichlet) Cdf(x *tensor.Dense) (*tensor.Dense, error) {
	return nil, fmt.Errorf("cdf: %w", ErrCdfUnsupported)
}

// Mean returns the mean of each item's distribution, the normalized
// concentrations. The returned tensor has shape (items, answers).
func (d *Dirichlet) Mean() *tensor.Dense {
	backing := make([]float64, d.items*d.answers)
	for i, row := range d.conc {
		sum := floats.Sum(row)
		for j, a := range row {
			backing[i*d.answers+j] = a / sum
		}
	}

	return tensor.New(
		tensor.WithShape(d.items, d.answers),
		tensor.WithBacking(backing),
	)
}

// Variance returns the variance of each answer's marginal under each
// item's distribution. The returned tensor has shape (items, answers).
func (d *Dirichlet) Variance() *tensor.Dense {
	backing := make([]float64, d.items*d.answers)
	for i, row := range d.conc {
		sum := floats.Sum(row)
		for j, a := range row {
			backing[i*d.answers+j] = a * (sum - a) / (sum * sum * (sum + 1))
		}
	}

	return tensor.New(
		tensor.WithShape(d.items, d.answers),
		tensor.WithBacking(backing),
	)
}

// Entropy returns the closed-form entropy of each item's distribution.
// The returned tensor has shape (items).
func (d *Dirichlet) Entropy() *tensor.Dense {
	out := make([]float64, d.items)
	for i, row := range d.conc {
		out[i] = DirichletEntropy(row)
	}

	return tensor.New(tensor.WithShape(d.items), tensor.WithBacking(out))
}

// Sample returns samples draws from each item's distribution. The
// returned tensor has shape (samples, items, answers); each
// (item, answer) row lies on the probability simplex.
func (d *Dirichlet) Sample(samples int) (*tensor.Dense, error) {
	if samples < 1 {
		return nil, fmt.Errorf("sample: expected at least 1 sample but "+
			"got %d", samples)
	}

	backing := make([]float64, samples*d.items*d.answers)
	for s := 0; s < samples; s++ {
		for i, dist := range d.dists {
			row := backing[(s*d.items+i)*d.answers : (s*d.items+i+1)*d.answers]
			dist.Rand(row)
		}
	}

	return tensor.New(
		tensor.WithShape(samples, d.items, d.answers),
		tensor.WithBacking(backing),
	), nil
}

// BatchShape returns the number of items held by the batch
func (d *Dirichlet) BatchShape() tensor.Shape {
	return tensor.Shape{d.items}
}

// EventShape returns the number of answers of each item's distribution
func (d *Dirichlet) EventShape() tensor.Shape {
	return tensor.Shape{d.answers}
}

// batch validates that x matches the concentration tensor's shape and
// copies it into rows.
func (d *Dirichlet) batch(x *tensor.Dense) ([][]float64, error) {
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

// DirichletEntropy returns the closed-form entropy of a single
// Dirichlet distribution with the given concentration vector:
//
//	H = log B(α) + (α₀ - K)ψ(α₀) - Σⱼ (αⱼ - 1)ψ(αⱼ)
//
// where α₀ is the concentration sum, K the number of answers, B the
// multivariate beta function, and ψ the digamma function. Log-gamma and
// digamma are evaluated with library routines so large concentrations
// stay stable.
func DirichletEntropy(conc []float64) float64 {
	var sum, logBeta float64
	for _, a := range conc {
		sum += a
		logBeta += lgamma(a)
	}
	logBeta -= lgamma(sum)

	entropy := logBeta + (sum-float64(len(conc)))*mathext.Digamma(sum)
	for _, a := range conc {
		entropy -= (a - 1) * mathext.Digamma(a)
	}

	return entropy
}
