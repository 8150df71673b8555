package dirmix

import (
	"errors"
	"math"
	"testing"

	"github.com/samuelfneumann/dirmix/distribution"
	"gorgonia.org/tensor"
)

// mixtureConc returns a (2 items, 3 answers, 2 members) concentration
// tensor.
func mixtureConc(t *testing.T) *tensor.Dense {
	t.Helper()
	return tensor.New(
		tensor.WithShape(2, 3, 2),
		tensor.WithBacking([]float64{
			// item 0: member 0 = (2, 3, 5), member 1 = (1, 1, 1)
			2, 1,
			3, 1,
			5, 1,
			// item 1: member 0 = (4, 4, 4), member 1 = (0.5, 2, 8)
			4, 0.5,
			4, 2,
			4, 8,
		}),
	)
}

// simplexPoints returns a (2 items, 3 answers) tensor of points on the
// probability simplex.
func simplexPoints(t *testing.T) *tensor.Dense {
	t.Helper()
	return tensor.New(
		tensor.WithShape(2, 3),
		tensor.WithBacking([]float64{
			0.2, 0.3, 0.5,
			0.1, 0.2, 0.7,
		}),
	)
}

func TestDirichletEqualMixtureLogProbColumns(t *testing.T) {
	mixture, err := NewDirichletEqualMixture(mixtureConc(t))
	if err != nil {
		t.Fatal(err)
	}

	x := simplexPoints(t)
	logProb, err := mixture.LogProb(x)
	if err != nil {
		t.Fatal(err)
	}
	if !logProb.Shape().Eq(tensor.Shape{2, 2}) {
		t.Fatalf("expected shape (2, 2) but got %v", logProb.Shape())
	}

	// Column n must hold member n's own log density
	memberConc := []*tensor.Dense{
		tensor.New(
			tensor.WithShape(2, 3),
			tensor.WithBacking([]float64{2, 3, 5, 4, 4, 4}),
		),
		tensor.New(
			tensor.WithShape(2, 3),
			tensor.WithBacking([]float64{1, 1, 1, 0.5, 2, 8}),
		),
	}
	for n, conc := range memberConc {
		member, err := distribution.NewDirichlet(conc, uint64(n))
		if err != nil {
			t.Fatal(err)
		}
		want, err := member.LogProb(x)
		if err != nil {
			t.Fatal(err)
		}

		for i := 0; i < 2; i++ {
			got, err := logProb.At(i, n)
			if err != nil {
				t.Fatal(err)
			}
			wantV, err := want.At(i)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got.(float64)-wantV.(float64)) > threshold {
				t.Errorf("member %d item %d: expected log prob %v but got "+
					"%v", n, i, wantV, got)
			}
		}
	}
}

func TestMeanProbIsMeanOfProb(t *testing.T) {
	mixture, err := NewDirichletEqualMixture(mixtureConc(t))
	if err != nil {
		t.Fatal(err)
	}

	x := simplexPoints(t)
	prob, err := mixture.Prob(x)
	if err != nil {
		t.Fatal(err)
	}
	meanProb, err := mixture.MeanProb(x)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		var want float64
		for n := 0; n < 2; n++ {
			v, err := prob.At(i, n)
			if err != nil {
				t.Fatal(err)
			}
			want += v.(float64) / 2
		}

		got, err := meanProb.At(i)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got.(float64)-want) > threshold {
			t.Errorf("item %d: expected mean prob %v but got %v", i, want,
				got)
		}
	}
}

func TestMeanOfIdenticalComponents(t *testing.T) {
	// Three identical Dirichlet(2, 3, 5) members: the mixture mean is
	// the single-component mean (2, 3, 5)/10
	conc := tensor.New(
		tensor.WithShape(1, 3, 3),
		tensor.WithBacking([]float64{
			2, 2, 2,
			3, 3, 3,
			5, 5, 5,
		}),
	)
	mixture, err := NewDirichletEqualMixture(conc)
	if err != nil {
		t.Fatal(err)
	}

	mean, err := mixture.Mean()
	if err != nil {
		t.Fatal(err)
	}
	if !mean.Shape().Eq(tensor.Shape{1, 3}) {
		t.Fatalf("expected shape (1, 3) but got %v", mean.Shape())
	}

	want := []float64{0.2, 0.3, 0.5}
	for j := range want {
		got, err := mean.At(0, j)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got.(float64)-want[j]) > threshold {
			t.Errorf("answer %d: expected mean %v but got %v", j, want[j],
				got)
		}
	}
}

func TestMeanLogProbUnderflow(t *testing.T) {
	// Both members have concentrations > 1, so a boundary point has
	// exactly zero mixture density and MeanLogProb passes -Inf through
	conc := tensor.New(
		tensor.WithShape(1, 3, 2),
		tensor.WithBacking([]float64{
			2, 3,
			3, 2,
			5, 4,
		}),
	)
	mixture, err := NewDirichletEqualMixture(conc)
	if err != nil {
		t.Fatal(err)
	}

	x := tensor.New(
		tensor.WithShape(1, 3),
		tensor.WithBacking([]float64{0, 0.5, 0.5}),
	)
	meanLogProb, err := mixture.MeanLogProb(x)
	if err != nil {
		t.Fatal(err)
	}

	got, err := meanLogProb.At(0)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(got.(float64), -1) {
		t.Errorf("expected -Inf mean log prob on the simplex boundary but "+
			"got %v", got)
	}
}

func TestMixtureCdfUnsupported(t *testing.T) {
	mixture, err := NewDirichletEqualMixture(mixtureConc(t))
	if err != nil {
		t.Fatal(err)
	}

	x := simplexPoints(t)
	if _, err := mixture.Cdf(x); !errors.Is(err,
		distribution.ErrCdfUnsupported) {
		t.Errorf("expected ErrCdfUnsupported from Cdf but got %v", err)
	}

	// MeanCdf propagates the member error for CDF-less components
	if _, err := mixture.MeanCdf(x); !errors.Is(err,
		distribution.ErrCdfUnsupported) {
		t.Errorf("expected ErrCdfUnsupported from MeanCdf but got %v", err)
	}
}

func TestEntropyBoundsPerItem(t *testing.T) {
	mixture, err := NewDirichletEqualMixture(mixtureConc(t))
	if err != nil {
		t.Fatal(err)
	}

	lower, err := mixture.EntropyLowerBound()
	if err != nil {
		t.Fatal(err)
	}
	upper, err := mixture.EntropyUpperBound()
	if err != nil {
		t.Fatal(err)
	}
	estimate, err := mixture.EntropyEstimate()
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		lo, err := lower.At(i)
		if err != nil {
			t.Fatal(err)
		}
		up, err := upper.At(i)
		if err != nil {
			t.Fatal(err)
		}
		est, err := estimate.At(i)
		if err != nil {
			t.Fatal(err)
		}

		if lo.(float64) > est.(float64) || est.(float64) > up.(float64) {
			t.Errorf("item %d: expected %v <= %v <= %v", i, lo, est, up)
		}

		// Uniform weights over 2 members: the bound gap is log 2
		if math.Abs((up.(float64)-lo.(float64))-math.Log(2)) > threshold {
			t.Errorf("item %d: expected bound gap %v but got %v", i,
				math.Log(2), up.(float64)-lo.(float64))
		}
	}
}

func TestEntropySingleMemberCollapse(t *testing.T) {
	// A single-member mixture has zero weight entropy: bounds and
	// estimate all equal the member's closed-form entropy
	conc := tensor.New(
		tensor.WithShape(2, 3, 1),
		tensor.WithBacking([]float64{
			2, 3, 5,
			1, 1, 1,
		}),
	)
	mixture, err := NewDirichletEqualMixture(conc)
	if err != nil {
		t.Fatal(err)
	}

	lower, err := mixture.EntropyLowerBound()
	if err != nil {
		t.Fatal(err)
	}
	upper, err := mixture.EntropyUpperBound()
	if err != nil {
		t.Fatal(err)
	}
	estimate, err := mixture.EntropyEstimate()
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{
		distribution.DirichletEntropy([]float64{2, 3, 5}),
		distribution.DirichletEntropy([]float64{1, 1, 1}),
	}
	for i := range want {
		for name, bound := range map[string]*tensor.Dense{
			"lower":    lower,
			"upper":    upper,
			"estimate": estimate,
		} {
			got, err := bound.At(i)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got.(float64)-want[i]) > threshold {
				t.Errorf("item %d: expected %v bound %v but got %v", i, name,
					want[i], got)
			}
		}
	}
}

func TestEntropyMemberPermutationInvariance(t *testing.T) {
	conc := mixtureConc(t)

	// Swap the two members along the trailing axis
	cube, err := cubeFromDense(conc)
	if err != nil {
		t.Fatal(err)
	}
	swapped := make([]float64, 0, 2*3*2)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			swapped = append(swapped, cube[i][j][1], cube[i][j][0])
		}
	}

	mixture, err := NewDirichletEqualMixture(conc)
	if err != nil {
		t.Fatal(err)
	}
	permuted, err := NewDirichletEqualMixture(tensor.New(
		tensor.WithShape(2, 3, 2),
		tensor.WithBacking(swapped),
	))
	if err != nil {
		t.Fatal(err)
	}

	for name, bounds := range map[string][2]func() (*tensor.Dense, error){
		"lower": {mixture.EntropyLowerBound, permuted.EntropyLowerBound},
		"upper": {mixture.EntropyUpperBound, permuted.EntropyUpperBound},
	} {
		original, err := bounds[0]()
		if err != nil {
			t.Fatal(err)
		}
		reordered, err := bounds[1]()
		if err != nil {
			t.Fatal(err)
		}

		for i := 0; i < 2; i++ {
			a, err := original.At(i)
			if err != nil {
				t.Fatal(err)
			}
			b, err := reordered.At(i)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(a.(float64)-b.(float64)) > threshold {
				t.Errorf("item %d: %v bound changed under member "+
					"permutation: %v vs %v", i, name, a, b)
			}
		}
	}
}

func TestNewDirichletEqualMixtureValidation(t *testing.T) {
	// Wrong number of dimensions
	flat := tensor.New(
		tensor.WithShape(2, 3),
		tensor.WithBacking([]float64{1, 2, 3, 4, 5, 6}),
	)
	if _, err := NewDirichletEqualMixture(flat); err == nil {
		t.Error("expected an error for a 2-D concentration tensor")
	}

	// Non-positive concentration
	bad := tensor.New(
		tensor.WithShape(1, 2, 2),
		tensor.WithBacking([]float64{1, 2, 0, 3}),
	)
	if _, err := NewDirichletEqualMixture(bad); err == nil {
		t.Error("expected an error for a zero concentration")
	}

	if _, err := NewDirichletEqualMixture(nil); err == nil {
		t.Error("expected an error for a nil concentration tensor")
	}
}

func TestDirichletMultinomialEqualMixtureMean(t *testing.T) {
	// With a single vote, the mixture mean is the average of the
	// members' normalized concentrations: the expected vote fractions
	conc := mixtureConc(t)
	mixture, err := NewDirichletMultinomialEqualMixture([]float64{1}, conc)
	if err != nil {
		t.Fatal(err)
	}

	mean, err := mixture.Mean()
	if err != nil {
		t.Fatal(err)
	}
	if !mean.Shape().Eq(tensor.Shape{2, 3}) {
		t.Fatalf("expected shape (2, 3) but got %v", mean.Shape())
	}

	cube, err := cubeFromDense(conc)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		sums := make([]float64, 2)
		for j := 0; j < 3; j++ {
			for n := 0; n < 2; n++ {
				sums[n] += cube[i][j][n]
			}
		}

		for j := 0; j < 3; j++ {
			var want float64
			for n := 0; n < 2; n++ {
				want += cube[i][j][n] / sums[n] / 2
			}

			got, err := mean.At(i, j)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got.(float64)-want) > threshold {
				t.Errorf("mean (%d, %d): expected %v but got %v", i, j, want,
					got)
			}
		}
	}
}

func TestNewDirichletMultinomialEqualMixtureValidation(t *testing.T) {
	conc := mixtureConc(t)

	// Vote counts must align with the item axis or broadcast from
	// length 1
	if _, err := NewDirichletMultinomialEqualMixture([]float64{1, 2, 3},
		conc); err == nil {
		t.Error("expected an error for misaligned total votes")
	}

	if _, err := NewDirichletMultinomialEqualMixture([]float64{-2},
		conc); err == nil {
		t.Error("expected an error for negative total votes")
	}
}
