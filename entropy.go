package dirmix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// weightTolerance is the slack allowed between a weight vector's sum
// and 1.
const weightTolerance float64 = 1e-9

// Component is an individual component in a mixture distribution.
type Component interface {
	Entropy() float64
}

// MixtureEntropyUpperBound returns an upper bound on the entropy of the
// weighted mixture of the components. The joint entropy of the mixture
// and the weight distribution bounds the mixture entropy from above:
//
//	H(X) ≤ H(X, W) = Σₙ wₙ H(Xₙ) + H(W)
//
// where H(W) is the discrete entropy of the weight vector. If weights
// is nil, the components are equally weighted and H(W) = log(N).
func MixtureEntropyUpperBound(components []Component,
	weights []float64) (float64, error) {
	lower, err := MixtureEntropyLowerBound(components, weights)
	if err != nil {
		return 0, fmt.Errorf("mixtureEntropyUpperBound: %v", err)
	}

	if weights == nil {
		return lower + math.Log(float64(len(components))), nil
	}
	return lower + stat.Entropy(weights), nil
}

// MixtureEntropyLowerBound returns a lower bound on the entropy of the
// weighted mixture of the components: the entropy of the mixture
// conditioned on the weight,
//
//	H(X) ≥ H(X|W) = Σₙ wₙ H(Xₙ)
//
// i.e. the average entropy of the components. If weights is nil, the
// components are equally weighted.
func MixtureEntropyLowerBound(components []Component,
	weights []float64) (float64, error) {
	if err := checkWeights(len(components), weights); err != nil {
		return 0, fmt.Errorf("mixtureEntropyLowerBound: %v", err)
	}

	if weights == nil {
		var avgEnt float64
		n := float64(len(components))
		for _, c := range components {
			avgEnt += c.Entropy() / n
		}
		return avgEnt, nil
	}

	var avgEnt float64
	for i, c := range components {
		avgEnt += weights[i] * c.Entropy()
	}
	return avgEnt, nil
}

// checkWeights validates a mixture weight vector: one non-negative
// weight per component, summing to 1. A nil vector means uniform
// weights and is always valid.
func checkWeights(components int, weights []float64) error {
	if components == 0 {
		return fmt.Errorf("expected at least 1 component but got 0")
	}

	if weights == nil {
		return nil
	}

	if len(weights) != components {
		return fmt.Errorf("expected %d weights to match components but "+
			"got %d", components, len(weights))
	}

	var sum float64
	for i, w := range weights {
		if math.IsNaN(w) || w < 0 {
			return fmt.Errorf("weights must be non-negative but weight %d "+
				"is %v", i, w)
		}
		sum += w
	}

	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("expected weights to sum to 1 but got %v", sum)
	}

	return nil
}
