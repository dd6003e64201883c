// SPDX-License-Identifier: Apache-2.0

package fusion

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// DefaultTolerance is the allowed distance of a weight sum from 1.
const DefaultTolerance = 1e-6

// Options controls weight validation in Fuse.
type Options struct {
	// Strict rejects weight sets that do not sum to 1 instead of warning.
	Strict bool
	// Tolerance is the allowed |sum(weights) - 1|. Zero means DefaultTolerance.
	Tolerance float64
}

func (o Options) tolerance() float64 {
	if o.Tolerance <= 0 {
		return DefaultTolerance
	}
	return o.Tolerance
}

// Result is the outcome of one fusion.
type Result struct {
	Score         float64        `json:"score" yaml:"score"`
	WeightSum     float64        `json:"weight_sum" yaml:"weight_sum"`
	Balanced      bool           `json:"balanced" yaml:"balanced"`
	Contributions []Contribution `json:"contributions" yaml:"contributions"`
	Explanation   string         `json:"explanation" yaml:"explanation"`
}

// Normalize maps a raw classifier result onto the probability that the input is
// AI-generated. An authentic label yields 1 - score, a synthetic label yields
// score. A label the map does not declare is an error.
func Normalize(result ClassifierResult, polarity PolarityMap) (float64, error) {
	if err := checkScore(result.Score); err != nil {
		return 0, fmt.Errorf("label %q: %w", result.Label, err)
	}
	p, ok := polarity.Lookup(result.Label)
	if !ok {
		return 0, &UnknownLabelError{Label: result.Label, Known: polarity.Labels()}
	}
	if p == Authentic {
		return 1 - result.Score, nil
	}
	return result.Score, nil
}

// CheckWeight validates a single detector weight.
func CheckWeight(name string, w float64) error {
	switch {
	case math.IsNaN(w) || math.IsInf(w, 0):
		return &InvalidWeightError{Name: name, Weight: w, Reason: "weight must be finite"}
	case w <= 0:
		return &InvalidWeightError{Name: name, Weight: w, Reason: "weight must be greater than zero"}
	}
	return nil
}

// WeightsBalanced reports the sum of weights and whether it equals 1 within tol.
func WeightsBalanced(weights []float64, tol float64) (float64, bool) {
	sum := floats.Sum(weights)
	return sum, math.Abs(sum-1) <= tol
}

// Fuse computes the weighted sum of the contributions' normalized scores. No
// clamping is applied; with scores in [0,1] and weights summing to 1 the result
// is a convex combination and stays in [0,1].
func Fuse(contributions []Contribution, opts Options) (Result, error) {
	if len(contributions) == 0 {
		return Result{}, ErrEmptyDetectorSet
	}

	scores := make([]float64, len(contributions))
	weights := make([]float64, len(contributions))
	for i, c := range contributions {
		if err := CheckWeight(c.Name, c.Weight); err != nil {
			return Result{}, err
		}
		if err := checkScore(c.Score); err != nil {
			return Result{}, fmt.Errorf("detector %q: %w", c.Name, err)
		}
		scores[i] = c.Score
		weights[i] = c.Weight
	}

	sum, balanced := WeightsBalanced(weights, opts.tolerance())
	if !balanced && opts.Strict {
		return Result{}, &InvalidWeightError{
			Sum:    sum,
			Reason: fmt.Sprintf("weights sum to %g, want 1", sum),
		}
	}

	out := make([]Contribution, len(contributions))
	copy(out, contributions)

	return Result{
		Score:         floats.Dot(scores, weights),
		WeightSum:     sum,
		Balanced:      balanced,
		Contributions: out,
		Explanation:   explain(out, sum, balanced),
	}, nil
}

func explain(contributions []Contribution, sum float64, balanced bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Multi-model analysis over %d detector(s):", len(contributions))
	for i, c := range contributions {
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("detector %d", i+1)
		}
		fmt.Fprintf(&b, "\n- %s: AI probability %.4f, weight %g", name, c.Score, c.Weight)
	}
	if !balanced {
		fmt.Fprintf(&b, "\nwarning: detector weights sum to %g, not 1; the score is not a probability", sum)
	}
	return b.String()
}

func checkScore(s float64) error {
	if math.IsNaN(s) || s < 0 || s > 1 {
		return fmt.Errorf("%w: %g is outside [0,1]", ErrInvalidScore, s)
	}
	return nil
}
