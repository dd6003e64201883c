// SPDX-License-Identifier: Apache-2.0

package fusion_test

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authenticaproj/authentica/internal/fusion"
)

const eps = 1e-12

// ---------------------------------------------------------------------------
// Normalize
// ---------------------------------------------------------------------------

func TestNormalize(t *testing.T) {
	roberta := fusion.NewPolarityMap([]string{"LABEL_0", "Real"}, []string{"LABEL_1", "Fake"})
	chatgpt := fusion.NewPolarityMap([]string{"human"}, []string{"chatgpt"})

	tests := []struct {
		name     string
		result   fusion.ClassifierResult
		polarity fusion.PolarityMap
		want     float64
	}{
		{"authentic label inverts score", fusion.ClassifierResult{Label: "LABEL_0", Score: 0.8}, roberta, 0.2},
		{"synthetic label keeps score", fusion.ClassifierResult{Label: "LABEL_1", Score: 0.8}, roberta, 0.8},
		{"authentic match is case-insensitive", fusion.ClassifierResult{Label: "Human", Score: 0.9}, chatgpt, 0.1},
		{"synthetic match is case-insensitive", fusion.ClassifierResult{Label: "ChatGPT", Score: 0.7}, chatgpt, 0.7},
		{"authentic certainty is zero", fusion.ClassifierResult{Label: "real", Score: 1}, roberta, 0},
		{"synthetic certainty is one", fusion.ClassifierResult{Label: "fake", Score: 1}, roberta, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fusion.Normalize(tt.result, tt.polarity)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, eps)
		})
	}
}

func TestNormalize_PolarityLaws(t *testing.T) {
	polarity := fusion.NewPolarityMap([]string{"human"}, []string{"artificial"})
	for s := 0.0; s <= 1.0; s += 0.05 {
		a, err := fusion.Normalize(fusion.ClassifierResult{Label: "human", Score: s}, polarity)
		require.NoError(t, err)
		assert.InDelta(t, 1-s, a, eps)

		b, err := fusion.Normalize(fusion.ClassifierResult{Label: "artificial", Score: s}, polarity)
		require.NoError(t, err)
		assert.InDelta(t, s, b, eps)
	}
}

func TestNormalize_UnknownLabel(t *testing.T) {
	polarity := fusion.NewPolarityMap([]string{"human"}, []string{"chatgpt"})

	for _, label := range []string{"LABEL_2", "", "humans", "gpt"} {
		_, err := fusion.Normalize(fusion.ClassifierResult{Label: label, Score: 0.5}, polarity)
		require.Error(t, err)
		assert.ErrorIs(t, err, fusion.ErrUnknownLabel)

		var ule *fusion.UnknownLabelError
		require.True(t, errors.As(err, &ule))
		assert.Equal(t, label, ule.Label)
		assert.Equal(t, []string{"chatgpt", "human"}, ule.Known)
	}
}

func TestNormalize_InvalidScore(t *testing.T) {
	polarity := fusion.NewPolarityMap([]string{"human"}, []string{"chatgpt"})
	for _, s := range []float64{-0.1, 1.01, math.NaN()} {
		_, err := fusion.Normalize(fusion.ClassifierResult{Label: "human", Score: s}, polarity)
		assert.ErrorIs(t, err, fusion.ErrInvalidScore)
	}
}

func TestPolarityMap_Validate(t *testing.T) {
	assert.NoError(t, fusion.NewPolarityMap([]string{"Real", "real"}, []string{"Fake"}).Validate())
	assert.ErrorIs(t, fusion.PolarityMap{}.Validate(), fusion.ErrInvalidPolarity)
	assert.ErrorIs(t, fusion.PolarityMap{"Real": fusion.Authentic, "REAL": fusion.Synthetic}.Validate(), fusion.ErrInvalidPolarity)
	assert.ErrorIs(t, fusion.PolarityMap{"Real": "maybe"}.Validate(), fusion.ErrInvalidPolarity)
}

// ---------------------------------------------------------------------------
// Fuse
// ---------------------------------------------------------------------------

func TestFuse_SingleDetectorIdentity(t *testing.T) {
	res, err := fusion.Fuse([]fusion.Contribution{{Name: "only", Score: 0.8, Weight: 1.0}}, fusion.Options{})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, res.Score, eps)
	assert.True(t, res.Balanced)
}

func TestFuse_WeightedAverage(t *testing.T) {
	res, err := fusion.Fuse([]fusion.Contribution{
		{Name: "roberta", Score: 0.9, Weight: 0.25},
		{Name: "chatgpt", Score: 0.3, Weight: 0.75},
	}, fusion.Options{Strict: true})
	require.NoError(t, err)
	assert.InDelta(t, 0.45, res.Score, eps)
	assert.InDelta(t, 1.0, res.WeightSum, eps)
}

// Both weightings have shipped for the same pair of text detectors. They are
// both valid weight sets but give materially different scores.
func TestFuse_ShippedWeightingsRegression(t *testing.T) {
	scores := [2]float64{0.9, 0.3}

	tests := []struct {
		name    string
		weights [2]float64
		want    float64
	}{
		{"0.01/0.99", [2]float64{0.01, 0.99}, 0.306},
		{"0.25/0.75", [2]float64{0.25, 0.75}, 0.45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := fusion.Fuse([]fusion.Contribution{
				{Name: "roberta", Score: scores[0], Weight: tt.weights[0]},
				{Name: "chatgpt", Score: scores[1], Weight: tt.weights[1]},
			}, fusion.Options{Strict: true})
			require.NoError(t, err)
			assert.True(t, res.Balanced)
			assert.InDelta(t, tt.want, res.Score, eps)
		})
	}
}

func TestFuse_ConvexityStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(6)
		raw := make([]float64, n)
		total := 0.0
		for j := range raw {
			raw[j] = 0.01 + rng.Float64()
			total += raw[j]
		}
		contributions := make([]fusion.Contribution, n)
		for j := range contributions {
			contributions[j] = fusion.Contribution{Score: rng.Float64(), Weight: raw[j] / total}
		}

		res, err := fusion.Fuse(contributions, fusion.Options{Strict: true})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 1.0+1e-9)
	}
}

func TestFuse_OrderIndependentValueOrderedExplanation(t *testing.T) {
	a := fusion.Contribution{Name: "alpha", Score: 0.2, Weight: 0.4}
	b := fusion.Contribution{Name: "beta", Score: 0.7, Weight: 0.6}

	ab, err := fusion.Fuse([]fusion.Contribution{a, b}, fusion.Options{})
	require.NoError(t, err)
	ba, err := fusion.Fuse([]fusion.Contribution{b, a}, fusion.Options{})
	require.NoError(t, err)

	assert.InDelta(t, ab.Score, ba.Score, eps)
	assert.Less(t, strings.Index(ab.Explanation, "alpha"), strings.Index(ab.Explanation, "beta"))
	assert.Less(t, strings.Index(ba.Explanation, "beta"), strings.Index(ba.Explanation, "alpha"))

	if diff := cmp.Diff([]fusion.Contribution{b, a}, ba.Contributions); diff != "" {
		t.Errorf("contributions mismatch (-want +got):\n%s", diff)
	}
}

func TestFuse_Explanation(t *testing.T) {
	res, err := fusion.Fuse([]fusion.Contribution{
		{Name: "roberta", Score: 0.9, Weight: 0.25},
		{Score: 0.3, Weight: 0.75},
	}, fusion.Options{})
	require.NoError(t, err)
	assert.Contains(t, res.Explanation, "2 detector(s)")
	assert.Contains(t, res.Explanation, "roberta: AI probability 0.9000, weight 0.25")
	assert.Contains(t, res.Explanation, "detector 2: AI probability 0.3000, weight 0.75")
	assert.NotContains(t, res.Explanation, "warning")
}

func TestFuse_EmptyDetectorSet(t *testing.T) {
	_, err := fusion.Fuse(nil, fusion.Options{})
	assert.ErrorIs(t, err, fusion.ErrEmptyDetectorSet)

	_, err = fusion.Fuse([]fusion.Contribution{}, fusion.Options{Strict: true})
	assert.ErrorIs(t, err, fusion.ErrEmptyDetectorSet)
}

func TestFuse_InvalidWeights(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
	}{
		{"zero", 0},
		{"negative", -0.5},
		{"nan", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fusion.Fuse([]fusion.Contribution{
				{Name: "ok", Score: 0.5, Weight: 0.5},
				{Name: "bad", Score: 0.5, Weight: tt.weight},
			}, fusion.Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, fusion.ErrInvalidWeight)

			var iwe *fusion.InvalidWeightError
			require.True(t, errors.As(err, &iwe))
			assert.Equal(t, "bad", iwe.Name)
		})
	}
}

func TestFuse_UnbalancedWeights(t *testing.T) {
	contributions := []fusion.Contribution{
		{Name: "a", Score: 1, Weight: 0.5},
		{Name: "b", Score: 1, Weight: 0.7},
	}

	t.Run("lenient warns without renormalizing", func(t *testing.T) {
		res, err := fusion.Fuse(contributions, fusion.Options{})
		require.NoError(t, err)
		assert.False(t, res.Balanced)
		assert.InDelta(t, 1.2, res.WeightSum, eps)
		assert.InDelta(t, 1.2, res.Score, eps)
		assert.Contains(t, res.Explanation, "warning: detector weights sum to 1.2")
	})

	t.Run("strict rejects", func(t *testing.T) {
		_, err := fusion.Fuse(contributions, fusion.Options{Strict: true})
		require.Error(t, err)
		assert.ErrorIs(t, err, fusion.ErrInvalidWeight)

		var iwe *fusion.InvalidWeightError
		require.True(t, errors.As(err, &iwe))
		assert.InDelta(t, 1.2, iwe.Sum, eps)
	})

	t.Run("strict honors tolerance", func(t *testing.T) {
		_, err := fusion.Fuse([]fusion.Contribution{
			{Score: 0.5, Weight: 0.5},
			{Score: 0.5, Weight: 0.5000001},
		}, fusion.Options{Strict: true})
		assert.NoError(t, err)

		_, err = fusion.Fuse([]fusion.Contribution{
			{Score: 0.5, Weight: 0.5},
			{Score: 0.5, Weight: 0.5001},
		}, fusion.Options{Strict: true})
		assert.ErrorIs(t, err, fusion.ErrInvalidWeight)
	})
}

func TestFuse_InvalidScore(t *testing.T) {
	_, err := fusion.Fuse([]fusion.Contribution{{Name: "x", Score: 1.5, Weight: 1}}, fusion.Options{})
	assert.ErrorIs(t, err, fusion.ErrInvalidScore)
}

func TestFuse_Deterministic(t *testing.T) {
	in := []fusion.Contribution{
		{Name: "a", Score: 0.33, Weight: 0.2},
		{Name: "b", Score: 0.66, Weight: 0.8},
	}
	first, err := fusion.Fuse(in, fusion.Options{})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := fusion.Fuse(in, fusion.Options{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// ---------------------------------------------------------------------------
// Decide
// ---------------------------------------------------------------------------

func TestDecide(t *testing.T) {
	tests := []struct {
		score float64
		want  fusion.Verdict
	}{
		{0.5, fusion.LikelyAuthentic},
		{0.50001, fusion.AIGenerated},
		{0.0, fusion.LikelyAuthentic},
		{1.0, fusion.AIGenerated},
		{0.49999, fusion.LikelyAuthentic},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, fusion.Decide(tt.score), "score %v", tt.score)
	}
}

func TestDecideAt_CustomThreshold(t *testing.T) {
	assert.Equal(t, fusion.LikelyAuthentic, fusion.DecideAt(0.7, 0.7))
	assert.Equal(t, fusion.AIGenerated, fusion.DecideAt(0.71, 0.7))
}
