// SPDX-License-Identifier: Apache-2.0

// Package fusion combines the outputs of independent binary classifiers into a
// single probability that an input is AI-generated.
package fusion

import (
	"sort"
	"strings"
)

// ClassifierResult is the raw output of one pretrained model for one input.
// Score is the model's confidence in Label, not necessarily in "AI-generated".
type ClassifierResult struct {
	Label string  `json:"label" yaml:"label"`
	Score float64 `json:"score" yaml:"score"`
}

// Polarity tells which side of the authentic/synthetic split a label denotes.
type Polarity string

const (
	Authentic Polarity = "authentic"
	Synthetic Polarity = "synthetic"
)

// Valid reports whether p is one of the known polarities.
func (p Polarity) Valid() bool {
	return p == Authentic || p == Synthetic
}

// PolarityMap declares, for one model, which raw labels are authentic and which
// are synthetic. Labels are matched case-insensitively.
type PolarityMap map[string]Polarity

// NewPolarityMap builds a PolarityMap from the authentic and synthetic label sets.
func NewPolarityMap(authentic, synthetic []string) PolarityMap {
	m := make(PolarityMap, len(authentic)+len(synthetic))
	for _, l := range authentic {
		m[l] = Authentic
	}
	for _, l := range synthetic {
		m[l] = Synthetic
	}
	return m
}

// Lookup returns the polarity of label.
func (m PolarityMap) Lookup(label string) (Polarity, bool) {
	if p, ok := m[label]; ok {
		return p, true
	}
	for k, p := range m {
		if strings.EqualFold(k, label) {
			return p, true
		}
	}
	return "", false
}

// Labels returns the declared labels in sorted order.
func (m PolarityMap) Labels() []string {
	labels := make([]string, 0, len(m))
	for k := range m {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return labels
}

// Validate checks that every polarity is known and that no two labels differing
// only in case map to different polarities.
func (m PolarityMap) Validate() error {
	if len(m) == 0 {
		return &PolarityError{Reason: "polarity map is empty"}
	}
	seen := make(map[string]Polarity, len(m))
	for _, label := range m.Labels() {
		p := m[label]
		if !p.Valid() {
			return &PolarityError{Label: label, Reason: "unknown polarity " + string(p)}
		}
		key := strings.ToLower(label)
		if prev, ok := seen[key]; ok && prev != p {
			return &PolarityError{Label: label, Reason: "label declared both authentic and synthetic"}
		}
		seen[key] = p
	}
	return nil
}

// Contribution is one detector's normalized score and its weight in a fusion.
type Contribution struct {
	Name   string  `json:"name" yaml:"name"`
	Score  float64 `json:"score" yaml:"score"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Verdict is the user-facing binary classification of a fused score.
type Verdict string

const (
	AIGenerated     Verdict = "AI_GENERATED"
	LikelyAuthentic Verdict = "LIKELY_AUTHENTIC"
)

// DefaultThreshold is the score above which an input is judged AI-generated.
const DefaultThreshold = 0.5

// Decide thresholds score at DefaultThreshold.
func Decide(score float64) Verdict {
	return DecideAt(score, DefaultThreshold)
}

// DecideAt returns AIGenerated only when score is strictly greater than
// threshold; a score equal to the threshold is LikelyAuthentic.
func DecideAt(score, threshold float64) Verdict {
	if score > threshold {
		return AIGenerated
	}
	return LikelyAuthentic
}
