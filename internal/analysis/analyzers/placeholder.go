// SPDX-License-Identifier: Apache-2.0

package analyzers

import (
	"context"
	"fmt"

	"github.com/authenticaproj/authentica/internal/analysis"
	"github.com/authenticaproj/authentica/internal/classifier"
)

// PlaceholderAnalyzer claims a modality no model is wired for yet and reports
// it as not supported instead of producing a score.
type PlaceholderAnalyzer struct {
	modality classifier.Modality
}

func NewPlaceholderAnalyzer(modality classifier.Modality) *PlaceholderAnalyzer {
	return &PlaceholderAnalyzer{modality: modality}
}

func (a *PlaceholderAnalyzer) Name() string {
	return string(a.modality)
}

func (a *PlaceholderAnalyzer) CanHandle(source analysis.Source) bool {
	return analysis.DetectModality(source) == a.modality
}

func (a *PlaceholderAnalyzer) Analyze(_ context.Context, _ analysis.Source) (analysis.Report, error) {
	return analysis.Report{}, fmt.Errorf("%s: %w", a.modality, analysis.ErrNotSupported)
}
