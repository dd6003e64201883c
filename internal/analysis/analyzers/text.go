// SPDX-License-Identifier: Apache-2.0

package analyzers

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/authenticaproj/authentica/internal/analysis"
	"github.com/authenticaproj/authentica/internal/classifier"
)

// TextAnalyzer scores pasted text or plain-text files with the text ensemble.
type TextAnalyzer struct {
	ensemble *analysis.Ensemble
}

// NewTextAnalyzer creates a new TextAnalyzer backed by ensemble.
func NewTextAnalyzer(ensemble *analysis.Ensemble) *TextAnalyzer {
	return &TextAnalyzer{ensemble: ensemble}
}

func (a *TextAnalyzer) Name() string {
	return "text"
}

func (a *TextAnalyzer) CanHandle(source analysis.Source) bool {
	return analysis.DetectModality(source) == classifier.Text
}

// Analyze rejects blank or non-UTF-8 content before any model is called.
func (a *TextAnalyzer) Analyze(ctx context.Context, source analysis.Source) (analysis.Report, error) {
	if strings.TrimSpace(string(source.Content)) == "" {
		return analysis.Report{}, analysis.ErrEmptyInput
	}
	if !utf8.Valid(source.Content) {
		return analysis.Report{}, analysis.ErrUnsupportedFormat
	}

	ev, err := a.ensemble.Evaluate(ctx, classifier.Input{
		Modality: classifier.Text,
		Text:     string(source.Content),
		Name:     source.ID,
	})
	if err != nil {
		return analysis.Report{}, err
	}
	return analysis.NewReport(source, a.Name(), ev), nil
}
