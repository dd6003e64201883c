// SPDX-License-Identifier: Apache-2.0

package analyzers

import (
	"context"

	"github.com/gabriel-vasile/mimetype"

	"github.com/authenticaproj/authentica/internal/analysis"
	"github.com/authenticaproj/authentica/internal/classifier"
)

// ImageAnalyzer scores uploaded images with the image ensemble.
type ImageAnalyzer struct {
	ensemble *analysis.Ensemble
}

func NewImageAnalyzer(ensemble *analysis.Ensemble) *ImageAnalyzer {
	return &ImageAnalyzer{ensemble: ensemble}
}

func (a *ImageAnalyzer) Name() string {
	return "image"
}

func (a *ImageAnalyzer) CanHandle(source analysis.Source) bool {
	return analysis.DetectModality(source) == classifier.Image
}

func (a *ImageAnalyzer) Analyze(ctx context.Context, source analysis.Source) (analysis.Report, error) {
	if len(source.Content) == 0 {
		return analysis.Report{}, analysis.ErrEmptyInput
	}

	ev, err := a.ensemble.Evaluate(ctx, classifier.Input{
		Modality:    classifier.Image,
		Data:        source.Content,
		ContentType: mimetype.Detect(source.Content).String(),
		Name:        source.ID,
	})
	if err != nil {
		return analysis.Report{}, err
	}
	return analysis.NewReport(source, a.Name(), ev), nil
}
