// SPDX-License-Identifier: Apache-2.0

package analyzers

import (
	"github.com/authenticaproj/authentica/internal/analysis"
	"github.com/authenticaproj/authentica/internal/classifier"
)

// NewPipeline builds a Pipeline covering every modality. Modalities with a
// configured ensemble get a scoring analyzer; the rest get a placeholder.
func NewPipeline(ensembles map[classifier.Modality]*analysis.Ensemble) *analysis.Pipeline {
	var list []analysis.Analyzer

	if e, ok := ensembles[classifier.Text]; ok {
		list = append(list, NewTextAnalyzer(e))
	} else {
		list = append(list, NewPlaceholderAnalyzer(classifier.Text))
	}
	if e, ok := ensembles[classifier.Image]; ok {
		list = append(list, NewImageAnalyzer(e))
	} else {
		list = append(list, NewPlaceholderAnalyzer(classifier.Image))
	}

	for _, m := range []classifier.Modality{classifier.Audio, classifier.Video, classifier.Document} {
		list = append(list, NewPlaceholderAnalyzer(m))
	}
	return analysis.NewPipeline(list...)
}
