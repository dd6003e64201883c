// SPDX-License-Identifier: Apache-2.0

// Package classifier defines the collaborators that turn an input into raw
// label/confidence pairs.
package classifier

import (
	"context"
	"errors"

	"github.com/authenticaproj/authentica/internal/fusion"
)

// Modality is the kind of content a classifier accepts.
type Modality string

const (
	Text     Modality = "text"
	Image    Modality = "image"
	Audio    Modality = "audio"
	Video    Modality = "video"
	Document Modality = "document"
	Unknown  Modality = "unknown"
)

var ErrNoResults = errors.New("classifier returned no results")

// Input is one piece of content to classify.
type Input struct {
	Modality    Modality
	Text        string
	Data        []byte
	ContentType string
	// Name is the file name or other identifier of the content, if any.
	Name string
}

// Classifier is a pretrained model treated as a black box.
type Classifier interface {
	Classify(ctx context.Context, in Input) ([]fusion.ClassifierResult, error)
}

// Func adapts a plain function to Classifier.
type Func func(ctx context.Context, in Input) ([]fusion.ClassifierResult, error)

func (f Func) Classify(ctx context.Context, in Input) ([]fusion.ClassifierResult, error) {
	return f(ctx, in)
}

// Top returns the result with the highest score. Ties keep the earlier result.
func Top(results []fusion.ClassifierResult) (fusion.ClassifierResult, error) {
	if len(results) == 0 {
		return fusion.ClassifierResult{}, ErrNoResults
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.Score > best.Score {
			best = r
		}
	}
	return best, nil
}

// Static always returns the same results. It serves offline mode and tests.
type Static struct {
	Results []fusion.ClassifierResult
}

// NewStatic creates a Static classifier returning a single result.
func NewStatic(label string, score float64) *Static {
	return &Static{Results: []fusion.ClassifierResult{{Label: label, Score: score}}}
}

func (s *Static) Classify(ctx context.Context, _ Input) ([]fusion.ClassifierResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]fusion.ClassifierResult, len(s.Results))
	copy(out, s.Results)
	return out, nil
}
