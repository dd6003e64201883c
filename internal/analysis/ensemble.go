// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/authenticaproj/authentica/internal/classifier"
	"github.com/authenticaproj/authentica/internal/fusion"
)

// Detector is one pretrained model taking part in a fusion, together with the
// label polarity of its vocabulary and its weight.
type Detector struct {
	Name       string
	Classifier classifier.Classifier
	Polarity   fusion.PolarityMap
	Weight     float64
}

// DetectorError attributes a failure to the detector that caused it.
type DetectorError struct {
	Detector string
	Err      error
}

func (e *DetectorError) Error() string {
	return fmt.Sprintf("detector %q: %v", e.Detector, e.Err)
}

func (e *DetectorError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err stems from detector configuration (label
// polarity or weights) rather than from a classifier call.
func IsConfigError(err error) bool {
	return errors.Is(err, fusion.ErrUnknownLabel) ||
		errors.Is(err, fusion.ErrInvalidWeight) ||
		errors.Is(err, fusion.ErrInvalidPolarity) ||
		errors.Is(err, fusion.ErrEmptyDetectorSet)
}

// Evaluation is the fused outcome of running an ensemble on one input.
type Evaluation struct {
	Modality  classifier.Modality
	Result    fusion.Result
	Threshold float64
	Verdict   fusion.Verdict
}

// Ensemble holds the detectors for one modality. It is read-only after
// construction and safe for concurrent use.
type Ensemble struct {
	modality  classifier.Modality
	detectors []Detector
	options   fusion.Options
	threshold float64
	logger    *slog.Logger
}

type EnsembleOption func(*Ensemble)

func WithFusionOptions(o fusion.Options) EnsembleOption {
	return func(e *Ensemble) {
		e.options = o
	}
}

func WithThreshold(t float64) EnsembleOption {
	return func(e *Ensemble) {
		e.threshold = t
	}
}

func WithLogger(l *slog.Logger) EnsembleOption {
	return func(e *Ensemble) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEnsemble validates the detectors and returns an Ensemble for modality.
func NewEnsemble(modality classifier.Modality, detectors []Detector, opts ...EnsembleOption) (*Ensemble, error) {
	e := &Ensemble{
		modality:  modality,
		detectors: append([]Detector(nil), detectors...),
		threshold: fusion.DefaultThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if len(e.detectors) == 0 {
		return nil, fmt.Errorf("%s ensemble: %w", modality, fusion.ErrEmptyDetectorSet)
	}
	weights := make([]float64, len(e.detectors))
	for i, d := range e.detectors {
		if d.Classifier == nil {
			return nil, fmt.Errorf("%s ensemble: detector %q has no classifier", modality, d.Name)
		}
		if err := fusion.CheckWeight(d.Name, d.Weight); err != nil {
			return nil, fmt.Errorf("%s ensemble: %w", modality, err)
		}
		if err := d.Polarity.Validate(); err != nil {
			return nil, fmt.Errorf("%s ensemble: detector %q: %w", modality, d.Name, err)
		}
		weights[i] = d.Weight
	}

	tol := e.options.Tolerance
	if tol <= 0 {
		tol = fusion.DefaultTolerance
	}
	if sum, ok := fusion.WeightsBalanced(weights, tol); !ok {
		if e.options.Strict {
			return nil, fmt.Errorf("%s ensemble: %w", modality, &fusion.InvalidWeightError{
				Sum:    sum,
				Reason: fmt.Sprintf("weights sum to %g, want 1", sum),
			})
		}
		e.logger.Warn("detector weights do not sum to 1, scores will not be probabilities",
			"modality", modality, "sum", sum)
	}
	return e, nil
}

func (e *Ensemble) Modality() classifier.Modality {
	return e.modality
}

// Detectors returns the detector names in fusion order.
func (e *Ensemble) Detectors() []string {
	names := make([]string, len(e.detectors))
	for i, d := range e.detectors {
		names[i] = d.Name
	}
	return names
}

// Evaluate classifies in with every detector concurrently, normalizes each top
// result, fuses them in detector order and thresholds the fused score.
func (e *Ensemble) Evaluate(ctx context.Context, in classifier.Input) (Evaluation, error) {
	contributions := make([]fusion.Contribution, len(e.detectors))

	g, gctx := errgroup.WithContext(ctx)
	for i, d := range e.detectors {
		g.Go(func() error {
			results, err := d.Classifier.Classify(gctx, in)
			if err != nil {
				return &DetectorError{Detector: d.Name, Err: err}
			}
			top, err := classifier.Top(results)
			if err != nil {
				return &DetectorError{Detector: d.Name, Err: err}
			}
			score, err := fusion.Normalize(top, d.Polarity)
			if err != nil {
				return &DetectorError{Detector: d.Name, Err: err}
			}
			e.logger.Debug("detector result",
				"detector", d.Name, "label", top.Label, "confidence", top.Score, "ai_probability", score)
			contributions[i] = fusion.Contribution{Name: d.Name, Score: score, Weight: d.Weight}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Evaluation{}, err
	}

	res, err := fusion.Fuse(contributions, e.options)
	if err != nil {
		return Evaluation{}, err
	}
	if !res.Balanced {
		e.logger.Warn("fused score uses unbalanced weights", "modality", e.modality, "sum", res.WeightSum)
	}

	return Evaluation{
		Modality:  e.modality,
		Result:    res,
		Threshold: e.threshold,
		Verdict:   fusion.DecideAt(res.Score, e.threshold),
	}, nil
}
