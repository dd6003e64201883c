// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/authenticaproj/authentica/internal/analysis"
	"github.com/authenticaproj/authentica/internal/classifier"
	"github.com/authenticaproj/authentica/internal/fusion"
)

// ClassifierFactory constructs the classifier for one detector entry.
type ClassifierFactory func(d DetectorConfig) (classifier.Classifier, error)

// HuggingFaceFactory returns a factory creating Hugging Face classifiers that
// share the configured endpoint, token and timeout. Entries with a fixed
// result get a static classifier instead.
func (c *Config) HuggingFaceFactory() (ClassifierFactory, error) {
	timeout, err := c.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("%w: inference.timeout: %v", ErrInvalidConfig, err)
	}
	var token string
	if c.Inference.TokenEnv != "" {
		token = os.Getenv(c.Inference.TokenEnv)
		if token == "" {
			slog.Debug("inference token env var is empty, calling API anonymously", "env", c.Inference.TokenEnv)
		}
	}

	return func(d DetectorConfig) (classifier.Classifier, error) {
		if d.Fixed != nil {
			return &classifier.Static{Results: []fusion.ClassifierResult{*d.Fixed}}, nil
		}
		return classifier.NewHuggingFace(d.Model,
			classifier.WithEndpoint(c.Inference.Endpoint),
			classifier.WithToken(token),
			classifier.WithTimeout(timeout),
		), nil
	}, nil
}

// Ensembles constructs one ensemble per configured modality. Classifiers are
// created here, once, and shared by every analysis served by the process.
func (c *Config) Ensembles(factory ClassifierFactory, logger *slog.Logger) (map[classifier.Modality]*analysis.Ensemble, error) {
	if logger == nil {
		logger = slog.Default()
	}
	out := make(map[classifier.Modality]*analysis.Ensemble, len(c.Modalities))
	for _, name := range c.ModalityNames() {
		mc := c.Modalities[name]
		detectors := make([]analysis.Detector, 0, len(mc.Detectors))
		for _, d := range mc.Detectors {
			cl, err := factory(d)
			if err != nil {
				return nil, fmt.Errorf("creating classifier for %s detector %q: %w", name, d.Name, err)
			}
			detectors = append(detectors, analysis.Detector{
				Name:       d.Name,
				Classifier: cl,
				Polarity:   d.Polarity,
				Weight:     d.Weight,
			})
		}

		modality := modalityOf(name)
		e, err := analysis.NewEnsemble(modality, detectors,
			analysis.WithFusionOptions(c.FusionOptions()),
			analysis.WithThreshold(c.Threshold),
			analysis.WithLogger(logger.With("modality", name)),
		)
		if err != nil {
			return nil, err
		}
		out[modality] = e
		logger.Debug("ensemble ready", "modality", name, "detectors", e.Detectors())
	}
	return out, nil
}
