// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"context"
	"fmt"
)

type Pipeline struct {
	analyzers []Analyzer
}

// NewPipeline creates a new Pipeline with the provided analyzers.
func NewPipeline(analyzers ...Analyzer) *Pipeline {
	return &Pipeline{
		analyzers: analyzers,
	}
}

// Run analyzes source with the first registered analyzer that can handle it.
func (p *Pipeline) Run(ctx context.Context, source Source) (Report, error) {
	analyzer, err := p.selectAnalyzer(source)
	if err != nil {
		return Report{}, err
	}

	report, err := analyzer.Analyze(ctx, source)
	if err != nil {
		return Report{}, fmt.Errorf("analyzer %q failed: %w", analyzer.Name(), err)
	}
	return report, nil
}

// selectAnalyzer returns the first registered analyzer that can handle the given source.
func (p *Pipeline) selectAnalyzer(source Source) (Analyzer, error) {
	for _, a := range p.analyzers {
		if a.CanHandle(source) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: no analyzer found for source %q (format hint: %q)", ErrUnsupportedFormat, source.ID, source.Format)
}

// RegisteredAnalyzers returns the names of all currently registered analyzers.
func (p *Pipeline) RegisteredAnalyzers() []string {
	names := make([]string, len(p.analyzers))
	for i, a := range p.analyzers {
		names[i] = a.Name()
	}
	return names
}
