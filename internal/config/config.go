// SPDX-License-Identifier: Apache-2.0

// Package config loads and validates the detector configuration: which
// pretrained models take part in each modality's fusion, their label polarity
// and their weights.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/goccy/go-yaml"

	"github.com/authenticaproj/authentica/internal/classifier"
	"github.com/authenticaproj/authentica/internal/fusion"
)

const maxFileSize = 1 << 20

var (
	//go:embed defaults.yaml
	defaultsYAML []byte

	//go:embed schema.cue
	schemaSource string

	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the root configuration.
type Config struct {
	Threshold  float64                   `yaml:"threshold" json:"threshold"`
	Strict     bool                      `yaml:"strict" json:"strict"`
	Tolerance  float64                   `yaml:"tolerance" json:"tolerance"`
	Inference  Inference                 `yaml:"inference" json:"inference"`
	Modalities map[string]ModalityConfig `yaml:"modalities" json:"modalities"`
}

// Inference configures the remote inference API shared by all detectors.
type Inference struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	TokenEnv string `yaml:"token_env,omitempty" json:"token_env,omitempty"`
	// Timeout is a duration string like "60s".
	Timeout string `yaml:"timeout" json:"timeout"`
}

type ModalityConfig struct {
	Detectors []DetectorConfig `yaml:"detectors" json:"detectors"`
}

// DetectorConfig declares one pretrained model.
type DetectorConfig struct {
	Name     string             `yaml:"name" json:"name"`
	Model    string             `yaml:"model,omitempty" json:"model,omitempty"`
	Weight   float64            `yaml:"weight" json:"weight"`
	Polarity fusion.PolarityMap `yaml:"polarity" json:"polarity"`
	// Fixed replaces the remote model with a constant result, for offline use.
	Fixed *fusion.ClassifierResult `yaml:"fixed,omitempty" json:"fixed,omitempty"`
}

// Default returns the embedded default configuration.
func Default() (*Config, error) {
	return Parse(defaultsYAML)
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	clean := filepath.Clean(path)
	info, err := os.Stat(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}
	b, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", clean, err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", clean, err)
	}
	return c, nil
}

// Parse decodes YAML content and validates it.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks c against the CUE schema and then applies the checks the
// schema cannot express.
func (c *Config) Validate() error {
	if err := c.validateSchema(); err != nil {
		return err
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return fmt.Errorf("%w: inference.timeout: %v", ErrInvalidConfig, err)
	}

	for _, name := range c.ModalityNames() {
		detectors := c.Modalities[name].Detectors
		weights := make([]float64, len(detectors))
		for i, d := range detectors {
			if d.Model == "" && d.Fixed == nil {
				return fmt.Errorf("%w: %s detector %q needs a model or a fixed result", ErrInvalidConfig, name, d.Name)
			}
			if err := fusion.CheckWeight(d.Name, d.Weight); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, err)
			}
			if err := d.Polarity.Validate(); err != nil {
				return fmt.Errorf("%w: %s detector %q: %w", ErrInvalidConfig, name, d.Name, err)
			}
			if d.Fixed != nil {
				if _, ok := d.Polarity.Lookup(d.Fixed.Label); !ok {
					return fmt.Errorf("%w: %s detector %q: fixed label %q is not in its polarity map",
						ErrInvalidConfig, name, d.Name, d.Fixed.Label)
				}
			}
			weights[i] = d.Weight
		}
		if sum, ok := fusion.WeightsBalanced(weights, c.tolerance()); !ok && c.Strict {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, &fusion.InvalidWeightError{
				Sum:    sum,
				Reason: fmt.Sprintf("weights sum to %g, want 1", sum),
			})
		}
	}
	return nil
}

func (c *Config) validateSchema() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	val := ctx.Encode(c)
	if err := val.Err(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, cueerrors.Details(err, nil))
	}
	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, cueerrors.Details(err, nil))
	}
	return nil
}

// TimeoutDuration parses the inference timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Inference.Timeout)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", d)
	}
	return d, nil
}

// FusionOptions returns the weight-validation options for Fuse.
func (c *Config) FusionOptions() fusion.Options {
	return fusion.Options{Strict: c.Strict, Tolerance: c.tolerance()}
}

// ModalityNames returns the configured modality names in sorted order.
func (c *Config) ModalityNames() []string {
	names := make([]string, 0, len(c.Modalities))
	for k := range c.Modalities {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) tolerance() float64 {
	if c.Tolerance <= 0 {
		return fusion.DefaultTolerance
	}
	return c.Tolerance
}

func modalityOf(name string) classifier.Modality {
	return classifier.Modality(name)
}
