// SPDX-License-Identifier: Apache-2.0

// Package cli implements the authentica command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/authenticaproj/authentica/internal/analysis"
	"github.com/authenticaproj/authentica/internal/analysis/analyzers"
	"github.com/authenticaproj/authentica/internal/config"
	"github.com/authenticaproj/authentica/internal/logging"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// app carries the state shared by every command of one invocation.
type app struct {
	configPath string
	logLevel   string
	output     string

	cfg *config.Config
}

// Execute creates and runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "authentica",
		Short: "Detect AI-generated text and images",
		Long: `authentica scores content with several pretrained detectors, maps every
detector's label onto a common AI probability and fuses the results with fixed
weights. A fused score strictly above the threshold is reported as AI_GENERATED.`,
		Version:       fmt.Sprintf("%s (%s - %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logging.SetDefaultCLILogger(a.logLevel)
			switch a.output {
			case formatJSON, formatYAML:
			case "yml":
				a.output = formatYAML
			default:
				return fmt.Errorf("unsupported output format %q (want json or yaml)", a.output)
			}
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.configPath, "config", "c", "", "Path to the detector configuration file (default: built-in)")
	f.StringVar(&a.logLevel, "log-level", "info", "Log level [debug, info, warn, error]")
	f.StringVarP(&a.output, "output", "o", formatJSON, "Output format [json, yaml]")

	root.AddCommand(
		newAnalyzeCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newConfigCmd(a),
	)
	return root
}

// config returns the configuration named by --config, or the built-in one.
func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	var (
		c   *config.Config
		err error
	)
	if a.configPath == "" {
		c, err = config.Default()
	} else {
		c, err = config.Load(a.configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	slog.Debug("configuration loaded", "path", a.configPath, "modalities", c.ModalityNames())
	a.cfg = c
	return c, nil
}

// pipeline constructs every detector once and wires them into an analysis
// pipeline.
func (a *app) pipeline() (*analysis.Pipeline, error) {
	c, err := a.config()
	if err != nil {
		return nil, err
	}
	factory, err := c.HuggingFaceFactory()
	if err != nil {
		return nil, err
	}
	ensembles, err := c.Ensembles(factory, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("building detectors: %w", err)
	}
	return analyzers.NewPipeline(ensembles), nil
}

func (a *app) encode(w io.Writer, v any) error {
	if a.output == formatYAML {
		return yaml.NewEncoder(w).Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
