// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/authenticaproj/authentica/internal/analysis"
	"github.com/authenticaproj/authentica/internal/fusion"
)

// MaxFileSize bounds the files accepted by analyze_file.
const MaxFileSize = 32 << 20

// MetadataAnalyzeText describes the analyze_text tool.
var MetadataAnalyzeText = &mcp.Tool{
	Name: "analyze_text",
	Description: "Estimate whether a piece of text was written by an AI model or a human. " +
		"Several pretrained detectors score the text independently; their outputs are mapped " +
		"onto a common AI-probability scale and combined with fixed weights. " +
		"A score strictly above the threshold (0.5 by default) is reported as AI_GENERATED, " +
		"anything else as LIKELY_AUTHENTIC. The result is a best-effort signal, not proof.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"text"},
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type":        "string",
				"description": "The text to analyze",
			},
		},
	},
}

// MetadataAnalyzeFile describes the analyze_file tool.
var MetadataAnalyzeFile = &mcp.Tool{
	Name: "analyze_file",
	Description: "Estimate whether a local file (text or image) is AI-generated. " +
		"Audio, video and document files are recognised but not yet supported and return an error " +
		"instead of a score.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"path"},
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path of the file to analyze",
			},
			"format": map[string]interface{}{
				"type":        "string",
				"description": "Optional modality or extension hint (text, image, png, ...). If omitted, the file extension and content are used.",
			},
		},
	},
}

// InputAnalyzeText is the input for the AnalyzeText tool.
type InputAnalyzeText struct {
	Text string `json:"text"`
}

// InputAnalyzeFile is the input for the AnalyzeFile tool.
type InputAnalyzeFile struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

// OutputAnalysis is the output of both analysis tools.
type OutputAnalysis struct {
	Verdict  string  `json:"verdict"`
	Score    float64 `json:"score"`
	Percent  string  `json:"percent"`
	Delta    string  `json:"delta"`
	Modality string  `json:"modality"`
	// Detectors lists each detector's AI probability and weight in fusion order.
	Detectors   []fusion.Contribution `json:"detectors"`
	Balanced    bool                  `json:"balanced"`
	Explanation string                `json:"explanation"`
}

// Tools serves analysis requests over MCP using a shared pipeline.
type Tools struct {
	pipeline *analysis.Pipeline
}

func NewTools(p *analysis.Pipeline) *Tools {
	return &Tools{pipeline: p}
}

// NewServer creates an MCP server exposing the analysis tools.
func NewServer(p *analysis.Pipeline, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "authentica", Version: version}, nil)
	t := NewTools(p)
	mcp.AddTool(server, MetadataAnalyzeText, t.AnalyzeText)
	mcp.AddTool(server, MetadataAnalyzeFile, t.AnalyzeFile)
	return server
}

// AnalyzeText scores pasted text.
func (t *Tools) AnalyzeText(ctx context.Context, _ *mcp.CallToolRequest, input InputAnalyzeText) (*mcp.CallToolResult, OutputAnalysis, error) {
	if input.Text == "" {
		return nil, OutputAnalysis{}, fmt.Errorf("text is required")
	}

	report, err := t.pipeline.Run(ctx, analysis.Source{
		Content: []byte(input.Text),
		Format:  "text",
		ID:      "text",
	})
	if err != nil {
		return nil, OutputAnalysis{}, err
	}
	return nil, toOutput(report), nil
}

// AnalyzeFile scores a file read from the local filesystem.
func (t *Tools) AnalyzeFile(ctx context.Context, _ *mcp.CallToolRequest, input InputAnalyzeFile) (*mcp.CallToolResult, OutputAnalysis, error) {
	if input.Path == "" {
		return nil, OutputAnalysis{}, fmt.Errorf("path is required")
	}

	content, err := ReadFile(input.Path)
	if err != nil {
		return nil, OutputAnalysis{}, err
	}

	report, err := t.pipeline.Run(ctx, analysis.Source{
		Content: content,
		Format:  input.Format,
		ID:      filepath.Base(input.Path),
	})
	if err != nil {
		return nil, OutputAnalysis{}, err
	}
	return nil, toOutput(report), nil
}

// ReadFile reads path, refusing directories and files above MaxFileSize.
func ReadFile(path string) ([]byte, error) {
	clean := filepath.Clean(path)
	info, err := os.Stat(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", clean, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", clean)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), MaxFileSize)
	}
	b, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", clean, err)
	}
	return b, nil
}

func toOutput(r analysis.Report) OutputAnalysis {
	return OutputAnalysis{
		Verdict:     string(r.Verdict),
		Score:       r.Score,
		Percent:     r.Percent(),
		Delta:       r.Delta(),
		Modality:    string(r.Modality),
		Detectors:   r.Contributions,
		Balanced:    r.Balanced,
		Explanation: r.Explanation,
	}
}
