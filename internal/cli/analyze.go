// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/authenticaproj/authentica/internal/analysis"
	"github.com/authenticaproj/authentica/internal/tool"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score text or a file",
	}
	cmd.AddCommand(newAnalyzeTextCmd(a), newAnalyzeFileCmd(a))
	return cmd
}

func newAnalyzeTextCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "text [TEXT|-]",
		Short: "Score a piece of text",
		Long:  "Score a piece of text. With no argument or \"-\" the text is read from stdin.",
		Example: `  authentica analyze text "As an AI language model, I cannot..."
  cat essay.txt | authentica analyze text -o yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) == 1 && args[0] != "-" {
				text = args[0]
			} else {
				b, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), tool.MaxFileSize))
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				text = string(b)
			}

			p, err := a.pipeline()
			if err != nil {
				return err
			}
			report, err := p.Run(cmd.Context(), analysis.Source{
				Content: []byte(text),
				Format:  "text",
				ID:      "text",
			})
			if err != nil {
				return err
			}
			return a.encode(cmd.OutOrStdout(), report)
		},
	}
}

func newAnalyzeFileCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "file PATH",
		Short: "Score a text or image file",
		Long: `Score a text or image file. The modality is taken from --format, then the
file extension, then the file content. Audio, video and document files are
recognised but not yet supported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := tool.ReadFile(args[0])
			if err != nil {
				return err
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			report, err := p.Run(cmd.Context(), analysis.Source{
				Content: content,
				Format:  format,
				ID:      filepath.Base(args[0]),
			})
			if err != nil {
				return err
			}
			return a.encode(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Modality or extension hint (text, image, png, ...)")
	return cmd
}
