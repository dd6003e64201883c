// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/authenticaproj/authentica/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the detector configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.config()
			if err != nil {
				return err
			}
			return a.encode(cmd.OutOrStdout(), c)
		},
	}

	validate := &cobra.Command{
		Use:   "validate [PATH]",
		Short: "Validate a configuration file",
		Long:  "Validate a configuration file. Without PATH the --config file, or the built-in configuration, is checked.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				c   *config.Config
				err error
			)
			if len(args) == 1 {
				c, err = config.Load(args[0])
			} else {
				c, err = a.config()
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration is valid (modalities: %v, threshold: %g, strict: %t)\n",
				c.ModalityNames(), c.Threshold, c.Strict)
			return nil
		},
	}

	cmd.AddCommand(show, validate)
	return cmd
}
