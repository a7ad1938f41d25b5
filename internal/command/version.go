package command

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/release-utils/version"
)

type VersionOptions struct {
	JSON bool
}

func NewVersionCommand(cli *CLI) *cobra.Command {
	opts := VersionOptions{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: Highlight("helm-preview version") + "\n\n" +
			"Display the version, commit and build details of helm-preview.\n",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetVersionInfo()
			if !opts.JSON {
				fmt.Fprintln(cli.Out, info.String())
				return nil
			}
			out, err := info.JSONString()
			if err != nil {
				return fmt.Errorf("failed to encode version info: %w", err)
			}
			fmt.Fprintln(cli.Out, out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print version information as JSON")
	return cmd
}
