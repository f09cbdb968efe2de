package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deesatzed/newragcity-sub001/internal/ui"
	"github.com/deesatzed/newragcity-sub001/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version and build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.EqualFold(format, "json") {
				return ui.NewRenderer(cmd.OutOrStdout()).JSON(version.GetInfo())
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}
