package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the hometree release.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/hometree"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the hometree version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "hometree v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
