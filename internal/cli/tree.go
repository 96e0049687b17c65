package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/hometree/internal/view"
)

func newTreeCmd(a *app) *cobra.Command {
	var sel string
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Display the home state as a tree",
		Long: `Query the store and display the result rebuilt into a tree by path.

Example:
  hometree tree
  hometree tree --selector "home > room"
  hometree tree --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			root, err := queryTree(cmd.Context(), store, sel)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), root)
			}
			return view.New(root).Render(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&sel, "selector", "s", "*", "selector choosing the nodes to display")
	return cmd
}
