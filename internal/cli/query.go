package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newQueryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "query <selector>",
		Short: "List the nodes matching a selector",
		Long: `Query prints every node matched by the selector, one per line, in path order.

Example:
  hometree query "room[name=kitchen] > closet"
  hometree query "[activity]" --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			snap, err := store.Query(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), snap)
			}

			out := cmd.OutOrStdout()
			for _, p := range sortedKeys(snap) {
				n := snap[p]
				attrs := make([]string, 0, len(n.Attrs))
				for k, v := range n.Attrs {
					attrs = append(attrs, k+"="+v)
				}
				sort.Strings(attrs)
				fmt.Fprintf(out, "%s\t%s\t%s\n", p, n.Tag, strings.Join(attrs, " "))
			}
			return nil
		},
	}
}
