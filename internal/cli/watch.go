package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/hometree/internal/selector"
	"github.com/mesh-intelligence/hometree/internal/view"
)

func newWatchCmd(a *app) *cobra.Command {
	var sel string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Apply updates from stdin and redisplay the live tree",
		Long: `Watch displays the tree once, then reads updates from stdin, one per line:

  <selector> <key>=<value>

Each update is applied to the store; the tree is redisplayed from the
subscription callbacks alone, with changed values marked "*".

Example:
  echo 'room[name=kitchen] activity=dishes' | hometree watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			root, err := queryTree(ctx, store, sel)
			if err != nil {
				return err
			}
			outline := view.New(root)
			if err := outline.Attach(store); err != nil {
				return err
			}
			defer outline.Close()

			out := cmd.OutOrStdout()
			if err := outline.Render(out); err != nil {
				return err
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				target, key, value, err := parseUpdate(line)
				if err != nil {
					glog.Infof("[watch]skipping %q: %s\n", line, err)
					fmt.Fprintf(cmd.ErrOrStderr(), "skipping %q: %s\n", line, err)
					continue
				}
				if err := store.SetAttr(ctx, target, key, value); err != nil {
					return err
				}
				if err := store.Flush(); err != nil {
					return err
				}
				if err := renderUpdate(out, line, outline); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVarP(&sel, "selector", "s", "*", "selector choosing the nodes to display")
	return cmd
}

// parseUpdate splits "<selector> <key>=<value>" and checks the selector
// parses. The selector may contain spaces; the assignment is the last field.
func parseUpdate(line string) (string, string, string, error) {
	i := strings.LastIndexAny(line, " \t")
	if i < 0 {
		return "", "", "", fmt.Errorf("%w: want <selector> <key>=<value>", errUsage)
	}
	target := strings.TrimSpace(line[:i])
	key, value, ok := strings.Cut(line[i+1:], "=")
	if !ok || key == "" || target == "" {
		return "", "", "", fmt.Errorf("%w: want <selector> <key>=<value>", errUsage)
	}
	if _, err := selector.Parse(target); err != nil {
		return "", "", "", err
	}
	return target, key, value, nil
}

func renderUpdate(w io.Writer, line string, outline *view.Outline) error {
	if _, err := fmt.Fprintf(w, "\n# %s\n", line); err != nil {
		return err
	}
	return outline.Render(w)
}
