package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/hometree/internal/birdseye"
)

func newBirdseyeCmd(a *app) *cobra.Command {
	var activities []string
	cmd := &cobra.Command{
		Use:   "birdseye",
		Short: "Display the home floor plan",
		Long: `Lay out rooms, closets, and sensors from their measurements and show the
activity of every room. --activity changes a room's activity before display.

Example:
  hometree birdseye
  hometree birdseye --activity kitchen=dishes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			plan, err := birdseye.Build(ctx, store)
			if err != nil {
				return err
			}
			if err := plan.Attach(store); err != nil {
				return err
			}
			defer plan.Close()

			for _, kv := range activities {
				room, activity, ok := strings.Cut(kv, "=")
				if !ok || room == "" {
					return fmt.Errorf("%w: --activity wants room=activity, got %q", errUsage, kv)
				}
				if err := birdseye.SetActivity(ctx, store, room, activity); err != nil {
					return err
				}
			}
			if err := store.Flush(); err != nil {
				return err
			}
			return plan.Render(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringArrayVar(&activities, "activity", nil, "set a room's activity (room=activity), repeatable")
	return cmd
}
