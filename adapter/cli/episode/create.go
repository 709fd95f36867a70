package episode

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/episodes/adapter/cli"
)

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a new episode",
	Long: `Create a new, empty episode.

Examples:
  episodes episode create "Pilot"
  episodes episode create`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		title := ""
		if len(args) == 1 {
			title = args[0]
		}

		episode, err := app.PositionManager.CreateEpisode(cmd.Context(), title)
		if err != nil {
			return fmt.Errorf("failed to create episode: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Episode created: %s\n", episode.ID)
		if title != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "  title: %s\n", title)
		}
		return nil
	},
}
