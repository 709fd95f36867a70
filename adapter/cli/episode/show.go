package episode

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/episodes/adapter/cli"
	"github.com/felixgeelhaar/episodes/internal/episodes/domain"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show [episode-id]",
	Short: "Show an episode and its parts in order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		episodeID, err := cli.ParseID("episode id", args[0])
		if err != nil {
			return err
		}

		listing, err := app.PositionManager.List(cmd.Context(), episodeID, domain.Ascending)
		if err != nil {
			return err
		}

		if !showJSON {
			fmt.Fprintf(cmd.OutOrStdout(), "Episode %s (%d parts)\n", episodeID, len(listing))
		}
		return cli.PrintListing(cmd.OutOrStdout(), listing, showJSON)
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output as JSON")
}
