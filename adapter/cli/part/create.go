package part

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/episodes/adapter/cli"
)

var createPosition int64

var createCmd = &cobra.Command{
	Use:   "create [episode-id]",
	Short: "Insert a new part at a position",
	Long: `Insert a new part into an episode at the given position.

Every part of the episode at or after that position moves one place later.

Examples:
  episodes part create 6f1c... --position 1
  episodes part create 6f1c... -p -3 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		episodeID, err := cli.ParseID("episode id", args[0])
		if err != nil {
			return err
		}

		listing, err := app.PositionManager.Create(cmd.Context(), episodeID, createPosition)
		if err != nil {
			return err
		}
		return cli.PrintListing(cmd.OutOrStdout(), listing, asJSON)
	},
}

func init() {
	createCmd.Flags().Int64VarP(&createPosition, "position", "p", 0, "position of the new part")
	_ = createCmd.MarkFlagRequired("position")
}
