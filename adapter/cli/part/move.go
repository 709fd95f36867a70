package part

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/episodes/adapter/cli"
)

var moveTo int64

var moveCmd = &cobra.Command{
	Use:   "move [part-id]",
	Short: "Move a part to a new position",
	Long: `Move a part to a new position within its episode.

Moving later shifts the parts in between one place earlier; moving
earlier shifts them one place later. Moving to the current position
changes nothing.

Examples:
  episodes part move 9b2e... --to 4`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		partID, err := cli.ParseID("part id", args[0])
		if err != nil {
			return err
		}

		listing, err := app.PositionManager.Move(cmd.Context(), partID, moveTo)
		if err != nil {
			return err
		}
		return cli.PrintListing(cmd.OutOrStdout(), listing, asJSON)
	},
}

func init() {
	moveCmd.Flags().Int64VarP(&moveTo, "to", "t", 0, "destination position")
	_ = moveCmd.MarkFlagRequired("to")
}
