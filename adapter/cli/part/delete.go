package part

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/episodes/adapter/cli"
)

var deleteCmd = &cobra.Command{
	Use:     "delete [part-id]",
	Short:   "Delete a part",
	Long:    `Delete a part. The remaining parts keep their positions.`,
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		partID, err := cli.ParseID("part id", args[0])
		if err != nil {
			return err
		}

		listing, err := app.PositionManager.Delete(cmd.Context(), partID)
		if err != nil {
			return err
		}
		return cli.PrintListing(cmd.OutOrStdout(), listing, asJSON)
	},
}
