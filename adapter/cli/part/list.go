package part

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/episodes/adapter/cli"
	"github.com/felixgeelhaar/episodes/internal/episodes/domain"
)

var sortOrder string

var listCmd = &cobra.Command{
	Use:   "list [episode-id]",
	Short: "List the parts of an episode in order",
	Long: `List the parts of an episode sorted by position.

Examples:
  episodes part list 6f1c...
  episodes part list 6f1c... --order desc --json`,
	Aliases: []string{"ls"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		episodeID, err := cli.ParseID("episode id", args[0])
		if err != nil {
			return err
		}

		order, err := domain.ParseSortOrder(sortOrder)
		if err != nil {
			return err
		}

		listing, err := app.PositionManager.List(cmd.Context(), episodeID, order)
		if err != nil {
			return err
		}
		return cli.PrintListing(cmd.OutOrStdout(), listing, asJSON)
	},
}

func init() {
	listCmd.Flags().StringVarP(&sortOrder, "order", "o", "asc", "sort order (asc, desc)")
}
