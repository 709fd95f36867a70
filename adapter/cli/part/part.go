// Package part holds the commands that insert, move, delete and list the
// ordered parts of an episode. Every mutating command prints the resulting
// order of the episode.
package part

import (
	"github.com/spf13/cobra"
)

// Cmd is the part command group
var Cmd = &cobra.Command{
	Use:   "part",
	Short: "Manage the ordered parts of an episode",
	Long: `Insert, move, delete and list the parts of an episode.

Positions are signed integers. Inserting or moving a part shifts the
parts between the old and new position by one; deleting a part leaves a
gap.`,
}

var asJSON bool

func init() {
	Cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "output as JSON")

	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(moveCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(listCmd)
}
