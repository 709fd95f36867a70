package episode

import (
	"github.com/spf13/cobra"
)

// Cmd is the episode command group
var Cmd = &cobra.Command{
	Use:   "episode",
	Short: "Manage episodes",
	Long:  `Create episodes to hold ordered parts.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(showCmd)
}
