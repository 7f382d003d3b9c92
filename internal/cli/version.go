package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"timelock-scope/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("timelock-scope %s (%s)\n", version.Version, version.Commit)
	},
}
