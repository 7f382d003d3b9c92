package cli

import (
	"github.com/spf13/cobra"
)

var txCmd = &cobra.Command{
	Use:   "tx <txid>",
	Short: "Analyze one transaction and print the report as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := newClient().GetTransaction(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}
