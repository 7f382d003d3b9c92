package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"timelock-scope/internal/client"
)

var blockOpts struct {
	filter string
	limit  int
	offset int
}

var blockCmd = &cobra.Command{
	Use:   "block <height>",
	Short: "Analyze a block's transactions and print them as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		height, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid block height %q", args[0])
		}

		switch client.BlockFilter(blockOpts.filter) {
		case client.FilterAll, client.FilterTimelocks, client.FilterAlerts:
		default:
			return fmt.Errorf("invalid filter %q (want all, timelocks or alerts)", blockOpts.filter)
		}

		result, err := newClient().GetBlock(cmd.Context(), height, client.BlockOptions{
			Filter: client.BlockFilter(blockOpts.filter),
			Limit:  blockOpts.limit,
			Offset: blockOpts.offset,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	blockCmd.Flags().StringVar(&blockOpts.filter, "filter", "all", "Transaction filter: all, timelocks or alerts")
	blockCmd.Flags().IntVar(&blockOpts.limit, "limit", 0, "Maximum transactions to return (0 = backend default)")
	blockCmd.Flags().IntVar(&blockOpts.offset, "offset", 0, "Transactions to skip")
}
