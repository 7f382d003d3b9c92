package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"timelock-scope/internal/client"
)

var lightningCmd = &cobra.Command{
	Use:   "lightning <start> [end]",
	Short: "Summarize Lightning activity over a block range as JSON",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := rangeArgs(args)
		if err != nil {
			return err
		}
		result, err := newClient().Lightning(cmd.Context(), client.LightningOptions{
			Start: opts.Start,
			End:   opts.End,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

// blockRange is a parsed <start> [end] argument pair.
type blockRange struct {
	Start int64
	End   *int64
}

func rangeArgs(args []string) (blockRange, error) {
	var r blockRange
	start, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || start < 0 {
		return r, fmt.Errorf("invalid start height %q", args[0])
	}
	r.Start = start
	if len(args) > 1 {
		end, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || end < start {
			return r, fmt.Errorf("invalid end height %q", args[1])
		}
		r.End = &end
	}
	return r, nil
}
