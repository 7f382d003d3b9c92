package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"timelock-scope/internal/client"
)

var scanFlags struct {
	severity      string
	detectionType string
}

var scanCmd = &cobra.Command{
	Use:   "scan <start> [end]",
	Short: "Scan a block range for alerts and print them as JSON",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := rangeArgs(args)
		if err != nil {
			return err
		}

		if s := client.Severity(scanFlags.severity); s != "" && !s.Valid() {
			return fmt.Errorf("invalid severity %q (want critical, warning or informational)", scanFlags.severity)
		}
		if t := client.DetectionType(scanFlags.detectionType); t != "" {
			if _, ok := client.LookupDetection(t); !ok {
				return fmt.Errorf("unknown detection type %q", scanFlags.detectionType)
			}
		}

		result, err := newClient().Scan(cmd.Context(), client.ScanOptions{
			Start:         opts.Start,
			End:           opts.End,
			Severity:      client.Severity(scanFlags.severity),
			DetectionType: client.DetectionType(scanFlags.detectionType),
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanFlags.severity, "severity", "", "Only alerts of this severity")
	scanCmd.Flags().StringVar(&scanFlags.detectionType, "type", "", "Only alerts of this detection type")
}
