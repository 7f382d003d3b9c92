package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	chart "github.com/wcharczuk/go-chart/v2"

	"timelock-scope/internal/client"
)

var exportFlags struct {
	csvPath  string
	pngPath  string
	severity string
}

var exportCmd = &cobra.Command{
	Use:   "export <start> [end]",
	Short: "Export range analysis as CSV (alerts) and/or PNG (CLTV expiry chart)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportFlags.csvPath == "" && exportFlags.pngPath == "" {
			return errors.New("at least one of --csv or --png must be provided")
		}

		r, err := rangeArgs(args)
		if err != nil {
			return err
		}
		if s := client.Severity(exportFlags.severity); s != "" && !s.Valid() {
			return fmt.Errorf("invalid severity %q (want critical, warning or informational)", exportFlags.severity)
		}

		api := newClient()
		ctx := cmd.Context()

		if exportFlags.csvPath != "" {
			result, err := api.Scan(ctx, client.ScanOptions{
				Start:    r.Start,
				End:      r.End,
				Severity: client.Severity(exportFlags.severity),
			})
			if err != nil {
				return err
			}
			if err := writeAlertsCSV(exportFlags.csvPath, result.Alerts); err != nil {
				return err
			}
			logger.Info().Int("alerts", len(result.Alerts)).Str("path", exportFlags.csvPath).Msg("wrote alert export")
		}

		if exportFlags.pngPath != "" {
			result, err := api.Lightning(ctx, client.LightningOptions{Start: r.Start, End: r.End})
			if err != nil {
				return err
			}
			if len(result.CLTVExpiryDistribution) == 0 {
				return errors.New("no CLTV expiry data in range; nothing to chart")
			}
			if err := writeDistributionPNG(exportFlags.pngPath, result); err != nil {
				return err
			}
			logger.Info().Int("buckets", len(result.CLTVExpiryDistribution)).Str("path", exportFlags.pngPath).Msg("wrote expiry chart")
		}

		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFlags.csvPath, "csv", "", "Write scan alerts to this CSV file")
	exportCmd.Flags().StringVar(&exportFlags.pngPath, "png", "", "Write the CLTV expiry distribution chart to this PNG file")
	exportCmd.Flags().StringVar(&exportFlags.severity, "severity", "", "Only export alerts of this severity")
}

func writeAlertsCSV(path string, alerts []client.Alert) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"id", "severity", "detection_type", "txid", "input_index", "description"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, a := range alerts {
		inputIndex := ""
		if a.InputIndex != nil {
			inputIndex = strconv.Itoa(*a.InputIndex)
		}
		record := []string{
			a.ID,
			string(a.Severity),
			string(a.DetectionType),
			a.Txid,
			inputIndex,
			a.Description,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeDistributionPNG(path string, result *client.LightningResult) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	bars := make([]chart.Value, len(result.CLTVExpiryDistribution))
	for i, bucket := range result.CLTVExpiryDistribution {
		bars[i] = chart.Value{
			Label: strconv.FormatInt(bucket.Expiry, 10),
			Value: float64(bucket.Count),
		}
	}

	graph := chart.BarChart{
		Title:  fmt.Sprintf("HTLC timeouts by CLTV expiry, blocks %d–%d", result.StartHeight, result.EndHeight),
		Width:  1280,
		Height: 720,
		YAxis: chart.YAxis{
			Name: "HTLC timeouts",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Bars: bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
