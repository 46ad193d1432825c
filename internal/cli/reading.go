package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/models"
	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/store"
)

var (
	readingHours int
	readingCO2   float64
	readingCO    float64
	readingDust  float64
)

// readingCmd represents the reading command
var readingCmd = &cobra.Command{
	Use:     "reading",
	Aliases: []string{"r", "readings"},
	Short:   "Inspect and record sensor readings",
	Long:    `Commands for reading and recording sensor data directly against the database.`,
}

var readingLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the most recent reading with its categories",
	Args:  cobra.NoArgs,
	RunE:  runReadingLatest,
}

var readingHistoryCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"ls", "list"},
	Short:   "List the readings of a trailing window",
	Long: `List the readings of the last --hours hours, newest first.

Examples:
  smart-air-monitor reading history
  smart-air-monitor reading history --hours 1`,
	Args: cobra.NoArgs,
	RunE: runReadingHistory,
}

var readingStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print count, average, minimum and maximum per metric",
	Args:  cobra.NoArgs,
	RunE:  runReadingStats,
}

var readingAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Store a reading as a device would",
	Long: `Store a reading as a device would and print it with the categories derived at insert time.

Example:
  smart-air-monitor reading add --co2 415 --co 1.2 --dust 8`,
	Args: cobra.NoArgs,
	RunE: runReadingAdd,
}

func runReadingLatest(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	reading, err := a.store.LatestReading(cmd.Context())
	if errors.Is(err, store.ErrNoReadings) {
		fmt.Println("No readings found.")
		return nil
	}
	if err != nil {
		return err
	}

	return printJSON(os.Stdout, reading)
}

func runReadingHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Debug("Fetching readings", "hours", readingHours)

	readings, err := a.store.HistoricalReadings(cmd.Context(), readingHours)
	if err != nil {
		return err
	}

	if len(readings) == 0 {
		fmt.Printf("No readings in the last %d hours.\n", readingHours)
		return nil
	}

	// Create tabwriter for aligned output
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tTIMESTAMP\tCO2\tCO\tDUST\tSTATUS")
	fmt.Fprintln(w, "--\t---------\t---\t--\t----\t------")

	for _, reading := range readings {
		fmt.Fprintf(w, "%d\t%s\t%.1f\t%.2f\t%.1f\t%s\n",
			reading.ID,
			reading.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			models.Value(reading.CO2),
			models.Value(reading.CO),
			models.Value(reading.Dust),
			reading.AirQualityStatus,
		)
	}

	a.logger.Debug("Reading history completed", "count", len(readings))

	return nil
}

func runReadingStats(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	statistics, err := a.store.Statistics(cmd.Context(), readingHours)
	if err != nil {
		return err
	}

	return printJSON(os.Stdout, statistics)
}

func runReadingAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	row, err := a.store.InsertReading(cmd.Context(), models.NewSensorReading(readingCO2, readingCO, readingDust))
	if err != nil {
		return err
	}

	return printJSON(os.Stdout, row)
}

func init() {
	// Add reading command to root
	rootCmd.AddCommand(readingCmd)

	readingCmd.AddCommand(readingLatestCmd, readingHistoryCmd, readingStatsCmd, readingAddCmd)

	for _, cmd := range []*cobra.Command{readingHistoryCmd, readingStatsCmd} {
		cmd.Flags().IntVar(&readingHours, "hours", 24, "Size of the trailing window in hours")
	}

	readingAddCmd.Flags().Float64Var(&readingCO2, "co2", 0, "CO2 concentration (ppm)")
	readingAddCmd.Flags().Float64Var(&readingCO, "co", 0, "CO concentration (ppm)")
	readingAddCmd.Flags().Float64Var(&readingDust, "dust", 0, "Dust concentration (µg/m³)")
	for _, name := range []string{"co2", "co", "dust"} {
		_ = readingAddCmd.MarkFlagRequired(name)
	}
}
