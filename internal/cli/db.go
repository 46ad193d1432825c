package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/database"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database diagnostics and schema management",
}

var dbCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Test the connection and describe the schema",
	Long: `Connect to the configured database and report the server version, the current
database, its tables, the row counts of sensor_data and kontrol, the sensor_data
columns and its newest rows.`,
	Args: cobra.NoArgs,
	RunE: runDBCheck,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations (SQLite and MySQL)",
	Args:  cobra.NoArgs,
	RunE:  runDBMigrate,
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Revert the newest schema migration (SQLite and MySQL)",
	Args:  cobra.NoArgs,
	RunE:  runDBRollback,
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := database.Inspect(cmd.Context(), a.store.DB())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Dialect:\t%s\n", report.Dialect)
	fmt.Fprintf(w, "Server version:\t%s\n", report.Version)
	fmt.Fprintf(w, "Current database:\t%s\n", report.Database)
	if database.Managed(a.store.DB()) {
		fmt.Fprintf(w, "Schema version:\t%d\n", report.SchemaAt)
	}

	fmt.Fprintln(w)
	if len(report.Tables) == 0 {
		fmt.Fprintln(w, "No tables found.")
		return nil
	}
	fmt.Fprintln(w, "TABLE\tROWS")
	fmt.Fprintln(w, "-----\t----")
	for _, table := range report.Tables {
		rows := "-"
		if count, ok := report.RowCounts[table]; ok {
			rows = fmt.Sprintf("%d", count)
		}
		fmt.Fprintf(w, "%s\t%s\n", table, rows)
	}

	if len(report.Columns) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "COLUMN\tTYPE\tNULLABLE")
		fmt.Fprintln(w, "------\t----\t--------")
		for _, column := range report.Columns {
			fmt.Fprintf(w, "%s\t%s\t%t\n", column.Name, column.Type, column.Nullable)
		}
	}

	if len(report.LatestSample) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Latest %d readings:\n", len(report.LatestSample))
		for _, row := range report.LatestSample {
			fmt.Fprintf(w, "  %s\n", formatRow(row))
		}
	}

	return nil
}

func formatRow(row map[string]any) string {
	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, row[key]))
	}

	return strings.Join(parts, " ")
}

// newApp already migrates managed schemas, so migrate only reports.
func runDBMigrate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	db := a.store.DB()
	if !database.Managed(db) {
		fmt.Println("PostgreSQL schemas are provisioned externally; nothing to migrate.")
		return nil
	}

	fmt.Printf("Schema is at version %d.\n", database.CurrentSchemaVersion(db))

	return nil
}

func runDBRollback(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	version, err := database.Rollback(a.store.DB())
	if err != nil {
		return err
	}

	if version == 0 {
		fmt.Println("Nothing to roll back.")
		return nil
	}

	fmt.Printf("Rolled back migration %d.\n", version)

	return nil
}

func init() {
	rootCmd.AddCommand(dbCmd)

	dbCmd.AddCommand(dbCheckCmd, dbMigrateCmd, dbRollbackCmd)
}
