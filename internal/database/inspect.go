package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

const SAMPLE_ROWS = 5

// Column describes one column of an inspected table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// Report is the outcome of a connection check.
type Report struct {
	Dialect      string
	Version      string
	Database     string
	Tables       []string
	RowCounts    map[string]int64
	Columns      []Column
	LatestSample []map[string]any
	SchemaAt     SchemaVersion
}

// Inspect verifies the connection and describes the schema the API relies
// on: server version, tables, row counts, the sensor_data columns and its
// newest rows. Missing tables are reported, not treated as errors.
func Inspect(ctx context.Context, db *gorm.DB) (*Report, error) {
	db = db.WithContext(ctx)
	report := &Report{
		Dialect:   Dialect(db),
		RowCounts: map[string]int64{},
	}

	if err := Ping(db); err != nil {
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	versionSQL, databaseSQL := "SELECT version()", "SELECT current_database()"
	switch report.Dialect {
	case DialectMySQL:
		versionSQL, databaseSQL = "SELECT VERSION()", "SELECT DATABASE()"
	case DialectSQLite:
		versionSQL, databaseSQL = "SELECT sqlite_version()", "SELECT 'main'"
	}

	if err := db.Raw(versionSQL).Scan(&report.Version).Error; err != nil {
		return nil, fmt.Errorf("failed to read server version: %w", err)
	}
	if err := db.Raw(databaseSQL).Scan(&report.Database).Error; err != nil {
		return nil, fmt.Errorf("failed to read current database: %w", err)
	}

	tables, err := db.Migrator().GetTables()
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	report.Tables = tables

	for _, table := range []string{"sensor_data", "kontrol"} {
		if !db.Migrator().HasTable(table) {
			continue
		}

		var count int64
		if err := db.Table(table).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		report.RowCounts[table] = count
	}

	if db.Migrator().HasTable("sensor_data") {
		columnTypes, err := db.Migrator().ColumnTypes("sensor_data")
		if err != nil {
			return nil, fmt.Errorf("failed to describe sensor_data: %w", err)
		}
		for _, columnType := range columnTypes {
			nullable, _ := columnType.Nullable()
			report.Columns = append(report.Columns, Column{
				Name:     columnType.Name(),
				Type:     columnType.DatabaseTypeName(),
				Nullable: nullable,
			})
		}

		err = db.Table("sensor_data").
			Order("timestamp DESC").
			Limit(SAMPLE_ROWS).
			Find(&report.LatestSample).Error
		if err != nil {
			return nil, fmt.Errorf("failed to sample sensor_data: %w", err)
		}
	}

	if Managed(db) && db.Migrator().HasTable(&SchemaMigration{}) {
		report.SchemaAt = CurrentSchemaVersion(db)
	}

	return report, nil
}
