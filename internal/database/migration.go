package database

import (
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"

	"gorm.io/gorm"
)

//go:embed migrations/*/*/up.sql migrations/*/*/down.sql
var migrationsFS embed.FS

type SchemaVersion uint64

type SchemaMigration struct {
	Version SchemaVersion `gorm:"primaryKey;autoIncrement:false"`
}

func CurrentSchemaVersion(db *gorm.DB) SchemaVersion {
	return CurrentSchemaMigration(db).Version
}

func CurrentSchemaMigration(db *gorm.DB) SchemaMigration {
	var schemaMigration SchemaMigration

	db.
		Model(&SchemaMigration{}).
		Select("version").
		Order("version desc").
		Limit(1).
		Scan(&schemaMigration)

	return schemaMigration
}

type Migration struct {
	Version SchemaVersion
	Dialect string
	Dir     fs.DirEntry
}

func (migration *Migration) Up(db *gorm.DB) error {
	sql, err := migration.readSQL("up.sql")
	if err != nil {
		return err
	}

	return db.Exec(sql).Error
}

func (migration *Migration) Down(db *gorm.DB) error {
	sql, err := migration.readSQL("down.sql")
	if err != nil {
		return err
	}

	return db.Exec(sql).Error
}

func (migration *Migration) readSQL(name string) (string, error) {
	data, err := fs.ReadFile(migrationsFS, fmt.Sprintf("migrations/%s/%s/%s", migration.Dialect, migration.DirName(), name))
	if err != nil {
		return "", fmt.Errorf("failed to read %s for migration %s: %w", name, migration.DirName(), err)
	}

	return string(data), nil
}

func (migration *Migration) DirName() string {
	return migration.Dir.Name()
}

// Managed reports whether the service owns the schema for db. PostgreSQL
// databases are provisioned externally together with their stored functions.
func Managed(db *gorm.DB) bool {
	return Dialect(db) != DialectPostgres
}

// Migrate applies every embedded migration newer than the recorded schema
// version. It returns the versions it applied.
func Migrate(db *gorm.DB) ([]SchemaVersion, error) {
	if !Managed(db) {
		return nil, nil
	}

	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return nil, fmt.Errorf("failed to prepare schema_migrations: %w", err)
	}

	currentVersion := CurrentSchemaVersion(db)
	migrations, err := MigrationsNewerThan(Dialect(db), currentVersion)
	if err != nil {
		return nil, err
	}

	var applied []SchemaVersion
	for _, migration := range migrations {
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx); err != nil {
				return err
			}

			return tx.Create(&SchemaMigration{Version: migration.Version}).Error
		})
		if err != nil {
			return applied, fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}

		applied = append(applied, migration.Version)
	}

	return applied, nil
}

// Rollback reverts the newest applied migration, if any.
func Rollback(db *gorm.DB) (SchemaVersion, error) {
	if !Managed(db) {
		return 0, nil
	}

	currentVersion := CurrentSchemaVersion(db)
	if currentVersion == 0 {
		return 0, nil
	}

	migrations, err := MigrationsNewerThan(Dialect(db), currentVersion-1)
	if err != nil {
		return 0, err
	}
	if len(migrations) == 0 || migrations[0].Version != currentVersion {
		return 0, fmt.Errorf("migration %d is not embedded in this build", currentVersion)
	}

	migration := migrations[0]
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := migration.Down(tx); err != nil {
			return err
		}

		return tx.Delete(&SchemaMigration{}, "version = ?", migration.Version).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to roll back migration %d: %w", migration.Version, err)
	}

	return migration.Version, nil
}

func MigrationsNewerThan(dialect string, minVersion SchemaVersion) ([]Migration, error) {
	migrationVersionRegex := regexp.MustCompile(`^(\d+)`)

	entries, err := fs.ReadDir(migrationsFS, "migrations/"+dialect)
	if err != nil {
		return nil, fmt.Errorf("no migrations for dialect %s: %w", dialect, err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		match := migrationVersionRegex.FindStringSubmatch(entry.Name())

		if len(match) != 2 {
			return nil, fmt.Errorf("invalid migration directory name: %s - missing version number", entry.Name())
		}

		versionInt, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid migration version: %s - %w", match[1], err)
		}

		version := SchemaVersion(versionInt)

		if version <= minVersion {
			continue
		}

		migrations = append(migrations, Migration{
			Version: version,
			Dialect: dialect,
			Dir:     entry,
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}
