package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

const (
	MAX_OPEN_CONNS    = 10
	MAX_IDLE_CONNS    = 5
	CONN_MAX_IDLE     = 30 * time.Second
	SQLITE_BUSY_PARAM = "_busy_timeout=5000"
)

var ErrEmptyURL = errors.New("database url is empty")

// Open builds the process-wide connection pool for the given connection
// string. The dialect is chosen from the URL scheme:
//
//	postgres://, postgresql://  PostgreSQL through pgx
//	mysql://                    MySQL, the rest being a go-sql-driver DSN
//	sqlite://, file:, a path    SQLite
func Open(rawURL string) (*gorm.DB, error) {
	dialector, err := Dialector(rawURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}

	if Dialect(db) == DialectSQLite {
		// SQLite allows a single writer; serialize through one connection.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(MAX_OPEN_CONNS)
		sqlDB.SetMaxIdleConns(MAX_IDLE_CONNS)
		sqlDB.SetConnMaxIdleTime(CONN_MAX_IDLE)
	}

	return db, nil
}

func Dialector(rawURL string) (gorm.Dialector, error) {
	rawURL = strings.TrimSpace(rawURL)

	switch {
	case rawURL == "":
		return nil, ErrEmptyURL
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		return postgresDialector(rawURL)
	case strings.HasPrefix(rawURL, "mysql://"):
		return mysql.Open(mysqlDSN(strings.TrimPrefix(rawURL, "mysql://"))), nil
	default:
		dsn, err := sqliteDSN(rawURL)
		if err != nil {
			return nil, err
		}
		return sqlite.Open(dsn), nil
	}
}

func postgresDialector(rawURL string) (gorm.Dialector, error) {
	config, err := postgresConfig(rawURL)
	if err != nil {
		return nil, err
	}

	return postgres.New(postgres.Config{Conn: stdlib.OpenDB(*config)}), nil
}

// postgresConfig negotiates TLS as requested by sslmode but never verifies
// the server certificate.
func postgresConfig(rawURL string) (*pgx.ConnConfig, error) {
	config, err := pgx.ParseConfig(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres url: %w", err)
	}

	if config.TLSConfig != nil {
		config.TLSConfig.InsecureSkipVerify = true
		config.TLSConfig.VerifyPeerCertificate = nil
	}
	for _, fallback := range config.Fallbacks {
		if fallback.TLSConfig != nil {
			fallback.TLSConfig.InsecureSkipVerify = true
			fallback.TLSConfig.VerifyPeerCertificate = nil
		}
	}

	return config, nil
}

func mysqlDSN(dsn string) string {
	params := []string{}
	if !strings.Contains(dsn, "parseTime=") {
		params = append(params, "parseTime=true")
	}
	if !strings.Contains(dsn, "loc=") {
		params = append(params, "loc=UTC")
	}
	if !strings.Contains(dsn, "multiStatements=") {
		params = append(params, "multiStatements=true")
	}

	return appendParams(dsn, params...)
}

func sqliteDSN(rawURL string) (string, error) {
	dsn := strings.TrimPrefix(rawURL, "sqlite://")

	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path != "" && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	if !strings.Contains(dsn, "_busy_timeout") {
		dsn = appendParams(dsn, SQLITE_BUSY_PARAM)
	}

	return dsn, nil
}

func appendParams(dsn string, params ...string) string {
	if len(params) == 0 {
		return dsn
	}

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}

	return dsn + separator + strings.Join(params, "&")
}

// Dialect reports which of the supported engines db talks to.
func Dialect(db *gorm.DB) string {
	return db.Dialector.Name()
}

func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// Close drains the connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access connection pool: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close connection pool: %w", err)
	}

	return nil
}
