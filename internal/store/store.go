package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/database"
	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/models"
)

var (
	ErrNoReadings = errors.New("no sensor readings stored")
	ErrNoControl  = errors.New("no control commands stored")
)

// Store is the single data access client of the process. It wraps the
// shared gorm pool and is safe for concurrent use.
type Store struct {
	db         *gorm.DB
	classifier Classifier
	views      readingViews
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Store)

// WithClassifier replaces the dialect's default classifier.
func WithClassifier(classifier Classifier) Option {
	return func(s *Store) {
		s.classifier = classifier
	}
}

// WithClock sets the time source used for new rows and window cutoffs.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New binds a Store to db. PostgreSQL databases are read through their
// stored functions; the other dialects use the tables created by the
// embedded migrations.
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		now:    time.Now,
		logger: slog.Default(),
	}

	if database.Dialect(db) == database.DialectPostgres {
		s.classifier = StoredFunctionClassifier{}
	} else {
		s.classifier = ThresholdClassifier{}
	}

	for _, opt := range opts {
		opt(s)
	}

	if database.Dialect(db) == database.DialectPostgres {
		s.views = storedFunctionViews{}
	} else {
		s.views = tableViews{classifier: s.classifier}
	}

	return s
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	return database.Close(s.db)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

const maxWindowHours = math.MaxInt64 / int64(time.Hour)

// cutoff is the start of a trailing window of hours. Windows too large for
// a time.Duration are pinned to the ends of the calendar.
func (s *Store) cutoff(hours int) time.Time {
	switch {
	case int64(hours) > maxWindowHours:
		return time.Time{}
	case int64(hours) < -maxWindowHours:
		return time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	default:
		return s.timestamp().Add(-time.Duration(hours) * time.Hour)
	}
}

func (s *Store) LatestReading(ctx context.Context) (*models.ClassifiedReading, error) {
	rows, err := s.views.latest(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest reading: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoReadings
	}

	return &rows[0], nil
}

func (s *Store) HistoricalReadings(ctx context.Context, hours int) ([]models.ClassifiedReading, error) {
	rows, err := s.views.historical(ctx, s.db, hours, s.cutoff(hours))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historical readings: %w", err)
	}
	if rows == nil {
		rows = []models.ClassifiedReading{}
	}

	return rows, nil
}

func (s *Store) Statistics(ctx context.Context, hours int) (*models.Statistics, error) {
	var statistics models.Statistics

	err := s.db.WithContext(ctx).
		Model(&models.SensorReading{}).
		Select(`COUNT(*) AS total_data,
			AVG(co2) AS avg_co2, MAX(co2) AS max_co2, MIN(co2) AS min_co2,
			AVG(co) AS avg_co, MAX(co) AS max_co, MIN(co) AS min_co,
			AVG(dust) AS avg_dust, MAX(dust) AS max_dust, MIN(dust) AS min_dust`).
		Where("timestamp >= ?", s.cutoff(hours)).
		Scan(&statistics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}

	return &statistics, nil
}

// InsertReading stores a reading stamped with the current time and
// returns it classified. A classification failure rolls the insert back.
func (s *Store) InsertReading(ctx context.Context, reading models.SensorReading) (*models.ClassifiedReading, error) {
	reading.ID = 0
	reading.Timestamp = s.timestamp()

	var row models.ClassifiedReading
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&reading).Error; err != nil {
			return err
		}

		categories, err := s.classifier.Classify(ctx, tx, reading)
		if err != nil {
			return err
		}

		row = models.ClassifiedReading{SensorReading: reading, Categories: categories}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert reading: %w", err)
	}

	s.logger.Debug("Sensor reading stored", "id", row.ID, "status", row.AirQualityStatus)

	return &row, nil
}

func (s *Store) LatestControl(ctx context.Context) (*models.ControlCommand, error) {
	var command models.ControlCommand

	err := s.db.WithContext(ctx).
		Order("waktu DESC").
		Order("id DESC").
		First(&command).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoControl
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch control status: %w", err)
	}

	return &command, nil
}

// InsertControl appends a command to the control log, stamped with the
// current time.
func (s *Store) InsertControl(ctx context.Context, fan models.FanState, mode models.Mode) (*models.ControlCommand, error) {
	command := models.ControlCommand{
		Fan:   fan,
		Mode:  mode,
		Waktu: s.timestamp(),
	}

	if err := s.db.WithContext(ctx).Create(&command).Error; err != nil {
		return nil, fmt.Errorf("failed to insert control command: %w", err)
	}

	s.logger.Debug("Control command stored", "id", command.ID, "fan", fan, "mode", mode)

	return &command, nil
}
