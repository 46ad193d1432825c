package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/models"
)

// readingViews produces the classified read models for the latest and
// historical endpoints.
type readingViews interface {
	latest(ctx context.Context, db *gorm.DB) ([]models.ClassifiedReading, error)
	historical(ctx context.Context, db *gorm.DB, hours int, since time.Time) ([]models.ClassifiedReading, error)
}

// storedFunctionViews delegates to get_latest_reading() and
// get_historical_data(hours), which own ordering and classification.
type storedFunctionViews struct{}

func (storedFunctionViews) latest(ctx context.Context, db *gorm.DB) ([]models.ClassifiedReading, error) {
	var rows []models.ClassifiedReading
	err := db.WithContext(ctx).Raw("SELECT * FROM get_latest_reading()").Scan(&rows).Error

	return rows, err
}

func (storedFunctionViews) historical(ctx context.Context, db *gorm.DB, hours int, _ time.Time) ([]models.ClassifiedReading, error) {
	var rows []models.ClassifiedReading
	err := db.WithContext(ctx).Raw("SELECT * FROM get_historical_data(?)", hours).Scan(&rows).Error

	return rows, err
}

// tableViews reads sensor_data directly, newest first, and classifies
// every row.
type tableViews struct {
	classifier Classifier
}

func (v tableViews) latest(ctx context.Context, db *gorm.DB) ([]models.ClassifiedReading, error) {
	var readings []models.SensorReading
	err := db.WithContext(ctx).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(1).
		Find(&readings).Error
	if err != nil {
		return nil, err
	}

	return v.classifyAll(ctx, db, readings)
}

func (v tableViews) historical(ctx context.Context, db *gorm.DB, _ int, since time.Time) ([]models.ClassifiedReading, error) {
	var readings []models.SensorReading
	err := db.WithContext(ctx).
		Where("timestamp >= ?", since).
		Order("timestamp DESC").
		Order("id DESC").
		Find(&readings).Error
	if err != nil {
		return nil, err
	}

	return v.classifyAll(ctx, db, readings)
}

func (v tableViews) classifyAll(ctx context.Context, db *gorm.DB, readings []models.SensorReading) ([]models.ClassifiedReading, error) {
	rows := make([]models.ClassifiedReading, 0, len(readings))
	for _, reading := range readings {
		categories, err := v.classifier.Classify(ctx, db, reading)
		if err != nil {
			return nil, err
		}

		rows = append(rows, models.ClassifiedReading{SensorReading: reading, Categories: categories})
	}

	return rows, nil
}
