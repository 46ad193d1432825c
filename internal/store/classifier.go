package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/models"
)

// Classifier derives the category labels of a reading. Implementations
// source their rules from the backing store; the thresholds never live in
// this codebase.
type Classifier interface {
	Classify(ctx context.Context, db *gorm.DB, reading models.SensorReading) (models.Categories, error)
}

// StoredFunctionClassifier calls the classification functions provisioned
// in the PostgreSQL schema.
type StoredFunctionClassifier struct{}

func (StoredFunctionClassifier) Classify(ctx context.Context, db *gorm.DB, reading models.SensorReading) (models.Categories, error) {
	var categories models.Categories

	err := db.WithContext(ctx).Raw(
		`SELECT
			get_co2_category(?) AS co2_category,
			get_co_category(?) AS co_category,
			get_dust_category(?) AS dust_category,
			get_air_quality_status(?, ?, ?) AS air_quality_status`,
		reading.CO2, reading.CO, reading.Dust,
		reading.CO2, reading.CO, reading.Dust,
	).Scan(&categories).Error
	if err != nil {
		return models.Categories{}, fmt.Errorf("failed to classify reading: %w", err)
	}

	return categories, nil
}

// ThresholdClassifier looks readings up in the category_thresholds and
// air_quality_statuses tables.
type ThresholdClassifier struct{}

type band struct {
	Label    string
	Severity int
}

func (ThresholdClassifier) Classify(ctx context.Context, db *gorm.DB, reading models.SensorReading) (models.Categories, error) {
	db = db.WithContext(ctx)

	metrics := []struct {
		name  string
		value *float64
	}{
		{"co2", reading.CO2},
		{"co", reading.CO},
		{"dust", reading.Dust},
	}

	bands := make([]band, len(metrics))
	worst := 0
	for i, metric := range metrics {
		if metric.value == nil {
			return models.Categories{}, fmt.Errorf("failed to classify reading: %s is null", metric.name)
		}

		var found []band
		err := db.
			Table("category_thresholds").
			Select("label, severity").
			Where("metric = ? AND min_value <= ?", metric.name, *metric.value).
			Order("min_value DESC").
			Limit(1).
			Scan(&found).Error
		if err != nil {
			return models.Categories{}, fmt.Errorf("failed to classify %s: %w", metric.name, err)
		}
		if len(found) == 0 {
			return models.Categories{}, fmt.Errorf("failed to classify %s: no threshold covers %v", metric.name, *metric.value)
		}

		bands[i] = found[0]
		if found[0].Severity > worst {
			worst = found[0].Severity
		}
	}

	var statuses []string
	err := db.
		Table("air_quality_statuses").
		Where("severity <= ?", worst).
		Order("severity DESC").
		Limit(1).
		Pluck("label", &statuses).Error
	if err != nil {
		return models.Categories{}, fmt.Errorf("failed to resolve air quality status: %w", err)
	}
	if len(statuses) == 0 {
		return models.Categories{}, fmt.Errorf("failed to resolve air quality status: no status for severity %d", worst)
	}

	return models.Categories{
		CO2Category:      bands[0].Label,
		COCategory:       bands[1].Label,
		DustCategory:     bands[2].Label,
		AirQualityStatus: statuses[0],
	}, nil
}
