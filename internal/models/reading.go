package models

import (
	"time"
)

// SensorReading is one CO2/CO/dust sample as stored in sensor_data.
// The values are pointers so that an explicit JSON null reaches the store
// unchanged instead of being coerced to zero.
type SensorReading struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CO2       *float64  `gorm:"column:co2" json:"co2"`
	CO        *float64  `gorm:"column:co" json:"co"`
	Dust      *float64  `gorm:"column:dust" json:"dust"`
	Timestamp time.Time `gorm:"column:timestamp;index" json:"timestamp"`
}

func (SensorReading) TableName() string {
	return "sensor_data"
}

// Categories are the labels the store derives from a reading.
type Categories struct {
	CO2Category      string `gorm:"column:co2_category" json:"co2_category"`
	COCategory       string `gorm:"column:co_category" json:"co_category"`
	DustCategory     string `gorm:"column:dust_category" json:"dust_category"`
	AirQualityStatus string `gorm:"column:air_quality_status" json:"air_quality_status"`
}

// ClassifiedReading is a stored reading together with its categories.
type ClassifiedReading struct {
	SensorReading
	Categories
}

// NewSensorReading builds an unsaved reading; the store stamps it on insert.
func NewSensorReading(co2, co, dust float64) SensorReading {
	return SensorReading{
		CO2:  &co2,
		CO:   &co,
		Dust: &dust,
	}
}

// Value dereferences a reading field, returning 0 for nil.
func Value(f *float64) float64 {
	if f == nil {
		return 0
	}

	return *f
}
