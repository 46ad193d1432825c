package models

// Statistics aggregates the readings of a window. The aggregates are nil
// when the window holds no readings.
type Statistics struct {
	TotalData int64    `gorm:"column:total_data" json:"total_data"`
	AvgCO2    *float64 `gorm:"column:avg_co2" json:"avg_co2"`
	MaxCO2    *float64 `gorm:"column:max_co2" json:"max_co2"`
	MinCO2    *float64 `gorm:"column:min_co2" json:"min_co2"`
	AvgCO     *float64 `gorm:"column:avg_co" json:"avg_co"`
	MaxCO     *float64 `gorm:"column:max_co" json:"max_co"`
	MinCO     *float64 `gorm:"column:min_co" json:"min_co"`
	AvgDust   *float64 `gorm:"column:avg_dust" json:"avg_dust"`
	MaxDust   *float64 `gorm:"column:max_dust" json:"max_dust"`
	MinDust   *float64 `gorm:"column:min_dust" json:"min_dust"`
}
