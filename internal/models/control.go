package models

import (
	"fmt"
	"strings"
	"time"
)

type FanState string

const (
	FanOn  FanState = "ON"
	FanOff FanState = "OFF"
)

type Mode string

const (
	ModeAuto   Mode = "AUTO"
	ModeManual Mode = "MANUAL"
)

const (
	DefaultFan  = FanOff
	DefaultMode = ModeAuto
)

// ControlCommand is one entry of the append-only kontrol log. The newest
// entry by Waktu is the current desired device state.
type ControlCommand struct {
	ID    uint      `gorm:"primaryKey" json:"id"`
	Fan   FanState  `gorm:"column:fan" json:"fan"`
	Mode  Mode      `gorm:"column:mode" json:"mode"`
	Waktu time.Time `gorm:"column:waktu;index" json:"waktu"`
}

func (ControlCommand) TableName() string {
	return "kontrol"
}

func ParseFanState(value string) (FanState, error) {
	switch fan := FanState(strings.ToUpper(strings.TrimSpace(value))); fan {
	case FanOn, FanOff:
		return fan, nil
	default:
		return "", fmt.Errorf("fan must be %s or %s, got %q", FanOn, FanOff, value)
	}
}

func ParseMode(value string) (Mode, error) {
	switch mode := Mode(strings.ToUpper(strings.TrimSpace(value))); mode {
	case ModeAuto, ModeManual:
		return mode, nil
	default:
		return "", fmt.Errorf("mode must be %s or %s, got %q", ModeAuto, ModeManual, value)
	}
}
