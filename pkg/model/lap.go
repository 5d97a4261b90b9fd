package model

import (
	"strings"

	"github.com/aarondl/opt/null"
)

type Compound string

const (
	CompoundSoft         Compound = "SOFT"
	CompoundMedium       Compound = "MEDIUM"
	CompoundHard         Compound = "HARD"
	CompoundIntermediate Compound = "INTERMEDIATE"
	CompoundWet          Compound = "WET"
	CompoundUnknown      Compound = "UNKNOWN"
)

func ParseCompound(s string) Compound {
	switch c := Compound(strings.ToUpper(strings.TrimSpace(s))); c {
	case CompoundSoft, CompoundMedium, CompoundHard, CompoundIntermediate, CompoundWet:
		return c
	}
	return CompoundUnknown
}

type LapTimeRecord struct {
	DriverCode string            `json:"driverCode"`
	Team       string            `json:"team"`
	LapNumber  int               `json:"lapNumber"`
	LapTime    null.Val[float64] `json:"lapTime"` // seconds
	Compound   Compound          `json:"compound"`
	IsValid    bool              `json:"isValid"`
	Stint      null.Val[int]     `json:"stint"`
	TyreLife   null.Val[int]     `json:"tyreLife"`
	Sector1    null.Val[float64] `json:"sector1Time"`
	Sector2    null.Val[float64] `json:"sector2Time"`
	Sector3    null.Val[float64] `json:"sector3Time"`
}

// Usable reports whether the record takes part in pace aggregation.
func (r *LapTimeRecord) Usable() (float64, bool) {
	if !r.IsValid {
		return 0, false
	}
	t, ok := Float(r.LapTime)
	if !ok || t <= 0 {
		return 0, false
	}
	return t, true
}

// PaceSummary holds order statistics over the valid lap times of a driver or team.
// Min <= Q1 <= Median <= Q3 <= Max
type PaceSummary struct {
	EntityID string  `json:"entityId"`
	Min      float64 `json:"min"`
	Q1       float64 `json:"q1"`
	Median   float64 `json:"median"`
	Q3       float64 `json:"q3"`
	Max      float64 `json:"max"`
	Laps     int     `json:"laps"`
}
