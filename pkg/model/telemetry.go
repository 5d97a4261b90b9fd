package model

import (
	"math"

	"github.com/aarondl/opt/null"
)

type Channel string

const (
	ChannelTime     Channel = "time"
	ChannelDistance Channel = "distance"
	ChannelX        Channel = "x"
	ChannelY        Channel = "y"
	ChannelSpeed    Channel = "speed"
	ChannelGear     Channel = "gear"
	ChannelThrottle Channel = "throttle"
	ChannelBrake    Channel = "brake"
)

// Sample is one telemetry reading of a car.
// Any channel except brake may be missing in upstream data.
type Sample struct {
	Time     null.Val[float64] `json:"time"`     // seconds from lap start
	Distance null.Val[float64] `json:"distance"` // meters from start/finish
	X        null.Val[float64] `json:"x"`
	Y        null.Val[float64] `json:"y"`
	Speed    null.Val[float64] `json:"speed"` // km/h
	Gear     null.Val[int]     `json:"gear"`
	Throttle null.Val[float64] `json:"throttle"` // 0..100
	Brake    bool              `json:"brake"`
}

type DriverInfo struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Number string `json:"number,omitempty"`
	Team   string `json:"team"`
	Color  string `json:"color,omitempty"`
}

// DriverTrace holds the samples of one driver for one lap.
type DriverTrace struct {
	Driver    DriverInfo        `json:"driver"`
	LapNumber int               `json:"lapNumber"`
	LapTime   null.Val[float64] `json:"lapTime"`
	Sector1   null.Val[float64] `json:"sector1"`
	Sector2   null.Val[float64] `json:"sector2"`
	Sector3   null.Val[float64] `json:"sector3"`
	Samples   []Sample          `json:"samples"`
}

// Num converts a raw upstream value. NaN and Inf become missing values.
func Num(v float64) null.Val[float64] {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Val[float64]{}
	}
	return null.From(v)
}

// Float reads an optional value, treating NaN and Inf as missing.
func Float(v null.Val[float64]) (float64, bool) {
	f, ok := v.Get()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Value reads channel ch of the sample.
func (s *Sample) Value(ch Channel) (float64, bool) {
	switch ch {
	case ChannelTime:
		return Float(s.Time)
	case ChannelDistance:
		return Float(s.Distance)
	case ChannelX:
		return Float(s.X)
	case ChannelY:
		return Float(s.Y)
	case ChannelSpeed:
		return Float(s.Speed)
	case ChannelThrottle:
		return Float(s.Throttle)
	case ChannelGear:
		if g, ok := s.Gear.Get(); ok {
			return float64(g), true
		}
		return 0, false
	case ChannelBrake:
		if s.Brake {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (s *Sample) Position() (x, y float64, ok bool) {
	x, okX := Float(s.X)
	y, okY := Float(s.Y)
	return x, y, okX && okY
}

func (c Channel) Valid() bool {
	switch c {
	case ChannelTime, ChannelDistance, ChannelX, ChannelY, ChannelSpeed,
		ChannelGear, ChannelThrottle, ChannelBrake:
		return true
	}
	return false
}
