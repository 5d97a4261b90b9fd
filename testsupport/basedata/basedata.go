package basedata

import (
	"github.com/aarondl/opt/null"

	"github.com/mpapenbr/raceanalysis-service/pkg/model"
)

var (
	Verstappen = model.DriverInfo{Code: "VER", Name: "Max Verstappen", Number: "1", Team: "Red Bull Racing"}
	Hamilton   = model.DriverInfo{Code: "HAM", Name: "Lewis Hamilton", Number: "44", Team: "Mercedes"}
	Leclerc    = model.DriverInfo{Code: "LEC", Name: "Charles Leclerc", Number: "16", Team: "Ferrari"}
	Russell    = model.DriverInfo{Code: "RUS", Name: "George Russell", Number: "63", Team: "Mercedes"}
)

func SampleKey() model.SessionKey {
	return model.SessionKey{Year: 2023, Race: "Monza", Session: "R"}
}

// TD creates a sample with time and distance only
func TD(t, d float64) model.Sample {
	return model.Sample{Time: null.From(t), Distance: null.From(d)}
}

func Trace(info model.DriverInfo, samples ...model.Sample) model.DriverTrace {
	return model.DriverTrace{Driver: info, LapNumber: 1, Samples: samples}
}

// SquareLap creates a lap on a 400m square track starting at (0,0) running
// counterclockwise with samples every 10m.
// The car drives at constant mps but brakes on the last 20m of each side
// and is off throttle on the first 10m after each corner.
func SquareLap(info model.DriverInfo, mps float64) model.DriverTrace {
	samples := make([]model.Sample, 0, 41)
	for d := 0; d <= 400; d += 10 {
		side, pos := (d/100)%4, float64(d%100)
		if d == 400 {
			side, pos = 0, 0
		}
		var x, y float64
		switch side {
		case 0:
			x, y = pos, 0
		case 1:
			x, y = 100, pos
		case 2:
			x, y = 100-pos, 100
		case 3:
			x, y = 0, 100-pos
		}
		s := model.Sample{
			Time:     null.From(float64(d) / mps),
			Distance: null.From(float64(d)),
			X:        null.From(x),
			Y:        null.From(y),
			Speed:    null.From(mps * 3.6),
			Gear:     null.From(7),
			Throttle: null.From(100.0),
		}
		switch {
		case pos >= 80:
			s.Brake = true
			s.Throttle = null.From(0.0)
			s.Gear = null.From(4)
		case pos == 10:
			s.Throttle = null.From(60.0)
			s.Speed = null.From(120.0)
			s.Gear = null.From(3)
		}
		samples = append(samples, s)
	}
	t := Trace(info, samples...)
	t.LapTime = null.From(400 / mps)
	return t
}

func Laps(info model.DriverInfo, times ...float64) []model.LapTimeRecord {
	ret := make([]model.LapTimeRecord, len(times))
	for i, t := range times {
		ret[i] = model.LapTimeRecord{
			DriverCode: info.Code,
			Team:       info.Team,
			LapNumber:  i + 1,
			LapTime:    null.From(t),
			Compound:   model.CompoundMedium,
			IsValid:    true,
			Stint:      null.From(1),
			TyreLife:   null.From(i + 1),
		}
	}
	return ret
}

func InvalidLaps(info model.DriverInfo, times ...float64) []model.LapTimeRecord {
	ret := Laps(info, times...)
	for i := range ret {
		ret[i].IsValid = false
	}
	return ret
}

// SampleSession contains VER, HAM and LEC with fastest laps in this order.
// RUS has lap records but none of them is valid.
func SampleSession() *model.SessionData {
	laps := []model.LapTimeRecord{}
	laps = append(laps, Laps(Verstappen, 90.1, 91.3, 89.8, 92.0)...)
	laps = append(laps, Laps(Hamilton, 90.5, 90.9, 91.1)...)
	laps = append(laps, Laps(Leclerc, 91.0, 90.6, 92.4, 91.9)...)
	laps = append(laps, InvalidLaps(Russell, 95.0, 96.1)...)
	return &model.SessionData{
		Key:       SampleKey(),
		EventName: "Italian Grand Prix",
		Circuit: model.Circuit{Corners: []model.Corner{
			{Number: 1, Distance: 100},
			{Number: 2, Distance: 200},
			{Number: 3, Distance: 300},
		}},
		Drivers: []model.DriverInfo{Verstappen, Hamilton, Leclerc, Russell},
		Traces: []model.DriverTrace{
			SquareLap(Verstappen, 50),
			SquareLap(Hamilton, 48),
			SquareLap(Leclerc, 45),
		},
		Laps: laps,
	}
}
