package geometry

import (
	"github.com/aarondl/opt/null"
	"github.com/samber/lo"

	"github.com/mpapenbr/raceanalysis-service/pkg/model"
)

// Build derives the track path from the position samples of the reference lap.
// Samples without a valid position are dropped, the order is kept.
func Build(ref *model.DriverTrace) (model.TrackGeometry, error) {
	points := lo.FilterMap(ref.Samples, func(s model.Sample, _ int) (model.Point, bool) {
		x, y, ok := s.Position()
		return model.Point{X: x, Y: y}, ok
	})
	if len(points) < 2 {
		return model.TrackGeometry{}, &model.InsufficientGeometryDataError{
			Driver:      ref.Driver.Code,
			ValidPoints: len(points),
		}
	}
	return model.TrackGeometry{Points: points}, nil
}

// GearMap returns the gear engaged at each valid position together with the
// runs of constant gear. Samples without a gear are skipped.
func GearMap(trace *model.DriverTrace) ([]model.GearPoint, []model.GearRun, error) {
	points := lo.FilterMap(trace.Samples, func(s model.Sample, _ int) (model.GearPoint, bool) {
		x, y, ok := s.Position()
		gear, gOk := s.Gear.Get()
		if !ok || !gOk {
			return model.GearPoint{}, false
		}
		return model.GearPoint{
			X:        x,
			Y:        y,
			Gear:     gear,
			Speed:    valid(s.Speed),
			Distance: valid(s.Distance),
		}, true
	})
	if len(points) < 2 {
		return nil, nil, &model.InsufficientGeometryDataError{
			Driver:      trace.Driver.Code,
			ValidPoints: len(points),
		}
	}
	return points, gearRuns(points), nil
}

func gearRuns(points []model.GearPoint) []model.GearRun {
	runs := []model.GearRun{}
	start := 0
	for i := 1; i <= len(points); i++ {
		if i == len(points) || points[i].Gear != points[start].Gear {
			runs = append(runs, model.GearRun{Gear: points[start].Gear, First: start, Last: i - 1})
			start = i
		}
	}
	return runs
}

// valid drops NaN values which can't be serialized
func valid(v null.Val[float64]) null.Val[float64] {
	if f, ok := model.Float(v); ok {
		return null.From(f)
	}
	return null.Val[float64]{}
}
