package align

import (
	"errors"
	"fmt"

	"github.com/mpapenbr/raceanalysis-service/pkg/model"
)

var ErrUnknownAxis = errors.New("unknown axis")

// Align maps the requested channel of every trace onto the common axis.
// Pairs where either value is missing are dropped, the original order is kept.
// No resampling takes place, drivers may have different point counts.
// Every trace needs at least 2 valid pairs, otherwise an EmptyTraceError for
// each offending driver is returned.
func Align(traces []model.DriverTrace, axis model.Axis, ch model.Channel) ([]model.AlignedTrace, error) {
	if err := check(axis, ch); err != nil {
		return nil, err
	}
	ret := make([]model.AlignedTrace, 0, len(traces))
	var errs []error
	for i := range traces {
		a, err := Series(&traces[i], axis, ch)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ret = append(ret, a)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return ret, nil
}

// Series aligns a single trace.
func Series(trace *model.DriverTrace, axis model.Axis, ch model.Channel) (model.AlignedTrace, error) {
	if err := check(axis, ch); err != nil {
		return model.AlignedTrace{}, err
	}
	points := Points(trace, axis, ch)
	if len(points) < 2 {
		return model.AlignedTrace{}, &model.EmptyTraceError{Driver: trace.Driver.Code, Channel: ch}
	}
	return model.AlignedTrace{
		Driver:  trace.Driver.Code,
		Axis:    axis,
		Channel: ch,
		Points:  points,
	}, nil
}

// Points returns the valid (axis, channel) pairs of trace without any minimum.
func Points(trace *model.DriverTrace, axis model.Axis, ch model.Channel) []model.XY {
	key := model.Channel(axis)
	ret := make([]model.XY, 0, len(trace.Samples))
	for i := range trace.Samples {
		x, okX := trace.Samples[i].Value(key)
		y, okY := trace.Samples[i].Value(ch)
		if okX && okY {
			ret = append(ret, model.XY{X: x, Y: y})
		}
	}
	return ret
}

func check(axis model.Axis, ch model.Channel) error {
	switch axis {
	case model.AxisDistance, model.AxisTime:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAxis, axis)
	}
	if !ch.Valid() {
		return fmt.Errorf("unknown channel %q", ch)
	}
	return nil
}
