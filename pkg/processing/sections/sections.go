package sections

import (
	"github.com/mpapenbr/raceanalysis-service/pkg/model"
)

type Thresholds struct {
	FullThrottle   float64 // throttle percentage regarded as full throttle
	CorneringSpeed float64 // km/h, below this a car off full throttle is cornering
}

func DefaultThresholds() Thresholds {
	return Thresholds{FullThrottle: 99, CorneringSpeed: 180}
}

// Classify labels a single sample. Rules are checked in priority order:
// braking, cornering, acceleration, full throttle.
// ok is false if the sample lacks the channels needed for a decision.
func Classify(s *model.Sample, th Thresholds) (section model.Section, ok bool) {
	if s.Brake {
		return model.SectionBraking, true
	}
	throttle, ok := model.Float(s.Throttle)
	if !ok {
		return "", false
	}
	if throttle >= th.FullThrottle {
		return model.SectionFullThrottle, true
	}
	speed, ok := model.Float(s.Speed)
	if !ok {
		return "", false
	}
	if speed < th.CorneringSpeed {
		return model.SectionCornering, true
	}
	return model.SectionAcceleration, true
}

// Split divides the lap into runs of equally labeled samples.
// Points are (time, speed) with time relative to the first valid time sample.
// A sample that can't be labeled or plotted ends the current run.
// Every section is present in the result, possibly without runs.
func Split(trace *model.DriverTrace, th Thresholds) map[model.Section][]model.SectionRun {
	ret := make(map[model.Section][]model.SectionRun, len(model.Sections))
	for _, s := range model.Sections {
		ret[s] = []model.SectionRun{}
	}
	t0, found := startTime(trace)
	if !found {
		return ret
	}

	var cur *model.SectionRun
	var curSection model.Section
	flush := func() {
		if cur != nil {
			ret[curSection] = append(ret[curSection], *cur)
			cur = nil
		}
	}
	for i := range trace.Samples {
		sample := &trace.Samples[i]
		section, ok := Classify(sample, th)
		t, tOk := sample.Value(model.ChannelTime)
		speed, sOk := sample.Value(model.ChannelSpeed)
		if !ok || !tOk || !sOk {
			flush()
			continue
		}
		p := model.XY{X: t - t0, Y: speed}
		if cur != nil && section == curSection {
			cur.Points = append(cur.Points, p)
			cur.End = p.X
			continue
		}
		flush()
		cur = &model.SectionRun{Start: p.X, End: p.X, Points: []model.XY{p}}
		curSection = section
	}
	flush()
	return ret
}

func startTime(trace *model.DriverTrace) (float64, bool) {
	for i := range trace.Samples {
		if t, ok := trace.Samples[i].Value(model.ChannelTime); ok {
			return t, true
		}
	}
	return 0, false
}
