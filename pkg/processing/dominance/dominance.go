package dominance

import (
	"errors"

	"github.com/aarondl/opt/null"

	"github.com/mpapenbr/raceanalysis-service/pkg/model"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing/partition"
)

// TimeSpent sums the time deltas between consecutive valid samples of trace
// that fall into the same segment. A segment without such a pair has no entry.
func TimeSpent(p *partition.Partition, trace *model.DriverTrace) map[int]float64 {
	idx := p.Assign(trace)
	ret := map[int]float64{}
	prevSeg, prevTime := -1, 0.0
	for i := range trace.Samples {
		seg, ok := idx[i].Get()
		t, tOk := trace.Samples[i].Value(model.ChannelTime)
		if !ok || !tOk {
			continue
		}
		if seg == prevSeg {
			ret[seg] += t - prevTime
		}
		prevSeg, prevTime = seg, t
	}
	return ret
}

// Resolve determines the fastest driver for each segment of p.
// The driver with the minimum time spent wins, on equal times the driver
// appearing first in traces is kept. Segments in which no driver has a
// measurable time have no fastest driver.
func Resolve(p *partition.Partition, traces []model.DriverTrace) []model.SegmentResult {
	spent := make([]map[int]float64, len(traces))
	for i := range traces {
		spent[i] = TimeSpent(p, &traces[i])
	}
	ret := make([]model.SegmentResult, p.Count())
	for s := range ret {
		r := model.SegmentResult{SegmentIndex: s, TimeSpentByDriver: map[string]float64{}}
		best, found := 0.0, false
		for i := range traces {
			t, ok := spent[i][s]
			if !ok {
				continue
			}
			code := traces[i].Driver.Code
			r.TimeSpentByDriver[code] = t
			if !found || t < best {
				best, found = t, true
				r.FastestDriver = null.From(code)
			}
		}
		ret[s] = r
	}
	return ret
}

// Absent reports every trace that competes in none of the results.
// The error names the time channel if the trace lacks valid lap times,
// otherwise the channel the partition bins on.
func Absent(p *partition.Partition, traces []model.DriverTrace, results []model.SegmentResult) error {
	var errs []error
	for i := range traces {
		code := traces[i].Driver.Code
		competes := false
		for _, r := range results {
			if _, ok := r.TimeSpentByDriver[code]; ok {
				competes = true
				break
			}
		}
		if competes {
			continue
		}
		ch := p.Channel()
		if validCount(&traces[i], model.ChannelTime) < 2 {
			ch = model.ChannelTime
		}
		errs = append(errs, &model.EmptyTraceError{Driver: code, Channel: ch})
	}
	return errors.Join(errs...)
}

func validCount(trace *model.DriverTrace, ch model.Channel) int {
	n := 0
	for i := range trace.Samples {
		if _, ok := trace.Samples[i].Value(ch); ok {
			n++
		}
	}
	return n
}

// Paths collects the valid positions of trace per segment.
// Used to draw the mini-sectors on the track map.
func Paths(p *partition.Partition, trace *model.DriverTrace) [][]model.Point {
	ret := make([][]model.Point, p.Count())
	for i := range ret {
		ret[i] = []model.Point{}
	}
	for i, seg := range p.Assign(trace) {
		s, ok := seg.Get()
		if !ok {
			continue
		}
		if x, y, ok := trace.Samples[i].Position(); ok {
			ret[s] = append(ret[s], model.Point{X: x, Y: y})
		}
	}
	return ret
}
