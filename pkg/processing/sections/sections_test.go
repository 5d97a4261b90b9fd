//nolint:funlen // ok for tests
package sections

import (
	"testing"

	"github.com/aarondl/opt/null"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/mpapenbr/raceanalysis-service/pkg/model"
	"github.com/mpapenbr/raceanalysis-service/testsupport/basedata"
)

func sample(t, speed, throttle float64, brake bool) model.Sample {
	return model.Sample{
		Time:     null.From(t),
		Speed:    model.Num(speed),
		Throttle: model.Num(throttle),
		Brake:    brake,
	}
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name   string
		sample model.Sample
		want   model.Section
		wantOk bool
	}{
		{"brake wins over everything", sample(0, 100, 100, true), model.SectionBraking, true},
		{"slow and partial throttle", sample(0, 120, 40, false), model.SectionCornering, true},
		{"fast and partial throttle", sample(0, 250, 80, false), model.SectionAcceleration, true},
		{"threshold counts as full", sample(0, 300, 99, false), model.SectionFullThrottle, true},
		{"full throttle while slow", sample(0, 100, 100, false), model.SectionFullThrottle, true},
		{"cornering speed threshold is acceleration", sample(0, 180, 50, false), model.SectionAcceleration, true},
		{"missing throttle", model.Sample{Speed: null.From(100.0)}, "", false},
		{"missing speed off throttle", model.Sample{Throttle: null.From(20.0)}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(&tt.sample, th)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplit(t *testing.T) {
	trace := basedata.Trace(basedata.Verstappen,
		sample(10, 300, 100, false),
		sample(11, 310, 100, false),
		sample(12, 280, 0, true),
		sample(13, 150, 30, false),
		sample(14, 200, 70, false),
		sample(15, 250, 100, false),
	)
	got := Split(&trace, DefaultThresholds())
	assert.Equal(t, len(got), 4)

	full := got[model.SectionFullThrottle]
	assert.Equal(t, len(full), 2)
	assert.DeepEqual(t, full[0], model.SectionRun{
		Start: 0, End: 1,
		Points: []model.XY{{X: 0, Y: 300}, {X: 1, Y: 310}},
	})
	assert.DeepEqual(t, full[1].Points, []model.XY{{X: 5, Y: 250}})

	assert.Equal(t, len(got[model.SectionBraking]), 1)
	assert.Equal(t, got[model.SectionBraking][0].Start, 2.0)
	assert.Equal(t, len(got[model.SectionCornering]), 1)
	assert.Equal(t, len(got[model.SectionAcceleration]), 1)
	assert.Equal(t, got[model.SectionAcceleration][0].Points[0].Y, 200.0)
}

func TestSplit_GapEndsRun(t *testing.T) {
	trace := basedata.Trace(basedata.Verstappen,
		sample(0, 300, 100, false),
		model.Sample{Time: null.From(1.0), Throttle: null.From(100.0)},
		sample(2, 300, 100, false),
	)
	got := Split(&trace, DefaultThresholds())
	assert.Equal(t, len(got[model.SectionFullThrottle]), 2)
}

func TestSplit_EmptySections(t *testing.T) {
	trace := basedata.Trace(basedata.Verstappen,
		sample(0, 300, 100, false),
		sample(1, 310, 100, false),
	)
	got := Split(&trace, DefaultThresholds())
	for _, s := range model.Sections {
		assert.Check(t, got[s] != nil, "section %s", s)
	}
	assert.Check(t, is.Len(got[model.SectionBraking], 0))
	assert.Check(t, is.Len(got[model.SectionFullThrottle], 1))
}

func TestSplit_SquareLap(t *testing.T) {
	lap := basedata.SquareLap(basedata.Hamilton, 48)
	got := Split(&lap, DefaultThresholds())
	// each side brakes on its last 20m
	assert.Equal(t, len(got[model.SectionBraking]), 4)
	assert.Equal(t, len(got[model.SectionCornering]), 4)
	total := 0
	for _, runs := range got {
		for _, r := range runs {
			total += len(r.Points)
			assert.Check(t, r.Start <= r.End)
		}
	}
	assert.Equal(t, total, len(lap.Samples))
}
