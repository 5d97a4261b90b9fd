package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/aarondl/opt/null"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/raceanalysis-service/pkg/model"
	"github.com/mpapenbr/raceanalysis-service/testsupport/basedata"
)

func pos(x, y float64) model.Sample {
	return model.Sample{X: model.Num(x), Y: model.Num(y)}
}

func TestBuild(t *testing.T) {
	ref := basedata.Trace(basedata.Verstappen,
		pos(0, 0),
		pos(math.NaN(), 3),
		pos(10, 0),
		model.Sample{X: null.From(5.0)},
		pos(10, 10),
	)
	got, err := Build(&ref)
	require.NoError(t, err)
	assert.Equal(t, []model.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, got.Points)
}

func TestBuild_SquareLap(t *testing.T) {
	lap := basedata.SquareLap(basedata.Verstappen, 50)
	got, err := Build(&lap)
	require.NoError(t, err)
	assert.Len(t, got.Points, 41)
	assert.InDelta(t, 400.0, got.Length(), 1e-9)
	lo, hi := got.Bounds()
	assert.Equal(t, model.Point{X: 0, Y: 0}, lo)
	assert.Equal(t, model.Point{X: 100, Y: 100}, hi)
}

func TestBuild_Insufficient(t *testing.T) {
	tests := []struct {
		name  string
		trace model.DriverTrace
		valid int
	}{
		{"no samples", basedata.Trace(basedata.Verstappen), 0},
		{"single position", basedata.Trace(basedata.Verstappen, pos(1, 1), pos(math.NaN(), 1)), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(&tt.trace)
			assert.ErrorIs(t, err, model.ErrInsufficientGeometryData)
			var target *model.InsufficientGeometryDataError
			require.True(t, errors.As(err, &target))
			assert.Equal(t, tt.valid, target.ValidPoints)
			assert.Equal(t, "VER", target.Driver)
		})
	}
}

func TestGearMap(t *testing.T) {
	lap := basedata.SquareLap(basedata.Verstappen, 50)
	points, runs, err := GearMap(&lap)
	require.NoError(t, err)
	assert.Len(t, points, len(lap.Samples))
	assert.Equal(t, model.GearRun{Gear: 7, First: 0, Last: 0}, runs[0])
	assert.Equal(t, model.GearRun{Gear: 3, First: 1, Last: 1}, runs[1])
	assert.Equal(t, 7, runs[2].Gear)
	assert.Equal(t, 0, runs[0].First)
	assert.Equal(t, len(points)-1, runs[len(runs)-1].Last)
	for i := 1; i < len(runs); i++ {
		assert.Equal(t, runs[i-1].Last+1, runs[i].First)
		assert.NotEqual(t, runs[i-1].Gear, runs[i].Gear)
	}
}
