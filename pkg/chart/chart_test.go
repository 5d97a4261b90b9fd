package chart

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/raceanalysis-service/pkg/model"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing/partition"
	"github.com/mpapenbr/raceanalysis-service/testsupport/basedata"
)

func TestRender(t *testing.T) {
	data := basedata.SampleSession()
	proc := processing.NewProcessor()

	speed, err := proc.SpeedTrace(data, []string{"VER", "HAM"}, model.AxisDistance)
	require.NoError(t, err)
	gears, err := proc.GearShifts(data, "VER")
	require.NoError(t, err)
	dominance, err := proc.TrackDominance(data, nil, partition.DefaultConfig())
	require.NoError(t, err)
	racePace, err := proc.RacePace(data, nil)
	require.NoError(t, err)
	teamPace, err := proc.TeamPace(data)
	require.NoError(t, err)
	sections, err := proc.LapSections(data, nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		result any
		want   []string
	}{
		{"speed trace", speed, []string{"VER", "HAM", "Speed trace"}},
		{"gear shifts", gears, []string{"Gear shifts VER"}},
		{"track dominance", dominance, []string{"Track dominance (distance)"}},
		{"race pace", racePace, []string{"Race pace", "LEC"}},
		{"team pace", teamPace, []string{"Team pace", "Mercedes"}},
		{"lap sections", sections, []string{"braking", "full_throttle"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, tt.result))
			html := buf.String()
			assert.Contains(t, html, "echarts")
			for _, w := range tt.want {
				assert.Contains(t, html, w)
			}
		})
	}
}

func TestRender_NotChartable(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, &model.LapListing{})
	assert.ErrorIs(t, err, ErrNotChartable)
	assert.Zero(t, buf.Len())
}
