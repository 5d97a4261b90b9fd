//nolint:funlen,lll // ok for tests
package pace

import (
	"errors"
	"math"
	"testing"

	"github.com/aarondl/opt/null"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/raceanalysis-service/pkg/model"
	"github.com/mpapenbr/raceanalysis-service/testsupport/basedata"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestSummary(t *testing.T) {
	got, err := Summary("VER", []float64{90.1, 91.3, 89.8, 92.0})
	require.NoError(t, err)
	want := model.PaceSummary{
		EntityID: "VER",
		Min:      89.8,
		Q1:       90.025,
		Median:   90.7,
		Q3:       91.475,
		Max:      92.0,
		Laps:     4,
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("Summary() mismatch (-want +got):\n%s", diff)
	}
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"single value", []float64{90}, 0.5, 90},
		{"odd count median", []float64{1, 2, 3}, 0.5, 2},
		{"even count median", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"lower quartile", []float64{1, 2, 3, 4, 5}, 0.25, 2},
		{"interpolated quartile", []float64{1, 2, 3, 4}, 0.75, 3.25},
		{"p=0", []float64{1, 2, 3}, 0, 1},
		{"p=1", []float64{1, 2, 3}, 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Quantile(tt.sorted, tt.p), 1e-12)
		})
	}
}

func TestSummary_Ordering(t *testing.T) {
	laps := []float64{101.2, 99.9, 99.9, 100.4, 130.0, 98.7, 99.1}
	s, err := Summary("X", laps)
	require.NoError(t, err)
	assert.LessOrEqual(t, s.Min, s.Q1)
	assert.LessOrEqual(t, s.Q1, s.Median)
	assert.LessOrEqual(t, s.Median, s.Q3)
	assert.LessOrEqual(t, s.Q3, s.Max)
	assert.Equal(t, []float64{101.2, 99.9, 99.9, 100.4, 130.0, 98.7, 99.1}, laps, "input must not be modified")
}

func TestSummarize_ByDriver(t *testing.T) {
	data := basedata.SampleSession()
	res, err := Summarize(data.Laps, ByDriver)
	require.NoError(t, err)

	ids := []string{}
	for _, s := range res.Summaries {
		ids = append(ids, s.EntityID)
	}
	assert.Equal(t, []string{"VER", "HAM", "LEC"}, ids)
	assert.Equal(t, []string{"RUS"}, res.Excluded)
	assert.InDelta(t, 90.7, res.Summaries[0].Median, 1e-9)
	assert.Equal(t, 89.8, res.Summaries[0].Min)
	assert.Equal(t, 92.0, res.Summaries[0].Max)
}

func TestSummarize_ByTeam(t *testing.T) {
	data := basedata.SampleSession()
	res, err := Summarize(data.Laps, ByTeam)
	require.NoError(t, err)
	require.Len(t, res.Summaries, 3)
	assert.Empty(t, res.Excluded)

	mercedes := res.Summaries[1]
	assert.Equal(t, "Mercedes", mercedes.EntityID)
	// RUS laps are all invalid
	assert.Equal(t, 3, mercedes.Laps)
	assert.InDelta(t, 90.9, mercedes.Median, 1e-9)
}

func TestSummarize_IgnoresUnusableLaps(t *testing.T) {
	records := basedata.Laps(basedata.Verstappen, 90.0, 91.0)
	records = append(records,
		model.LapTimeRecord{DriverCode: "VER", LapTime: null.From(math.NaN()), IsValid: true},
		model.LapTimeRecord{DriverCode: "VER", IsValid: true},
		model.LapTimeRecord{DriverCode: "VER", LapTime: null.From(0.0), IsValid: true},
		model.LapTimeRecord{DriverCode: "VER", LapTime: null.From(60.0), IsValid: false},
	)
	res, err := Summarize(records, ByDriver)
	require.NoError(t, err)
	require.Len(t, res.Summaries, 1)
	assert.Equal(t, 2, res.Summaries[0].Laps)
	assert.Equal(t, 90.0, res.Summaries[0].Min)
}

func TestSummarize_NoEligibleEntity(t *testing.T) {
	records := basedata.InvalidLaps(basedata.Russell, 95.0, 96.0)
	_, err := Summarize(records, ByDriver)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNoEligibleEntity)

	_, err = Summarize(nil, ByTeam)
	assert.ErrorIs(t, err, model.ErrNoEligibleEntity)
}

func TestLookup(t *testing.T) {
	data := basedata.SampleSession()
	s, err := Lookup(data.Laps, ByDriver, "HAM")
	require.NoError(t, err)
	assert.Equal(t, 90.5, s.Min)

	_, err = Lookup(data.Laps, ByDriver, "RUS")
	require.Error(t, err)
	var target *model.NoEligibleEntityError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "RUS", target.Entity)

	_, err = Lookup(data.Laps, ByDriver, "XXX")
	assert.ErrorIs(t, err, model.ErrNoEligibleEntity)
}

func TestSortByMedian(t *testing.T) {
	s := []model.PaceSummary{
		{EntityID: "A", Median: 91, Min: 89},
		{EntityID: "B", Median: 90, Min: 90},
		{EntityID: "C", Median: 91, Min: 88},
	}
	SortByMedian(s)
	assert.Equal(t, "B", s[0].EntityID)
	assert.Equal(t, "A", s[1].EntityID)
	assert.Equal(t, "C", s[2].EntityID)

	SortByBest(s)
	assert.Equal(t, "C", s[0].EntityID)
	assert.Equal(t, "B", s[2].EntityID)
}
