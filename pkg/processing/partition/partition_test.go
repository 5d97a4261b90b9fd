//nolint:funlen,lll // ok for tests
package partition

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

func refTrace() model.DriverTrace {
	return basedata.Trace(basedata.Verstappen,
		basedata.TD(0, 0),
		basedata.TD(1, 25),
		basedata.TD(2, 50),
		basedata.TD(3, 75),
		basedata.TD(4, 100),
	)
}

func TestNew_Boundaries(t *testing.T) {
	ref := refTrace()
	p, err := New(&ref, Config{Policy: model.PolicyDistance, Segments: 4})
	require.NoError(t, err)
	assert.Equal(t, []model.Segment{
		{Index: 0, Start: 0, End: 25},
		{Index: 1, Start: 25, End: 50},
		{Index: 2, Start: 50, End: 75},
		{Index: 3, Start: 75, End: 100},
	}, p.Segments)
}

func TestPartition_Index(t *testing.T) {
	ref := refTrace()
	p, err := New(&ref, Config{Policy: model.PolicyDistance, Segments: 4})
	require.NoError(t, err)

	tests := []struct {
		name  string
		value float64
		want  int
	}{
		{"lower bound", 0, 0},
		{"inside first", 10, 0},
		{"boundary belongs to upper segment", 25, 1},
		{"inside third", 60, 2},
		{"upper bound in last segment", 100, 3},
		{"below range clamped", -5, 0},
		{"above range clamped", 130, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Index(tt.value))
		})
	}
}

func TestPartition_IndexMatchesBoundaries(t *testing.T) {
	ref := basedata.Trace(basedata.Verstappen, basedata.TD(0, 0), basedata.TD(1, 1))
	for _, n := range []int{3, 7, 10, DefaultSegments} {
		p, err := New(&ref, Config{Policy: model.PolicyDistance, Segments: n})
		require.NoError(t, err)
		assert.Equal(t, 1.0, p.Segments[n-1].End)
		for i := 0; i <= 1000; i++ {
			v := float64(i) / 1000
			seg := p.Segments[p.Index(v)]
			assert.LessOrEqual(t, seg.Start, v, "n=%d v=%v", n, v)
			if seg.Index < n-1 {
				assert.Less(t, v, seg.End, "n=%d v=%v", n, v)
			}
		}
	}
	p, err := New(&ref, Config{Policy: model.PolicyDistance, Segments: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, p.Index(0.3))
	assert.Equal(t, 0.3, p.Segments[3].Start)
}

func TestPartition_DegenerateRange(t *testing.T) {
	ref := basedata.Trace(basedata.Verstappen, basedata.TD(0, 50), basedata.TD(1, 50))
	p, err := New(&ref, Config{Policy: model.PolicyDistance, Segments: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, p.Count())
	assert.Equal(t, 0, p.Index(50))
	assert.Equal(t, 0, p.Index(70))
}

func TestPartition_Time(t *testing.T) {
	ref := refTrace()
	p, err := New(&ref, Config{Policy: model.PolicyTime, Segments: 2})
	require.NoError(t, err)
	lo, hi := p.Range()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 4.0, hi)
	assert.Equal(t,
		[]null.Val[int]{null.From(0), null.From(0), null.From(1), null.From(1), null.From(1)},
		p.Assign(&ref))
}

func TestPartition_AssignSkipsMissing(t *testing.T) {
	ref := refTrace()
	p, err := New(&ref, Config{Policy: model.PolicyDistance, Segments: 4})
	require.NoError(t, err)

	other := basedata.Trace(basedata.Hamilton,
		basedata.TD(0, 0),
		model.Sample{Time: null.From(1.0)},
		basedata.TD(2, math.NaN()),
		basedata.TD(3, 80),
	)
	got := p.Assign(&other)
	assert.Equal(t, []null.Val[int]{null.From(0), {}, {}, null.From(3)}, got)
}

func TestNew_InvalidConfig(t *testing.T) {
	ref := refTrace()
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero segments", Config{Policy: model.PolicyDistance, Segments: 0}},
		{"negative segments", Config{Policy: model.PolicyTime, Segments: -3}},
		{"unknown policy", Config{Policy: "speed", Segments: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&ref, tt.cfg)
			assert.ErrorIs(t, err, model.ErrInvalidPartitionConfig)
			var target *model.InvalidPartitionConfigError
			assert.True(t, errors.As(err, &target))
			assert.Equal(t, tt.cfg.Segments, target.Count)
		})
	}
}

func TestNew_ReferenceWithoutKeys(t *testing.T) {
	ref := basedata.Trace(basedata.Verstappen, model.Sample{Time: null.From(1.0)})
	_, err := New(&ref, Config{Policy: model.PolicyDistance, Segments: 4})
	assert.ErrorIs(t, err, model.ErrEmptyTrace)
}

func TestSegments(t *testing.T) {
	traces := []model.DriverTrace{refTrace()}
	got, err := Segments(traces, model.PolicyDistance, DefaultSegments)
	require.NoError(t, err)
	assert.Len(t, got, 20)
	assert.Equal(t, 0.0, got[0].Start)
	assert.Equal(t, 100.0, got[19].End)
	for i := 1; i < len(got); i++ {
		assert.Equal(t, got[i-1].End, got[i].Start)
	}

	_, err = Segments(nil, model.PolicyDistance, 4)
	assert.ErrorIs(t, err, model.ErrInvalidPartitionConfig)
}

func TestPartition_Angle(t *testing.T) {
	lap := basedata.SquareLap(basedata.Verstappen, 50)
	p, err := New(&lap, Config{Policy: model.PolicyAngle, Segments: 4})
	require.NoError(t, err)
	lo, hi := p.Range()
	assert.Equal(t, 0.0, lo)
	assert.InDelta(t, 2*math.Pi, hi, 1e-12)

	headings := Headings(&lap)
	_, ok := headings[0].Get()
	assert.False(t, ok, "first sample has no heading")

	tests := []struct {
		name    string
		sample  int
		heading float64
		segment int
	}{
		{"first side", 5, 0, 0},
		{"second side", 15, math.Pi / 2, 1},
		{"third side", 25, math.Pi, 2},
		{"fourth side", 35, 3 * math.Pi / 2, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ok := headings[tt.sample].Get()
			require.True(t, ok)
			assert.InDelta(t, tt.heading, h, 1e-9)
			// shift away from the boundary to avoid rounding issues
			assert.Equal(t, tt.segment, p.Index(h+0.1))
		})
	}
}

func TestHeadings_NoMovement(t *testing.T) {
	s := model.Sample{X: null.From(1.0), Y: null.From(1.0)}
	trace := basedata.Trace(basedata.Verstappen, s, s)
	h := Headings(&trace)
	assert.True(t, h[1].IsNull())
}
