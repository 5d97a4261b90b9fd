package partition

import (
	"fmt"
	"math"

	"github.com/aarondl/opt/null"
	"gonum.org/v1/gonum/floats"

	"github.com/mpapenbr/raceanalysis-service/pkg/model"
)

const DefaultSegments = 20

type Config struct {
	Policy   model.PartitionPolicy
	Segments int
}

func DefaultConfig() Config {
	return Config{Policy: model.PolicyDistance, Segments: DefaultSegments}
}

func (c Config) String() string {
	return fmt.Sprintf("%s:%d", c.Policy, c.Segments)
}

func (c Config) Validate() error {
	if c.Segments < 1 {
		return &model.InvalidPartitionConfigError{Count: c.Segments, Policy: c.Policy}
	}
	switch c.Policy {
	case model.PolicyDistance, model.PolicyTime, model.PolicyAngle:
		return nil
	}
	return &model.InvalidPartitionConfigError{
		Count:  c.Segments,
		Policy: c.Policy,
		Reason: "unknown policy",
	}
}

// Partition holds N segment boundaries computed from a reference lap.
// The same boundaries are used for every other driver.
type Partition struct {
	Policy   model.PartitionPolicy
	Segments []model.Segment
	lo, hi   float64
}

// New computes the segment boundaries on the reference lap.
// Distance and time span [min, max] of the reference values, angle always
// spans the full circle [0, 2π].
func New(ref *model.DriverTrace, cfg Config) (*Partition, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Partition{Policy: cfg.Policy}
	if cfg.Policy == model.PolicyAngle {
		p.lo, p.hi = 0, 2*math.Pi
	} else {
		values := []float64{}
		for _, k := range p.Keys(ref) {
			if v, ok := k.Get(); ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			return nil, &model.EmptyTraceError{Driver: ref.Driver.Code, Channel: p.Channel()}
		}
		p.lo, p.hi = floats.Min(values), floats.Max(values)
	}

	n := cfg.Segments
	bound := func(i int) float64 {
		if i == n {
			return p.hi
		}
		return p.lo + (p.hi-p.lo)*float64(i)/float64(n)
	}
	p.Segments = make([]model.Segment, n)
	for i := range p.Segments {
		p.Segments[i] = model.Segment{Index: i, Start: bound(i), End: bound(i + 1)}
	}
	return p, nil
}

// Segments computes the partition with traces[0] as reference lap.
func Segments(traces []model.DriverTrace, policy model.PartitionPolicy, n int) ([]model.Segment, error) {
	cfg := Config{Policy: policy, Segments: n}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(traces) == 0 {
		return nil, &model.InvalidPartitionConfigError{
			Count: n, Policy: policy, Reason: "no reference lap",
		}
	}
	p, err := New(&traces[0], cfg)
	if err != nil {
		return nil, err
	}
	return p.Segments, nil
}

func (p *Partition) Count() int {
	return len(p.Segments)
}

func (p *Partition) Range() (lo, hi float64) {
	return p.lo, p.hi
}

// Index maps a binning value to its segment: floor((v-lo)/(hi-lo)*N),
// clamped to [0, N-1]. Values outside the reference range end up in the
// first or last segment. Inside the range Start <= v < End holds for the
// returned segment.
func (p *Partition) Index(v float64) int {
	n := len(p.Segments)
	if p.hi <= p.lo {
		return 0
	}
	idx := max(0, min(int(math.Floor((v-p.lo)*float64(n)/(p.hi-p.lo))), n-1))
	// rounding may disagree with the reported boundaries by one segment
	if idx > 0 && v < p.Segments[idx].Start {
		idx--
	} else if idx < n-1 && v >= p.Segments[idx+1].Start {
		idx++
	}
	return idx
}

// Assign returns the segment index of each sample of trace.
// Samples without a binning value get no segment.
func (p *Partition) Assign(trace *model.DriverTrace) []null.Val[int] {
	keys := p.Keys(trace)
	ret := make([]null.Val[int], len(keys))
	for i, k := range keys {
		if v, ok := k.Get(); ok {
			ret[i] = null.From(p.Index(v))
		}
	}
	return ret
}

// Keys returns the binning value for each sample of trace according to the policy.
func (p *Partition) Keys(trace *model.DriverTrace) []null.Val[float64] {
	if p.Policy == model.PolicyAngle {
		return Headings(trace)
	}
	ch := p.Channel()
	ret := make([]null.Val[float64], len(trace.Samples))
	for i := range trace.Samples {
		if v, ok := trace.Samples[i].Value(ch); ok {
			ret[i] = null.From(v)
		}
	}
	return ret
}

// Channel is the sample channel the policy bins on, x stands for the position.
func (p *Partition) Channel() model.Channel {
	switch p.Policy {
	case model.PolicyTime:
		return model.ChannelTime
	case model.PolicyAngle:
		return model.ChannelX
	default:
		return model.ChannelDistance
	}
}

// Headings computes atan2(dy, dx) between each sample and the previous sample
// with a valid position, normalized to [0, 2π).
// The first valid sample has no heading, neither has a sample that did not move.
func Headings(trace *model.DriverTrace) []null.Val[float64] {
	ret := make([]null.Val[float64], len(trace.Samples))
	var prevX, prevY float64
	havePrev := false
	for i := range trace.Samples {
		x, y, ok := trace.Samples[i].Position()
		if !ok {
			continue
		}
		if havePrev {
			dx, dy := x-prevX, y-prevY
			if dx != 0 || dy != 0 {
				ret[i] = null.From(normalize(math.Atan2(dy, dx)))
			}
		}
		prevX, prevY, havePrev = x, y, true
	}
	return ret
}

// normalize maps atan2 results from (-π, π] to [0, 2π)
func normalize(a float64) float64 {
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		return 0
	}
	return a
}
