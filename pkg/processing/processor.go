package processing

import (
	"errors"

	"github.com/samber/lo"

	"github.com/mpapenbr/raceanalysis-service/log"
	"github.com/mpapenbr/raceanalysis-service/pkg/colors"
	"github.com/mpapenbr/raceanalysis-service/pkg/model"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing/align"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing/dominance"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing/geometry"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing/pace"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing/partition"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing/sections"
)

type Config struct {
	Partition  partition.Config
	Thresholds sections.Thresholds
	// number of drivers used when a request names none
	SpeedTraceDrivers int
	DominanceDrivers  int
	RacePaceDrivers   int
	SectionDrivers    int
}

func DefaultConfig() Config {
	return Config{
		Partition:         partition.DefaultConfig(),
		Thresholds:        sections.DefaultThresholds(),
		SpeedTraceDrivers: 2,
		DominanceDrivers:  3,
		RacePaceDrivers:   10,
		SectionDrivers:    5,
	}
}

// Processor composes the analysis components into the results delivered to clients.
// It works on session data already fetched from a provider and holds no state.
type Processor struct {
	cfg    Config
	colors colors.Lookup
	log    *log.Logger
}

type ProcessorOption func(proc *Processor)

func WithConfig(cfg Config) ProcessorOption {
	return func(proc *Processor) {
		proc.cfg = cfg
	}
}

func WithColors(l colors.Lookup) ProcessorOption {
	return func(proc *Processor) {
		proc.colors = l
	}
}

func WithLogger(l *log.Logger) ProcessorOption {
	return func(proc *Processor) {
		proc.log = l
	}
}

func NewProcessor(opts ...ProcessorOption) *Processor {
	ret := &Processor{
		cfg:    DefaultConfig(),
		colors: colors.NewStatic(),
		log:    log.Default().Named("analysis"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (p *Processor) Config() Config {
	return p.cfg
}

// SpeedTrace aligns speed, throttle and brake of the requested drivers.
// At least the speed channel must carry 2 valid samples for each driver.
func (p *Processor) SpeedTrace(
	data *model.SessionData,
	drivers []string,
	axis model.Axis,
) (*model.SpeedTrace, error) {
	if len(drivers) == 0 {
		var err error
		if drivers, err = p.fastestWithTrace(data, p.cfg.SpeedTraceDrivers); err != nil {
			return nil, err
		}
	}
	traces, err := Traces(data, drivers)
	if err != nil {
		return nil, err
	}
	speed, err := align.Align(traces, axis, model.ChannelSpeed)
	if err != nil {
		return nil, err
	}
	ret := &model.SpeedTrace{
		Session: data.Ref(),
		Axis:    axis,
		Drivers: make([]model.SpeedTraceDriver, len(traces)),
		Corners: data.Circuit.Corners,
	}
	if ret.Corners == nil {
		ret.Corners = []model.Corner{}
	}
	for i := range traces {
		info := p.driverInfo(data, traces[i].Driver.Code)
		ret.Drivers[i] = model.SpeedTraceDriver{
			Code:     info.Code,
			Name:     info.Name,
			Color:    info.Color,
			LapTime:  traces[i].LapTime,
			Speed:    speed[i].Points,
			Throttle: align.Points(&traces[i], axis, model.ChannelThrottle),
			Brake:    align.Points(&traces[i], axis, model.ChannelBrake),
		}
	}
	p.log.Debug("speed trace computed",
		log.String("session", data.Key.String()),
		log.Strings("drivers", drivers))
	return ret, nil
}

// GearShifts returns the gear used along the track by driver.
func (p *Processor) GearShifts(data *model.SessionData, driver string) (*model.GearShiftMap, error) {
	traces, err := Traces(data, []string{driver})
	if err != nil {
		return nil, err
	}
	trace := &traces[0]
	track, err := geometry.Build(trace)
	if err != nil {
		return nil, err
	}
	gears, runs, err := geometry.GearMap(trace)
	if err != nil {
		return nil, err
	}
	return &model.GearShiftMap{
		Session: data.Ref(),
		Driver:  p.driverInfo(data, driver),
		LapTime: trace.LapTime,
		Track:   track,
		Gears:   gears,
		Runs:    runs,
	}, nil
}

// TrackDominance partitions the lap of the first driver into mini-sectors
// and determines the fastest driver for each of them.
func (p *Processor) TrackDominance(
	data *model.SessionData,
	drivers []string,
	cfg partition.Config,
) (*model.TrackDominance, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(drivers) == 0 {
		var err error
		if drivers, err = p.fastestWithTrace(data, p.cfg.DominanceDrivers); err != nil {
			return nil, err
		}
	}
	traces, err := Traces(data, drivers)
	if err != nil {
		return nil, err
	}
	ref := &traces[0]
	track, err := geometry.Build(ref)
	if err != nil {
		return nil, err
	}
	part, err := partition.New(ref, cfg)
	if err != nil {
		return nil, err
	}
	results := dominance.Resolve(part, traces)
	if err := dominance.Absent(part, traces, results); err != nil {
		return nil, err
	}

	byCode := make(map[string]int, len(traces))
	infos := make([]model.DriverInfo, len(traces))
	paths := make([][][]model.Point, len(traces))
	for i := range traces {
		byCode[traces[i].Driver.Code] = i
		infos[i] = p.driverInfo(data, traces[i].Driver.Code)
	}
	pathsOf := func(i int) [][]model.Point {
		if paths[i] == nil {
			paths[i] = dominance.Paths(part, &traces[i])
		}
		return paths[i]
	}

	ret := &model.TrackDominance{
		Session:   data.Ref(),
		Policy:    cfg.Policy,
		Reference: ref.Driver.Code,
		Track:     track,
		Segments:  make([]model.DominanceSegment, len(results)),
		Drivers:   make([]model.DominanceDriver, len(traces)),
	}
	for i, r := range results {
		// segments without a winner are drawn with the reference lap
		idx, color := 0, colors.Default
		if code, ok := r.FastestDriver.Get(); ok {
			idx = byCode[code]
			color = infos[idx].Color
		}
		ret.Segments[i] = model.DominanceSegment{
			SegmentResult: r,
			Segment:       part.Segments[i],
			Color:         color,
			Path:          pathsOf(idx)[i],
		}
	}
	for i := range traces {
		ret.Drivers[i] = model.DominanceDriver{
			DriverInfo: infos[i],
			LapTime:    traces[i].LapTime,
			Sector1:    traces[i].Sector1,
			Sector2:    traces[i].Sector2,
			Sector3:    traces[i].Sector3,
		}
	}
	p.log.Debug("track dominance computed",
		log.String("session", data.Key.String()),
		log.String("partition", cfg.String()),
		log.Strings("drivers", drivers))
	return ret, nil
}

// RacePace returns the lap time distribution of the requested drivers.
// Without drivers the fastest ones are used, ordered by median.
// Drivers without a valid lap are reported in Excluded.
func (p *Processor) RacePace(data *model.SessionData, drivers []string) (*model.RacePace, error) {
	res, err := pace.Summarize(data.Laps, pace.ByDriver)
	if err != nil {
		return nil, err
	}
	summaries := lo.SliceToMap(res.Summaries, func(s model.PaceSummary) (string, model.PaceSummary) {
		return s.EntityID, s
	})

	var selected []model.PaceSummary
	excluded := []string{}
	if len(drivers) == 0 {
		selected = append(selected, res.Summaries...)
		pace.SortByBest(selected)
		selected = lo.Slice(selected, 0, p.cfg.RacePaceDrivers)
		pace.SortByMedian(selected)
		excluded = append(excluded, res.Excluded...)
	} else {
		for _, code := range lo.Uniq(drivers) {
			if s, ok := summaries[code]; ok {
				selected = append(selected, s)
			} else {
				excluded = append(excluded, code)
			}
		}
		if len(selected) == 0 {
			return nil, &model.NoEligibleEntityError{Grouping: string(pace.ByDriver)}
		}
	}

	ret := &model.RacePace{
		Session:  data.Ref(),
		Drivers:  make([]model.PaceDistribution, len(selected)),
		Excluded: excluded,
	}
	for i, s := range selected {
		laps := lo.Filter(data.Laps, func(r model.LapTimeRecord, _ int) bool {
			_, ok := r.Usable()
			return ok && r.DriverCode == s.EntityID
		})
		ret.Drivers[i] = model.PaceDistribution{
			DriverInfo: p.driverInfo(data, s.EntityID),
			LapTimes:   pace.LapTimes(laps),
			Compounds: lo.Map(laps, func(r model.LapTimeRecord, _ int) model.Compound {
				return r.Compound
			}),
			Summary: s,
		}
	}
	return ret, nil
}

// TeamPace summarizes the valid laps per team, fastest median first.
func (p *Processor) TeamPace(data *model.SessionData) (*model.TeamPace, error) {
	res, err := pace.Summarize(data.Laps, pace.ByTeam)
	if err != nil {
		return nil, err
	}
	pace.SortByMedian(res.Summaries)
	return &model.TeamPace{
		Session: data.Ref(),
		Teams: lo.Map(res.Summaries, func(s model.PaceSummary, _ int) model.TeamPaceEntry {
			return model.TeamPaceEntry{
				Name:    s.EntityID,
				Color:   colors.ForTeam(p.colors, data.Key.Year, s.EntityID),
				Summary: s,
			}
		}),
		Excluded: res.Excluded,
	}, nil
}

// LapSections splits the laps of the drivers into braking, cornering,
// acceleration and full throttle runs.
func (p *Processor) LapSections(data *model.SessionData, drivers []string) (*model.LapSections, error) {
	if len(drivers) == 0 {
		drivers = p.sectionDefaults(data)
		if len(drivers) == 0 {
			return nil, &model.NoEligibleEntityError{Grouping: string(pace.ByDriver)}
		}
	}
	traces, err := Traces(data, drivers)
	if err != nil {
		return nil, err
	}
	splits := make([]map[model.Section][]model.SectionRun, len(traces))
	infos := make([]model.DriverInfo, len(traces))
	for i := range traces {
		splits[i] = sections.Split(&traces[i], p.cfg.Thresholds)
		infos[i] = p.driverInfo(data, traces[i].Driver.Code)
	}
	ret := &model.LapSections{
		Session:  data.Ref(),
		Sections: make([]model.LapSection, len(model.Sections)),
	}
	for si, section := range model.Sections {
		series := make([]model.SectionSeries, len(traces))
		for i := range traces {
			series[i] = model.SectionSeries{
				Driver: infos[i].Code,
				Color:  infos[i].Color,
				Runs:   splits[i][section],
			}
		}
		ret.Sections[si] = model.LapSection{Name: section, Drivers: series}
	}
	return ret, nil
}

// Laps lists all lap records of the session including invalid ones.
func (p *Processor) Laps(data *model.SessionData) *model.LapListing {
	laps := make([]model.LapTimeRecord, len(data.Laps))
	copy(laps, data.Laps)
	return &model.LapListing{Session: data.Ref(), Laps: laps}
}

// first drivers in record order having a valid lap and a trace
func (p *Processor) sectionDefaults(data *model.SessionData) []string {
	codes := lo.Uniq(lo.FilterMap(data.Laps, func(r model.LapTimeRecord, _ int) (string, bool) {
		_, ok := r.Usable()
		return r.DriverCode, ok
	}))
	codes = lo.Filter(codes, func(code string, _ int) bool {
		_, ok := data.Trace(code)
		return ok
	})
	return lo.Slice(codes, 0, p.cfg.SectionDrivers)
}

func (p *Processor) fastestWithTrace(data *model.SessionData, n int) ([]string, error) {
	codes, err := FastestDrivers(data.Laps, len(data.Laps))
	if err != nil {
		return nil, err
	}
	codes = lo.Filter(codes, func(code string, _ int) bool {
		_, ok := data.Trace(code)
		return ok
	})
	if len(codes) == 0 {
		return nil, &model.NoEligibleEntityError{Grouping: string(pace.ByDriver)}
	}
	return lo.Slice(codes, 0, n), nil
}

func (p *Processor) driverInfo(data *model.SessionData, code string) model.DriverInfo {
	info, _ := data.Driver(code)
	info.Color = colors.ForDriver(p.colors, data.Key.Year, info)
	return info
}

// Traces picks the traces of drivers in the given order. Duplicates are ignored.
// Every driver without a trace is reported by an EmptyTraceError.
func Traces(data *model.SessionData, drivers []string) ([]model.DriverTrace, error) {
	drivers = lo.Uniq(drivers)
	if len(drivers) == 0 {
		return nil, &model.NoEligibleEntityError{Grouping: string(pace.ByDriver)}
	}
	ret := make([]model.DriverTrace, 0, len(drivers))
	var errs []error
	for _, code := range drivers {
		t, ok := data.Trace(code)
		if !ok {
			errs = append(errs, &model.EmptyTraceError{Driver: code})
			continue
		}
		ret = append(ret, *t)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return ret, nil
}

// FastestDrivers returns up to n drivers ordered by their best valid lap.
func FastestDrivers(laps []model.LapTimeRecord, n int) ([]string, error) {
	res, err := pace.Summarize(laps, pace.ByDriver)
	if err != nil {
		return nil, err
	}
	pace.SortByBest(res.Summaries)
	return lo.Map(lo.Slice(res.Summaries, 0, n), func(s model.PaceSummary, _ int) string {
		return s.EntityID
	}), nil
}
