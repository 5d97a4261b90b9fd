package model

import "github.com/aarondl/opt/null"

type Axis string

const (
	AxisDistance Axis = "distance"
	AxisTime     Axis = "time"
)

type Section string

const (
	SectionBraking      Section = "braking"
	SectionCornering    Section = "cornering"
	SectionAcceleration Section = "acceleration"
	SectionFullThrottle Section = "full_throttle"
)

// Sections in display order
var Sections = []Section{
	SectionBraking, SectionCornering, SectionAcceleration, SectionFullThrottle,
}

type XY struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type AlignedTrace struct {
	Driver  string  `json:"driver"`
	Axis    Axis    `json:"axis"`
	Channel Channel `json:"channel"`
	Points  []XY    `json:"points"`
}

type SpeedTraceDriver struct {
	Code     string            `json:"code"`
	Name     string            `json:"name"`
	Color    string            `json:"color"`
	LapTime  null.Val[float64] `json:"lapTime"`
	Speed    []XY              `json:"speed"`
	Throttle []XY              `json:"throttle"`
	Brake    []XY              `json:"brake"`
}

type SpeedTrace struct {
	Session SessionRef         `json:"session"`
	Axis    Axis               `json:"axis"`
	Drivers []SpeedTraceDriver `json:"drivers"`
	Corners []Corner           `json:"corners"`
}

type GearPoint struct {
	X        float64           `json:"x"`
	Y        float64           `json:"y"`
	Gear     int               `json:"gear"`
	Speed    null.Val[float64] `json:"speed"`
	Distance null.Val[float64] `json:"distance"`
}

// GearRun spans the points First..Last (inclusive) driven in the same gear.
type GearRun struct {
	Gear  int `json:"gear"`
	First int `json:"first"`
	Last  int `json:"last"`
}

type GearShiftMap struct {
	Session SessionRef        `json:"session"`
	Driver  DriverInfo        `json:"driver"`
	LapTime null.Val[float64] `json:"lapTime"`
	Track   TrackGeometry     `json:"track"`
	Gears   []GearPoint       `json:"gears"`
	Runs    []GearRun         `json:"runs"`
}

type DominanceSegment struct {
	SegmentResult
	Segment Segment `json:"segment"`
	Color   string  `json:"color"`
	Path    []Point `json:"path"`
}

type DominanceDriver struct {
	DriverInfo
	LapTime null.Val[float64] `json:"lapTime"`
	Sector1 null.Val[float64] `json:"sector1"`
	Sector2 null.Val[float64] `json:"sector2"`
	Sector3 null.Val[float64] `json:"sector3"`
}

type TrackDominance struct {
	Session   SessionRef         `json:"session"`
	Policy    PartitionPolicy    `json:"policy"`
	Reference string             `json:"reference"`
	Track     TrackGeometry      `json:"track"`
	Segments  []DominanceSegment `json:"miniSectors"`
	Drivers   []DominanceDriver  `json:"drivers"`
}

type PaceDistribution struct {
	DriverInfo
	LapTimes  []float64   `json:"lapTimes"`
	Compounds []Compound  `json:"compounds"`
	Summary   PaceSummary `json:"summary"`
}

type RacePace struct {
	Session  SessionRef         `json:"session"`
	Drivers  []PaceDistribution `json:"drivers"`
	Excluded []string           `json:"excluded"`
}

type TeamPaceEntry struct {
	Name    string      `json:"name"`
	Color   string      `json:"color"`
	Summary PaceSummary `json:"lapTimes"`
}

type TeamPace struct {
	Session  SessionRef      `json:"session"`
	Teams    []TeamPaceEntry `json:"teams"`
	Excluded []string        `json:"excluded"`
}

// SectionRun is a maximal contiguous run of samples carrying the same section label.
type SectionRun struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Points []XY    `json:"points"` // (time, speed)
}

type SectionSeries struct {
	Driver string       `json:"code"`
	Color  string       `json:"color"`
	Runs   []SectionRun `json:"runs"`
}

type LapSection struct {
	Name    Section         `json:"name"`
	Drivers []SectionSeries `json:"drivers"`
}

type LapSections struct {
	Session  SessionRef   `json:"session"`
	Sections []LapSection `json:"sections"`
}

type LapListing struct {
	Session SessionRef      `json:"session"`
	Laps    []LapTimeRecord `json:"laps"`
}
