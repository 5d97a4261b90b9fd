package colors

import (
	"strings"

	"github.com/mpapenbr/raceanalysis-service/pkg/model"
)

// Default is used if neither driver nor team have a known color.
const Default = "white"

// Lookup provides display colors. The values are passed through unmodified.
type Lookup interface {
	DriverColor(year int, code string) (string, bool)
	TeamColor(year int, team string) (string, bool)
}

// DefaultTeams holds the team colors of recent seasons.
var DefaultTeams = map[string]string{
	"Red Bull Racing": "#3671C6",
	"Ferrari":         "#E8002D",
	"Mercedes":        "#27F4D2",
	"McLaren":         "#FF8000",
	"Aston Martin":    "#229971",
	"Alpine":          "#FF87BC",
	"Williams":        "#64C4FF",
	"RB":              "#6692FF",
	"AlphaTauri":      "#5E8FAA",
	"Kick Sauber":     "#52E252",
	"Alfa Romeo":      "#C92D4B",
	"Haas F1 Team":    "#B6BABD",
}

type Option func(*Static)

// Static is a Lookup backed by fixed maps. Names are matched case-insensitive.
// Colors registered for a specific year take precedence.
type Static struct {
	teams   map[string]string
	drivers map[string]string
	years   map[int]*Static
}

func WithTeamColors(m map[string]string) Option {
	return func(s *Static) {
		for k, v := range m {
			s.teams[norm(k)] = v
		}
	}
}

func WithDriverColors(m map[string]string) Option {
	return func(s *Static) {
		for k, v := range m {
			s.drivers[norm(k)] = v
		}
	}
}

func WithYear(year int, opts ...Option) Option {
	return func(s *Static) {
		y, ok := s.years[year]
		if !ok {
			y = newEmpty()
			s.years[year] = y
		}
		for _, opt := range opts {
			opt(y)
		}
	}
}

func NewStatic(opts ...Option) *Static {
	ret := newEmpty()
	WithTeamColors(DefaultTeams)(ret)
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func newEmpty() *Static {
	return &Static{
		teams:   map[string]string{},
		drivers: map[string]string{},
		years:   map[int]*Static{},
	}
}

func (s *Static) DriverColor(year int, code string) (string, bool) {
	if y, ok := s.years[year]; ok {
		if c, ok := y.drivers[norm(code)]; ok {
			return c, true
		}
	}
	c, ok := s.drivers[norm(code)]
	return c, ok
}

func (s *Static) TeamColor(year int, team string) (string, bool) {
	if y, ok := s.years[year]; ok {
		if c, ok := y.teams[norm(team)]; ok {
			return c, true
		}
	}
	c, ok := s.teams[norm(team)]
	return c, ok
}

// ForDriver resolves the color of a driver. Order: driver color, team color,
// color delivered by the provider, Default.
func ForDriver(l Lookup, year int, d model.DriverInfo) string {
	if l != nil {
		if c, ok := l.DriverColor(year, d.Code); ok {
			return c
		}
		if c, ok := l.TeamColor(year, d.Team); ok {
			return c
		}
	}
	if d.Color != "" {
		return d.Color
	}
	return Default
}

func ForTeam(l Lookup, year int, team string) string {
	if l != nil {
		if c, ok := l.TeamColor(year, team); ok {
			return c
		}
	}
	return Default
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
