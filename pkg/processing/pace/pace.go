package pace

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/mpapenbr/raceanalysis-service/pkg/model"
)

type Grouping string

const (
	ByDriver Grouping = "driver"
	ByTeam   Grouping = "team"
)

func ParseGrouping(s string) (Grouping, error) {
	switch g := Grouping(strings.ToLower(s)); g {
	case ByDriver, ByTeam:
		return g, nil
	}
	return "", fmt.Errorf("unknown grouping %q", s)
}

func (g Grouping) key(r *model.LapTimeRecord) string {
	if g == ByTeam {
		return r.Team
	}
	return r.DriverCode
}

type Result struct {
	Summaries []model.PaceSummary
	// entities with lap records but without a single usable lap
	Excluded []string
}

// Summarize computes a PaceSummary per driver or team over the usable laps.
// Entities appear in order of their first record. An entity without usable
// laps is not part of Summaries but listed in Excluded.
// If no entity remains a NoEligibleEntityError is returned.
func Summarize(records []model.LapTimeRecord, by Grouping) (*Result, error) {
	order := lo.Uniq(lo.Map(records, func(r model.LapTimeRecord, _ int) string {
		return by.key(&r)
	}))
	groups := lo.GroupBy(records, func(r model.LapTimeRecord) string {
		return by.key(&r)
	})
	ret := &Result{Summaries: []model.PaceSummary{}, Excluded: []string{}}
	for _, entity := range order {
		s, err := Summary(entity, LapTimes(groups[entity]))
		if err != nil {
			ret.Excluded = append(ret.Excluded, entity)
			continue
		}
		ret.Summaries = append(ret.Summaries, s)
	}
	if len(ret.Summaries) == 0 {
		return nil, &model.NoEligibleEntityError{Grouping: string(by)}
	}
	return ret, nil
}

// Lookup computes the summary of a single entity.
func Lookup(records []model.LapTimeRecord, by Grouping, entity string) (model.PaceSummary, error) {
	laps := LapTimes(lo.Filter(records, func(r model.LapTimeRecord, _ int) bool {
		return by.key(&r) == entity
	}))
	s, err := Summary(entity, laps)
	if err != nil {
		return model.PaceSummary{}, &model.NoEligibleEntityError{Entity: entity, Grouping: string(by)}
	}
	return s, nil
}

// LapTimes returns the usable lap times of records in record order.
func LapTimes(records []model.LapTimeRecord) []float64 {
	return lo.FilterMap(records, func(r model.LapTimeRecord, _ int) (float64, bool) {
		return r.Usable()
	})
}

// Summary computes the order statistics of laps.
func Summary(entity string, laps []float64) (model.PaceSummary, error) {
	if len(laps) == 0 {
		return model.PaceSummary{}, &model.NoEligibleEntityError{Entity: entity}
	}
	sorted := slices.Clone(laps)
	slices.Sort(sorted)
	return model.PaceSummary{
		EntityID: entity,
		Min:      sorted[0],
		Q1:       Quantile(sorted, 0.25),
		Median:   Quantile(sorted, 0.5),
		Q3:       Quantile(sorted, 0.75),
		Max:      sorted[len(sorted)-1],
		Laps:     len(sorted),
	}, nil
}

// Quantile computes the p-quantile of the ascending values using linear
// interpolation between the closest ranks: h = (n-1)*p.
// sorted must not be empty.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	h := float64(n-1) * p
	i := int(math.Floor(h))
	if i >= n-1 {
		return sorted[n-1]
	}
	lower, upper := sorted[i], sorted[i+1]
	v := lower + (h-float64(i))*(upper-lower)
	return math.Min(math.Max(v, lower), upper)
}

// SortByMedian orders summaries by ascending median, equal medians keep their order.
func SortByMedian(s []model.PaceSummary) {
	slices.SortStableFunc(s, func(a, b model.PaceSummary) int {
		return cmpFloat(a.Median, b.Median)
	})
}

// SortByBest orders summaries by ascending fastest lap.
func SortByBest(s []model.PaceSummary) {
	slices.SortStableFunc(s, func(a, b model.PaceSummary) int {
		return cmpFloat(a.Min, b.Min)
	})
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
