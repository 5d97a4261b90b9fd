// Package chart renders analysis results as standalone echarts html pages.
package chart

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/samber/lo"

	"github.com/mpapenbr/raceanalysis-service/pkg/model"
)

var ErrNotChartable = errors.New("no chart available")

var gearColors = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// Render writes an html page with the charts of result
func Render(w io.Writer, result any) error {
	var c []components.Charter
	switch r := result.(type) {
	case *model.SpeedTrace:
		c = append(c, SpeedTrace(r))
	case *model.GearShiftMap:
		c = append(c, GearShifts(r))
	case *model.TrackDominance:
		c = append(c, TrackDominance(r))
	case *model.RacePace:
		c = append(c, RacePace(r))
	case *model.TeamPace:
		c = append(c, TeamPace(r))
	case *model.LapSections:
		c = append(c, LapSections(r)...)
	default:
		return fmt.Errorf("%w for %T", ErrNotChartable, result)
	}
	page := components.NewPage()
	page.AddCharts(c...)
	return page.Render(w)
}

func title(ref model.SessionRef, what string) opts.Title {
	return opts.Title{Title: what, Subtitle: fmt.Sprintf("%s %d", ref.Name, ref.Year)}
}

func xyData(points []model.XY) []opts.LineData {
	return lo.Map(points, func(p model.XY, _ int) opts.LineData {
		return opts.LineData{Value: []any{p.X, p.Y}}
	})
}

func SpeedTrace(st *model.SpeedTrace) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(title(st.Session, "Speed trace")),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: string(st.Axis)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "km/h"}),
	)
	corners := lo.Map(st.Corners, func(c model.Corner, _ int) opts.MarkLineNameXAxisItem {
		return opts.MarkLineNameXAxisItem{Name: fmt.Sprintf("%d%s", c.Number, c.Letter), XAxis: c.Distance}
	})
	for i, d := range st.Drivers {
		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: d.Color, Width: 2}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: d.Color}),
		}
		// corner distances only make sense on the distance axis
		if i == 0 && st.Axis == model.AxisDistance && len(corners) > 0 {
			seriesOpts = append(seriesOpts, charts.WithMarkLineNameXAxisItemOpts(corners...))
		}
		line.AddSeries(d.Code, xyData(d.Speed), seriesOpts...)
	}
	return line
}

func GearShifts(gm *model.GearShiftMap) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "800px", Height: "800px"}),
		charts.WithTitleOpts(title(gm.Session, "Gear shifts "+gm.Driver.Code)),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Scale: opts.Bool(true)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        1,
			Max:        8,
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: gearColors},
		}),
	)
	data := lo.Map(gm.Gears, func(g model.GearPoint, _ int) opts.ScatterData {
		return opts.ScatterData{Value: []any{g.X, g.Y, g.Gear}}
	})
	scatter.AddSeries("gear", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	return scatter
}

// TrackDominance draws the path of every mini sector in the color of its
// fastest driver
func TrackDominance(td *model.TrackDominance) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "800px", Height: "800px"}),
		charts.WithTitleOpts(title(td.Session, fmt.Sprintf("Track dominance (%s)", td.Policy))),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Scale: opts.Bool(true)}),
	)
	for _, s := range td.Segments {
		data := lo.Map(s.Path, func(p model.Point, _ int) opts.LineData {
			return opts.LineData{Value: []any{p.X, p.Y}}
		})
		name := s.FastestDriver.GetOr("-")
		line.AddSeries(fmt.Sprintf("%d %s", s.SegmentIndex+1, name), data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: s.Color, Width: 6}),
		)
	}
	return line
}

func boxData(s model.PaceSummary) opts.BoxPlotData {
	return opts.BoxPlotData{Name: s.EntityID, Value: []float64{s.Min, s.Q1, s.Median, s.Q3, s.Max}}
}

func RacePace(rp *model.RacePace) *charts.BoxPlot {
	box := charts.NewBoxPlot()
	box.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(title(rp.Session, "Race pace")),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "s", Scale: opts.Bool(true)}),
	)
	box.SetXAxis(lo.Map(rp.Drivers, func(d model.PaceDistribution, _ int) string { return d.Code })).
		AddSeries("lap times", lo.Map(rp.Drivers, func(d model.PaceDistribution, _ int) opts.BoxPlotData {
			return boxData(d.Summary)
		}))
	return box
}

func TeamPace(tp *model.TeamPace) *charts.BoxPlot {
	box := charts.NewBoxPlot()
	box.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(title(tp.Session, "Team pace")),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "s", Scale: opts.Bool(true)}),
	)
	box.SetXAxis(lo.Map(tp.Teams, func(t model.TeamPaceEntry, _ int) string { return t.Name })).
		AddSeries("lap times", lo.Map(tp.Teams, func(t model.TeamPaceEntry, _ int) opts.BoxPlotData {
			return boxData(t.Summary)
		}))
	return box
}

// LapSections returns one chart per section, runs are drawn as speed over lap time
func LapSections(ls *model.LapSections) []components.Charter {
	return lo.Map(ls.Sections, func(sec model.LapSection, _ int) components.Charter {
		scatter := charts.NewScatter()
		scatter.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
			charts.WithTitleOpts(title(ls.Session, string(sec.Name))),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "s"}),
			charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "km/h"}),
		)
		for _, d := range sec.Drivers {
			data := lo.FlatMap(d.Runs, func(r model.SectionRun, _ int) []opts.ScatterData {
				return lo.Map(r.Points, func(p model.XY, _ int) opts.ScatterData {
					return opts.ScatterData{Value: []any{p.X, p.Y}}
				})
			})
			scatter.AddSeries(d.Driver, data,
				charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: d.Color}),
			)
		}
		return scatter
	})
}
