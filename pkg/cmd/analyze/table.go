package analyze

import (
	"fmt"
	"io"
	"strings"

	"github.com/aarondl/opt/null"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"

	"github.com/mpapenbr/raceanalysis-service/pkg/model"
)

// renderTable prints a condensed view of result
//
//nolint:funlen,cyclop // one case per result type
func renderTable(w io.Writer, result any) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	switch r := result.(type) {
	case *model.SpeedTrace:
		t.SetTitle(fmt.Sprintf("Speed trace %s %d", r.Session.Name, r.Session.Year))
		t.AppendHeader(table.Row{"Driver", "Lap time", "Min speed", "Max speed", "Points"})
		for _, d := range r.Drivers {
			speeds := lo.Map(d.Speed, func(p model.XY, _ int) float64 { return p.Y })
			t.AppendRow(table.Row{
				d.Code, fmtTime(d.LapTime),
				fmt.Sprintf("%.1f", lo.Min(speeds)), fmt.Sprintf("%.1f", lo.Max(speeds)),
				len(d.Speed),
			})
		}

	case *model.GearShiftMap:
		t.SetTitle(fmt.Sprintf("Gear shifts %s (%s)", r.Driver.Code, fmtTime(r.LapTime)))
		t.AppendHeader(table.Row{"Gear", "From", "To", "Points"})
		for _, run := range r.Runs {
			t.AppendRow(table.Row{run.Gear, run.First, run.Last, run.Last - run.First + 1})
		}

	case *model.TrackDominance:
		t.SetTitle(fmt.Sprintf("Track dominance %s %d (%s, reference %s)",
			r.Session.Name, r.Session.Year, r.Policy, r.Reference))
		drivers := lo.Map(r.Drivers, func(d model.DominanceDriver, _ int) string { return d.Code })
		header := table.Row{"Segment", "From", "To", "Fastest"}
		for _, d := range drivers {
			header = append(header, d)
		}
		t.AppendHeader(header)
		for _, s := range r.Segments {
			row := table.Row{
				s.SegmentIndex + 1,
				fmt.Sprintf("%.2f", s.Segment.Start), fmt.Sprintf("%.2f", s.Segment.End),
				s.FastestDriver.GetOr("-"),
			}
			for _, d := range drivers {
				if v, ok := s.TimeSpentByDriver[d]; ok {
					row = append(row, fmt.Sprintf("%.3f", v))
				} else {
					row = append(row, "-")
				}
			}
			t.AppendRow(row)
		}

	case *model.RacePace:
		t.SetTitle(fmt.Sprintf("Race pace %s %d", r.Session.Name, r.Session.Year))
		appendSummaryHeader(t, "Driver")
		for _, d := range r.Drivers {
			appendSummary(t, d.Summary)
		}
		if len(r.Excluded) > 0 {
			t.SetCaption("without valid laps: " + strings.Join(r.Excluded, ", "))
		}

	case *model.TeamPace:
		t.SetTitle(fmt.Sprintf("Team pace %s %d", r.Session.Name, r.Session.Year))
		appendSummaryHeader(t, "Team")
		for _, team := range r.Teams {
			appendSummary(t, team.Summary)
		}

	case *model.LapSections:
		t.SetTitle(fmt.Sprintf("Lap sections %s %d", r.Session.Name, r.Session.Year))
		t.AppendHeader(table.Row{"Section", "Driver", "Runs", "Duration"})
		for _, sec := range r.Sections {
			for _, d := range sec.Drivers {
				duration := lo.SumBy(d.Runs, func(run model.SectionRun) float64 {
					return run.End - run.Start
				})
				t.AppendRow(table.Row{sec.Name, d.Driver, len(d.Runs), fmt.Sprintf("%.3f", duration)})
			}
			t.AppendSeparator()
		}

	case *model.LapListing:
		t.SetTitle(fmt.Sprintf("Laps %s %d", r.Session.Name, r.Session.Year))
		t.AppendHeader(table.Row{"Driver", "Team", "Lap", "Time", "Compound", "Valid"})
		for _, l := range r.Laps {
			t.AppendRow(table.Row{l.DriverCode, l.Team, l.LapNumber, fmtTime(l.LapTime), l.Compound, l.IsValid})
		}

	default:
		return fmt.Errorf("no table layout for %T", result)
	}
	t.Render()
	return nil
}

func appendSummaryHeader(t table.Writer, entity string) {
	t.AppendHeader(table.Row{entity, "Min", "Q1", "Median", "Q3", "Max", "Laps"})
}

func appendSummary(t table.Writer, s model.PaceSummary) {
	t.AppendRow(table.Row{
		s.EntityID,
		fmtSeconds(s.Min), fmtSeconds(s.Q1), fmtSeconds(s.Median),
		fmtSeconds(s.Q3), fmtSeconds(s.Max), s.Laps,
	})
}

func fmtTime(v null.Val[float64]) string {
	if t, ok := v.Get(); ok {
		return fmtSeconds(t)
	}
	return "-"
}

// fmtSeconds formats 90.7 as 1:30.700
func fmtSeconds(t float64) string {
	minutes := int(t / 60)
	return fmt.Sprintf("%d:%06.3f", minutes, t-float64(minutes*60))
}
