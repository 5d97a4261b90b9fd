package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/raceanalysis-service/log"
	"github.com/mpapenbr/raceanalysis-service/pkg/chart"
	"github.com/mpapenbr/raceanalysis-service/pkg/cmd/util"
	"github.com/mpapenbr/raceanalysis-service/pkg/config"
	"github.com/mpapenbr/raceanalysis-service/pkg/model"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing"
	"github.com/mpapenbr/raceanalysis-service/pkg/provider/file"
	"github.com/mpapenbr/raceanalysis-service/pkg/service/analysis"
)

const (
	outputJSON  = "json"
	outputTable = "table"
	outputHTML  = "html"
)

type analyzeConfig struct {
	year    int
	race    string
	session string
	drivers []string
	axis    string
	output  string
	outFile string
}

var kinds = []string{
	analysis.KindSpeedTrace,
	analysis.KindGearShifts,
	analysis.KindTrackDominance,
	analysis.KindRacePace,
	analysis.KindTeamPace,
	analysis.KindLapSections,
	analysis.KindLaps,
}

func NewAnalyzeCmd() *cobra.Command {
	cfg := analyzeConfig{}
	cmd := &cobra.Command{
		Use:       "analyze <type>",
		Short:     "runs one analysis on a session archive",
		Long:      "Available types: " + strings.Join(kinds, ", "),
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			util.SetupLogger()
			procCfg, err := util.ProcessorConfig()
			if err != nil {
				return err
			}
			svc := analysis.NewService(
				analysis.WithProvider(file.New(config.DataDir)),
				analysis.WithProcessor(util.NewProcessor(procCfg)),
			)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runAnalysis(ctx, svc, args[0], &cfg, procCfg, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&cfg.year, "year", "y", 0, "season")
	cmd.Flags().StringVarP(&cfg.race, "race", "r", "", "race name as used by the archive")
	cmd.Flags().StringVarP(&cfg.session, "session", "s", "R", "session (R, Q, FP1, ...)")
	cmd.Flags().StringSliceVarP(&cfg.drivers, "drivers", "d", []string{},
		"driver codes (comma separated or repeated)")
	cmd.Flags().StringVar(&cfg.axis, "axis", string(model.AxisDistance),
		"x axis of the speed trace (distance, time)")
	cmd.Flags().StringVarP(&cfg.output, "output", "o", outputTable, "output format (json, table, html)")
	cmd.Flags().StringVar(&cfg.outFile, "out", "", "write output to file instead of stdout")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("race")
	return cmd
}

//nolint:whitespace // can't make both editor and linter happy
func runAnalysis(
	ctx context.Context,
	svc *analysis.Service,
	kind string,
	cfg *analyzeConfig,
	procCfg processing.Config,
	stdout io.Writer,
) error {
	key := model.SessionKey{Year: cfg.year, Race: cfg.race, Session: strings.ToUpper(cfg.session)}
	drivers := lo.Uniq(lo.Map(cfg.drivers, func(s string, _ int) string {
		return strings.ToUpper(strings.TrimSpace(s))
	}))
	log.Debug("running analysis",
		log.String("kind", kind),
		log.String("session", key.String()),
		log.Strings("drivers", drivers))

	result, err := compute(ctx, svc, kind, key, drivers, cfg, procCfg)
	if err != nil {
		return err
	}

	w := stdout
	if cfg.outFile != "" {
		f, err := os.Create(cfg.outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return write(w, cfg.output, result)
}

//nolint:whitespace,cyclop // can't make both editor and linter happy
func compute(
	ctx context.Context,
	svc *analysis.Service,
	kind string,
	key model.SessionKey,
	drivers []string,
	cfg *analyzeConfig,
	procCfg processing.Config,
) (any, error) {
	switch kind {
	case analysis.KindSpeedTrace:
		return svc.SpeedTrace(ctx, key, drivers, model.Axis(strings.ToLower(cfg.axis)))
	case analysis.KindGearShifts:
		if len(drivers) != 1 {
			return nil, fmt.Errorf("%s needs exactly one driver", kind)
		}
		return svc.GearShifts(ctx, key, drivers[0])
	case analysis.KindTrackDominance:
		return svc.TrackDominance(ctx, key, drivers, procCfg.Partition)
	case analysis.KindRacePace:
		return svc.RacePace(ctx, key, drivers)
	case analysis.KindTeamPace:
		return svc.TeamPace(ctx, key)
	case analysis.KindLapSections:
		return svc.LapSections(ctx, key, drivers)
	case analysis.KindLaps:
		return svc.Laps(ctx, key)
	}
	return nil, fmt.Errorf("unknown analysis %q", kind)
}

func write(w io.Writer, output string, result any) error {
	switch output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case outputTable:
		return renderTable(w, result)
	case outputHTML:
		return chart.Render(w, result)
	}
	return fmt.Errorf("unknown output format %q", output)
}
