package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/mpapenbr/raceanalysis-service/pkg/model"
	"github.com/mpapenbr/raceanalysis-service/pkg/processing"
	"github.com/mpapenbr/raceanalysis-service/pkg/provider"
	"github.com/mpapenbr/raceanalysis-service/pkg/service/analysis"
	"github.com/mpapenbr/raceanalysis-service/testsupport/basedata"
)

func newService() *analysis.Service {
	return analysis.NewService(analysis.WithProvider(provider.Func(
		func(ctx context.Context, key model.SessionKey, drivers []string) (*model.SessionData, error) {
			return basedata.SampleSession(), nil
		})))
}

func sampleConfig(output string) *analyzeConfig {
	return &analyzeConfig{year: 2023, race: "Monza", session: "r", axis: "distance", output: output}
}

func TestRunAnalysis_Table(t *testing.T) {
	tests := []struct {
		kind    string
		drivers []string
		want    []string
	}{
		{analysis.KindRacePace, nil, []string{"Race pace", "VER", "1:30.700", "1:29.800", "1:32.000", "RUS"}},
		{analysis.KindTeamPace, nil, []string{"Team pace", "Mercedes", "Ferrari"}},
		{analysis.KindTrackDominance, []string{"ver", "ham"}, []string{"reference VER", "20"}},
		{analysis.KindSpeedTrace, []string{"VER", "LEC"}, []string{"Speed trace", "LEC", "180.0"}},
		{analysis.KindGearShifts, []string{"VER"}, []string{"Gear shifts VER"}},
		{analysis.KindLapSections, nil, []string{"braking", "cornering", "acceleration", "full_throttle"}},
		{analysis.KindLaps, nil, []string{"RUS", "false", "MEDIUM"}},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			cfg := sampleConfig(outputTable)
			cfg.drivers = tt.drivers
			var buf bytes.Buffer
			err := runAnalysis(context.Background(), newService(), tt.kind, cfg,
				processing.DefaultConfig(), &buf)
			assert.NilError(t, err)
			// go-pretty may change the case of titles and headers
			out := strings.ToLower(buf.String())
			for _, w := range tt.want {
				assert.Check(t, is.Contains(out, strings.ToLower(w)))
			}
		})
	}
}

func TestRunAnalysis_JSONToFile(t *testing.T) {
	cfg := sampleConfig(outputJSON)
	cfg.outFile = filepath.Join(t.TempDir(), "pace.json")
	var stdout bytes.Buffer
	err := runAnalysis(context.Background(), newService(), analysis.KindRacePace, cfg,
		processing.DefaultConfig(), &stdout)
	assert.NilError(t, err)
	assert.Equal(t, stdout.Len(), 0)

	data, err := os.ReadFile(cfg.outFile)
	assert.NilError(t, err)
	var got model.RacePace
	assert.NilError(t, json.Unmarshal(data, &got))
	assert.Equal(t, len(got.Drivers), 3)
	assert.DeepEqual(t, got.Excluded, []string{"RUS"})
}

func TestRunAnalysis_HTML(t *testing.T) {
	var buf bytes.Buffer
	err := runAnalysis(context.Background(), newService(), analysis.KindTeamPace,
		sampleConfig(outputHTML), processing.DefaultConfig(), &buf)
	assert.NilError(t, err)
	assert.Check(t, is.Contains(buf.String(), "Team pace"))
}

func TestRunAnalysis_Errors(t *testing.T) {
	cfg := sampleConfig(outputTable)
	err := runAnalysis(context.Background(), newService(), analysis.KindGearShifts, cfg,
		processing.DefaultConfig(), &bytes.Buffer{})
	assert.ErrorContains(t, err, "exactly one driver")

	cfg.drivers = []string{"RUS"}
	cfg.output = "yaml"
	err = runAnalysis(context.Background(), newService(), analysis.KindRacePace, cfg,
		processing.DefaultConfig(), &bytes.Buffer{})
	assert.ErrorIs(t, err, model.ErrNoEligibleEntity)

	cfg.drivers = nil
	err = runAnalysis(context.Background(), newService(), analysis.KindLaps, cfg,
		processing.DefaultConfig(), &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown output format")
}

func TestFmtSeconds(t *testing.T) {
	assert.Equal(t, fmtSeconds(90.7), "1:30.700")
	assert.Equal(t, fmtSeconds(59.5), "0:59.500")
}
