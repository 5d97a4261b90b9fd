//nolint:funlen // ok for tests
package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/raceanalysis-service/pkg/model"
	"github.com/mpapenbr/raceanalysis-service/pkg/provider"
	"github.com/mpapenbr/raceanalysis-service/testsupport/basedata"
)

const yamlArchive = `
eventName: Bahrain Grand Prix
drivers:
  - code: PER
    name: Sergio Perez
    team: Red Bull Racing
traces:
  - driver:
      code: PER
      team: Red Bull Racing
    lapNumber: 12
    lapTime: 95.2
    samples:
      - {time: 0, distance: 0, x: 0, y: 0, speed: 280, gear: 7, throttle: 100, brake: false}
      - {time: 0.1, distance: 8, x: 8, y: 0, speed: null, gear: 7, throttle: 100, brake: false}
      - {time: 0.2, distance: 16, x: 16, y: 1, speed: 270, gear: 6, throttle: 0, brake: true}
laps:
  - {driverCode: PER, team: Red Bull Racing, lapNumber: 1, lapTime: 96.1, compound: soft, isValid: true}
  - {driverCode: PER, team: Red Bull Racing, lapNumber: 2, lapTime: null, compound: TEST, isValid: false}
`

func writeArchive(t *testing.T, dir string, data *model.SessionData) {
	t.Helper()
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName(data.Key)+".json"), b, 0o600))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "2023_abu_dhabi_r",
		FileName(model.SessionKey{Year: 2023, Race: "Abu Dhabi", Session: "R"}))
	assert.Equal(t, "2024_monza_fp1",
		FileName(model.SessionKey{Year: 2024, Race: " Monza", Session: "FP1"}))
}

func TestProvider_LoadJSON(t *testing.T) {
	dir := t.TempDir()
	sample := basedata.SampleSession()
	writeArchive(t, dir, sample)
	p := New(dir)

	got, err := p.Load(context.Background(), sample.Key, nil)
	require.NoError(t, err)
	assert.Equal(t, sample.Key, got.Key)
	assert.Equal(t, "Italian Grand Prix", got.EventName)
	assert.Len(t, got.Traces, 3)
	assert.Len(t, got.Laps, 13)
	require.Len(t, got.Traces[1].Samples, len(sample.Traces[1].Samples))
	for i, s := range sample.Traces[1].Samples {
		g := got.Traces[1].Samples[i]
		assert.InDelta(t, s.Time.GetOrZero(), g.Time.GetOrZero(), 1e-9)
		assert.InDelta(t, s.Distance.GetOrZero(), g.Distance.GetOrZero(), 1e-9)
		assert.Equal(t, s.Brake, g.Brake)
		assert.Equal(t, s.Gear, g.Gear)
	}
	for i, l := range sample.Laps {
		assert.Equal(t, l.DriverCode, got.Laps[i].DriverCode)
		assert.Equal(t, l.IsValid, got.Laps[i].IsValid)
		assert.Equal(t, l.Compound, got.Laps[i].Compound)
		assert.InDelta(t, l.LapTime.GetOrZero(), got.Laps[i].LapTime.GetOrZero(), 1e-9)
	}

	got, err = p.Load(context.Background(), sample.Key, []string{"LEC", "XXX", "VER"})
	require.NoError(t, err)
	require.Len(t, got.Traces, 2)
	assert.Equal(t, "LEC", got.Traces[0].Driver.Code)
	assert.Equal(t, "VER", got.Traces[1].Driver.Code)
	assert.Len(t, got.Laps, 13, "laps are never filtered")
}

func TestProvider_LoadYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2023_bahrain_r.yaml"), []byte(yamlArchive), 0o600))
	key := model.SessionKey{Year: 2023, Race: "Bahrain", Session: "R"}

	got, err := New(dir).Load(context.Background(), key, []string{"PER"})
	require.NoError(t, err)
	assert.Equal(t, key, got.Key)
	require.Len(t, got.Traces, 1)
	tr := got.Traces[0]
	assert.Equal(t, 12, tr.LapNumber)
	require.Len(t, tr.Samples, 3)
	assert.True(t, tr.Samples[1].Speed.IsNull())
	assert.True(t, tr.Samples[2].Brake)
	gear, _ := tr.Samples[2].Gear.Get()
	assert.Equal(t, 6, gear)

	require.Len(t, got.Laps, 2)
	assert.Equal(t, model.CompoundSoft, got.Laps[0].Compound)
	assert.Equal(t, model.CompoundUnknown, got.Laps[1].Compound)
	assert.True(t, got.Laps[1].LapTime.IsNull())
}

func TestProvider_NonFiniteValues(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		archive string
	}{
		{
			name: "yaml",
			file: "2024_sakhir_r.yaml",
			archive: `
traces:
  - driver: {code: PER, team: Red Bull Racing}
    lapTime: .inf
    samples:
      - {time: 0, distance: 0, x: 0, y: 0, speed: 280, gear: 7, throttle: 100, brake: false}
      - {time: 0.1, distance: 8, x: 8, y: 0, speed: .nan, gear: 7, throttle: -.inf, brake: false}
      - {time: 0.2, distance: 16, x: 16, y: 1, speed: 270, gear: 6, throttle: 0, brake: true}
laps:
  - {driverCode: PER, team: Red Bull Racing, lapNumber: 1, lapTime: .nan, compound: soft, isValid: true}
`,
		},
		{
			name: "json with pandas literals",
			file: "2024_sakhir_r.json",
			archive: `{"traces":[{"driver":{"code":"PER","team":"Red Bull Racing"},"lapTime":Infinity,
"samples":[
{"time":0,"distance":0,"x":0,"y":0,"speed":280,"gear":7,"throttle":100,"brake":false},
{"time":0.1,"distance":8,"x":8,"y":0,"speed":NaN,"gear":7,"throttle":-Infinity,"brake":false},
{"time":0.2,"distance":16,"x":16,"y":1,"speed":270,"gear":6,"throttle":0,"brake":true}]}],
"laps":[{"driverCode":"PER","team":"Red Bull Racing","lapNumber":1,"lapTime":NaN,"compound":"soft","isValid":true}]}`,
		},
	}
	key := model.SessionKey{Year: 2024, Race: "Sakhir", Session: "R"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.archive), 0o600))

			got, err := New(dir).Load(context.Background(), key, []string{"PER"})
			require.NoError(t, err)
			require.Len(t, got.Traces, 1)
			tr := got.Traces[0]
			assert.True(t, tr.LapTime.IsNull())
			require.Len(t, tr.Samples, 3)
			assert.True(t, tr.Samples[1].Speed.IsNull())
			assert.True(t, tr.Samples[1].Throttle.IsNull())
			d, ok := tr.Samples[1].Distance.Get()
			assert.True(t, ok, "other channels of the sample are kept")
			assert.Equal(t, 8.0, d)
			speed, _ := tr.Samples[2].Speed.Get()
			assert.Equal(t, 270.0, speed)

			require.Len(t, got.Laps, 1)
			assert.True(t, got.Laps[0].LapTime.IsNull())
		})
	}
}

func TestProvider_NotFound(t *testing.T) {
	_, err := New(t.TempDir()).Load(context.Background(), basedata.SampleKey(), nil)
	assert.ErrorIs(t, err, provider.ErrSessionNotFound)
}

func TestProvider_Malformed(t *testing.T) {
	dir := t.TempDir()
	key := basedata.SampleKey()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName(key)+".json"), []byte(`[1,2]`), 0o600))
	_, err := New(dir).Load(context.Background(), key, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, provider.ErrSessionNotFound)
}

func TestProvider_Invalidate(t *testing.T) {
	dir := t.TempDir()
	sample := basedata.SampleSession()
	writeArchive(t, dir, sample)
	p := New(dir)
	_, err := p.Load(context.Background(), sample.Key, nil)
	require.NoError(t, err)

	sample.EventName = "changed"
	writeArchive(t, dir, sample)
	got, err := p.Load(context.Background(), sample.Key, nil)
	require.NoError(t, err)
	assert.Equal(t, "Italian Grand Prix", got.EventName, "parsed data is kept")

	p.Invalidate(filepath.Join(dir, FileName(sample.Key)+".json"))
	got, err = p.Load(context.Background(), sample.Key, nil)
	require.NoError(t, err)
	assert.Equal(t, "changed", got.EventName)
}

func TestProvider_Watch(t *testing.T) {
	dir := t.TempDir()
	sample := basedata.SampleSession()
	writeArchive(t, dir, sample)
	p := New(dir)
	_, err := p.Load(context.Background(), sample.Key, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error)
	go func() { done <- p.Watch(ctx) }()
	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	sample.EventName = "changed"
	writeArchive(t, dir, sample)
	assert.Eventually(t, func() bool {
		got, err := p.Load(context.Background(), sample.Key, nil)
		return err == nil && got.EventName == "changed"
	}, 2*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
