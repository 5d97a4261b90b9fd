package colors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/raceanalysis-service/pkg/model"
)

func TestForDriver(t *testing.T) {
	l := NewStatic(
		WithDriverColors(map[string]string{"ham": "#00FFFF"}),
		WithYear(2021, WithTeamColors(map[string]string{"Mercedes": "#00D2BE"})),
	)
	tests := []struct {
		name string
		year int
		d    model.DriverInfo
		want string
	}{
		{"driver color", 2023, model.DriverInfo{Code: "HAM", Team: "Mercedes"}, "#00FFFF"},
		{"team color", 2023, model.DriverInfo{Code: "RUS", Team: "Mercedes"}, "#27F4D2"},
		{"team color of year", 2021, model.DriverInfo{Code: "BOT", Team: "mercedes"}, "#00D2BE"},
		{"provider color", 2023, model.DriverInfo{Code: "XXX", Team: "Brawn", Color: "#B8FD6E"}, "#B8FD6E"},
		{"default", 2023, model.DriverInfo{Code: "XXX", Team: "Brawn"}, Default},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ForDriver(l, tt.year, tt.d))
		})
	}
}

func TestForTeam(t *testing.T) {
	assert.Equal(t, "#E8002D", ForTeam(NewStatic(), 2023, "Ferrari"))
	assert.Equal(t, Default, ForTeam(NewStatic(), 2023, "Minardi"))
	assert.Equal(t, Default, ForTeam(nil, 2023, "Ferrari"))
}
