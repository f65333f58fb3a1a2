package guild

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/split"
)

func TestParseRoster(t *testing.T) {
	text := "```\nsteve:5/3/8/2/12\n\nAlex:4/6/7/9/11/15\n```"

	players, err := ParseRoster(text, split.FullMode())
	require.NoError(t, err)
	require.Len(t, players, 2)

	steve := players["steve"]
	require.NotNil(t, steve)
	assert.Equal(t, map[split.Kind]int{
		split.FirstStructure:  5,
		split.SecondStructure: 3,
		split.Blind:           8,
		split.EyeSpy:          2,
		split.EndEnter:        12,
	}, steve.SplitBests)
	assert.Zero(t, steve.FinishMinutes)

	alex := players["alex"]
	require.NotNil(t, alex)
	assert.Equal(t, 15, alex.FinishMinutes)
	assert.Nil(t, alex.LastNotification)
}

func TestParseRosterReducedMode(t *testing.T) {
	players, err := ParseRoster("steve:7/9", split.ReducedMode())
	require.NoError(t, err)
	assert.Equal(t, 7, players["steve"].SplitBests[split.TowerStart])
	assert.Equal(t, 9, players["steve"].SplitBests[split.EndEnter])
}

func TestParseRosterMalformed(t *testing.T) {
	for _, text := range []string{
		"steve",
		":5/3/8/2/12",
		"steve:5/3/8",
		"steve:5/3/8/2/12/15/20",
		"steve:5/3/x/2/12",
		"steve:5/3/-1/2/12",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := ParseRoster(text, split.FullMode())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRoster))
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		managed bool
		want    RoleThreshold
	}{
		{name: "Moderator", managed: false},
		{
			name:    "*FS3:30",
			managed: true,
			want:    RoleThreshold{Split: split.FirstStructure, Minutes: 3, Seconds: 30},
		},
		{
			name:    "*EE10:05",
			managed: true,
			want:    RoleThreshold{Split: split.EndEnter, Minutes: 10, Seconds: 5},
		},
		{
			name:    "*BPB",
			managed: true,
			want:    RoleThreshold{Split: split.Blind, PersonalBest: true},
		},
		{
			name:    "*Steve2:E7:00",
			managed: true,
			want:    RoleThreshold{Split: split.EyeSpy, Minutes: 7, RunnerKey: "steve2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, managed, err := ParseRole("r1", tt.name)
			require.NoError(t, err)
			require.Equal(t, tt.managed, managed)
			if !managed {
				return
			}
			tt.want.RoleID = "r1"
			tt.want.Name = tt.name
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRoleMalformed(t *testing.T) {
	for _, name := range []string{"*XX3:00", "*FS", "*FS3:7", "*FS3:75", "*FS:30", "*:B3:00", "*XPB"} {
		t.Run(name, func(t *testing.T) {
			_, managed, err := ParseRole("r1", name)
			assert.True(t, managed)
			assert.True(t, errors.Is(err, ErrMalformedRole))
		})
	}
}

func TestRoleThresholdBeats(t *testing.T) {
	r := RoleThreshold{Minutes: 4, Seconds: 30}

	assert.True(t, r.Beats(3, 59))
	assert.True(t, r.Beats(4, 29))
	assert.False(t, r.Beats(4, 30))
	assert.False(t, r.Beats(4, 31))
	assert.False(t, r.Beats(5, 0))
}
