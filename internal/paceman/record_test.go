package paceman

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecord = `{
	"worldId": "abc123",
	"eventList": [
		{"eventId": "rsg.enter_nether", "igt": 90000, "rta": 95000},
		{"eventId": "rsg.enter_bastion", "igt": 125000, "rta": 131000}
	],
	"contextEventList": [
		{"eventId": "rsg.obtain_obsidian", "igt": 60000, "rta": 61000},
		{"eventId": "rsg.some_future_event", "igt": 70000, "rta": 71000}
	],
	"user": {"uuid": "0000-1111", "liveAccount": "steve_speeds"},
	"lastUpdated": 1700000000000,
	"nickname": "Steve",
	"itemData": {"estimatedCounts": {"minecraft:ender_pearl": 12, "minecraft:blaze_rod": 4}}
}`

func TestDecode(t *testing.T) {
	rec, err := Decode([]byte(sampleRecord))
	require.NoError(t, err)

	assert.Equal(t, "abc123", rec.RunID)
	require.Len(t, rec.CompletedMilestones, 2)
	assert.Equal(t, MilestoneEnterBastion, rec.CompletedMilestones[1].Kind)
	assert.Equal(t, int64(125000), rec.CompletedMilestones[1].InGameTimeMillis)
	assert.Equal(t, MilestoneUnknown, rec.ContextMilestones[1].Kind)
	assert.True(t, rec.Runner.IsLive())
	assert.Equal(t, 12, rec.ItemCounts[ItemEnderPearl])
	assert.Equal(t, "steve", rec.RunnerKey())

	latest, ok := rec.Latest()
	require.True(t, ok)
	assert.Equal(t, 2, latest.Minutes())
	assert.Equal(t, 5, latest.Seconds())
}

func TestDecodeNullLiveAccount(t *testing.T) {
	rec, err := Decode([]byte(`{"nickname": "Alex", "user": {"uuid": "x", "liveAccount": null}, "eventList": []}`))
	require.NoError(t, err)
	assert.False(t, rec.Runner.IsLive())
	assert.Nil(t, rec.ItemCounts)

	_, ok := rec.Latest()
	assert.False(t, ok)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte(`{"nickname": 7}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))

	_, err = Decode([]byte(`{"eventList": []}`))
	assert.True(t, errors.Is(err, ErrDecode))
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "0:00", FormatClock(0))
	assert.Equal(t, "2:05", FormatClock(125999))
	assert.Equal(t, "14:30", FormatClock(870000))
}
