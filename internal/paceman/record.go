package paceman

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDecode marks a feed message that could not be decoded into a Record
var ErrDecode = errors.New("malformed progress record")

// MilestoneKind identifies an in-run progress marker reported by the feed
type MilestoneKind string

const (
	MilestoneUnknown         MilestoneKind = ""
	MilestoneEnterNether     MilestoneKind = "rsg.enter_nether"
	MilestoneEnterBastion    MilestoneKind = "rsg.enter_bastion"
	MilestoneEnterFortress   MilestoneKind = "rsg.enter_fortress"
	MilestoneFirstPortal     MilestoneKind = "rsg.first_portal"
	MilestoneSecondPortal    MilestoneKind = "rsg.second_portal"
	MilestoneEnterStronghold MilestoneKind = "rsg.enter_stronghold"
	MilestoneEnterEnd        MilestoneKind = "rsg.enter_end"
	MilestoneCredits         MilestoneKind = "rsg.credits"
	MilestoneTowerStart      MilestoneKind = "rsg.tower_start"
	MilestoneReset           MilestoneKind = "rsg.reset"

	// Context milestones
	MilestoneObtainBlazeRod       MilestoneKind = "rsg.obtain_blaze_rod"
	MilestoneLootBastion          MilestoneKind = "rsg.loot_bastion"
	MilestoneObtainCryingObsidian MilestoneKind = "rsg.obtain_crying_obsidian"
	MilestoneTradeWithPiglin      MilestoneKind = "rsg.trade_with_piglin"
	MilestoneObtainObsidian       MilestoneKind = "rsg.obtain_obsidian"
	MilestoneObtainWitherSkull    MilestoneKind = "rsg.obtain_wither_skull"
)

var knownMilestones = map[MilestoneKind]bool{
	MilestoneEnterNether:          true,
	MilestoneEnterBastion:         true,
	MilestoneEnterFortress:        true,
	MilestoneFirstPortal:          true,
	MilestoneSecondPortal:         true,
	MilestoneEnterStronghold:      true,
	MilestoneEnterEnd:             true,
	MilestoneCredits:              true,
	MilestoneTowerStart:           true,
	MilestoneReset:                true,
	MilestoneObtainBlazeRod:       true,
	MilestoneLootBastion:          true,
	MilestoneObtainCryingObsidian: true,
	MilestoneTradeWithPiglin:      true,
	MilestoneObtainObsidian:       true,
	MilestoneObtainWitherSkull:    true,
}

// UnmarshalJSON maps unrecognized identifiers to MilestoneUnknown instead of failing
func (k *MilestoneKind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind := MilestoneKind(strings.TrimSpace(raw))
	if !knownMilestones[kind] {
		kind = MilestoneUnknown
	}
	*k = kind
	return nil
}

// Milestone is a single progress marker with in-game and real time
type Milestone struct {
	Kind             MilestoneKind `json:"eventId"`
	InGameTimeMillis int64         `json:"igt"`
	RealTimeMillis   int64         `json:"rta"`
}

// Runner identifies who is playing the run
type Runner struct {
	AccountID        string `json:"uuid"`
	LiveStreamHandle string `json:"liveAccount"`
}

// IsLive reports whether the runner exposes a live stream
func (r Runner) IsLive() bool {
	return r.LiveStreamHandle != ""
}

// ItemKind is a namespaced item identifier, e.g. "minecraft:ender_pearl"
type ItemKind string

const (
	ItemEnderPearl ItemKind = "minecraft:ender_pearl"
	ItemBlazeRod   ItemKind = "minecraft:blaze_rod"
)

// Record is one progress update for a run as delivered by the feed
type Record struct {
	RunID               string           `json:"worldId"`
	CompletedMilestones []Milestone      `json:"eventList"`
	ContextMilestones   []Milestone      `json:"contextEventList"`
	Runner              Runner           `json:"user"`
	LastUpdatedMillis   int64            `json:"lastUpdated"`
	RunnerDisplayName   string           `json:"nickname"`
	ItemCounts          map[ItemKind]int `json:"-"`
}

type wireItemData struct {
	EstimatedCounts map[ItemKind]int `json:"estimatedCounts"`
}

type wireRecord struct {
	Record
	ItemData *wireItemData `json:"itemData"`
}

// Decode parses one feed message
func Decode(data []byte) (*Record, error) {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	rec := w.Record
	if w.ItemData != nil && len(w.ItemData.EstimatedCounts) > 0 {
		rec.ItemCounts = w.ItemData.EstimatedCounts
	}
	if rec.RunnerDisplayName == "" {
		return nil, fmt.Errorf("%w: missing nickname", ErrDecode)
	}
	return &rec, nil
}

// Latest returns the most recently completed milestone
func (r *Record) Latest() (Milestone, bool) {
	if len(r.CompletedMilestones) == 0 {
		return Milestone{}, false
	}
	return r.CompletedMilestones[len(r.CompletedMilestones)-1], true
}

// RunnerKey is the lowercased key used to look the runner up in guild rosters
func (r *Record) RunnerKey() string {
	return strings.ToLower(r.RunnerDisplayName)
}

// LastUpdated returns the feed timestamp as a time.Time
func (r *Record) LastUpdated() time.Time {
	return time.UnixMilli(r.LastUpdatedMillis)
}

// Minutes and Seconds split the in-game time into whole minutes and the remaining seconds
func (m Milestone) Minutes() int {
	return int(m.InGameTimeMillis / 60000)
}

func (m Milestone) Seconds() int {
	return int(m.InGameTimeMillis/1000) % 60
}

// FormatClock renders milliseconds as m:ss
func FormatClock(millis int64) string {
	total := millis / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
