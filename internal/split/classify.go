package split

import (
	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/paceman"
)

// Context milestones that suggest the runner already visited a structure
var structureContext = map[Structure][]paceman.MilestoneKind{
	Bastion: {
		paceman.MilestoneLootBastion,
		paceman.MilestoneObtainCryingObsidian,
		paceman.MilestoneTradeWithPiglin,
	},
	Fortress: {
		paceman.MilestoneObtainBlazeRod,
		paceman.MilestoneObtainWitherSkull,
	},
}

const contextQuorum = 2

// Classifier maps progress records to events for one split mode
type Classifier struct {
	mode *Mode
}

// NewClassifier creates a classifier for the given mode
func NewClassifier(mode *Mode) *Classifier {
	return &Classifier{mode: mode}
}

// Mode returns the split mode the classifier was built for
func (c *Classifier) Mode() *Mode {
	return c.mode
}

// Classify derives the event for a record. ok is false when the record carries nothing
// worth notifying about; that is not an error.
func (c *Classifier) Classify(rec *paceman.Record) (Event, bool) {
	latest, ok := rec.Latest()
	if !ok {
		return Event{}, false
	}

	switch latest.Kind {
	case paceman.MilestoneReset:
		return Event{Type: EventReset, Milestone: latest}, true
	case paceman.MilestoneCredits:
		return Event{Type: EventCompletion, Milestone: latest}, true
	}

	kind, ok := c.mode.Lookup[latest.Kind]
	if !ok {
		return Event{}, false
	}

	ev := Event{Type: EventCheckpoint, Split: kind, Milestone: latest}
	history := rec.CompletedMilestones[:len(rec.CompletedMilestones)-1]

	if structure := structureOf(latest.Kind); structure != StructureNone {
		ev.Structure = structure
		if visitedOther(structure, history, rec.ContextMilestones) {
			ev.Split = SecondStructure
		} else {
			ev.Split = FirstStructure
		}
	}

	if ev.Split == Blind && !containsAny(history, paceman.MilestoneEnterBastion, paceman.MilestoneEnterFortress) {
		ev.Variant = NoFirstStructure
	}

	return ev, true
}

func structureOf(kind paceman.MilestoneKind) Structure {
	switch kind {
	case paceman.MilestoneEnterBastion:
		return Bastion
	case paceman.MilestoneEnterFortress:
		return Fortress
	default:
		return StructureNone
	}
}

func otherStructure(s Structure) Structure {
	if s == Bastion {
		return Fortress
	}
	return Bastion
}

// visitedOther reports whether the runner has already been in the other structure, either
// from the completed history or from a quorum of that structure's context milestones.
func visitedOther(current Structure, history, context []paceman.Milestone) bool {
	other := otherStructure(current)
	entry := paceman.MilestoneEnterBastion
	if other == Fortress {
		entry = paceman.MilestoneEnterFortress
	}
	if containsAny(history, entry) {
		return true
	}

	designated := structureContext[other]
	seen := make(map[paceman.MilestoneKind]bool)
	for _, m := range context {
		for _, d := range designated {
			if m.Kind == d {
				seen[d] = true
			}
		}
	}
	return len(seen) >= contextQuorum
}

func containsAny(milestones []paceman.Milestone, kinds ...paceman.MilestoneKind) bool {
	for _, m := range milestones {
		for _, k := range kinds {
			if m.Kind == k {
				return true
			}
		}
	}
	return false
}
