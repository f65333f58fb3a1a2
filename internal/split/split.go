package split

import (
	"fmt"

	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/paceman"
)

// Kind is the semantic checkpoint category a milestone belongs to
type Kind int

const (
	KindNone Kind = iota
	FirstStructure
	SecondStructure
	Blind
	EyeSpy
	EndEnter
	TowerStart
)

var kindCodes = map[Kind]string{
	FirstStructure:  "FS",
	SecondStructure: "SS",
	Blind:           "B",
	EyeSpy:          "E",
	EndEnter:        "EE",
	TowerStart:      "TS",
}

var kindNames = map[Kind]string{
	FirstStructure:  "FirstStructure",
	SecondStructure: "SecondStructure",
	Blind:           "Blind",
	EyeSpy:          "EyeSpy",
	EndEnter:        "EndEnter",
	TowerStart:      "TowerStart",
}

// Code returns the short code used in role names (e.g. "FS")
func (k Kind) Code() string {
	return kindCodes[k]
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// KindFromCode resolves a role-name code back to a Kind
func KindFromCode(code string) (Kind, bool) {
	for k, c := range kindCodes {
		if c == code {
			return k, true
		}
	}
	return KindNone, false
}

// Structure disambiguates which nether structure a structure split entered
type Structure int

const (
	StructureNone Structure = iota
	Bastion
	Fortress
)

func (s Structure) String() string {
	switch s {
	case Bastion:
		return "Bastion"
	case Fortress:
		return "Fortress"
	default:
		return ""
	}
}

// RunVariant flags runs that skipped the first structure
type RunVariant int

const (
	Standard RunVariant = iota
	NoFirstStructure
)

// EventType is the top-level classification of a progress record
type EventType int

const (
	EventReset EventType = iota + 1
	EventCompletion
	EventCheckpoint
)

func (t EventType) String() string {
	switch t {
	case EventReset:
		return "reset"
	case EventCompletion:
		return "completion"
	case EventCheckpoint:
		return "checkpoint"
	default:
		return "unknown"
	}
}

// Event is the derived classification of a record; never stored
type Event struct {
	Type      EventType
	Split     Kind
	Structure Structure
	Variant   RunVariant

	// Milestone is the latest completed milestone that produced the event
	Milestone paceman.Milestone
}

// Description returns the human-readable split text used in notifications
func (e Event) Description() string {
	switch e.Type {
	case EventReset:
		return "Reset"
	case EventCompletion:
		return "Finish"
	}

	switch e.Split {
	case FirstStructure:
		return "Enter " + e.Structure.String()
	case SecondStructure:
		return "Enter " + e.Structure.String() + " (2nd Structure)"
	case Blind:
		if e.Variant == NoFirstStructure {
			return "First Portal (No Structure)"
		}
		return "First Portal"
	case EyeSpy:
		return "Enter Stronghold"
	case EndEnter:
		return "Enter End"
	case TowerStart:
		return "Tower Start"
	default:
		return e.Split.String()
	}
}
