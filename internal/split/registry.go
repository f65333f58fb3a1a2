package split

import (
	"fmt"
	"sort"
	"sync"

	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/paceman"
)

// Mode names
const (
	ModeFull    = "full"
	ModeReduced = "reduced"
)

// Mode describes which milestones a deployment notifies on and the roster field order
type Mode struct {
	Name        string
	Description string

	// Lookup maps the latest milestone to a split. Structure entries map to FirstStructure
	// and are disambiguated by the classifier.
	Lookup map[paceman.MilestoneKind]Kind

	// RosterSplits is the order of the per-split fields in a roster line
	RosterSplits []Kind
}

// Supports reports whether role thresholds for k are meaningful in this mode
func (m *Mode) Supports(k Kind) bool {
	for _, rk := range m.RosterSplits {
		if rk == k {
			return true
		}
	}
	return false
}

// FullMode notifies on every nether/stronghold/end split
func FullMode() *Mode {
	return &Mode{
		Name:        ModeFull,
		Description: "Structure, blind, stronghold and end splits",
		Lookup: map[paceman.MilestoneKind]Kind{
			paceman.MilestoneEnterBastion:    FirstStructure,
			paceman.MilestoneEnterFortress:   FirstStructure,
			paceman.MilestoneFirstPortal:     Blind,
			paceman.MilestoneEnterStronghold: EyeSpy,
			paceman.MilestoneEnterEnd:        EndEnter,
		},
		RosterSplits: []Kind{FirstStructure, SecondStructure, Blind, EyeSpy, EndEnter},
	}
}

// ReducedMode only notifies on tower start and end entry
func ReducedMode() *Mode {
	return &Mode{
		Name:        ModeReduced,
		Description: "Tower start and end entry only",
		Lookup: map[paceman.MilestoneKind]Kind{
			paceman.MilestoneTowerStart: TowerStart,
			paceman.MilestoneEnterEnd:   EndEnter,
		},
		RosterSplits: []Kind{TowerStart, EndEnter},
	}
}

// Registry manages the available split modes
type Registry struct {
	mu    sync.RWMutex
	modes map[string]*Mode
}

// NewRegistry creates a registry with the built-in modes registered
func NewRegistry() *Registry {
	r := &Registry{
		modes: make(map[string]*Mode),
	}
	r.Register(FullMode())
	r.Register(ReducedMode())
	return r
}

// Register adds a mode to the registry
func (r *Registry) Register(mode *Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes[mode.Name] = mode
}

// Get retrieves a mode by name
func (r *Registry) Get(name string) (*Mode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mode, ok := r.modes[name]
	if !ok {
		return nil, fmt.Errorf("unknown split mode: %s", name)
	}
	return mode, nil
}

// List returns all registered modes sorted by name
func (r *Registry) List() []*Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modes := make([]*Mode, 0, len(r.modes))
	for _, m := range r.modes {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i].Name < modes[j].Name })
	return modes
}
