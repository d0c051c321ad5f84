package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/sigexport/internal/bus"
)

// Stage is one step of an export run.
type Stage string

const (
	Idle      Stage = "IDLE"
	Loading   Stage = "LOADING"
	Building  Stage = "BUILDING"
	Exporting Stage = "EXPORTING"
	Merging   Stage = "MERGING"
	Rendering Stage = "RENDERING"
	Done      Stage = "DONE"
	Failed    Stage = "FAILED"
)

// validTransitions defines the order stages may follow each other in.
var validTransitions = map[Stage][]Stage{
	Idle:      {Loading, Failed},
	Loading:   {Building, Done, Failed},
	Building:  {Exporting, Failed},
	Exporting: {Merging, Rendering, Done, Failed},
	Merging:   {Rendering, Done, Failed},
	Rendering: {Done, Failed},
	Done:      {Idle},
	Failed:    {Idle},
}

// Machine tracks and enforces run stage transitions.
type Machine struct {
	mu      sync.RWMutex
	current Stage
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Idle.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Idle,
		bus:     b,
	}
}

// Current returns the current stage.
func (m *Machine) Current() Stage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new stage. Returns error if transition is invalid.
func (m *Machine) Transition(to Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:    bus.KindStageChanged,
			Payload: StageChange{From: from, To: to},
		})
	}
	return nil
}

// Fail moves to Failed from any stage that is not already terminal.
func (m *Machine) Fail() {
	if cur := m.Current(); cur != Failed && cur != Done {
		_ = m.Transition(Failed)
	}
}

// StageChange is the payload for stage change events.
type StageChange struct {
	From Stage
	To   Stage
}
