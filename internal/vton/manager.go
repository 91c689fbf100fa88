package vton

import (
	"sync"

	"github.com/google/uuid"
)

// Manager hands out independent session machines keyed by ID so the HTTP
// layer can serve concurrent shoppers. There is no ambient singleton: every
// consumer receives its machine explicitly.
type Manager struct {
	mu       sync.Mutex
	machines map[string]*Machine
	opts     MachineOptions
}

func NewManager(opts MachineOptions) *Manager {
	return &Manager{
		machines: make(map[string]*Machine),
		opts:     opts,
	}
}

// Create registers a new machine and returns its ID.
func (m *Manager) Create() (string, *Machine) {
	id := uuid.NewString()
	machine := NewMachine(m.opts)

	m.mu.Lock()
	m.machines[id] = machine
	m.mu.Unlock()

	return id, machine
}

// Get returns the machine registered under id.
func (m *Manager) Get(id string) (*Machine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	machine, ok := m.machines[id]
	return machine, ok
}

// Remove forgets a machine; pending timers on it become harmless no-ops.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.machines, id)
}
