package shop

import (
	"sync"

	"vton/internal/domain"
)

// Selection is the ordered set of garments picked for a multi-item try-on.
// Toggling a garment already present removes it; order of first selection
// is preserved.
type Selection struct {
	mu       sync.Mutex
	garments []domain.Garment
}

func NewSelection() *Selection {
	return &Selection{}
}

// Toggle adds g to the set, or removes it when already selected. It
// reports whether the garment is selected afterwards.
func (s *Selection) Toggle(g domain.Garment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.garments {
		if existing.ID == g.ID {
			s.garments = append(s.garments[:i], s.garments[i+1:]...)
			return false
		}
	}
	s.garments = append(s.garments, g)
	return true
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.garments = nil
}

func (s *Selection) Items() []domain.Garment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Garment(nil), s.garments...)
}

// Consume returns the current set and clears it; a starting try-on takes
// ownership of the selection.
func (s *Selection) Consume() []domain.Garment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.garments
	s.garments = nil
	return out
}
