package index

import (
	"slices"

	"github.com/google/uuid"
)

// MoveToFront makes the item the most recent entry.
func (s *Store) MoveToFront(id uuid.UUID) {
	s.do(func() {
		i := s.indexOf(id)
		if i < 0 {
			return
		}
		item := s.items[i]
		s.items = slices.Delete(s.items, i, i+1)
		s.items = slices.Insert(s.items, 0, item)
		s.persist()
	})
}

// Reorder moves the item immediately before target, as positioned before
// the move. Repeating the same reorder leaves the order unchanged.
func (s *Store) Reorder(id, before uuid.UUID) {
	s.do(func() {
		if id == before {
			return
		}
		from, to := s.indexOf(id), s.indexOf(before)
		if from < 0 || to < 0 {
			return
		}
		item := s.items[from]
		s.items = slices.Delete(s.items, from, from+1)
		if from < to {
			to--
		}
		s.items = slices.Insert(s.items, to, item)
		s.persist()
	})
}
