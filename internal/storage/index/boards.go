package index

import (
	"bytes"
	"clipcat/internal/storage"
	"clipcat/pkg/types"
	"slices"

	"github.com/google/uuid"
)

// CreatePinboard appends a board ranked after the existing ones.
func (s *Store) CreatePinboard(name, color string) uuid.UUID {
	board := types.Pinboard{ID: uuid.New(), Name: name, Color: color}
	s.do(func() {
		board.Order = len(s.pinboards)
		s.pinboards = append(s.pinboards, board)
		s.persist()
	})
	return board.ID
}

// UpdatePinboardName renames a board. The default board is immutable.
func (s *Store) UpdatePinboardName(id uuid.UUID, name string) {
	s.do(func() {
		if i := s.boardIndex(id); i >= 0 && id != s.defaultBoardID {
			s.pinboards[i].Name = name
			s.persist()
		}
	})
}

// UpdatePinboardColor recolors a board. The default board is immutable.
func (s *Store) UpdatePinboardColor(id uuid.UUID, color string) {
	s.do(func() {
		if i := s.boardIndex(id); i >= 0 && id != s.defaultBoardID {
			s.pinboards[i].Color = color
			s.persist()
		}
	})
}

// DeletePinboard removes a board and its membership. The default board
// cannot be deleted.
func (s *Store) DeletePinboard(id uuid.UUID) {
	s.do(func() {
		i := s.boardIndex(id)
		if i < 0 || id == s.defaultBoardID {
			return
		}
		s.pinboards = slices.Delete(s.pinboards, i, i+1)
		delete(s.boardItems, id)
		s.persist()
	})
}

// Pin adds the item to the board. The item is not required to exist.
func (s *Store) Pin(itemID, boardID uuid.UUID) {
	s.do(func() {
		if s.boardIndex(boardID) < 0 {
			return
		}
		set := s.members(boardID)
		if _, ok := set[itemID]; ok {
			return
		}
		set[itemID] = struct{}{}
		s.persist()
	})
}

// Unpin removes the item from the board.
func (s *Store) Unpin(itemID, boardID uuid.UUID) {
	s.do(func() {
		set, ok := s.boardItems[boardID]
		if !ok {
			return
		}
		if _, ok := set[itemID]; !ok {
			return
		}
		delete(set, itemID)
		s.persist()
	})
}

// SetBoardExclusive removes the item from every non-default board, then pins
// it to boardID unless that is the default board.
func (s *Store) SetBoardExclusive(itemID, boardID uuid.UUID) {
	s.do(func() {
		if s.boardIndex(boardID) < 0 {
			return
		}
		for _, b := range s.pinboards {
			if b.ID == s.defaultBoardID {
				continue
			}
			if set, ok := s.boardItems[b.ID]; ok {
				delete(set, itemID)
			}
		}
		if boardID != s.defaultBoardID {
			s.members(boardID)[itemID] = struct{}{}
		}
		s.persist()
	})
}

// ListItems returns the board's items in history order. The default board
// is a view of the whole history.
func (s *Store) ListItems(boardID uuid.UUID) []types.ClipItem {
	var out []types.ClipItem
	s.do(func() {
		if boardID == s.defaultBoardID {
			out = cloneItems(s.items)
			return
		}
		set := s.boardItems[boardID]
		out = []types.ClipItem{}
		for _, it := range s.items {
			if _, ok := set[it.ID]; ok {
				out = append(out, it.Clone())
			}
		}
	})
	return out
}

// ListPinboards returns all boards sorted by rank.
func (s *Store) ListPinboards() []types.Pinboard {
	var out []types.Pinboard
	s.do(func() {
		out = slices.Clone(s.pinboards)
	})
	slices.SortStableFunc(out, func(a, b types.Pinboard) int { return a.Order - b.Order })
	return out
}

// DefaultBoardID returns the id of the protected all-items board.
func (s *Store) DefaultBoardID() uuid.UUID {
	var id uuid.UUID
	s.do(func() { id = s.defaultBoardID })
	return id
}

func (s *Store) boardIndex(id uuid.UUID) int {
	return slices.IndexFunc(s.pinboards, func(b types.Pinboard) bool { return b.ID == id })
}

func (s *Store) members(boardID uuid.UUID) map[uuid.UUID]struct{} {
	set, ok := s.boardItems[boardID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		s.boardItems[boardID] = set
	}
	return set
}

// ensureDefaultBoard resolves the default board by its reserved name,
// creating it at rank 0 when missing. It reports whether a board was created.
func (s *Store) ensureDefaultBoard() bool {
	for _, b := range s.pinboards {
		if b.Name == storage.DefaultBoardName {
			s.defaultBoardID = b.ID
			return false
		}
	}
	def := types.Pinboard{ID: uuid.New(), Name: storage.DefaultBoardName, Order: 0}
	s.pinboards = append([]types.Pinboard{def}, s.pinboards...)
	s.defaultBoardID = def.ID
	return true
}

// pruneMembership drops ids of items that are no longer live and membership
// of boards that no longer exist. It reports whether anything changed.
func (s *Store) pruneMembership() bool {
	live := s.liveIDs()
	changed := false
	for boardID, set := range s.boardItems {
		if s.boardIndex(boardID) < 0 {
			delete(s.boardItems, boardID)
			changed = true
			continue
		}
		for id := range set {
			if _, ok := live[id]; !ok {
				delete(set, id)
				changed = true
			}
		}
	}
	return changed
}

// pinnedIDs is the union of every board's membership.
func (s *Store) pinnedIDs() map[uuid.UUID]struct{} {
	pinned := make(map[uuid.UUID]struct{})
	for _, set := range s.boardItems {
		for id := range set {
			pinned[id] = struct{}{}
		}
	}
	return pinned
}

func (s *Store) membership() map[uuid.UUID][]uuid.UUID {
	out := make(map[uuid.UUID][]uuid.UUID, len(s.boardItems))
	for boardID, set := range s.boardItems {
		ids := make([]uuid.UUID, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
		out[boardID] = ids
	}
	return out
}

func toSets(m map[uuid.UUID][]uuid.UUID) map[uuid.UUID]map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]map[uuid.UUID]struct{}, len(m))
	for boardID, ids := range m {
		set := make(map[uuid.UUID]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		out[boardID] = set
	}
	return out
}
