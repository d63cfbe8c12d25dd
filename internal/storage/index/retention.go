package index

import (
	"clipcat/pkg/types"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Retention days past this bound overflow time.Duration; the age policy
// cannot evict anything for them.
const maxRetentionDays = math.MaxInt64 / int64(24*time.Hour)

// Cleanup applies the age and count policies with the current settings.
func (s *Store) Cleanup() {
	s.do(s.enforceRetention)
}

func (s *Store) enforceRetention() {
	settings := s.settings.Load()
	s.evictExpired(settings.HistoryRetentionDays)
	s.evictExceeded(settings.HistoryMaxItems)
}

// evictExpired removes unpinned items captured strictly before
// now - days*24h.
func (s *Store) evictExpired(days int) {
	if int64(days) >= maxRetentionDays {
		s.pruneCache()
		return
	}
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	pinned := s.pinnedIDs()

	removed := s.removeWhere(func(it types.ClipItem) bool {
		_, isPinned := pinned[it.ID]
		return !isPinned && it.CopiedAt.Before(cutoff)
	})
	s.evicted(removed, "age")
}

// evictExceeded keeps at most limit unpinned items, evicting the oldest
// captures first. A limit of zero or less keeps no unpinned item.
func (s *Store) evictExceeded(limit int) {
	pinned := s.pinnedIDs()

	if limit <= 0 {
		removed := s.removeWhere(func(it types.ClipItem) bool {
			_, isPinned := pinned[it.ID]
			return !isPinned
		})
		s.evicted(removed, "count")
		return
	}

	type candidate struct {
		id       uuid.UUID
		copiedAt time.Time
		position int
	}
	var unpinned []candidate
	for i, it := range s.items {
		if _, isPinned := pinned[it.ID]; !isPinned {
			unpinned = append(unpinned, candidate{it.ID, it.CopiedAt, i})
		}
	}
	excess := len(unpinned) - limit
	if excess <= 0 {
		s.pruneCache()
		return
	}

	// Oldest capture first; on equal times the entry further down the
	// history goes first.
	slices.SortFunc(unpinned, func(a, b candidate) int {
		if c := a.copiedAt.Compare(b.copiedAt); c != 0 {
			return c
		}
		return b.position - a.position
	})
	drop := make(map[uuid.UUID]struct{}, excess)
	for _, c := range unpinned[:excess] {
		drop[c.id] = struct{}{}
	}

	removed := s.removeWhere(func(it types.ClipItem) bool {
		_, ok := drop[it.ID]
		return ok
	})
	s.evicted(removed, "count")
}

// evicted prunes the search cache and persists only when items were removed.
func (s *Store) evicted(removed []types.ClipItem, policy string) {
	s.pruneCache()
	if len(removed) == 0 {
		return
	}
	s.logger.Debug("evicted history items", "policy", policy, "count", len(removed))
	s.forget(removed)
	s.persist()
}
