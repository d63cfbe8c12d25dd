// Package index is the clip history store: an in-memory item list, boards and
// board membership, persisted as whole snapshots after every mutation, with
// large payloads kept in a content directory keyed by item id.
//
// All state is owned by a single lane (one mutex). Exported methods enter the
// lane exactly once and only call unexported helpers while inside it, so no
// operation can re-enter the lane it already holds. Change notifications are
// delivered after the lane is released, which lets observers call back into
// the store.
package index

import (
	"clipcat/internal/storage"
	"clipcat/internal/storage/jsonfile"
	"clipcat/internal/storage/sqlite"
	"clipcat/pkg/types"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Option customizes a Store
type Option func(*Store)

// WithClock replaces the time source used by the retention policy
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger for absorbed failures
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store is the clip history index.
type Store struct {
	mu             sync.Mutex
	items          []types.ClipItem // most recent first
	pinboards      []types.Pinboard
	boardItems     map[uuid.UUID]map[uuid.UUID]struct{}
	textCache      map[uuid.UUID]string
	defaultBoardID uuid.UUID
	pending        int // successful persists not yet announced

	content   *contentDir
	snapshots storage.SnapshotStore
	settings  storage.SettingsProvider
	now       func() time.Time
	logger    *slog.Logger

	subsMu  sync.RWMutex
	subs    map[storage.Subscription]func()
	nextSub storage.Subscription
}

var _ storage.Index = (*Store)(nil)

// Open creates the snapshot backend named by cfg.Backend and returns a store on it.
func Open(cfg storage.Config, settings storage.SettingsProvider, opts ...Option) (*Store, error) {
	var (
		snaps storage.SnapshotStore
		err   error
	)
	switch cfg.Backend {
	case "", storage.BackendJSON:
		snaps, err = jsonfile.New(cfg.IndexPath())
	case storage.BackendSQLite:
		snaps, err = sqlite.New(cfg.DBPath())
	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	s, err := New(cfg, snaps, settings, opts...)
	if err != nil {
		snaps.Close()
		return nil, err
	}
	return s, nil
}

// New loads the last snapshot from snaps, ensures the default board exists
// and applies the retention policy.
func New(cfg storage.Config, snaps storage.SnapshotStore, settings storage.SettingsProvider, opts ...Option) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("storage directory can not be empty")
	}
	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	content, err := newContentDir(cfg.ContentPath(), tempDir)
	if err != nil {
		return nil, err
	}

	s := &Store{
		items:      []types.ClipItem{},
		pinboards:  []types.Pinboard{},
		boardItems: make(map[uuid.UUID]map[uuid.UUID]struct{}),
		textCache:  make(map[uuid.UUID]string),
		content:    content,
		snapshots:  snaps,
		settings:   settings,
		now:        time.Now,
		logger:     slog.Default(),
		subs:       make(map[storage.Subscription]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.content.logger = s.logger

	s.do(func() {
		if err = s.load(); err == nil {
			s.enforceRetention()
		}
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the snapshot backend.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots.Close()
}

// do runs fn on the lane, then announces every persist fn made.
func (s *Store) do(fn func()) {
	for range s.run(fn) {
		s.notify()
	}
}

func (s *Store) run(fn func()) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
	n := s.pending
	s.pending = 0
	return n
}

// Save materializes the item's payload, drops equivalent history entries,
// upserts the item and applies retention. Only invalid input is reported.
func (s *Store) Save(item types.ClipItem) error {
	if item.ID == uuid.Nil {
		return storage.ErrInvalidID
	}
	if !item.Type.Valid() {
		return fmt.Errorf("%w: %q", storage.ErrInvalidType, item.Type)
	}
	item = normalize(item.Clone())

	s.do(func() { s.save(item) })
	return nil
}

func (s *Store) save(item types.ClipItem) {
	persisted, err := s.content.materialize(item)
	if err != nil {
		s.logger.Warn("keeping transient content reference", "id", item.ID, "ref", item.ContentRef, "error", err)
	}

	removed := s.removeWhere(func(existing types.ClipItem) bool {
		return isDuplicate(existing, persisted)
	})
	if i := s.indexOf(persisted.ID); i >= 0 {
		s.items[i] = persisted
	} else {
		s.items = append([]types.ClipItem{persisted}, s.items...)
	}
	delete(s.textCache, persisted.ID)
	s.forget(removed)

	s.persist()
	s.enforceRetention()
}

// Delete removes the item and drops it from every board.
func (s *Store) Delete(id uuid.UUID) {
	s.do(func() {
		removed := s.removeWhere(func(it types.ClipItem) bool { return it.ID == id })
		unpinned := false
		for _, set := range s.boardItems {
			if _, ok := set[id]; ok {
				delete(set, id)
				unpinned = true
			}
		}
		delete(s.textCache, id)
		if len(removed) == 0 && !unpinned {
			return
		}
		s.forget(removed)
		s.persist()
	})
}

// Item returns the item with the given id.
func (s *Store) Item(id uuid.UUID) (types.ClipItem, bool) {
	var (
		item  types.ClipItem
		found bool
	)
	s.do(func() {
		if i := s.indexOf(id); i >= 0 {
			item, found = s.items[i].Clone(), true
		}
	})
	return item, found
}

// load restores the last snapshot. A missing or corrupt snapshot starts a
// fresh index; any other failure is returned so the history on disk is not
// overwritten.
func (s *Store) load() error {
	snap, err := s.snapshots.Load()
	switch {
	case errors.Is(err, storage.ErrCorruptSnapshot):
		s.logger.Warn("index is corrupt, starting empty", "error", err)
		fallthrough
	case errors.Is(err, storage.ErrNoSnapshot):
		s.ensureDefaultBoard()
		s.persist()
		return nil
	case err != nil:
		return fmt.Errorf("failed to load index: %w", err)
	}

	for _, item := range snap.Items {
		s.items = append(s.items, normalize(item))
	}
	if snap.Pinboards != nil {
		s.pinboards = snap.Pinboards
	}
	s.boardItems = toSets(snap.BoardItems)

	changed := s.ensureDefaultBoard()
	if s.pruneMembership() {
		changed = true
	}
	if changed {
		s.persist()
	}
	return nil
}

// persist writes the snapshot. A failed write is logged and leaves the
// previous snapshot authoritative; memory is not rolled back.
func (s *Store) persist() {
	if err := s.snapshots.Save(s.snapshot()); err != nil {
		s.logger.Error("failed to persist index", "error", err)
		return
	}
	s.pending++
}

func (s *Store) snapshot() *storage.Snapshot {
	return &storage.Snapshot{
		Items:      s.items,
		Pinboards:  s.pinboards,
		BoardItems: s.membership(),
	}
}

func (s *Store) indexOf(id uuid.UUID) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// removeWhere drops every item matching drop and returns them.
func (s *Store) removeWhere(drop func(types.ClipItem) bool) []types.ClipItem {
	var removed []types.ClipItem
	kept := make([]types.ClipItem, 0, len(s.items))
	for _, it := range s.items {
		if drop(it) {
			removed = append(removed, it)
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept
	return removed
}

// forget clears what removed items leave behind: cached text, board
// membership and payload files no live item references.
func (s *Store) forget(removed []types.ClipItem) {
	if len(removed) == 0 {
		return
	}
	s.pruneCache()
	s.pruneMembership()
	s.releasePayloads(removed)
}

func (s *Store) liveIDs() map[uuid.UUID]struct{} {
	ids := make(map[uuid.UUID]struct{}, len(s.items))
	for _, it := range s.items {
		ids[it.ID] = struct{}{}
	}
	return ids
}

func (s *Store) pruneCache() {
	live := s.liveIDs()
	for id := range s.textCache {
		if _, ok := live[id]; !ok {
			delete(s.textCache, id)
		}
	}
}

func (s *Store) releasePayloads(removed []types.ClipItem) {
	inUse := make(map[string]struct{}, len(s.items))
	for _, it := range s.items {
		if it.ContentRef != "" {
			inUse[it.ContentRef] = struct{}{}
		}
	}
	for _, it := range removed {
		if it.ContentRef == "" || !s.content.owns(it.ContentRef) {
			continue
		}
		if _, ok := inUse[it.ContentRef]; ok {
			continue
		}
		if err := s.content.remove(it.ContentRef); err != nil {
			s.logger.Warn("failed to remove payload", "ref", it.ContentRef, "error", err)
		}
	}
}

func normalize(item types.ClipItem) types.ClipItem {
	if item.Metadata == nil {
		item.Metadata = map[string]string{}
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	return item
}

func cloneItems(items []types.ClipItem) []types.ClipItem {
	out := make([]types.ClipItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}
