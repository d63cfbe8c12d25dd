package index

import (
	"clipcat/internal/storage"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRetention_CountLimitEvictsOldest(t *testing.T) {
	env := newEnv(t, storage.StaticSettings{HistoryRetentionDays: 36500, HistoryMaxItems: 5})
	s := env.open(t)

	for i := 0; i < 6; i++ {
		mustSave(t, s, textItemAt(fmt.Sprintf("clip %d", i), epoch.Add(time.Duration(i)*time.Minute)))
	}

	got := texts(s.ListItems(s.DefaultBoardID()))
	assert.Equal(t, []string{"clip 5", "clip 4", "clip 3", "clip 2", "clip 1"}, got)
}

func TestRetention_PinnedItemsAreExempt(t *testing.T) {
	env := newEnv(t, storage.StaticSettings{HistoryRetentionDays: 36500, HistoryMaxItems: 5})
	s := env.open(t)
	board := s.CreatePinboard("keep", "")

	oldest := textItemAt("clip 0", epoch)
	mustSave(t, s, oldest)
	s.Pin(oldest.ID, board)
	for i := 1; i < 7; i++ {
		mustSave(t, s, textItemAt(fmt.Sprintf("clip %d", i), epoch.Add(time.Duration(i)*time.Minute)))
	}

	got := texts(s.ListItems(s.DefaultBoardID()))
	assert.Equal(t, []string{"clip 6", "clip 5", "clip 4", "clip 3", "clip 2", "clip 0"}, got)
}

func TestRetention_EqualTimesEvictFurthestDown(t *testing.T) {
	env := newEnv(t, storage.StaticSettings{HistoryRetentionDays: 36500, HistoryMaxItems: 2})
	s := env.open(t)

	for _, text := range []string{"a", "b", "c"} {
		mustSave(t, s, textItemAt(text, epoch))
	}
	assert.Equal(t, []string{"c", "b"}, texts(s.ListItems(s.DefaultBoardID())))
}

func TestRetention_ZeroLimitKeepsOnlyPinned(t *testing.T) {
	env := newEnv(t, storage.StaticSettings{HistoryRetentionDays: 36500, HistoryMaxItems: 0})
	s := env.open(t)

	mustSave(t, s, textItem("gone"))
	assert.Empty(t, s.ListItems(s.DefaultBoardID()))

	board := s.CreatePinboard("keep", "")
	kept := textItem("kept")
	s.Pin(kept.ID, board)
	mustSave(t, s, kept)
	assert.Equal(t, []string{"kept"}, texts(s.ListItems(s.DefaultBoardID())))
}

func TestRetention_AgePolicy(t *testing.T) {
	clock := &fakeClock{now: epoch}
	env := newEnv(t, storage.StaticSettings{HistoryRetentionDays: 7, HistoryMaxItems: 100})
	s := env.open(t, WithClock(clock.Now))
	board := s.CreatePinboard("keep", "")

	stale := textItemAt("stale", epoch.Add(-8*24*time.Hour))
	mustSave(t, s, stale)
	assert.Empty(t, s.ListItems(s.DefaultBoardID()), "items older than the window are evicted on save")

	edge := textItemAt("edge", epoch.Add(-7*24*time.Hour))
	recent := textItemAt("recent", epoch.Add(-time.Hour))
	pinned := textItemAt("pinned", epoch.Add(-6*24*time.Hour))
	mustSave(t, s, edge, recent, pinned)
	s.Pin(pinned.ID, board)
	assert.Equal(t, []string{"pinned", "recent", "edge"}, texts(s.ListItems(s.DefaultBoardID())),
		"an item exactly at the cutoff is kept")

	clock.Advance(2 * 24 * time.Hour)
	s.Cleanup()
	assert.Equal(t, []string{"pinned", "recent"}, texts(s.ListItems(s.DefaultBoardID())))

	clock.Advance(30 * 24 * time.Hour)
	s.Cleanup()
	assert.Equal(t, []string{"pinned"}, texts(s.ListItems(s.DefaultBoardID())))
}

func TestRetention_SettingsReadOnEveryUse(t *testing.T) {
	var limit atomic.Int32
	limit.Store(10)
	settings := settingsFunc(func() storage.Settings {
		return storage.Settings{HistoryRetentionDays: 36500, HistoryMaxItems: int(limit.Load())}
	})
	s := newEnv(t, settings).open(t)

	for i := 0; i < 4; i++ {
		mustSave(t, s, textItemAt(fmt.Sprintf("clip %d", i), epoch.Add(time.Duration(i)*time.Second)))
	}
	require.Len(t, s.ListItems(s.DefaultBoardID()), 4)

	limit.Store(2)
	s.Cleanup()
	assert.Equal(t, []string{"clip 3", "clip 2"}, texts(s.ListItems(s.DefaultBoardID())))
}

func TestRetention_AppliedAtStartup(t *testing.T) {
	env := newEnv(t, roomySettings)
	first := env.open(t)
	for i := 0; i < 6; i++ {
		mustSave(t, first, textItemAt(fmt.Sprintf("clip %d", i), epoch.Add(time.Duration(i)*time.Minute)))
	}
	require.NoError(t, first.Close())

	env.settings = storage.StaticSettings{HistoryRetentionDays: 36500, HistoryMaxItems: 3}
	second := env.open(t)
	assert.Equal(t, []string{"clip 5", "clip 4", "clip 3"}, texts(second.ListItems(second.DefaultBoardID())))
}

func TestRetention_EvictionRemovesPayload(t *testing.T) {
	env := newEnv(t, storage.StaticSettings{HistoryRetentionDays: 36500, HistoryMaxItems: 1})
	s := env.open(t)

	first := textItemAt("", epoch)
	first.ContentRef = env.capture(t, "first.txt", []byte("first payload"))
	mustSave(t, s, first)
	stored, ok := s.Item(first.ID)
	require.True(t, ok)

	mustSave(t, s, textItemAt("second", epoch.Add(time.Minute)))

	_, ok = s.Item(first.ID)
	assert.False(t, ok)
	assert.NoFileExists(t, stored.ContentRef)
}
