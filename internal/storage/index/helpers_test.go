package index

import (
	"clipcat/internal/storage"
	"clipcat/internal/storage/jsonfile"
	"clipcat/pkg/types"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var roomySettings = storage.StaticSettings{HistoryRetentionDays: 36500, HistoryMaxItems: 1000}

type testEnv struct {
	cfg      storage.Config
	settings storage.SettingsProvider
}

func newEnv(t *testing.T, settings storage.SettingsProvider) *testEnv {
	t.Helper()
	return &testEnv{
		cfg: storage.Config{
			Dir:     t.TempDir(),
			TempDir: t.TempDir(),
		},
		settings: settings,
	}
}

func (e *testEnv) open(t *testing.T, opts ...Option) *Store {
	t.Helper()
	snaps, err := jsonfile.New(e.cfg.IndexPath())
	require.NoError(t, err)
	s, err := New(e.cfg, snaps, e.settings, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestStore(t *testing.T) (*Store, *testEnv) {
	t.Helper()
	env := newEnv(t, roomySettings)
	return env.open(t), env
}

// capture writes data into the transient capture directory.
func (e *testEnv) capture(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(e.cfg.TempDir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func textItem(text string) types.ClipItem {
	item := types.NewClipItem(types.TypeText)
	item.Text = text
	return item
}

func textItemAt(text string, at time.Time) types.ClipItem {
	item := textItem(text)
	item.CopiedAt = at
	return item
}

func ids(items []types.ClipItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID.String()
	}
	return out
}

func texts(items []types.ClipItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}

func mustSave(t *testing.T, s *Store, items ...types.ClipItem) {
	t.Helper()
	for _, it := range items {
		require.NoError(t, s.Save(it))
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// failingSnapshots loads nothing and refuses every write after the first
// failAfter successful ones.
type failingSnapshots struct {
	mu        sync.Mutex
	saves     int
	failAfter int
	last      *storage.Snapshot
}

func (f *failingSnapshots) Load() (*storage.Snapshot, error) { return nil, storage.ErrNoSnapshot }

func (f *failingSnapshots) Save(snap *storage.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saves >= f.failAfter {
		return errors.New("disk full")
	}
	f.saves++
	f.last = snap
	return nil
}

func (f *failingSnapshots) Close() error { return nil }

// unreadableSnapshots fails every Load with loadErr and counts saves.
type unreadableSnapshots struct {
	loadErr error
	saves   int
}

func (u *unreadableSnapshots) Load() (*storage.Snapshot, error) { return nil, u.loadErr }
func (u *unreadableSnapshots) Save(*storage.Snapshot) error     { u.saves++; return nil }
func (u *unreadableSnapshots) Close() error                     { return nil }

// settingsFunc adapts a function to storage.SettingsProvider.
type settingsFunc func() storage.Settings

func (f settingsFunc) Load() storage.Settings { return f() }
