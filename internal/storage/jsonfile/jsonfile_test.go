package jsonfile

import (
	"clipcat/internal/storage"
	"clipcat/pkg/types"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *storage.Snapshot {
	item := types.NewClipItem(types.TypeText)
	item.Text = "hello"
	item.SourceApp = "editor"
	item.CopiedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	board := types.Pinboard{ID: uuid.New(), Name: storage.DefaultBoardName}
	return &storage.Snapshot{
		Items:      []types.ClipItem{item},
		Pinboards:  []types.Pinboard{board},
		BoardItems: map[uuid.UUID][]uuid.UUID{board.ID: {item.ID}},
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "nested", "index.json"))
	require.NoError(t, err)

	_, err = store.Load()
	assert.ErrorIs(t, err, storage.ErrNoSnapshot)
}

func TestFileStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	store, err := New(path)
	require.NoError(t, err)

	snap := sampleSnapshot()
	require.NoError(t, store.Save(snap))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, snap.Items[0].ID, loaded.Items[0].ID)
	assert.Equal(t, "hello", loaded.Items[0].Text)
	assert.True(t, snap.Items[0].CopiedAt.Equal(loaded.Items[0].CopiedAt))
	assert.Equal(t, snap.Pinboards, loaded.Pinboards)
	assert.Equal(t, snap.BoardItems, loaded.BoardItems)

	// No temp files are left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_CorruptMovedAside(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store, err := New(path)
	require.NoError(t, err)

	_, err = store.Load()
	assert.ErrorIs(t, err, storage.ErrCorruptSnapshot)

	_, statErr := os.Stat(path + ".corrupt")
	assert.NoError(t, statErr)
	_, statErr = os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
