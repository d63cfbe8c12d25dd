package index

import (
	"clipcat/internal/storage"
	"clipcat/pkg/types"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesDefaultBoard(t *testing.T) {
	s, env := newTestStore(t)

	boards := s.ListPinboards()
	require.Len(t, boards, 1)
	assert.Equal(t, storage.DefaultBoardName, boards[0].Name)
	assert.Equal(t, 0, boards[0].Order)
	assert.Equal(t, boards[0].ID, s.DefaultBoardID())

	_, err := os.Stat(env.cfg.IndexPath())
	assert.NoError(t, err, "fresh store writes its index")
	_, err = os.Stat(env.cfg.ContentPath())
	assert.NoError(t, err, "content directory is created")
}

func TestNew_RequiresDir(t *testing.T) {
	_, err := New(storage.Config{}, &failingSnapshots{}, roomySettings)
	assert.Error(t, err)
}

func TestNew_LoadFailureKeepsHistory(t *testing.T) {
	env := newEnv(t, roomySettings)
	snaps := &unreadableSnapshots{loadErr: errors.New("permission denied")}

	_, err := New(env.cfg, snaps, env.settings)
	assert.Error(t, err)
	assert.Zero(t, snaps.saves, "an unreadable index must not be replaced")
}

func TestNew_CorruptSnapshotStartsFresh(t *testing.T) {
	env := newEnv(t, roomySettings)
	require.NoError(t, os.WriteFile(env.cfg.IndexPath(), []byte("{not json"), 0o644))

	s := env.open(t)

	assert.Empty(t, s.ListItems(s.DefaultBoardID()))
	assert.Len(t, s.ListPinboards(), 1)
	assert.FileExists(t, env.cfg.IndexPath()+".corrupt")

	snaps := &unreadableSnapshots{loadErr: fmt.Errorf("%w: bad row", storage.ErrCorruptSnapshot)}
	_, err := New(env.cfg, snaps, env.settings)
	require.NoError(t, err)
	assert.Equal(t, 1, snaps.saves)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(storage.Config{Dir: t.TempDir(), Backend: "leveldb"}, roomySettings)
	assert.ErrorIs(t, err, storage.ErrUnknownBackend)
}

func TestNew_ReloadsSnapshot(t *testing.T) {
	env := newEnv(t, roomySettings)
	first := env.open(t)

	a, b := textItem("alpha"), textItem("beta")
	mustSave(t, first, a, b)
	board := first.CreatePinboard("work", "#00ff00")
	first.Pin(a.ID, board)
	defaultID := first.DefaultBoardID()
	require.NoError(t, first.Close())

	second := env.open(t)
	assert.Equal(t, []string{"beta", "alpha"}, texts(second.Query(storage.SearchFilters{}, "", 10, 0)))
	assert.Equal(t, defaultID, second.DefaultBoardID())
	assert.Equal(t, []string{a.ID.String()}, ids(second.ListItems(board)))
	assert.Len(t, second.ListPinboards(), 2)
}

func TestOpen_SQLiteBackend(t *testing.T) {
	cfg := storage.Config{Dir: t.TempDir(), TempDir: t.TempDir(), Backend: storage.BackendSQLite}

	s, err := Open(cfg, roomySettings)
	require.NoError(t, err)
	item := textItem("stored in sqlite")
	mustSave(t, s, item)
	require.NoError(t, s.Close())

	reopened, err := Open(cfg, roomySettings)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok := reopened.Item(item.ID)
	require.True(t, ok)
	assert.Equal(t, "stored in sqlite", got.Text)
}

func TestSave_RejectsInvalidInput(t *testing.T) {
	s, _ := newTestStore(t)

	item := textItem("x")
	item.ID = uuid.Nil
	assert.ErrorIs(t, s.Save(item), storage.ErrInvalidID)

	item = textItem("x")
	item.Type = "video"
	assert.ErrorIs(t, s.Save(item), storage.ErrInvalidType)

	assert.Empty(t, s.Query(storage.SearchFilters{}, "", 10, 0))
}

func TestSave_UpsertKeepsPosition(t *testing.T) {
	s, _ := newTestStore(t)

	a, b, c := textItem("a"), textItem("b"), textItem("c")
	mustSave(t, s, a, b, c)

	updated := b
	updated.Text = "b edited"
	mustSave(t, s, updated)

	assert.Equal(t, []string{"c", "b edited", "a"}, texts(s.ListItems(s.DefaultBoardID())))
}

func TestSave_ReturnsCopies(t *testing.T) {
	s, _ := newTestStore(t)
	item := textItem("a")
	item.Metadata["k"] = "v"
	mustSave(t, s, item)

	item.Metadata["k"] = "changed"
	got, ok := s.Item(item.ID)
	require.True(t, ok)
	assert.Equal(t, "v", got.Metadata["k"])

	got.Metadata["k"] = "changed again"
	again, _ := s.Item(item.ID)
	assert.Equal(t, "v", again.Metadata["k"])
}

func TestSave_MaterializesTransientContent(t *testing.T) {
	s, env := newTestStore(t)
	payload := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}

	image := types.NewClipItem(types.TypeImage)
	image.ContentRef = env.capture(t, "capture.png", payload)
	mustSave(t, s, image)

	got, ok := s.Item(image.ID)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(env.cfg.ContentPath(), image.ID.String()+".png"), got.ContentRef)

	stored, err := os.ReadFile(got.ContentRef)
	require.NoError(t, err)
	assert.Equal(t, payload, stored)
}

func TestSave_MaterializeInfersExtension(t *testing.T) {
	tests := []struct {
		clipType types.ClipType
		ext      string
	}{
		{types.TypeImage, ".png"},
		{types.TypeText, ".rtf"},
		{types.TypeFile, ".dat"},
	}
	for _, tt := range tests {
		t.Run(string(tt.clipType), func(t *testing.T) {
			s, env := newTestStore(t)
			item := types.NewClipItem(tt.clipType)
			item.ContentRef = env.capture(t, "payload", []byte("data"))
			mustSave(t, s, item)

			got, _ := s.Item(item.ID)
			assert.Equal(t, item.ID.String()+tt.ext, filepath.Base(got.ContentRef))
		})
	}
}

func TestSave_MaterializeFailureKeepsReference(t *testing.T) {
	s, env := newTestStore(t)

	missing := filepath.Join(env.cfg.TempDir, "gone.png")
	image := types.NewClipItem(types.TypeImage)
	image.ContentRef = missing
	mustSave(t, s, image)

	got, ok := s.Item(image.ID)
	require.True(t, ok)
	assert.Equal(t, missing, got.ContentRef)
}

func TestSave_NonTransientReferenceUntouched(t *testing.T) {
	s, _ := newTestStore(t)

	doc := filepath.Join(t.TempDir(), "report.pdf")
	file := types.NewClipItem(types.TypeFile)
	file.ContentRef = doc
	mustSave(t, s, file)

	got, _ := s.Item(file.ID)
	assert.Equal(t, doc, got.ContentRef)
}

func TestDelete(t *testing.T) {
	s, env := newTestStore(t)

	image := types.NewClipItem(types.TypeImage)
	image.ContentRef = env.capture(t, "shot.png", []byte("png"))
	other := textItem("keep")
	mustSave(t, s, image, other)
	board := s.CreatePinboard("b", "")
	s.Pin(image.ID, board)

	stored, _ := s.Item(image.ID)
	s.Delete(image.ID)

	_, ok := s.Item(image.ID)
	assert.False(t, ok)
	assert.Empty(t, s.ListItems(board))
	assert.Equal(t, []string{"keep"}, texts(s.ListItems(s.DefaultBoardID())))

	_, err := os.Stat(stored.ContentRef)
	assert.True(t, os.IsNotExist(err), "payload of a deleted item is removed")

	// Deleting an unknown id is a no-op
	s.Delete(uuid.New())
	assert.Len(t, s.ListItems(s.DefaultBoardID()), 1)
}

func TestPersistFailure_KeepsMemoryAndSkipsNotification(t *testing.T) {
	env := newEnv(t, roomySettings)
	snaps := &failingSnapshots{failAfter: 1} // the initial index write succeeds
	s, err := New(env.cfg, snaps, roomySettings)
	require.NoError(t, err)

	var notified atomic.Int32
	s.Subscribe(func() { notified.Add(1) })

	mustSave(t, s, textItem("only in memory"))

	assert.Equal(t, []string{"only in memory"}, texts(s.Query(storage.SearchFilters{}, "", 10, 0)))
	assert.Equal(t, int32(0), notified.Load())
	assert.Empty(t, snaps.last.Items, "disk keeps the last good snapshot")
}

func TestSubscribe(t *testing.T) {
	s, _ := newTestStore(t)

	var count atomic.Int32
	sub := s.Subscribe(func() { count.Add(1) })

	mustSave(t, s, textItem("a"))
	assert.Equal(t, int32(1), count.Load())

	// Reads do not notify
	s.Query(storage.SearchFilters{}, "", 10, 0)
	s.ListPinboards()
	assert.Equal(t, int32(1), count.Load())

	s.Unsubscribe(sub)
	mustSave(t, s, textItem("b"))
	assert.Equal(t, int32(1), count.Load())
}

func TestSubscribe_ObserverMayCallBack(t *testing.T) {
	s, _ := newTestStore(t)

	var seen []int
	s.Subscribe(func() {
		seen = append(seen, len(s.Query(storage.SearchFilters{}, "", 100, 0)))
	})

	mustSave(t, s, textItem("a"), textItem("b"))
	assert.Equal(t, []int{1, 2}, seen)
}

func TestConcurrentSaves(t *testing.T) {
	s, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Save(textItem(fmt.Sprintf("clip %d", i))))
			s.Query(storage.SearchFilters{}, "clip", 10, 0)
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.ListItems(s.DefaultBoardID()), 50)
}
