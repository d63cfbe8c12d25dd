package service

import (
	"clipcat/internal/clipboard"
	"clipcat/internal/storage"
	"clipcat/internal/storage/index"
	"clipcat/pkg/types"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*ClipboardService, *clipboard.Inbox, *index.Store) {
	t.Helper()
	cfg := storage.Config{Dir: t.TempDir(), TempDir: t.TempDir()}
	store, err := index.Open(cfg, storage.StaticSettings{HistoryRetentionDays: 30, HistoryMaxItems: 100})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	inbox := clipboard.NewInbox(8)
	return New(inbox, store), inbox, store
}

func text(s string) types.ClipItem {
	item := types.NewClipItem(types.TypeText)
	item.Text = s
	return item
}

func TestService_StoresCaptures(t *testing.T) {
	svc, inbox, store := setupService(t)

	var changes atomic.Int32
	svc.RegisterHandler(HandlerFunc(func() { changes.Add(1) }))
	require.NoError(t, svc.Start())

	require.NoError(t, inbox.Push(text("first")))
	require.NoError(t, inbox.Push(types.NewClipItem(types.TypeText))) // empty, skipped
	link := types.NewClipItem(types.TypeLink)
	link.Metadata[types.MetaURL] = "https://example.com"
	require.NoError(t, inbox.Push(link))
	require.NoError(t, svc.Stop())

	items := store.ListItems(store.DefaultBoardID())
	require.Len(t, items, 2)
	assert.Equal(t, link.ID, items[0].ID)
	assert.Equal(t, "first", items[1].Text)
	assert.Equal(t, int32(2), changes.Load())
}

func TestService_GetClipByIndex(t *testing.T) {
	svc, _, store := setupService(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(text(fmt.Sprintf("clip %d", i))))
	}

	clip, err := svc.GetClipByIndex(0)
	require.NoError(t, err)
	assert.Equal(t, "clip 2", clip.Text)

	_, err = svc.GetClipByIndex(3)
	var clipErr *ClipboardError
	require.True(t, errors.As(err, &clipErr))
	assert.Equal(t, 3, clipErr.Index)

	_, err = svc.GetClipByIndex(-1)
	assert.Error(t, err)
}

func TestService_PromoteByIndex(t *testing.T) {
	svc, _, store := setupService(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(text(fmt.Sprintf("clip %d", i))))
	}

	require.NoError(t, svc.PromoteByIndex(2))
	assert.Equal(t, "clip 0", svc.GetClips(1, 0)[0].Text)
	assert.Error(t, svc.PromoteByIndex(10))
}

func TestService_DeleteAndClear(t *testing.T) {
	svc, _, store := setupService(t)
	keep, drop := text("keep"), text("drop")
	require.NoError(t, store.Save(keep))
	require.NoError(t, store.Save(drop))
	require.NoError(t, store.Save(text("other")))
	board := store.CreatePinboard("pinned", "")
	store.Pin(keep.ID, board)

	require.NoError(t, svc.DeleteClip(drop.ID.String()))
	assert.Error(t, svc.DeleteClip("not-a-uuid"))
	assert.Len(t, svc.GetClips(10, 0), 2)

	assert.Equal(t, 1, svc.ClearClips())
	got := svc.GetClips(10, 0)
	require.Len(t, got, 1)
	assert.Equal(t, keep.ID, got[0].ID)
}

func TestService_StartFailure(t *testing.T) {
	cfg := storage.Config{Dir: t.TempDir(), TempDir: t.TempDir()}
	store, err := index.Open(cfg, storage.StaticSettings{HistoryRetentionDays: 30, HistoryMaxItems: 100})
	require.NoError(t, err)
	defer store.Close()

	svc := New(brokenMonitor{}, store)
	err = svc.Start()
	var clipErr *ClipboardError
	require.True(t, errors.As(err, &clipErr))
	assert.Equal(t, "Start", clipErr.Op)
	assert.ErrorIs(t, err, errBroken)
}

func TestService_HandlersStopAfterStop(t *testing.T) {
	svc, _, store := setupService(t)
	var changes atomic.Int32
	svc.RegisterHandler(HandlerFunc(func() { changes.Add(1) }))
	require.NoError(t, svc.Start())
	require.NoError(t, svc.Stop())

	require.NoError(t, store.Save(text("after stop")))
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, changes.Load())
}

var errBroken = errors.New("no pasteboard")

type brokenMonitor struct{}

func (brokenMonitor) Start() error                  { return errBroken }
func (brokenMonitor) Stop() error                   { return nil }
func (brokenMonitor) OnChange(func(types.ClipItem)) {}
