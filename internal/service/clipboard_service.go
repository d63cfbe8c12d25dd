package service

import (
	"clipcat/internal/clipboard"
	"clipcat/internal/storage"
	"clipcat/pkg/types"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Custom error types for better error handling
type ClipboardError struct {
	Op      string // Operation that failed
	Index   int    // Index involved (if applicable)
	Message string // Error message
	Err     error  // Underlying error
}

func (e *ClipboardError) Error() string {
	msg := fmt.Sprintf("%s failed: %s", e.Op, e.Message)
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s failed for index %d: %s", e.Op, e.Index, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ClipboardError) Unwrap() error {
	return e.Err
}

// ClipboardService feeds captures from a monitor into the index and fans
// index changes out to registered handlers.
type ClipboardService struct {
	monitor  clipboard.Monitor
	store    storage.Index
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	handlers []ChangeHandler
	sub      storage.Subscription
	mu       sync.RWMutex
}

// New creates a new ClipboardService
func New(monitor clipboard.Monitor, store storage.Index) *ClipboardService {
	ctx, cancel := context.WithCancel(context.Background())
	return &ClipboardService{
		monitor: monitor,
		store:   store,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// RegisterHandler adds a new change handler
func (s *ClipboardService) RegisterHandler(handler ChangeHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Start begins handling captures and store changes
func (s *ClipboardService) Start() error {
	s.sub = s.store.Subscribe(s.indexChanged)

	s.monitor.OnChange(func(item types.ClipItem) {
		if err := s.handleCapture(item); err != nil {
			slog.Warn("Error handling clipboard capture", "error", err)
		}
	})

	if err := s.monitor.Start(); err != nil {
		s.store.Unsubscribe(s.sub)
		return &ClipboardError{
			Op:      "Start",
			Index:   -1,
			Message: "failed to start clipboard monitor",
			Err:     err,
		}
	}
	slog.Info("Clipboard service started")
	return nil
}

// Stop gracefully shuts down the service
func (s *ClipboardService) Stop() error {
	if err := s.monitor.Stop(); err != nil {
		return &ClipboardError{
			Op:      "Stop",
			Index:   -1,
			Message: "failed to stop clipboard monitor",
			Err:     err,
		}
	}

	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.store.Unsubscribe(s.sub)

	s.wg.Wait()
	return nil
}

// GetClips returns a page of the history
func (s *ClipboardService) GetClips(limit, offset int) []types.ClipItem {
	return s.store.Query(storage.SearchFilters{}, "", limit, offset)
}

// GetClipByIndex returns the nth most recent clip (0 being the most recent)
func (s *ClipboardService) GetClipByIndex(index int) (types.ClipItem, error) {
	if index < 0 {
		return types.ClipItem{}, &ClipboardError{
			Op:      "GetClipByIndex",
			Index:   index,
			Message: "index must not be negative",
		}
	}
	clips := s.store.Query(storage.SearchFilters{}, "", 1, index)
	if len(clips) == 0 {
		return types.ClipItem{}, &ClipboardError{
			Op:      "GetClipByIndex",
			Index:   index,
			Message: "clip not found",
		}
	}
	return clips[0], nil
}

// PromoteByIndex moves the nth most recent clip to the front of the history
func (s *ClipboardService) PromoteByIndex(index int) error {
	clip, err := s.GetClipByIndex(index)
	if err != nil {
		return &ClipboardError{
			Op:      "PromoteByIndex",
			Index:   index,
			Message: "failed to retrieve clip",
			Err:     err,
		}
	}
	s.store.MoveToFront(clip.ID)
	return nil
}

// DeleteClip deletes a clip by its ID
func (s *ClipboardService) DeleteClip(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return &ClipboardError{
			Op:      "DeleteClip",
			Index:   -1,
			Message: fmt.Sprintf("invalid clip id %q", id),
			Err:     err,
		}
	}
	s.store.Delete(parsed)
	return nil
}

// ClearClips deletes every clip not pinned to a board
func (s *ClipboardService) ClearClips() int {
	pinned := make(map[uuid.UUID]struct{})
	def := s.store.DefaultBoardID()
	for _, board := range s.store.ListPinboards() {
		if board.ID == def {
			continue
		}
		for _, it := range s.store.ListItems(board.ID) {
			pinned[it.ID] = struct{}{}
		}
	}

	n := 0
	for _, it := range s.store.ListItems(def) {
		if _, ok := pinned[it.ID]; ok {
			continue
		}
		s.store.Delete(it.ID)
		n++
	}
	return n
}

// Search filters the history
func (s *ClipboardService) Search(filters storage.SearchFilters, text string, limit, offset int) []types.ClipItem {
	return s.store.Query(filters, text, limit, offset)
}

// handleCapture stores a captured clip
func (s *ClipboardService) handleCapture(item types.ClipItem) error {
	_, hasURL := item.URL()
	if item.Text == "" && item.ContentRef == "" && !hasURL && item.Type != types.TypeColor {
		slog.Debug("Skipping empty capture", "id", item.ID)
		return nil
	}

	if err := s.store.Save(item); err != nil {
		return &ClipboardError{
			Op:      "handleCapture",
			Index:   -1,
			Message: "failed to store clip",
			Err:     err,
		}
	}
	slog.Debug("Stored clipboard capture", "id", item.ID, "type", item.Type, "source", item.SourceApp)
	return nil
}

// indexChanged runs after every store persist on the mutating goroutine.
// Handlers run on their own goroutine.
func (s *ClipboardService) indexChanged() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.handlers) == 0 || s.ctx.Err() != nil {
		return
	}
	handlers := s.handlers

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for _, handler := range handlers {
			handler.HandleIndexChange()
		}
	}()
}
