package server

import (
	"clipcat/internal/clipboard"
	"clipcat/internal/storage"
	"clipcat/pkg/types"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	var item types.ClipItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid clip: "+err.Error())
		return
	}
	if !item.Type.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid clip type %q", item.Type))
		return
	}
	if item.ContentRef != "" && !s.acceptsRef(item.ContentRef) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("content reference %q is outside the capture directory", item.ContentRef))
		return
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CopiedAt.IsZero() {
		item.CopiedAt = time.Now()
	}

	if err := s.inbox.Push(item); err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, clipboard.ErrInboxFull) {
			status = http.StatusTooManyRequests
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": item.ID.String()})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", defaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err := intQuery(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var filters storage.SearchFilters
	for _, t := range listQuery(r, "type") {
		ct := types.ClipType(t)
		if !ct.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid clip type %q", t))
			return
		}
		filters.Types = append(filters.Types, ct)
	}
	filters.SourceApps = listQuery(r, "app")

	writeJSON(w, http.StatusOK, s.clipService.Search(filters, r.URL.Query().Get("q"), limit, offset))
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, ok := s.store.Item(id)
	if !ok {
		writeError(w, http.StatusNotFound, "clip not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.clipService.DeleteClip(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", defaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err := intQuery(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.clipService.GetClips(limit, offset))
}

func (s *Server) handleHistoryItem(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	clip, err := s.clipService.GetClipByIndex(index)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, clip)
}

func (s *Server) handlePromote(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.clipService.PromoteByIndex(index); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	n := s.clipService.ClearClips()
	slog.Info("Clipboard history cleared", "deleted-items", n)
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (s *Server) handleMoveToFront(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.store.MoveToFront(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	before, err := uuid.Parse(r.URL.Query().Get("before"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid before: "+err.Error())
		return
	}
	s.store.Reorder(id, before)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"defaultBoardId": s.store.DefaultBoardID(),
		"boards":         s.store.ListPinboards(),
	})
}

type boardRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (s *Server) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var req boardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid board: "+err.Error())
		return
	}
	if req.Name == nil || *req.Name == "" {
		writeError(w, http.StatusBadRequest, "board name is required")
		return
	}
	color := ""
	if req.Color != nil {
		color = *req.Color
	}
	id := s.store.CreatePinboard(*req.Name, color)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleUpdateBoard(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req boardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid board: "+err.Error())
		return
	}
	if req.Name != nil {
		s.store.UpdatePinboardName(id, *req.Name)
	}
	if req.Color != nil {
		s.store.UpdatePinboardColor(id, *req.Color)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.store.DeletePinboard(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBoardItems(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.store.ListItems(id))
}

// membershipParams parses the board and item ids of a membership route
func membershipParams(w http.ResponseWriter, r *http.Request) (board, item uuid.UUID, ok bool) {
	board, err := uuidParam(r, "id")
	if err == nil {
		item, err = uuidParam(r, "itemID")
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	return board, item, true
}

func (s *Server) handlePin(w http.ResponseWriter, r *http.Request) {
	board, item, ok := membershipParams(w, r)
	if !ok {
		return
	}
	s.store.Pin(item, board)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnpin(w http.ResponseWriter, r *http.Request) {
	board, item, ok := membershipParams(w, r)
	if !ok {
		return
	}
	s.store.Unpin(item, board)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExclusive(w http.ResponseWriter, r *http.Request) {
	board, item, ok := membershipParams(w, r)
	if !ok {
		return
	}
	s.store.SetBoardExclusive(item, board)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := fmt.Sprintf("clipcat-%s.json", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := s.store.WriteBackup(w); err != nil {
		slog.Error("Failed to stream backup", "error", err)
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ReadBackup(r.Body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
