package server

import (
	"clipcat/internal/clipboard"
	"clipcat/internal/service"
	"clipcat/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	defaultLimit = 50
	maxLimit     = 1000
)

type Server struct {
	clipService *service.ClipboardService
	store       storage.Index
	inbox       *clipboard.Inbox
	hub         *Hub
	pid         *pidFile
	srv         *http.Server
	addr        string
	config      Config
}

type Config struct {
	Port int
	// Dir holds the PID file. Empty disables the single instance guard.
	Dir string
	// Captured payloads must live under TempDir or ContentDir. TempDir
	// defaults to the system temp directory.
	TempDir    string
	ContentDir string
}

// New creates a server over store. Captures posted to the API are pushed to
// inbox, and the websocket hub is registered as a change handler on
// clipService.
func New(clipService *service.ClipboardService, store storage.Index, inbox *clipboard.Inbox, config Config) *Server {
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}
	s := &Server{
		clipService: clipService,
		store:       store,
		inbox:       inbox,
		hub:         newHub(),
		config:      config,
	}
	clipService.RegisterHandler(s.hub)
	go s.hub.run()
	return s
}

// Handler returns the API router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.serveWs)

	r.Group(func(r chi.Router) {
		r.Use(requestLogger)
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/status", s.handleStatus)
		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))

			r.Route("/history", func(r chi.Router) {
				r.Get("/", s.handleHistory)
				r.Delete("/", s.handleClearHistory)
				r.Get("/{index}", s.handleHistoryItem)
				r.Post("/{index}/promote", s.handlePromote)
			})
			r.Route("/items", func(r chi.Router) {
				r.Get("/", s.handleListItems)
				r.Post("/", s.handleCapture)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetItem)
					r.Delete("/", s.handleDeleteItem)
					r.Post("/front", s.handleMoveToFront)
					r.Post("/reorder", s.handleReorder)
				})
			})
			r.Route("/boards", func(r chi.Router) {
				r.Get("/", s.handleListBoards)
				r.Post("/", s.handleCreateBoard)
				r.Route("/{id}", func(r chi.Router) {
					r.Patch("/", s.handleUpdateBoard)
					r.Delete("/", s.handleDeleteBoard)
					r.Get("/items", s.handleBoardItems)
					r.Put("/items/{itemID}", s.handlePin)
					r.Delete("/items/{itemID}", s.handleUnpin)
					r.Post("/items/{itemID}/exclusive", s.handleExclusive)
				})
			})
			r.Get("/backup", s.handleExport)
			r.Post("/backup", s.handleImport)
		})
	})
	return r
}

func (s *Server) Start() error {
	if s.config.Dir != "" {
		pid, err := newPIDFile(s.config.Dir)
		if err != nil {
			return err
		}
		if err := pid.acquire(); err != nil {
			return err
		}
		s.pid = pid
	}

	// Try different addresses if one fails
	addresses := []string{
		fmt.Sprintf("localhost:%d", s.config.Port),
		fmt.Sprintf("127.0.0.1:%d", s.config.Port),
	}

	var lastErr error
	for _, addr := range addresses {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			lastErr = err
			slog.Warn("Failed to listen", "addr", addr, "error", err)
			continue
		}

		s.addr = ln.Addr().String()
		s.srv = &http.Server{
			Handler:           s.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("HTTP server error", "addr", s.addr, "error", err)
			}
		}()
		slog.Info("Server started", "addr", s.addr)
		return nil
	}

	if s.pid != nil {
		s.pid.remove()
	}
	return fmt.Errorf("failed to start server on any address: %w", lastErr)
}

// Addr returns the address the server listens on
func (s *Server) Addr() string {
	return s.addr
}

func (s *Server) Stop() error {
	s.hub.stop()
	if s.pid != nil {
		if err := s.pid.remove(); err != nil {
			slog.Warn("Failed to remove PID file", "error", err)
		}
	}
	if s.srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"time":    time.Now().Format(time.RFC3339),
		"addr":    s.addr,
		"items":   len(s.store.ListItems(s.store.DefaultBoardID())),
		"boards":  len(s.store.ListPinboards()),
		"clients": s.hub.clientCount(),
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

// intQuery parses an integer query parameter, falling back to def
func intQuery(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return n, nil
}

// listQuery collects repeated and comma separated values of a query parameter
func listQuery(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.URL.Query()[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// acceptsRef reports whether a captured payload reference points into the
// capture or content directory
func (s *Server) acceptsRef(ref string) bool {
	for _, dir := range []string{s.config.TempDir, s.config.ContentDir} {
		if dir != "" && under(dir, ref) {
			return true
		}
	}
	return false
}

// under reports whether path lies strictly below dir
func under(dir, path string) bool {
	if !filepath.IsAbs(path) {
		return false
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, filepath.Clean(path))
	if err != nil || rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func indexParam(r *http.Request) (int, error) {
	v := chi.URLParam(r, "index")
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid index: %q", v)
	}
	return n, nil
}
