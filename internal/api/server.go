// Package api provides the HTTP server and handlers.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/panbridge/panbridge/internal/ledger"
	"github.com/panbridge/panbridge/internal/session"
)

// Session is the slice of the session manager the handlers need.
type Session interface {
	Login(ctx context.Context) error
	Reload(ctx context.Context) error
	UpdateCredentials(user, password string) error
	List(ctx context.Context) (session.Listing, error)
	ListPath(ctx context.Context, path string) (session.Listing, error)
	ResolveLink(ctx context.Context, path string) (string, error)
	CreateFolder(ctx context.Context, name string) (int64, error)
	Delete(ctx context.Context, fileID int64) error
	Share(ctx context.Context, fileID int64) (string, error)
	Upload(ctx context.Context, localPath string) (int64, error)
}

// Server is the HTTP server.
type Server struct {
	session       Session
	ledger        *ledger.Ledger
	uploadDir     string
	maxUploadSize int64
	logger        *slog.Logger
}

// NewServer creates a new server. The ledger may be nil, in which case
// operation history is disabled.
func NewServer(sess Session, led *ledger.Ledger, uploadDir string, maxUploadSize int64, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		session:       sess,
		ledger:        led,
		uploadDir:     uploadDir,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("GET /api/list", s.handleList)
	mux.HandleFunc("GET /api/list/{path...}", s.handleListPath)
	mux.HandleFunc("GET /api/parsing/{path...}", s.handleParsing)
	mux.HandleFunc("POST /api/share", s.handleShare)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("POST /api/delete", s.handleDelete)
	mux.HandleFunc("POST /api/create_folder", s.handleCreateFolder)
	mux.HandleFunc("POST /api/reload", s.handleReload)
	mux.HandleFunc("GET /api/history", s.handleHistory)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// record appends to the operation ledger when one is configured.
func (s *Server) record(ctx context.Context, op, target string, ok bool, detail string) {
	if s.ledger == nil {
		return
	}

	s.ledger.Record(ctx, op, target, ok, detail)
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encoding response", slog.String("error", err.Error()))
	}
}
