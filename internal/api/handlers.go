package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/panbridge/panbridge/internal/ledger"
	"github.com/panbridge/panbridge/internal/pan"
	"github.com/panbridge/panbridge/internal/session"
)

// handleLogin optionally updates the stored credentials, then performs a
// fresh login. Any login failure is a 401.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	// A missing or malformed body means "log in with stored credentials".
	_ = json.NewDecoder(r.Body).Decode(&body)

	if body.Username != "" && body.Password != "" {
		if err := s.session.UpdateCredentials(body.Username, body.Password); err != nil {
			s.sendError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if err := s.session.Login(r.Context()); err != nil {
		s.logger.Warn("login failed", slog.String("error", err.Error()))
		s.sendError(w, http.StatusUnauthorized, err.Error())

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	listing, err := s.session.List(r.Context())
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleListPath(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")

	listing, err := s.session.ListPath(r.Context(), path)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "no matching file or folder")
			return
		}

		s.sendError(w, http.StatusInternalServerError, err.Error())

		return
	}

	s.writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleParsing(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")

	link, err := s.session.ResolveLink(r.Context(), path)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, pan.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "no matching file or folder")
			return
		}

		s.sendError(w, http.StatusInternalServerError, err.Error())

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"url": link})
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	fileID, ok := s.fileIDFromBody(w, r)
	if !ok {
		return
	}

	url, err := s.session.Share(r.Context(), fileID)
	if err != nil {
		s.record(r.Context(), "share", strconv.FormatInt(fileID, 10), false, "share failed")
		s.backendError(w, err, "share failed")

		return
	}

	s.record(r.Context(), "share", strconv.FormatInt(fileID, 10), true, "")
	s.writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	fileID, ok := s.fileIDFromBody(w, r)
	if !ok {
		return
	}

	if err := s.session.Delete(r.Context(), fileID); err != nil {
		s.record(r.Context(), "delete", strconv.FormatInt(fileID, 10), false, "delete operation failed")
		s.backendError(w, err, "delete operation failed")

		return
	}

	s.record(r.Context(), "delete", strconv.FormatInt(fileID, 10), true, "")
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FolderName string `json:"folder_name"`
	}

	_ = json.NewDecoder(r.Body).Decode(&body)

	if body.FolderName == "" {
		s.sendError(w, http.StatusBadRequest, "missing folder_name parameter")
		return
	}

	folderID, err := s.session.CreateFolder(r.Context(), body.FolderName)
	if err != nil {
		s.record(r.Context(), "create_folder", body.FolderName, false, "folder creation failed")
		s.backendError(w, err, "folder creation failed")

		return
	}

	s.record(r.Context(), "create_folder", body.FolderName, true, "")
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "success",
		"folder_id": strconv.FormatInt(folderID, 10),
	})
}

// handleUpload stages a multipart upload to a local temp file, hands it to
// the backend, and removes the temp file on every path out.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "no file selected")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		s.sendError(w, http.StatusBadRequest, "no file selected")
		return
	}

	stagePath, err := s.stageUpload(file, header.Filename)
	if err != nil {
		s.logger.Error("staging upload",
			slog.String("name", header.Filename),
			slog.String("error", err.Error()),
		)
		s.sendError(w, http.StatusInternalServerError, err.Error())

		return
	}
	defer os.Remove(stagePath)

	fileID, err := s.session.Upload(r.Context(), stagePath)
	if err != nil {
		s.record(r.Context(), "upload", header.Filename, false, "upload failed")
		s.backendError(w, err, "upload failed")

		return
	}

	s.record(r.Context(), "upload", header.Filename, true, "")
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"file_id": strconv.FormatInt(fileID, 10),
	})
}

// stageUpload copies the request part to a uniquely named file under the
// upload directory. Only the base name of the client-supplied filename is
// kept so a crafted name cannot escape the staging directory.
func (s *Server) stageUpload(src io.Reader, name string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o700); err != nil {
		return "", err
	}

	stagePath := filepath.Join(s.uploadDir, uuid.NewString()+"-"+filepath.Base(name))

	dst, err := os.OpenFile(stagePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(stagePath)

		return "", err
	}

	if err := dst.Close(); err != nil {
		os.Remove(stagePath)
		return "", err
	}

	return stagePath, nil
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Reload(r.Context()); err != nil {
		s.record(r.Context(), "reload", "", false, err.Error())
		s.sendError(w, http.StatusBadRequest, err.Error())

		return
	}

	s.record(r.Context(), "reload", "", true, "")
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "session reloaded",
	})
}

const (
	defaultHistoryLimit = 50

	// maxHistoryLimit caps the ?limit= parameter. The value is
	// caller-controlled and sizes an allocation, so it must not be
	// trusted unbounded.
	maxHistoryLimit = 1000
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.sendError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}

		if n > maxHistoryLimit {
			n = maxHistoryLimit
		}

		limit = n
	}

	entries := []ledger.Entry{}

	if s.ledger != nil {
		var err error

		entries, err = s.ledger.Recent(r.Context(), limit)
		if err != nil {
			s.sendError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	s.writeJSON(w, http.StatusOK, map[string][]ledger.Entry{"operations": entries})
}

// fileIDFromBody reads the file_id parameter from a JSON request body,
// accepting both string and numeric forms.
func (s *Server) fileIDFromBody(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var body struct {
		FileID json.Number `json:"file_id"`
	}

	_ = json.NewDecoder(r.Body).Decode(&body)

	if body.FileID == "" {
		s.sendError(w, http.StatusBadRequest, "missing file_id parameter")
		return 0, false
	}

	fileID, err := strconv.ParseInt(body.FileID.String(), 10, 64)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "missing file_id parameter")
		return 0, false
	}

	return fileID, true
}

// backendError reports a failed backend call as a 400 with a stable
// message. By this point the request itself was well-formed, so every
// failure on a mutation endpoint, refusal or transport, gets the same
// generic response; the detail goes to the log.
func (s *Server) backendError(w http.ResponseWriter, err error, message string) {
	s.logger.Warn("backend operation failed",
		slog.String("message", message),
		slog.String("error", err.Error()),
	)

	s.sendError(w, http.StatusBadRequest, message)
}
