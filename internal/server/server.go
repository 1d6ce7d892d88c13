// Package server exposes the upload-and-query HTTP API over the analysis
// pipeline and session store.
package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/striderun/strider/internal/archive"
	"github.com/striderun/strider/internal/db"
	"github.com/striderun/strider/internal/logging"
	"github.com/striderun/strider/internal/pipeline"
)

// MaxUploadBytes caps the accepted archive size (Strava exports of casual
// runners are tens of megabytes; a decade of activity stays well under this).
const MaxUploadBytes = 512 << 20

// Server handles archive uploads and result queries.
type Server struct {
	analyzer *pipeline.Analyzer
	queries  *db.Queries
}

// New creates a Server over the given analyzer and session store.
func New(analyzer *pipeline.Analyzer, queries *db.Queries) *Server {
	return &Server{analyzer: analyzer, queries: queries}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/upload-data", s.handleUpload)
	r.Get("/results/{id}", s.handleResults)
	r.Get("/healthz", s.handleHealthz)
	return r
}

// uploadResponse is the body returned for a successful upload.
type uploadResponse struct {
	SessionID string          `json:"session_id"`
	Summary   json.RawMessage `json:"summary"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest,
			NewInvalidInputErrorWithDetails("missing multipart field 'file'", err.Error()))
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".zip") {
		writeError(w, http.StatusBadRequest,
			NewInvalidInputErrorWithDetails("only .zip archives are accepted", header.Filename))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest,
			NewInvalidInputErrorWithDetails("reading upload", err.Error()))
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), data)
	if err != nil {
		switch {
		case errors.Is(err, archive.ErrNoActivityFiles):
			writeError(w, http.StatusBadRequest,
				NewInvalidInputError("no activity files found in archive"))
		case errors.Is(err, archive.ErrNoParseablePoints):
			writeError(w, http.StatusBadRequest,
				NewInvalidInputError("activity files found but none were parseable"))
		default:
			logging.Error("archive analysis failed", "error", err.Error())
			writeError(w, http.StatusBadRequest,
				NewInvalidInputErrorWithDetails("could not process archive", err.Error()))
		}
		return
	}

	summary, err := json.Marshal(result)
	if err != nil {
		writeError(w, http.StatusInternalServerError,
			NewInternalErrorWithCause("encoding result", err))
		return
	}

	sessionID := uuid.NewString()
	if err := s.queries.CreateSession(r.Context(), sessionID, string(summary)); err != nil {
		writeError(w, http.StatusInternalServerError,
			NewDatabaseErrorWithContext("session insert", err))
		return
	}

	logging.Info("upload processed",
		"session_id", sessionID,
		"filename", header.Filename,
		"bytes", len(data),
		"runs", len(result.Runs))

	writeJSON(w, http.StatusOK, uploadResponse{
		SessionID: sessionID,
		Summary:   summary,
	})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, err := s.queries.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, NewNotFoundErrorWithID("session", id))
			return
		}
		writeError(w, http.StatusInternalServerError,
			NewDatabaseErrorWithContext("session lookup", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, session.SummaryJSON)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.queries.CountSessions(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable,
			NewDatabaseErrorWithContext("health check", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("writing response", "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, apiErr *APIError) {
	writeJSON(w, status, map[string]*APIError{"error": apiErr})
}
