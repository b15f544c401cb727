package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Taichi-iskw/xscribe/internal/errors"
	"github.com/Taichi-iskw/xscribe/internal/model"
	"github.com/Taichi-iskw/xscribe/internal/service/pipeline"
	"github.com/google/uuid"
)

const maxRequestBytes = 1 << 16

type transcribeRequest struct {
	URL             string                `json:"url"`
	Language        string                `json:"language"`
	TimestampFormat model.TimestampFormat `json:"timestampFormat"`
	RunID           string                `json:"runId"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	var body transcribeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&body); err != nil {
		s.writeError(w, r, errors.Wrap(err, errors.CodeInvalidInput, "request body must be JSON: {\"url\": \"...\"}"))
		return
	}

	runID := body.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	w.Header().Set("X-Run-ID", runID)

	transcript, err := s.runner.Run(r.Context(), pipeline.Request{
		URL:             body.URL,
		Language:        body.Language,
		TimestampFormat: body.TimestampFormat,
		RunID:           runID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, transcript)
}

func (s *Server) handleListTranscripts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, r, errors.New(errors.CodeInvalidArg, fmt.Sprintf("limit must be a positive integer, got %q", raw)))
			return
		}
		limit = n
	}

	transcripts, err := s.repo.ListRecent(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if transcripts == nil {
		transcripts = []*model.Transcript{}
	}
	s.writeJSON(w, r, http.StatusOK, transcripts)
}

func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	transcript, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, transcript)
}

func (s *Server) handleDeleteTranscript(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.repo.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		s.log.WithRequest(r).WithError(err).Debug("websocket upgrade failed")
		return
	}
	s.hub.ServeConn(conn, r.URL.Query().Get("run"))
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		s.writeError(w, r, errors.New(errors.CodeInvalidArg, fmt.Sprintf("invalid transcript id %q", raw)))
		return 0, false
	}
	return id, true
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithRequest(r).WithError(err).Error("failed to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.CodeOf(err)
	if code == "" {
		code = errors.CodeInternal
	}
	status := statusFor(code)

	msg := http.StatusText(status)
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.Message != "" {
		msg = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		s.log.WithRequest(r).WithError(err).Error("request failed")
	}
	s.writeJSON(w, r, status, errorResponse{Error: code, Message: msg})
}

// statusFor maps AppError codes onto HTTP statuses
func statusFor(code string) int {
	switch code {
	case errors.CodeInvalidInput, errors.CodeInvalidArg:
		return http.StatusBadRequest
	case errors.CodeNotFound, errors.CodePostNotFound:
		return http.StatusNotFound
	case errors.CodeNoVideoFound:
		return http.StatusUnprocessableEntity
	case errors.CodeConflict:
		return http.StatusConflict
	case errors.CodeRateLimited:
		return http.StatusTooManyRequests
	case errors.CodeDownloadFailed, errors.CodeExternal:
		return http.StatusBadGateway
	case errors.CodeNoCredentials:
		return http.StatusServiceUnavailable
	case errors.CodeTimeout, errors.CodeTranscriptionTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
